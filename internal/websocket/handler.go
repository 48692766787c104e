package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/gogo/internal/auth"
)

// HandleWebSocket upgrades an authenticated admin request and streams hub
// messages to it. originPatterns lists extra allowed Origin hosts; the
// request's own host is always allowed.
func HandleWebSocket(hub *Hub, logger *slog.Logger, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, auth.Email(r.Context()))
		client.Run(r.Context())
	}
}
