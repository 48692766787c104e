package handler

import "net/http"

// DefaultB2BPortalURL is the fleet customer portal.
const DefaultB2BPortalURL = "https://gogofuelapp.on-demand-app.com/business/login"

// B2BLogin redirects fleet customers to the external portal.
func B2BLogin(portalURL string) http.HandlerFunc {
	if portalURL == "" {
		portalURL = DefaultB2BPortalURL
	}
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, portalURL, http.StatusTemporaryRedirect)
	}
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
