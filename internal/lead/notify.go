package lead

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/dukerupert/gogo/internal/email"
	"github.com/dukerupert/gogo/internal/model"
)

// notification is the data rendered into the sales team email.
type notification struct {
	CompanyName      string
	Industry         string
	FleetSize        string
	Email            string
	Phone            string
	ProductNeeds     []string
	ServiceInterests []string
}

func notificationFromQuote(q *QuoteRequest) notification {
	return notification{
		CompanyName:      q.CompanyName,
		Industry:         q.Industry,
		FleetSize:        q.FleetSize,
		Email:            q.Email,
		Phone:            q.Phone,
		ProductNeeds:     q.ProductNeeds,
		ServiceInterests: q.ServiceInterests,
	}
}

// notificationFromLead rebuilds a notification from a stored record, which
// keeps products only as the fuel summary.
func notificationFromLead(l *model.Lead) notification {
	n := notification{
		CompanyName: l.CompanyName,
		FleetSize:   l.FleetSize,
		Email:       l.Email,
	}
	if l.Phone != nil {
		n.Phone = *l.Phone
	}
	for _, p := range strings.Split(l.FuelType, ",") {
		if p = strings.TrimSpace(p); p != "" {
			n.ProductNeeds = append(n.ProductNeeds, p)
		}
	}
	return n
}

var notificationTmpl = template.Must(template.New("lead").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; border: 1px solid #e2e8f0; border-radius: 8px;">
  <div style="background-color: #000000; padding: 20px; text-align: center;">
    <h1 style="color: #ffffff; margin: 0; font-size: 24px;">GoGo Imperial Energy</h1>
  </div>
  <div style="padding: 30px; background-color: #ffffff;">
    <h2 style="color: #1a202c; margin-top: 0; border-bottom: 2px solid #fbbf24; padding-bottom: 10px;">New B2B Quote Request</h2>
    <h3 style="color: #4a5568; font-size: 16px; text-transform: uppercase;">Client Details</h3>
    <table style="width: 100%; border-collapse: collapse;">
      <tr><td style="padding: 8px 0; color: #718096; width: 140px;">Company:</td><td style="padding: 8px 0; font-weight: bold;">{{.CompanyName}}</td></tr>
      {{- if .Industry}}
      <tr><td style="padding: 8px 0; color: #718096;">Industry:</td><td style="padding: 8px 0; font-weight: bold;">{{.Industry}}</td></tr>
      {{- end}}
      <tr><td style="padding: 8px 0; color: #718096;">Fleet Size:</td><td style="padding: 8px 0; font-weight: bold;">{{.FleetSize}}</td></tr>
      <tr><td style="padding: 8px 0; color: #718096;">Email:</td><td style="padding: 8px 0; font-weight: bold;"><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
      <tr><td style="padding: 8px 0; color: #718096;">Phone:</td><td style="padding: 8px 0; font-weight: bold;">{{.Phone}}</td></tr>
    </table>
    <h3 style="color: #4a5568; font-size: 16px; text-transform: uppercase; margin-top: 30px;">Requirements</h3>
    <strong>Product Needs:</strong>
    <div style="background-color: #f7fafc; padding: 15px; border-radius: 6px;">
      {{- range .ProductNeeds}}
      <span style="display: inline-block; background: #e2e8f0; padding: 4px 8px; border-radius: 4px; margin: 4px 4px 4px 0;">{{.}}</span>
      {{- end}}
    </div>
    <strong>Service Interests:</strong>
    <div style="background-color: #f7fafc; padding: 15px; border-radius: 6px;">
      {{- range .ServiceInterests}}
      <span style="display: inline-block; background: #e2e8f0; padding: 4px 8px; border-radius: 4px; margin: 4px 4px 4px 0;">{{.}}</span>
      {{- else}}
      <span style="color: #a0aec0;">None selected</span>
      {{- end}}
    </div>
  </div>
  <div style="background-color: #f7fafc; padding: 20px; text-align: center; color: #a0aec0; font-size: 12px;">
    <p style="margin: 0;">Sent via GoGo Web Lead Capture</p>
  </div>
</div>
`))

func composeNotification(n notification, to string) (email.Message, error) {
	var buf bytes.Buffer
	if err := notificationTmpl.Execute(&buf, n); err != nil {
		return email.Message{}, fmt.Errorf("render notification: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "New B2B Quote Request\n\n")
	fmt.Fprintf(&text, "Company: %s\n", n.CompanyName)
	if n.Industry != "" {
		fmt.Fprintf(&text, "Industry: %s\n", n.Industry)
	}
	fmt.Fprintf(&text, "Fleet Size: %s\nEmail: %s\nPhone: %s\n", n.FleetSize, n.Email, n.Phone)
	fmt.Fprintf(&text, "Product Needs: %s\n", strings.Join(n.ProductNeeds, ", "))
	if len(n.ServiceInterests) > 0 {
		fmt.Fprintf(&text, "Service Interests: %s\n", strings.Join(n.ServiceInterests, ", "))
	} else {
		fmt.Fprintf(&text, "Service Interests: None selected\n")
	}

	return email.Message{
		To:      to,
		Subject: "New B2B Quote Request: " + n.CompanyName,
		HTML:    buf.String(),
		Text:    text.String(),
	}, nil
}
