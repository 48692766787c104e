package model

import "time"

// LeadStatus tracks where a lead is in the follow-up process.
type LeadStatus string

const (
	LeadPending   LeadStatus = "pending"
	LeadSent      LeadStatus = "sent"
	LeadContacted LeadStatus = "contacted"
	LeadClosed    LeadStatus = "closed"
	LeadError     LeadStatus = "error"
)

// Valid reports whether s is one of the known statuses.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadPending, LeadSent, LeadContacted, LeadClosed, LeadError:
		return true
	}
	return false
}

// Lead is a quote request. The JSON shape matches the leads table so the
// file-backed store and the relational store hold identical records.
type Lead struct {
	ID          string     `json:"id"`
	CompanyName string     `json:"company_name"`
	FleetSize   string     `json:"fleet_size"`
	FuelType    string     `json:"fuel_type"`
	Email       string     `json:"email"`
	Phone       *string    `json:"phone,omitempty"`
	EmailStatus LeadStatus `json:"email_status"`
	EmailError  *string    `json:"email_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
