package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/gogo/internal/database"
	"github.com/dukerupert/gogo/internal/model"
	"github.com/google/uuid"
)

// LeadStore persists quote requests. A deployment uses exactly one
// implementation, chosen at startup by whether a database is configured.
type LeadStore interface {
	// Insert assigns ID, CreatedAt and a default status when unset.
	Insert(ctx context.Context, lead *model.Lead) error
	// List returns up to limit leads, newest first.
	List(ctx context.Context, limit int) ([]model.Lead, error)
	// Get returns nil, nil when the lead does not exist.
	Get(ctx context.Context, id string) (*model.Lead, error)
	// Update rewrites the editable fields of an existing lead.
	Update(ctx context.Context, lead *model.Lead) error
	UpdateEmailStatus(ctx context.Context, id string, status model.LeadStatus, emailErr string) error
}

const defaultLeadListLimit = 100

func prepareLead(lead *model.Lead) {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}
	if lead.EmailStatus == "" {
		lead.EmailStatus = model.LeadPending
	}
}

// SQLLeadStore keeps leads in the relational leads table.
type SQLLeadStore struct {
	db *database.DB
}

func NewSQLLeadStore(db *database.DB) *SQLLeadStore {
	return &SQLLeadStore{db: db}
}

func scanLead(scanner interface{ Scan(...any) error }) (*model.Lead, error) {
	var l model.Lead
	var status string
	var phone, emailErr sql.NullString
	err := scanner.Scan(&l.ID, &l.CompanyName, &l.FleetSize, &l.FuelType, &l.Email, &phone, &status, &emailErr, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	l.EmailStatus = model.LeadStatus(status)
	if phone.Valid {
		l.Phone = &phone.String
	}
	if emailErr.Valid {
		l.EmailError = &emailErr.String
	}
	return &l, nil
}

const leadCols = `id, company_name, fleet_size, fuel_type, email, phone, email_status, email_error, created_at`

func (s *SQLLeadStore) Insert(ctx context.Context, lead *model.Lead) error {
	prepareLead(lead)
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO leads (`+leadCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		lead.ID, lead.CompanyName, lead.FleetSize, lead.FuelType, lead.Email,
		nullString(lead.Phone), string(lead.EmailStatus), nullString(lead.EmailError), lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (s *SQLLeadStore) List(ctx context.Context, limit int) ([]model.Lead, error) {
	if limit <= 0 {
		limit = defaultLeadListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind(`SELECT `+leadCols+` FROM leads ORDER BY created_at DESC, id LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}

func (s *SQLLeadStore) Get(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+leadCols+` FROM leads WHERE id = ?`), id)
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

func (s *SQLLeadStore) Update(ctx context.Context, lead *model.Lead) error {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE leads SET company_name = ?, fleet_size = ?, fuel_type = ?, email = ?, phone = ?, email_status = ? WHERE id = ?`),
		lead.CompanyName, lead.FleetSize, lead.FuelType, lead.Email, nullString(lead.Phone), string(lead.EmailStatus), lead.ID,
	)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	return requireAffected(result)
}

func (s *SQLLeadStore) UpdateEmailStatus(ctx context.Context, id string, status model.LeadStatus, emailErr string) error {
	var errDetail sql.NullString
	if emailErr != "" {
		errDetail = sql.NullString{String: emailErr, Valid: true}
	}
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE leads SET email_status = ?, email_error = ? WHERE id = ?`),
		string(status), errDetail, id,
	)
	if err != nil {
		return fmt.Errorf("update lead email status: %w", err)
	}
	return requireAffected(result)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
