package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dukerupert/gogo/internal/model"
)

// FileLeadStore keeps leads in a JSON array on local disk, newest first.
// It is used when no relational database is configured.
type FileLeadStore struct {
	mu   sync.Mutex
	path string
}

func NewFileLeadStore(path string) *FileLeadStore {
	return &FileLeadStore{path: path}
}

// Path returns the backing file location.
func (s *FileLeadStore) Path() string {
	return s.path
}

func (s *FileLeadStore) Insert(ctx context.Context, lead *model.Lead) error {
	prepareLead(lead)

	s.mu.Lock()
	defer s.mu.Unlock()

	leads, err := s.read()
	if err != nil {
		return err
	}
	leads = append([]model.Lead{*lead}, leads...)
	return s.write(leads)
}

func (s *FileLeadStore) List(ctx context.Context, limit int) ([]model.Lead, error) {
	if limit <= 0 {
		limit = defaultLeadListLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	leads, err := s.read()
	if err != nil {
		return nil, err
	}
	if len(leads) > limit {
		leads = leads[:limit]
	}
	return leads, nil
}

func (s *FileLeadStore) Get(ctx context.Context, id string) (*model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	leads, err := s.read()
	if err != nil {
		return nil, err
	}
	for i := range leads {
		if leads[i].ID == id {
			l := leads[i]
			return &l, nil
		}
	}
	return nil, nil
}

func (s *FileLeadStore) Update(ctx context.Context, lead *model.Lead) error {
	return s.mutate(lead.ID, func(l *model.Lead) {
		l.CompanyName = lead.CompanyName
		l.FleetSize = lead.FleetSize
		l.FuelType = lead.FuelType
		l.Email = lead.Email
		l.Phone = lead.Phone
		l.EmailStatus = lead.EmailStatus
	})
}

func (s *FileLeadStore) UpdateEmailStatus(ctx context.Context, id string, status model.LeadStatus, emailErr string) error {
	return s.mutate(id, func(l *model.Lead) {
		l.EmailStatus = status
		if emailErr != "" {
			l.EmailError = &emailErr
		} else {
			l.EmailError = nil
		}
	})
}

func (s *FileLeadStore) mutate(id string, fn func(*model.Lead)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	leads, err := s.read()
	if err != nil {
		return err
	}
	for i := range leads {
		if leads[i].ID == id {
			fn(&leads[i])
			return s.write(leads)
		}
	}
	return ErrNotFound
}

// read loads the file. A missing file is an empty list; a corrupt one is an
// error so that the next write cannot silently discard existing leads.
func (s *FileLeadStore) read() ([]model.Lead, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Lead{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read leads file: %w", err)
	}
	if len(data) == 0 {
		return []model.Lead{}, nil
	}
	var leads []model.Lead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, fmt.Errorf("parse leads file: %w", err)
	}
	return leads, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (s *FileLeadStore) write(leads []model.Lead) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create leads dir: %w", err)
	}

	data, err := json.MarshalIndent(leads, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal leads: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".leads-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	// CreateTemp uses 0600; the leads file is shared with other readers.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace leads file: %w", err)
	}
	return nil
}
