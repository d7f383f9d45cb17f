package cache

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateAppointment signals a strict-insert violation on the
// appointments table: the booking was already recorded in a prior run.
var ErrDuplicateAppointment = errors.New("cache: appointment already recorded")

// Store is the durable idempotency cache. It owns the users and
// appointments tables; all other components read and write exclusively
// through it.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open database connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the cache tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&UserRow{}, &AppointmentRow{}); err != nil {
		return fmt.Errorf("cache: migrating tables: %w", err)
	}
	return nil
}

// LookupUser returns the cached row for a primary id, or nil when the
// patron has not been registered before.
func (s *Store) LookupUser(ctx context.Context, primaryID string) (*UserRow, error) {
	var row UserRow
	err := s.db.WithContext(ctx).First(&row, "primary_id = ?", primaryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: looking up user %s: %w", primaryID, err)
	}
	return &row, nil
}

// LookupAppointment returns the cached row for a booking id, or nil when no
// pre-registration has been created for it.
func (s *Store) LookupAppointment(ctx context.Context, bookingID string) (*AppointmentRow, error) {
	var row AppointmentRow
	err := s.db.WithContext(ctx).First(&row, "booking_id = ?", bookingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: looking up appointment %s: %w", bookingID, err)
	}
	return &row, nil
}

// UpsertUsers inserts or replaces user rows by primary id.
func (s *Store) UpsertUsers(ctx context.Context, rows []UserRow) error {
	if len(rows) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("cache: upserting %d users: %w", len(rows), err)
	}
	return nil
}

// InsertAppointments inserts appointment rows strictly; a duplicate booking
// id is reported as ErrDuplicateAppointment.
func (s *Store) InsertAppointments(ctx context.Context, rows []AppointmentRow) error {
	if len(rows) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Create(&rows).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicateAppointment, err)
	}
	if err != nil {
		return fmt.Errorf("cache: inserting %d appointments: %w", len(rows), err)
	}
	return nil
}

// ClearAppointments removes every appointment row. Administrative reset
// only; the steady-state pipeline never calls this.
func (s *Store) ClearAppointments(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("DELETE FROM appointments").Error; err != nil {
		return fmt.Errorf("cache: clearing appointments: %w", err)
	}
	return nil
}
