package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"visitor-sync/core/logger"
	"visitor-sync/feature/access"
	"visitor-sync/feature/bookings"
	"visitor-sync/feature/cache"
	"visitor-sync/feature/identity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingSource produces the current set of active, de-duplicated bookings.
type BookingSource interface {
	FetchAll(ctx context.Context) ([]bookings.Booking, error)
}

// Resolver maps primary ids to patron records, tolerating partial failure.
type Resolver interface {
	Resolve(ctx context.Context, ids []string) map[string]identity.Patron
}

// Registrar performs idempotent visitor and pre-registration creation.
type Registrar interface {
	CreateVisitor(ctx context.Context, v access.Visitor) (string, error)
	CreatePreregistration(ctx context.Context, p access.Prereg) (string, error)
}

// Store is the idempotency cache surface the pipeline needs.
type Store interface {
	LookupUser(ctx context.Context, primaryID string) (*cache.UserRow, error)
	LookupAppointment(ctx context.Context, bookingID string) (*cache.AppointmentRow, error)
	UpsertUsers(ctx context.Context, rows []cache.UserRow) error
	InsertAppointments(ctx context.Context, rows []cache.AppointmentRow) error
}

// Service orchestrates one end-to-end reconciliation run.
type Service struct {
	source    BookingSource
	resolver  Resolver
	registrar Registrar
	store     Store
	archiver  *Archiver
	log       *zap.Logger

	runMu stdsync.Mutex

	mu   stdsync.RWMutex
	last *Report
}

// NewService wires the pipeline's collaborators together. The archiver is
// optional; pass nil to disable report archiving.
func NewService(source BookingSource, resolver Resolver, registrar Registrar, store Store, archiver *Archiver, log *zap.Logger) *Service {
	return &Service{
		source:    source,
		resolver:  resolver,
		registrar: registrar,
		store:     store,
		archiver:  archiver,
		log:       log,
	}
}

// RunOnce executes one reconciliation run: fetch active bookings, drop the
// ones already processed, resolve and register unknown patrons, create
// pre-registrations, and persist the results. Per-patron and per-booking
// failures are isolated; only a total fetch failure or an appointment-cache
// write failure fails the run. Runs are serialized: a manual trigger never
// overlaps a scheduled run.
func (s *Service) RunOnce(ctx context.Context) (*Report, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	runID := uuid.NewString()
	log := logger.WithRunID(s.log, runID)
	report := &Report{RunID: runID, StartedAt: time.Now().UTC()}

	log.Info("Run started")
	defer func() {
		report.FinishedAt = time.Now().UTC()
		s.setLast(report)
		s.archive(ctx, log, report)
		log.Info("Run finished",
			zap.Int("new_bookings", report.NewBookings),
			zap.Int("visitors_registered", report.VisitorsRegistered),
			zap.Int("preregs_created", report.PreregsCreated),
			zap.Int("skipped", report.BookingsSkipped),
			zap.Int("errors", len(report.Errors)),
		)
	}()

	all, err := s.source.FetchAll(ctx)
	if err != nil {
		report.addError(err)
		return report, fmt.Errorf("sync: fetching bookings: %w", err)
	}
	report.Fetched = len(all)

	fresh := s.dropProcessed(ctx, log, report, all)
	report.NewBookings = len(fresh)
	if len(fresh) == 0 {
		return report, nil
	}

	visitors := s.resolvePatrons(ctx, log, report, fresh)

	var appts []cache.AppointmentRow
	for _, b := range fresh {
		visitorID, ok := visitors[b.PrimaryID]
		if !ok {
			// Patron unresolved or unregistered: skip the booking, do not
			// fail it. The next run picks it up again via the cache gate.
			report.BookingsSkipped++
			continue
		}
		preregID, err := s.registrar.CreatePreregistration(ctx, access.Prereg{
			VisitorID:  visitorID,
			Start:      b.From,
			End:        b.To,
			LocationID: b.LocationID,
		})
		if err != nil {
			log.Error("Failed to create pre-registration",
				zap.String("booking_id", b.ID), zap.Error(err))
			report.addError(err)
			report.BookingsSkipped++
			continue
		}
		appts = append(appts, cache.AppointmentRow{BookingID: b.ID, PreregID: preregID})
		report.PreregsCreated++
	}

	if err := s.store.InsertAppointments(ctx, appts); err != nil {
		// Not retried within the run: affected bookings resurface on the
		// next scheduled run and re-registration is covered by the
		// duplicate-visitor fallback.
		log.Error("Failed to persist appointments", zap.Error(err))
		report.addError(err)
		return report, fmt.Errorf("sync: persisting appointments: %w", err)
	}

	return report, nil
}

// dropProcessed removes bookings whose id already has an appointment-cache
// entry. A lookup failure isolates to its booking.
func (s *Service) dropProcessed(ctx context.Context, log *zap.Logger, report *Report, all []bookings.Booking) []bookings.Booking {
	fresh := make([]bookings.Booking, 0, len(all))
	for _, b := range all {
		row, err := s.store.LookupAppointment(ctx, b.ID)
		if err != nil {
			log.Error("Appointment lookup failed", zap.String("booking_id", b.ID), zap.Error(err))
			report.addError(err)
			continue
		}
		if row != nil {
			report.AlreadyProcessed++
			continue
		}
		fresh = append(fresh, b)
	}
	return fresh
}

// resolvePatrons returns a mapping from primary id to visitor id for every
// patron of the given bookings that is either cached or could be resolved
// and registered this run. Each distinct patron is handled at most once per
// run even when they hold multiple bookings.
func (s *Service) resolvePatrons(ctx context.Context, log *zap.Logger, report *Report, fresh []bookings.Booking) map[string]string {
	visitors := make(map[string]string)
	pendingInfo := make(map[string]bookings.Booking)
	var pendingIDs []string

	for _, b := range fresh {
		pid := b.PrimaryID
		if pid == "" {
			log.Warn("Booking has no primary id", zap.String("booking_id", b.ID))
			continue
		}
		if _, done := visitors[pid]; done {
			continue
		}
		if _, queued := pendingInfo[pid]; queued {
			continue
		}
		row, err := s.store.LookupUser(ctx, pid)
		if err != nil {
			log.Error("User lookup failed", zap.String("primary_id", pid), zap.Error(err))
			report.addError(err)
			continue
		}
		if row != nil && row.VisitorID != "" {
			visitors[pid] = row.VisitorID
			report.PatronsKnown++
			continue
		}
		// Cache miss, or a cached row missing its visitor id: re-resolve.
		pendingInfo[pid] = b
		pendingIDs = append(pendingIDs, pid)
	}

	if len(pendingIDs) == 0 {
		return visitors
	}

	resolved := s.resolver.Resolve(ctx, pendingIDs)
	report.PatronsResolved = len(resolved)
	report.PatronsUnresolved = len(pendingIDs) - len(resolved)

	var newRows []cache.UserRow
	for _, pid := range pendingIDs {
		patron, ok := resolved[pid]
		if !ok {
			continue
		}
		b := pendingInfo[pid]
		visitorID, err := s.registrar.CreateVisitor(ctx, access.Visitor{
			PrimaryID: pid,
			Barcode:   patron.Barcode,
			UserGroup: patron.UserGroup,
			FirstName: b.FirstName,
			LastName:  b.LastName,
			Email:     b.Email,
		})
		if err != nil {
			log.Error("Failed to register visitor",
				zap.String("primary_id", pid), zap.Error(err))
			report.RegistrationsFailed++
			report.addError(err)
			continue
		}
		visitors[pid] = visitorID
		report.VisitorsRegistered++
		newRows = append(newRows, cache.UserRow{PrimaryID: pid, Barcode: patron.Barcode, VisitorID: visitorID})
	}

	if err := s.store.UpsertUsers(ctx, newRows); err != nil {
		// The remote registrations stand; cache and remote state may
		// transiently diverge and the duplicate-visitor fallback absorbs
		// the difference on the next run.
		log.Error("Failed to persist registered users", zap.Error(err))
		report.addError(err)
	}

	return visitors
}

// LastReport returns the most recent run report, or nil before the first run.
func (s *Service) LastReport() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Service) setLast(r *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = r
}

func (s *Service) archive(ctx context.Context, log *zap.Logger, r *Report) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.Archive(ctx, r); err != nil {
		log.Warn("Failed to archive run report", zap.Error(err))
	}
}
