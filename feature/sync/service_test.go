package sync

import (
	"context"
	"errors"
	"testing"

	"visitor-sync/feature/access"
	"visitor-sync/feature/bookings"
	"visitor-sync/feature/cache"
	"visitor-sync/feature/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) FetchAll(ctx context.Context) ([]bookings.Booking, error) {
	args := m.Called(ctx)
	if b, ok := args.Get(0).([]bookings.Booking); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, ids []string) map[string]identity.Patron {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[string]identity.Patron)
}

type mockRegistrar struct {
	mock.Mock
}

func (m *mockRegistrar) CreateVisitor(ctx context.Context, v access.Visitor) (string, error) {
	args := m.Called(ctx, v)
	return args.String(0), args.Error(1)
}

func (m *mockRegistrar) CreatePreregistration(ctx context.Context, p access.Prereg) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) LookupUser(ctx context.Context, primaryID string) (*cache.UserRow, error) {
	args := m.Called(ctx, primaryID)
	if row, ok := args.Get(0).(*cache.UserRow); ok {
		return row, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) LookupAppointment(ctx context.Context, bookingID string) (*cache.AppointmentRow, error) {
	args := m.Called(ctx, bookingID)
	if row, ok := args.Get(0).(*cache.AppointmentRow); ok {
		return row, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) UpsertUsers(ctx context.Context, rows []cache.UserRow) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *mockStore) InsertAppointments(ctx context.Context, rows []cache.AppointmentRow) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func booking(id, pid string, lid int) bookings.Booking {
	return bookings.Booking{
		ID:         id,
		LocationID: lid,
		From:       "2026-08-23T10:45:00-04:00",
		To:         "2026-08-23T12:45:00-04:00",
		PrimaryID:  pid,
		FirstName:  "Pat",
		LastName:   "Doe",
		Email:      "pat@example.edu",
	}
}

func TestRunOnce(t *testing.T) {
	source := new(mockSource)
	resolver := new(mockResolver)
	registrar := new(mockRegistrar)
	store := new(mockStore)

	// Five bookings: b4 was processed in a prior run, G1 is a cached
	// patron, G2 is new and holds two bookings, G3 cannot be resolved.
	all := []bookings.Booking{
		booking("b1", "G1", 7),
		booking("b2", "G2", 7),
		booking("b3", "G2", 9),
		booking("b4", "G1", 7),
		booking("b5", "G3", 9),
	}
	source.On("FetchAll", mock.Anything).Return(all, nil)

	store.On("LookupAppointment", mock.Anything, "b4").
		Return(&cache.AppointmentRow{BookingID: "b4", PreregID: "pr-old"}, nil)
	for _, id := range []string{"b1", "b2", "b3", "b5"} {
		store.On("LookupAppointment", mock.Anything, id).Return(nil, nil)
	}

	store.On("LookupUser", mock.Anything, "G1").
		Return(&cache.UserRow{PrimaryID: "G1", Barcode: "111", VisitorID: "v-1"}, nil)
	store.On("LookupUser", mock.Anything, "G2").Return(nil, nil)
	store.On("LookupUser", mock.Anything, "G3").Return(nil, nil)

	resolver.On("Resolve", mock.Anything, []string{"G2", "G3"}).
		Return(map[string]identity.Patron{
			"G2": {PrimaryID: "G2", Barcode: "222", UserGroup: "Staff"},
		})

	registrar.On("CreateVisitor", mock.Anything, access.Visitor{
		PrimaryID: "G2",
		Barcode:   "222",
		UserGroup: "Staff",
		FirstName: "Pat",
		LastName:  "Doe",
		Email:     "pat@example.edu",
	}).Return("v-2", nil)

	store.On("UpsertUsers", mock.Anything, []cache.UserRow{
		{PrimaryID: "G2", Barcode: "222", VisitorID: "v-2"},
	}).Return(nil)

	registrar.On("CreatePreregistration", mock.Anything, mock.MatchedBy(func(p access.Prereg) bool {
		return p.VisitorID == "v-1" && p.LocationID == 7
	})).Return("pr-1", nil).Once()
	registrar.On("CreatePreregistration", mock.Anything, mock.MatchedBy(func(p access.Prereg) bool {
		return p.VisitorID == "v-2" && p.LocationID == 7
	})).Return("pr-2", nil).Once()
	registrar.On("CreatePreregistration", mock.Anything, mock.MatchedBy(func(p access.Prereg) bool {
		return p.VisitorID == "v-2" && p.LocationID == 9
	})).Return("pr-3", nil).Once()

	store.On("InsertAppointments", mock.Anything, []cache.AppointmentRow{
		{BookingID: "b1", PreregID: "pr-1"},
		{BookingID: "b2", PreregID: "pr-2"},
		{BookingID: "b3", PreregID: "pr-3"},
	}).Return(nil)

	svc := NewService(source, resolver, registrar, store, nil, zap.NewNop())
	require.Nil(t, svc.LastReport())

	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 5, report.Fetched)
	assert.Equal(t, 1, report.AlreadyProcessed)
	assert.Equal(t, 4, report.NewBookings)
	assert.Equal(t, 1, report.PatronsKnown)
	assert.Equal(t, 1, report.PatronsResolved)
	assert.Equal(t, 1, report.PatronsUnresolved)
	assert.Equal(t, 1, report.VisitorsRegistered)
	assert.Equal(t, 0, report.RegistrationsFailed)
	assert.Equal(t, 3, report.PreregsCreated)
	assert.Equal(t, 1, report.BookingsSkipped)
	assert.Empty(t, report.Errors)

	assert.Same(t, report, svc.LastReport())

	source.AssertExpectations(t)
	resolver.AssertExpectations(t)
	registrar.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestRunOnce_FetchFailureAbortsRun(t *testing.T) {
	source := new(mockSource)
	source.On("FetchAll", mock.Anything).Return(nil, errors.New("all locations failed"))

	svc := NewService(source, new(mockResolver), new(mockRegistrar), new(mockStore), nil, zap.NewNop())

	report, err := svc.RunOnce(context.Background())
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Len(t, report.Errors, 1)
	// Even an aborted run is recorded.
	assert.Same(t, report, svc.LastReport())
}

func TestRunOnce_NothingNew(t *testing.T) {
	source := new(mockSource)
	store := new(mockStore)

	source.On("FetchAll", mock.Anything).Return([]bookings.Booking{booking("b1", "G1", 7)}, nil)
	store.On("LookupAppointment", mock.Anything, "b1").
		Return(&cache.AppointmentRow{BookingID: "b1", PreregID: "pr-1"}, nil)

	resolver := new(mockResolver)
	registrar := new(mockRegistrar)
	svc := NewService(source, resolver, registrar, store, nil, zap.NewNop())

	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.AlreadyProcessed)
	assert.Equal(t, 0, report.NewBookings)

	// The pipeline stops at the cache gate.
	resolver.AssertNotCalled(t, "Resolve")
	registrar.AssertNotCalled(t, "CreateVisitor")
	store.AssertNotCalled(t, "InsertAppointments")
}

func TestRunOnce_VisitorRegistrationFailureSkipsBooking(t *testing.T) {
	source := new(mockSource)
	resolver := new(mockResolver)
	registrar := new(mockRegistrar)
	store := new(mockStore)

	source.On("FetchAll", mock.Anything).Return([]bookings.Booking{booking("b1", "G1", 7)}, nil)
	store.On("LookupAppointment", mock.Anything, "b1").Return(nil, nil)
	store.On("LookupUser", mock.Anything, "G1").Return(nil, nil)
	resolver.On("Resolve", mock.Anything, []string{"G1"}).
		Return(map[string]identity.Patron{"G1": {PrimaryID: "G1", Barcode: "111"}})
	registrar.On("CreateVisitor", mock.Anything, mock.Anything).
		Return("", errors.New("access: creating visitor: boom"))
	store.On("UpsertUsers", mock.Anything, []cache.UserRow(nil)).Return(nil)
	store.On("InsertAppointments", mock.Anything, []cache.AppointmentRow(nil)).Return(nil)

	svc := NewService(source, resolver, registrar, store, nil, zap.NewNop())

	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.VisitorsRegistered)
	assert.Equal(t, 1, report.RegistrationsFailed)
	// Every resolved patron is accounted for, registered or failed.
	assert.Equal(t, report.PatronsResolved, report.VisitorsRegistered+report.RegistrationsFailed)
	assert.Equal(t, 1, report.BookingsSkipped)
	assert.Len(t, report.Errors, 1)
	registrar.AssertNotCalled(t, "CreatePreregistration")
}

func TestRunOnce_UpsertFailureDoesNotFailRun(t *testing.T) {
	source := new(mockSource)
	resolver := new(mockResolver)
	registrar := new(mockRegistrar)
	store := new(mockStore)

	source.On("FetchAll", mock.Anything).Return([]bookings.Booking{booking("b1", "G1", 7)}, nil)
	store.On("LookupAppointment", mock.Anything, "b1").Return(nil, nil)
	store.On("LookupUser", mock.Anything, "G1").Return(nil, nil)
	resolver.On("Resolve", mock.Anything, []string{"G1"}).
		Return(map[string]identity.Patron{"G1": {PrimaryID: "G1", Barcode: "111"}})
	registrar.On("CreateVisitor", mock.Anything, mock.Anything).Return("v-1", nil)
	store.On("UpsertUsers", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	registrar.On("CreatePreregistration", mock.Anything, mock.Anything).Return("pr-1", nil)
	store.On("InsertAppointments", mock.Anything, []cache.AppointmentRow{
		{BookingID: "b1", PreregID: "pr-1"},
	}).Return(nil)

	svc := NewService(source, resolver, registrar, store, nil, zap.NewNop())

	// The registrations stand even when caching them failed.
	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.PreregsCreated)
	assert.Len(t, report.Errors, 1)
}

func TestRunOnce_AppointmentWriteFailureFailsRun(t *testing.T) {
	source := new(mockSource)
	registrar := new(mockRegistrar)
	store := new(mockStore)

	source.On("FetchAll", mock.Anything).Return([]bookings.Booking{booking("b1", "G1", 7)}, nil)
	store.On("LookupAppointment", mock.Anything, "b1").Return(nil, nil)
	store.On("LookupUser", mock.Anything, "G1").
		Return(&cache.UserRow{PrimaryID: "G1", Barcode: "111", VisitorID: "v-1"}, nil)
	registrar.On("CreatePreregistration", mock.Anything, mock.Anything).Return("pr-1", nil)
	store.On("InsertAppointments", mock.Anything, mock.Anything).
		Return(cache.ErrDuplicateAppointment)

	svc := NewService(source, new(mockResolver), registrar, store, nil, zap.NewNop())

	report, err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, cache.ErrDuplicateAppointment)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.PreregsCreated)
}

func TestRunOnce_MissingPrimaryIDSkips(t *testing.T) {
	source := new(mockSource)
	store := new(mockStore)

	source.On("FetchAll", mock.Anything).Return([]bookings.Booking{booking("b1", "", 7)}, nil)
	store.On("LookupAppointment", mock.Anything, "b1").Return(nil, nil)
	store.On("InsertAppointments", mock.Anything, []cache.AppointmentRow(nil)).Return(nil)

	resolver := new(mockResolver)
	svc := NewService(source, resolver, new(mockRegistrar), store, nil, zap.NewNop())

	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.BookingsSkipped)
	resolver.AssertNotCalled(t, "Resolve")
}
