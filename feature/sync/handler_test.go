package sync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"visitor-sync/feature/access"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRunner struct {
	report *Report
	err    error
	last   *Report
}

func (s *stubRunner) RunOnce(ctx context.Context) (*Report, error) {
	return s.report, s.err
}

func (s *stubRunner) LastReport() *Report {
	return s.last
}

type stubCache struct {
	err     error
	cleared bool
}

func (s *stubCache) ClearAppointments(ctx context.Context) error {
	if s.err == nil {
		s.cleared = true
	}
	return s.err
}

type stubDestinations struct {
	dests []access.Destination
	err   error
}

func (s *stubDestinations) Destinations(ctx context.Context) ([]access.Destination, error) {
	return s.dests, s.err
}

func newTestApp(runner Runner, cache CacheAdmin, dests DestinationLister) *fiber.App {
	app := fiber.New()
	NewHandler(runner, cache, dests, zap.NewNop()).RegisterRoutes(app)
	return app
}

func TestHandleHealth(t *testing.T) {
	app := newTestApp(&stubRunner{}, &stubCache{}, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestHandleReport(t *testing.T) {
	t.Run("NoRunYet", func(t *testing.T) {
		app := newTestApp(&stubRunner{}, &stubCache{}, nil)

		resp, err := app.Test(httptest.NewRequest("GET", "/sync/report", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("LastRun", func(t *testing.T) {
		app := newTestApp(&stubRunner{last: &Report{RunID: "run-1", PreregsCreated: 3}}, &stubCache{}, nil)

		resp, err := app.Test(httptest.NewRequest("GET", "/sync/report", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var got Report
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "run-1", got.RunID)
		assert.Equal(t, 3, got.PreregsCreated)
	})
}

func TestHandleRun(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		app := newTestApp(&stubRunner{report: &Report{RunID: "run-2"}}, &stubCache{}, nil)

		resp, err := app.Test(httptest.NewRequest("POST", "/sync/run", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var got Report
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "run-2", got.RunID)
	})

	t.Run("Failure", func(t *testing.T) {
		runner := &stubRunner{report: &Report{RunID: "run-3"}, err: errors.New("fetching bookings: boom")}
		app := newTestApp(runner, &stubCache{}, nil)

		resp, err := app.Test(httptest.NewRequest("POST", "/sync/run", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

		var got struct {
			Error  string  `json:"error"`
			Report *Report `json:"report"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Contains(t, got.Error, "boom")
		require.NotNil(t, got.Report)
		assert.Equal(t, "run-3", got.Report.RunID)
	})
}

func TestHandleClearAppointments(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		cache := &stubCache{}
		app := newTestApp(&stubRunner{}, cache, nil)

		resp, err := app.Test(httptest.NewRequest("DELETE", "/cache/appointments", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.True(t, cache.cleared)
	})

	t.Run("Failure", func(t *testing.T) {
		app := newTestApp(&stubRunner{}, &stubCache{err: errors.New("locked")}, nil)

		resp, err := app.Test(httptest.NewRequest("DELETE", "/cache/appointments", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	})
}

func TestHandleDestinations(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		dests := &stubDestinations{dests: []access.Destination{{ID: "10", Name: "Reading Room"}}}
		app := newTestApp(&stubRunner{}, &stubCache{}, dests)

		resp, err := app.Test(httptest.NewRequest("GET", "/access/destinations", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		assert.JSONEq(t, `{"destinations":[{"id":"10","name":"Reading Room"}]}`, string(body))
	})

	t.Run("NotConfigured", func(t *testing.T) {
		app := newTestApp(&stubRunner{}, &stubCache{}, nil)

		resp, err := app.Test(httptest.NewRequest("GET", "/access/destinations", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("UpstreamError", func(t *testing.T) {
		app := newTestApp(&stubRunner{}, &stubCache{}, &stubDestinations{err: errors.New("login failed")})

		resp, err := app.Test(httptest.NewRequest("GET", "/access/destinations", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	})
}
