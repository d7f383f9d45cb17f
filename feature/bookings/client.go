package bookings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"visitor-sync/core/utils"

	"go.uber.org/zap"
)

// errUnauthorized marks a 401-equivalent response. The caller refreshes the
// bearer token and retries the failing request exactly once.
var errUnauthorized = errors.New("bookings: unauthorized")

// Client fetches active bookings from the calendar system.
type Client struct {
	cfg   Config
	http  *http.Client
	log   *zap.Logger
	token string
}

// NewClient validates the configuration and performs the initial
// credentials exchange so that the first fetch already has a bearer token.
func NewClient(ctx context.Context, cfg Config, log *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(timeout) * time.Second},
		log:  log,
	}
	if err := c.fetchToken(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// FetchAll retrieves the current set of active, de-duplicated bookings
// across all configured locations. A failure for one location is logged and
// the remaining locations are still fetched; the fetch as a whole fails
// only when every location fails.
func (c *Client) FetchAll(ctx context.Context) ([]Booking, error) {
	var all []Booking
	failed := 0

	for _, loc := range c.cfg.Locations {
		got, err := c.bookingsForLocation(ctx, loc)
		if err != nil {
			c.log.Error("Failed to fetch bookings for location",
				zap.String("location", loc.Name),
				zap.Int("location_id", loc.ID),
				zap.Error(err),
			)
			failed++
			continue
		}
		all = append(all, got...)
	}

	if failed > 0 && failed == len(c.cfg.Locations) {
		return nil, fmt.Errorf("bookings: all %d locations failed", failed)
	}

	return FilterAndDedup(all, c.cfg.CancelledStatuses), nil
}

// bookingsForLocation fetches the raw bookings of one location, refreshing
// the token and retrying once on an authorization failure. A second
// authorization failure propagates.
func (c *Client) bookingsForLocation(ctx context.Context, loc Location) ([]Booking, error) {
	body, err := c.getBookings(ctx, loc)
	if errors.Is(err, errUnauthorized) {
		c.log.Debug("Bearer token rejected, refreshing", zap.String("location", loc.Name))
		if terr := c.fetchToken(ctx); terr != nil {
			return nil, terr
		}
		body, err = c.getBookings(ctx, loc)
	}
	if err != nil {
		return nil, err
	}
	return decodeBookings(body, c.cfg.PrimaryIDField)
}

// getBookings performs the GET request for one location.
func (c *Client) getBookings(ctx context.Context, loc Location) ([]byte, error) {
	q := url.Values{}
	q.Set("limit", "100") // API maximum
	q.Set("lid", strconv.Itoa(loc.ID))
	q.Set("formAnswers", "1") // include the custom form fields

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BookingsEndpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("bookings: creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bookings: fetching location %d: %w", loc.ID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bookings: reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: location %d", errUnauthorized, loc.ID)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("bookings: location %d returned status %d: %s", loc.ID, resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}

// fetchToken retrieves a new bearer token using the configured credentials.
func (c *Client) fetchToken(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"client_id":     c.cfg.ClientID,
		"client_secret": c.cfg.ClientSecret,
		"grant_type":    "client_credentials",
	})
	if err != nil {
		return fmt.Errorf("bookings: encoding credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.CredentialsEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("bookings: creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bookings: fetching token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("bookings: token endpoint returned status %d", resp.StatusCode)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		Error       any    `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("bookings: decoding token response: %w", err)
	}
	// The API reports credential problems inside a 2xx payload.
	if token.Error != nil {
		return fmt.Errorf("bookings: token endpoint returned error: %v", token.Error)
	}
	if token.AccessToken == "" {
		return errors.New("bookings: token endpoint returned an empty token")
	}

	c.token = token.AccessToken
	return nil
}

// decodeBookings parses a bookings payload and populates each record's
// PrimaryID from the configured form-answer field. Form answers arrive as
// arbitrary top-level JSON keys, so each element is also decoded as a raw
// map.
func decodeBookings(body []byte, primaryIDField string) ([]Booking, error) {
	trimmed := bytes.TrimSpace(body)

	// An error payload is an object, not a list.
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var errPayload struct {
			Error any `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &errPayload); err == nil && errPayload.Error != nil {
			return nil, fmt.Errorf("bookings: API returned error: %v", errPayload.Error)
		}
		return nil, fmt.Errorf("bookings: unexpected payload shape: %s", trimmed)
	}

	var typed []Booking
	if err := json.Unmarshal(trimmed, &typed); err != nil {
		return nil, fmt.Errorf("bookings: decoding payload: %w", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("bookings: decoding form answers: %w", err)
	}

	for i := range typed {
		if i < len(raw) {
			typed[i].PrimaryID = utils.ToString(raw[i][primaryIDField])
		}
	}
	return typed, nil
}
