package access

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
	"sync"
	"time"

	"visitor-sync/core/utils"

	"go.uber.org/zap"
)

// duplicateMarker is the error marker the access-control system embeds in
// its response body when a visitor with the same unique id already exists.
const duplicateMarker = "ALREADY_EXIST_UNIQUE_ID"

// ErrDuplicateUniqueID signals that a visitor with the submitted barcode
// already exists. CreateVisitor recovers from it by looking the visitor up;
// callers only ever see it from lower-level helpers.
var ErrDuplicateUniqueID = errors.New("access: unique id already exists")

// timeLayout is the timestamp format bookings carry (RFC3339 with offset).
const timeLayout = time.RFC3339

// Client is the authenticated client for the access-control system. It is
// safe for concurrent use; the run pipeline and the admin server share one
// instance.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger

	// mu guards token. A 401-triggered re-login in one goroutine must not
	// race with requests attaching the token in another.
	mu    sync.Mutex
	token string
}

// NewClient validates the configuration and logs in, so the client starts
// out authenticated.
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
	if err := c.login(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateVisitor registers a patron and returns the assigned visitor id.
// When the system reports that the barcode is already registered, the
// existing visitor is looked up instead; repeated calls with the same
// barcode therefore always yield the same visitor id.
func (c *Client) CreateVisitor(ctx context.Context, v Visitor) (string, error) {
	category, ok := c.cfg.CategoryMapping[v.UserGroup]
	if !ok {
		category = c.cfg.DefaultCategory
	}

	q := url.Values{}
	q.Set("category", category)
	q.Set("firstName", v.FirstName)
	q.Set("lastName", v.LastName)
	q.Set("email", v.Email)
	q.Set("mobilePhoneNo", v.PrimaryID)
	q.Set("uniqueId", v.Barcode)

	body, err := c.send(ctx, http.MethodPost, c.cfg.CreateVisitorEndpoint, q, nil)
	if err != nil {
		if errors.Is(err, ErrDuplicateUniqueID) {
			c.log.Debug("Visitor already exists, looking up by barcode",
				zap.String("barcode", v.Barcode))
			return c.VisitorByUniqueID(ctx, v.Barcode)
		}
		return "", err
	}
	return extractID(body)
}

// VisitorByUniqueID returns the visitor id registered for a barcode.
func (c *Client) VisitorByUniqueID(ctx context.Context, barcode string) (string, error) {
	q := url.Values{}
	q.Set("uniqueId", barcode)

	body, err := c.send(ctx, http.MethodGet, c.cfg.UniqueIDEndpoint, q, nil)
	if err != nil {
		return "", err
	}
	return extractID(body)
}

// CreatePreregistration creates one scheduled visit and returns the
// pre-registration id. Timestamps go on the wire as epoch-second strings;
// the destination is the configured name for the booking's location.
func (c *Client) CreatePreregistration(ctx context.Context, p Prereg) (string, error) {
	start, err := epochString(p.Start)
	if err != nil {
		return "", fmt.Errorf("access: start time: %w", err)
	}
	end, err := epochString(p.End)
	if err != nil {
		return "", fmt.Errorf("access: end time: %w", err)
	}

	destination, ok := c.cfg.DestinationMapping[strconv.Itoa(p.LocationID)]
	if !ok {
		return "", fmt.Errorf("access: no destination mapping for location %d", p.LocationID)
	}

	payload := map[string]string{
		"visitorId":   p.VisitorID,
		"startTime":   start,
		"endTime":     end,
		"destination": destination,
	}

	body, err := c.send(ctx, http.MethodPost, c.cfg.CreatePreregEndpoint, nil, payload)
	if err != nil {
		return "", err
	}
	return extractID(body)
}

// Destinations lists the destination records the system knows about, for
// operator verification of the destination mapping.
func (c *Client) Destinations(ctx context.Context) ([]Destination, error) {
	body, err := c.send(ctx, http.MethodGet, c.cfg.DestinationsEndpoint, nil, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []struct {
			ID   any    `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("access: decoding destinations: %w", err)
	}

	out := make([]Destination, 0, len(payload.Data))
	for _, d := range payload.Data {
		out = append(out, Destination{ID: utils.ToString(d.ID), Name: d.Name})
	}
	return out, nil
}

// login exchanges the configured credentials for a session token.
func (c *Client) login(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("access: encoding credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIRoot+c.cfg.LoginEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("access: creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("access: logging in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("access: login returned status %d", resp.StatusCode)
	}

	var token struct {
		Token string `json:"token"`
		Error any    `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("access: decoding login response: %w", err)
	}
	if token.Error != nil {
		return fmt.Errorf("access: login returned error: %v", token.Error)
	}
	if token.Token == "" {
		return errors.New("access: login returned an empty token")
	}

	c.mu.Lock()
	c.token = token.Token
	c.mu.Unlock()
	return nil
}

// sessionToken returns the current token for attaching to a request.
func (c *Client) sessionToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// send performs one API call, re-authenticating and retrying the call
// exactly once when the session token is rejected. A second rejection is
// fatal for the call.
func (c *Client) send(ctx context.Context, method, endpoint string, query url.Values, jsonBody any) ([]byte, error) {
	status, body, err := c.do(ctx, method, endpoint, query, jsonBody)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		c.log.Debug("Session token expired, logging in again")
		if lerr := c.login(ctx); lerr != nil {
			return nil, lerr
		}
		status, body, err = c.do(ctx, method, endpoint, query, jsonBody)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			return nil, fmt.Errorf("access: %s still unauthorized after re-login", endpoint)
		}
	}

	if status < 200 || status > 299 {
		if bytes.Contains(body, []byte(duplicateMarker)) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUniqueID, bytes.TrimSpace(body))
		}
		return nil, fmt.Errorf("access: %s returned status %d: %s", endpoint, status, bytes.TrimSpace(body))
	}
	return body, nil
}

// do builds and executes one HTTP request with the session token attached.
func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, jsonBody any) (int, []byte, error) {
	target := c.cfg.APIRoot + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if jsonBody != nil {
		payload, err := json.Marshal(jsonBody)
		if err != nil {
			return 0, nil, fmt.Errorf("access: encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("access: creating request: %w", err)
	}
	req.Header.Set("token", c.sessionToken())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("access: calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("access: reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// extractID pulls the created or matched entity's id out of a response
// payload: the id field of the first element of the top-level data list.
// An explicit error field is a failure even with a 2xx status.
func extractID(body []byte) (string, error) {
	var payload struct {
		Data  []map[string]any `json:"data"`
		Error any              `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("access: decoding payload: %w", err)
	}
	if payload.Error != nil {
		return "", fmt.Errorf("access: API returned error: %v", payload.Error)
	}
	if len(payload.Data) == 0 {
		return "", fmt.Errorf("access: payload has no data elements: %s", bytes.TrimSpace(body))
	}

	id := utils.ToString(payload.Data[0]["id"])
	if id == "" {
		return "", fmt.Errorf("access: first data element has no id")
	}
	return id, nil
}

// epochString converts an RFC3339 timestamp with offset to epoch seconds.
func epochString(ts string) (string, error) {
	t, err := time.Parse(timeLayout, ts)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(t.Unix(), 10), nil
}
