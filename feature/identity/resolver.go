package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// barcodeIDType is the identifier type carrying the patron's barcode.
const barcodeIDType = "BARCODE"

// Resolver looks up patron records by primary id across the configured
// zones, in order, carrying unresolved ids forward to the next zone.
type Resolver struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// NewResolver validates the configuration and returns a resolver.
func NewResolver(cfg Config, log *zap.Logger) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	return &Resolver{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(timeout) * time.Second},
		log:  log,
	}, nil
}

// Resolve maps the given primary ids to patron records. Lookups within one
// zone run concurrently, bounded by the configured rate limit; zones are
// tried strictly in order and only for ids the previous zone reported as
// not found. Ids that fail with a non-not-found error are dropped for this
// run. Ids unresolved after the last zone are logged and omitted from the
// result. Resolve never fails as a whole; the worst case is an empty map.
func (r *Resolver) Resolve(ctx context.Context, ids []string) map[string]Patron {
	resolved := make(map[string]Patron)
	pending := dedupe(ids)

	for _, zone := range r.cfg.Zones {
		if len(pending) == 0 {
			break
		}

		results := r.resolveZone(ctx, zone, pending)

		var carry []string
		for _, res := range results {
			switch res.status {
			case StatusFound:
				resolved[res.id] = res.patron
			case StatusNotFound:
				carry = append(carry, res.id)
			case StatusError:
				r.log.Warn("Identity lookup failed",
					zap.String("zone", zone.Name),
					zap.String("primary_id", res.id),
					zap.Error(res.err),
				)
			}
		}
		pending = carry
	}

	for _, id := range pending {
		r.log.Warn("Patron not found in any zone", zap.String("primary_id", id))
	}

	return resolved
}

// resolveZone issues one lookup per id against a single zone. Admission is
// gated by a fresh rate limiter per invocation; the limiter state never
// leaks between runs. Workers classify their own failures instead of
// returning errors, so one bad lookup never cancels the batch.
func (r *Resolver) resolveZone(ctx context.Context, zone Zone, ids []string) []lookupResult {
	limiter := rate.NewLimiter(rate.Limit(r.cfg.RateLimit), 1)
	results := make([]lookupResult, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				results[i] = lookupResult{id: id, status: StatusError, err: err}
				return nil
			}
			results[i] = r.fetchUser(ctx, zone, id)
			return nil
		})
	}
	// Workers always return nil; Wait is only a join point.
	_ = g.Wait()

	return results
}

// fetchUser performs one GET against the zone's users endpoint and
// classifies the outcome.
func (r *Resolver) fetchUser(ctx context.Context, zone Zone, id string) lookupResult {
	endpoint := zone.UsersEndpoint + "/" + url.PathEscape(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return lookupResult{id: id, status: StatusError, err: err}
	}
	req.Header.Set("Authorization", "apikey "+zone.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return lookupResult{id: id, status: StatusError, err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return lookupResult{id: id, status: StatusError, err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return r.classifyError(id, resp.StatusCode, body)
	}

	patron, err := extractPatron(body)
	if err != nil {
		return lookupResult{id: id, status: StatusError, err: err}
	}
	return lookupResult{id: id, status: StatusFound, patron: patron}
}

// classifyError inspects an error payload for the zone-scoped not-found
// code. Anything else, including an unparseable body, is a per-id error.
func (r *Resolver) classifyError(id string, status int, body []byte) lookupResult {
	var payload struct {
		ErrorList struct {
			Error []struct {
				ErrorCode    string `json:"errorCode"`
				ErrorMessage string `json:"errorMessage"`
			} `json:"error"`
		} `json:"errorList"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, e := range payload.ErrorList.Error {
			if e.ErrorCode == r.cfg.NotFoundCode {
				return lookupResult{id: id, status: StatusNotFound}
			}
		}
	}
	return lookupResult{
		id:     id,
		status: StatusError,
		err:    fmt.Errorf("identity: lookup returned status %d: %s", status, body),
	}
}

// extractPatron pulls the primary id, user group, and barcode out of a user
// record. The barcode is the value of the first BARCODE-typed identifier; a
// record without one is unusable downstream and treated as an error.
func extractPatron(body []byte) (Patron, error) {
	var record struct {
		PrimaryID string `json:"primary_id"`
		UserGroup struct {
			Desc string `json:"desc"`
		} `json:"user_group"`
		Identifiers []struct {
			IDType struct {
				Value string `json:"value"`
			} `json:"id_type"`
			Value string `json:"value"`
		} `json:"user_identifier"`
	}
	if err := json.Unmarshal(body, &record); err != nil {
		return Patron{}, fmt.Errorf("identity: decoding user record: %w", err)
	}
	if record.PrimaryID == "" {
		return Patron{}, fmt.Errorf("identity: user record has no primary_id")
	}

	patron := Patron{
		PrimaryID: record.PrimaryID,
		UserGroup: record.UserGroup.Desc,
	}
	for _, ident := range record.Identifiers {
		if ident.IDType.Value == barcodeIDType {
			patron.Barcode = ident.Value
			break
		}
	}
	if patron.Barcode == "" {
		return Patron{}, fmt.Errorf("identity: user %s has no barcode identifier", record.PrimaryID)
	}
	return patron, nil
}

// dedupe preserves first-seen order and drops empty ids.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
