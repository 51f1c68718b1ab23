// Package recapi talks to the recommendation service and the campaign
// mutation endpoints.
package recapi

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
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/adrec/internal/metrics"
	"github.com/theirongolddev/adrec/internal/model"
	"github.com/theirongolddev/adrec/internal/snapshot"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodySize    = 8 << 20 // 8 MB
	userAgent      = "adrec/1.0"
)

// ErrTransport matches every network failure and non-2xx status.
var ErrTransport = errors.New("recapi: transport error")

// Operation names used in errors, logs and metrics.
const (
	OpFetch  = "fetch"
	OpBudget = "budget"
	OpPause  = "pause"
)

// StatusError is a non-2xx response.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("recapi: %s: unexpected status %d", e.Op, e.Code)
}

// Is makes errors.Is(err, ErrTransport) hold.
func (e *StatusError) Is(target error) bool { return target == ErrTransport }

type requestError struct {
	op  string
	err error
}

func (e *requestError) Error() string {
	return fmt.Sprintf("recapi: %s: request failed: %v", e.op, e.err)
}

func (e *requestError) Unwrap() []error { return []error{ErrTransport, e.err} }

// Options configures a Client.
type Options struct {
	RecommendationsURL string
	BudgetURL          string
	PauseURL           string
	Timeout            time.Duration
	HTTPClient         *http.Client
	Logger             *zap.Logger
	Metrics            *metrics.Metrics
}

// Client fetches snapshots and submits actions.
type Client struct {
	recURL    string
	budgetURL string
	pauseURL  string
	timeout   time.Duration
	http      *http.Client
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// New creates a client. Missing URLs fail at call time, not here.
func New(opts Options) *Client {
	c := &Client{
		recURL:    strings.TrimSpace(opts.RecommendationsURL),
		budgetURL: strings.TrimRight(strings.TrimSpace(opts.BudgetURL), "/"),
		pauseURL:  strings.TrimRight(strings.TrimSpace(opts.PauseURL), "/"),
		timeout:   opts.Timeout,
		http:      opts.HTTPClient,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		now:       time.Now,
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// FetchSnapshot downloads and normalizes the recommendation snapshot for the
// given window. Errors are transport errors, *snapshot.ServiceError, or
// wrap snapshot.ErrMalformed.
func (c *Client) FetchSnapshot(ctx context.Context, hoursBack int) (*model.Snapshot, error) {
	start := c.now()
	snap, err := c.fetch(ctx, hoursBack)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	c.metrics.ObserveFetch(outcome, c.now().Sub(start))

	if err != nil {
		c.log.Warn("snapshot fetch failed", zap.Int("hours_back", hoursBack), zap.Error(err))
		return nil, err
	}
	c.log.Info("snapshot fetched",
		zap.Int("hours_back", hoursBack),
		zap.Int("campaigns", len(snap.Campaigns)),
		zap.Int("adsets", snap.AdsetCount()),
		zap.Duration("took", c.now().Sub(start)))
	return snap, nil
}

// Fetch is FetchSnapshot folded into a snapshot.Result.
func (c *Client) Fetch(ctx context.Context, hoursBack int) snapshot.Result {
	snap, err := c.FetchSnapshot(ctx, hoursBack)
	return snapshot.Result{Snapshot: snap, Err: err}
}

func (c *Client) fetch(ctx context.Context, hoursBack int) (*model.Snapshot, error) {
	u, err := url.Parse(c.recURL)
	if err != nil || c.recURL == "" {
		return nil, fmt.Errorf("recapi: %s: invalid recommendations url %q", OpFetch, c.recURL)
	}
	q := u.Query()
	q.Set("hours_back", strconv.Itoa(hoursBack))
	u.RawQuery = q.Encode()

	body, err := c.do(ctx, OpFetch, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	res := snapshot.Normalize(body)
	if res.Err != nil {
		return nil, res.Err
	}
	res.Snapshot.FetchedAt = c.now()
	res.Snapshot.HoursBack = hoursBack
	return res.Snapshot, nil
}

type budgetRequest struct {
	Multiplier float64 `json:"multiplier"`
}

// SubmitBudget posts a budget multiplier for the campaign with the given
// external key. The snapshot is not updated; the change shows on the next refresh.
func (c *Client) SubmitBudget(ctx context.Context, campaignKey string, multiplier float64) error {
	payload, err := json.Marshal(budgetRequest{Multiplier: multiplier})
	if err != nil {
		return fmt.Errorf("recapi: %s: encoding body: %w", OpBudget, err)
	}
	err = c.action(ctx, OpBudget, c.budgetURL, campaignKey, payload)
	if err == nil {
		c.log.Info("budget submitted", zap.String("campaign", campaignKey), zap.Float64("multiplier", multiplier))
	}
	return err
}

// PauseAdset posts a pause command for the adset.
func (c *Client) PauseAdset(ctx context.Context, adsetID string) error {
	err := c.action(ctx, OpPause, c.pauseURL, adsetID, nil)
	if err == nil {
		c.log.Info("adset paused", zap.String("adset", adsetID))
	}
	return err
}

func (c *Client) action(ctx context.Context, op, base, id string, payload []byte) error {
	id = strings.TrimSpace(id)
	if base == "" {
		err := fmt.Errorf("recapi: %s: endpoint not configured", op)
		c.metrics.ObserveAction(op, err)
		return err
	}
	if id == "" {
		err := fmt.Errorf("recapi: %s: empty target id", op)
		c.metrics.ObserveAction(op, err)
		return err
	}

	_, err := c.do(ctx, op, http.MethodPost, base+"/"+url.PathEscape(id), payload)
	c.metrics.ObserveAction(op, err)
	if err != nil {
		c.log.Warn("action failed", zap.String("op", op), zap.String("target", id), zap.Error(err))
	}
	return err
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, target string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("recapi: %s: creating request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	//nolint:gosec // URL comes from operator configuration
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &requestError{op: op, err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &StatusError{Op: op, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("recapi: %s: reading response: %w: %v", op, snapshot.ErrMalformed, err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("recapi: %s: response exceeds %d bytes: %w", op, maxBodySize, snapshot.ErrMalformed)
	}
	return body, nil
}
