// Package daemon provides the long-running recommendation poller and its HTTP API.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/adrec/internal/dashboard"
	"github.com/theirongolddev/adrec/internal/metrics"
	"github.com/theirongolddev/adrec/internal/model"
)

// Fetcher loads one snapshot.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, hoursBack int) (*model.Snapshot, error)
}

// SnapshotSaver persists applied snapshots.
type SnapshotSaver interface {
	SaveSnapshot(snap *model.Snapshot) error
}

// Config controls the daemon runtime behavior.
type Config struct {
	HoursBack    int
	Interval     time.Duration
	Addr         string
	EventsBuffer int

	Fetcher Fetcher
	Store   SnapshotSaver // optional
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Snapshot is a compact view of the current recommendation snapshot.
type Snapshot struct {
	At               time.Time      `json:"at"`
	HoursBack        int            `json:"hours_back"`
	Campaigns        int            `json:"campaigns"`
	Adsets           int            `json:"adsets"`
	TotalCostUSD     float64        `json:"total_cost_usd"`
	TotalRevenueUSD  float64        `json:"total_revenue_usd"`
	TotalProfitUSD   float64        `json:"total_profit_usd"`
	TotalClicks      int64          `json:"total_clicks"`
	TotalConversions int64          `json:"total_conversions"`
	AverageROI       float64        `json:"average_roi"`
	Recommendations  map[string]int `json:"recommendations"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Campaigns       int            `json:"campaigns"`
	Adsets          int            `json:"adsets"`
	TotalCostUSD    float64        `json:"total_cost_usd"`
	TotalProfitUSD  float64        `json:"total_profit_usd"`
	TotalClicks     int64          `json:"total_clicks"`
	Recommendations map[string]int `json:"recommendations,omitempty"`
}

func (d Delta) isZero() bool {
	return d.Campaigns == 0 &&
		d.Adsets == 0 &&
		d.TotalCostUSD == 0 &&
		d.TotalProfitUSD == 0 &&
		d.TotalClicks == 0 &&
		len(d.Recommendations) == 0
}

// Event types.
const (
	EventSnapshot   = "snapshot"
	EventDelta      = "snapshot_delta"
	EventFetchError = "fetch_error"
)

// Event is emitted whenever the snapshot changes or a fetch fails.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
	Error     string    `json:"error,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	StaleDropped    int64     `json:"stale_dropped"`
	AppliedSequence uint64    `json:"applied_sequence"`
	HoursBack       int       `json:"hours_back"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	log *zap.Logger

	mu           sync.RWMutex
	startedAt    time.Time
	lastPollAt   time.Time
	pollCount    int64
	staleDropped int64
	lastError    string
	sched        *dashboard.Scheduler
	current      *model.Snapshot
	hasSnapshot  bool
	snapshot     Snapshot
	nextEventID  int64
	events       []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = dashboard.DefaultRefreshInterval
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if cfg.HoursBack <= 0 {
		cfg.HoursBack = 24
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		cfg:       cfg,
		log:       log,
		startedAt: time.Now(),
		sched:     dashboard.NewScheduler(cfg.Interval),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/status", s.handleStatus)
	r.Get("/v1/snapshot", s.handleSnapshot)
	r.Post("/v1/refresh", s.handleRefresh)
	r.Get("/v1/events", s.handleEvents)
	r.Get("/v1/stream", s.handleStream)
	r.Handle("/metrics", s.cfg.Metrics.Handler())
	return r
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Fetcher == nil {
		return errors.New("daemon: no fetcher configured")
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		// Seed initial snapshot so status is useful immediately.
		s.PollOnce(ctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.PollOnce(ctx)
			}
		}
	})

	return g.Wait()
}

func (s *Service) stop() {
	s.mu.Lock()
	s.sched.Stop()
	s.mu.Unlock()
}

// PollOnce fetches a snapshot and applies it unless a newer fetch already
// landed. Safe to call concurrently.
func (s *Service) PollOnce(ctx context.Context) {
	s.mu.Lock()
	seq := s.sched.Begin(time.Now())
	s.mu.Unlock()

	start := time.Now()
	snap, err := s.cfg.Fetcher.FetchSnapshot(ctx, s.cfg.HoursBack)
	now := time.Now()

	s.mu.Lock()
	s.lastPollAt = now
	s.pollCount++
	if !s.sched.Accept(seq) {
		s.staleDropped++
		s.mu.Unlock()
		s.cfg.Metrics.ObserveFetch(metrics.OutcomeStale, now.Sub(start))
		s.log.Debug("dropped stale snapshot", zap.Uint64("seq", seq))
		return
	}

	if err != nil {
		s.lastError = err.Error()
		s.nextEventID++
		ev := Event{
			ID:        s.nextEventID,
			Type:      EventFetchError,
			Timestamp: now,
			Snapshot:  s.snapshot,
			Error:     err.Error(),
		}
		s.mu.Unlock()
		s.log.Warn("daemon poll error", zap.Uint64("seq", seq), zap.Error(err))
		s.publishEvent(ev)
		return
	}

	compact := compactSnapshot(snap, now)

	var (
		ev      Event
		publish bool
	)

	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.current = snap
	s.hasSnapshot = true
	s.snapshot = compact
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventSnapshot,
			Timestamp: now,
			Snapshot:  compact,
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, compact)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      EventDelta,
				Timestamp: now,
				Snapshot:  compact,
				Delta:     delta,
			}
			publish = true
		}
	}
	s.mu.Unlock()

	s.cfg.Metrics.SetSnapshot(snap)
	if s.cfg.Store != nil {
		if err := s.cfg.Store.SaveSnapshot(snap); err != nil {
			s.log.Warn("caching snapshot", zap.Error(err))
		}
	}
	s.log.Info("snapshot applied",
		zap.Uint64("seq", seq),
		zap.Int("campaigns", compact.Campaigns),
		zap.Int("adsets", compact.Adsets))

	if publish {
		s.publishEvent(ev)
	}
}

func compactSnapshot(snap *model.Snapshot, at time.Time) Snapshot {
	recs := make(map[string]int)
	for _, c := range snap.Campaigns {
		for _, a := range c.Adsets {
			recs[string(a.Recommendation)]++
		}
	}
	return Snapshot{
		At:               at,
		HoursBack:        snap.HoursBack,
		Campaigns:        len(snap.Campaigns),
		Adsets:           snap.AdsetCount(),
		TotalCostUSD:     snap.Summary.TotalCost,
		TotalRevenueUSD:  snap.Summary.TotalRevenue,
		TotalProfitUSD:   snap.Summary.TotalProfit,
		TotalClicks:      snap.Summary.TotalClicks,
		TotalConversions: snap.Summary.TotalConversions,
		AverageROI:       snap.Summary.AverageROI,
		Recommendations:  recs,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	d := Delta{
		Campaigns:      curr.Campaigns - prev.Campaigns,
		Adsets:         curr.Adsets - prev.Adsets,
		TotalCostUSD:   curr.TotalCostUSD - prev.TotalCostUSD,
		TotalProfitUSD: curr.TotalProfitUSD - prev.TotalProfitUSD,
		TotalClicks:    curr.TotalClicks - prev.TotalClicks,
	}
	for rec, n := range curr.Recommendations {
		if diff := n - prev.Recommendations[rec]; diff != 0 {
			if d.Recommendations == nil {
				d.Recommendations = make(map[string]int)
			}
			d.Recommendations[rec] = diff
		}
	}
	for rec, n := range prev.Recommendations {
		if _, ok := curr.Recommendations[rec]; !ok {
			if d.Recommendations == nil {
				d.Recommendations = make(map[string]int)
			}
			d.Recommendations[rec] = -n
		}
	}
	return d
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		StaleDropped:    s.staleDropped,
		AppliedSequence: s.sched.Applied(),
		HoursBack:       s.cfg.HoursBack,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

// SnapshotResponse is served at /v1/snapshot.
type SnapshotResponse struct {
	FetchedAt time.Time        `json:"fetched_at"`
	HoursBack int              `json:"hours_back"`
	Filter    string           `json:"filter,omitempty"`
	Summary   model.Summary    `json:"summary"`
	Campaigns []model.Campaign `json:"campaigns"`
}

func (s *Service) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	snap := s.current
	s.mu.RUnlock()

	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot yet"})
		return
	}

	filter := dashboard.NewFilter(model.ParseRecommendation(r.URL.Query().Get("filter")))
	campaigns := dashboard.Visible(snap, filter)
	if r.URL.Query().Get("sort") == "priority" {
		dashboard.SortByPriority(campaigns)
	}
	writeJSON(w, http.StatusOK, SnapshotResponse{
		FetchedAt: snap.FetchedAt,
		HoursBack: snap.HoursBack,
		Filter:    string(filter.Recommendation()),
		Summary:   snap.Summary,
		Campaigns: campaigns,
	})
}

func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.PollOnce(r.Context())
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
