package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/adrec/internal/metrics"
	"github.com/theirongolddev/adrec/internal/model"
)

type fakeFetcher struct {
	mu    sync.Mutex
	snaps []*model.Snapshot
	err   error
	calls int
}

func (f *fakeFetcher) FetchSnapshot(_ context.Context, hoursBack int) (*model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	snap := f.snaps[0]
	if len(f.snaps) > 1 {
		f.snaps = f.snaps[1:]
	}
	snap.HoursBack = hoursBack
	return snap, nil
}

type memStore struct {
	saved []*model.Snapshot
}

func (m *memStore) SaveSnapshot(snap *model.Snapshot) error {
	m.saved = append(m.saved, snap)
	return nil
}

func sampleSnapshot(cost float64, recs ...model.Recommendation) *model.Snapshot {
	adsets := make([]model.Adset, 0, len(recs))
	for i, r := range recs {
		adsets = append(adsets, model.Adset{ID: string(rune('a' + i)), Recommendation: r, Priority: i + 1})
	}
	return &model.Snapshot{
		Summary:   model.Summary{TotalCost: cost, PriorityDistribution: map[int]int{}},
		Campaigns: []model.Campaign{{ID: "c1", ExternalKey: "k1", Adsets: adsets}},
	}
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Campaigns:       10,
		Adsets:          100,
		TotalCostUSD:    10.5,
		TotalClicks:     1_000,
		Recommendations: map[string]int{"PAUSE": 3, "MONITOR": 2},
	}
	curr := Snapshot{
		Campaigns:       12,
		Adsets:          112,
		TotalCostUSD:    13.1,
		TotalClicks:     1_250,
		Recommendations: map[string]int{"PAUSE": 4, "OPTIMIZE": 1},
	}

	delta := diffSnapshots(prev, curr)
	if delta.Campaigns != 2 {
		t.Fatalf("Campaigns delta = %d, want 2", delta.Campaigns)
	}
	if delta.Adsets != 12 {
		t.Fatalf("Adsets delta = %d, want 12", delta.Adsets)
	}
	if delta.TotalClicks != 250 {
		t.Fatalf("Clicks delta = %d, want 250", delta.TotalClicks)
	}
	if math.Abs(delta.TotalCostUSD-2.6) > 1e-9 {
		t.Fatalf("Cost delta = %.2f, want 2.60", delta.TotalCostUSD)
	}
	want := map[string]int{"PAUSE": 1, "OPTIMIZE": 1, "MONITOR": -2}
	for k, v := range want {
		if delta.Recommendations[k] != v {
			t.Fatalf("Recommendations[%s] = %d, want %d", k, delta.Recommendations[k], v)
		}
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots should have zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnce_AppliesAndPublishes(t *testing.T) {
	fetch := &fakeFetcher{snaps: []*model.Snapshot{
		sampleSnapshot(10, model.RecPause),
		sampleSnapshot(12, model.RecPause, model.RecMonitor),
	}}
	st := &memStore{}
	s := New(Config{HoursBack: 24, Fetcher: fetch, Store: st, Metrics: metrics.New()})

	s.PollOnce(context.Background())
	s.PollOnce(context.Background())

	status := s.snapshotStatus()
	if status.PollCount != 2 || status.AppliedSequence != 2 {
		t.Fatalf("status = %+v", status)
	}
	if status.Summary.Adsets != 2 || status.Summary.HoursBack != 24 {
		t.Fatalf("summary = %+v", status.Summary)
	}
	if len(st.saved) != 2 {
		t.Fatalf("saved = %d, want 2", len(st.saved))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.events) != 2 || s.events[0].Type != EventSnapshot || s.events[1].Type != EventDelta {
		t.Fatalf("events = %+v", s.events)
	}
	if s.events[1].Delta.Recommendations["MONITOR"] != 1 {
		t.Fatalf("delta = %+v", s.events[1].Delta)
	}
}

func TestPollOnce_ErrorKeepsLastSnapshot(t *testing.T) {
	fetch := &fakeFetcher{snaps: []*model.Snapshot{sampleSnapshot(10, model.RecPause)}}
	s := New(Config{Fetcher: fetch})
	s.PollOnce(context.Background())

	fetch.err = errors.New("recapi: fetch: unexpected status 502")
	s.PollOnce(context.Background())

	status := s.snapshotStatus()
	if status.LastError == "" {
		t.Fatal("last error not recorded")
	}
	if status.Summary.Adsets != 1 {
		t.Fatalf("summary lost after failed poll: %+v", status.Summary)
	}
}

type gatedFetcher struct {
	started chan struct{}
	release chan struct{}
	slow    *model.Snapshot
	fast    *model.Snapshot

	mu    sync.Mutex
	calls int
}

func (f *gatedFetcher) FetchSnapshot(_ context.Context, _ int) (*model.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()

	if first {
		close(f.started)
		<-f.release
		return f.slow, nil
	}
	return f.fast, nil
}

func TestPollOnce_DropsStaleResponse(t *testing.T) {
	fetch := &gatedFetcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
		slow:    sampleSnapshot(1, model.RecPause),
		fast:    sampleSnapshot(2, model.RecPause, model.RecMonitor, model.RecOptimize),
	}
	s := New(Config{Fetcher: fetch})

	done := make(chan struct{})
	go func() {
		s.PollOnce(context.Background())
		close(done)
	}()
	<-fetch.started

	s.PollOnce(context.Background())
	close(fetch.release)
	<-done

	status := s.snapshotStatus()
	if status.StaleDropped != 1 {
		t.Fatalf("stale dropped = %d, want 1", status.StaleDropped)
	}
	if status.Summary.Adsets != 3 || status.AppliedSequence != 2 {
		t.Fatalf("slow response overwrote newer snapshot: %+v", status)
	}
}

func TestPollOnce_AfterStopIsNoop(t *testing.T) {
	fetch := &fakeFetcher{snaps: []*model.Snapshot{sampleSnapshot(10, model.RecPause)}}
	s := New(Config{Fetcher: fetch})
	s.stop()
	s.PollOnce(context.Background())

	status := s.snapshotStatus()
	if status.Summary.Adsets != 0 || status.StaleDropped != 1 {
		t.Fatalf("poll after stop applied: %+v", status)
	}
}

func TestHandler_SnapshotFilter(t *testing.T) {
	fetch := &fakeFetcher{snaps: []*model.Snapshot{sampleSnapshot(10, model.RecPause, model.RecMonitor)}}
	s := New(Config{Fetcher: fetch, Metrics: metrics.New()})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/snapshot")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status before first poll = %d, want 503", resp.StatusCode)
	}

	s.PollOnce(context.Background())

	resp, err = http.Get(srv.URL + "/v1/snapshot?filter=pause")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body SnapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Filter != "PAUSE" {
		t.Fatalf("filter = %q, want PAUSE", body.Filter)
	}
	if len(body.Campaigns) != 1 || len(body.Campaigns[0].Adsets) != 1 {
		t.Fatalf("campaigns = %+v", body.Campaigns)
	}
}

func TestHandler_HealthAndMetrics(t *testing.T) {
	s := New(Config{Fetcher: &fakeFetcher{snaps: []*model.Snapshot{sampleSnapshot(1)}}, Metrics: metrics.New()})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz = %d", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/v1/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("POST refresh: %v", err)
	}
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(buf.String(), "adrec_snapshot_campaigns 1") {
		t.Fatalf("metrics missing campaign gauge:\n%s", buf.String())
	}
}
