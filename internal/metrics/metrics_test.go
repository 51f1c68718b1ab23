package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/adrec/internal/model"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	return string(body)
}

func TestMetrics_SnapshotAndActions(t *testing.T) {
	m := New()
	m.ObserveFetch(OutcomeOK, 250*time.Millisecond)
	m.ObserveAction("pause", nil)
	m.ObserveAction("budget", errors.New("boom"))
	m.SetSnapshot(&model.Snapshot{
		FetchedAt: time.Unix(1_700_000_000, 0),
		Summary:   model.Summary{TotalCost: 12.5},
		Campaigns: []model.Campaign{{ID: "c1", Adsets: []model.Adset{
			{ID: "a1", Recommendation: model.RecPause},
			{ID: "a2", Recommendation: model.RecPause},
			{ID: "a3"},
		}}},
	})

	out := scrape(t, m)
	for _, want := range []string{
		`adrec_snapshot_fetches_total{outcome="ok"} 1`,
		`adrec_actions_total{kind="pause",outcome="ok"} 1`,
		`adrec_actions_total{kind="budget",outcome="error"} 1`,
		`adrec_snapshot_campaigns 1`,
		`adrec_snapshot_adsets{recommendation="PAUSE"} 2`,
		`adrec_snapshot_adsets{recommendation="none"} 1`,
		`adrec_snapshot_total{field="cost"} 12.5`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFetch(OutcomeError, time.Second)
	m.ObserveAction("pause", nil)
	m.SetSnapshot(&model.Snapshot{})
	if m.Registry() != nil {
		t.Fatal("nil metrics returned a registry")
	}
}
