package recapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/theirongolddev/adrec/internal/snapshot"
)

type recorded struct {
	method string
	path   string
	query  string
	body   []byte
}

func newServer(t *testing.T, status int, respBody string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: b})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testClient(srv *httptest.Server) *Client {
	return New(Options{
		RecommendationsURL: srv.URL + "/api/prediction-run",
		BudgetURL:          srv.URL + "/api/campaign/budget/",
		PauseURL:           srv.URL + "/api/adset/pause",
	})
}

func TestFetchSnapshot_SendsHoursBack(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"success":true,"data":[{"id":1,"sub_id_3":"k","adset":[{"sub_id_2":"a"}]}]}`)
	snap, err := testClient(srv).FetchSnapshot(context.Background(), 24)
	if err != nil {
		t.Fatalf("FetchSnapshot: %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(*calls))
	}
	c := (*calls)[0]
	if c.method != http.MethodGet || c.path != "/api/prediction-run" || c.query != "hours_back=24" {
		t.Fatalf("request = %s %s?%s", c.method, c.path, c.query)
	}
	if snap.HoursBack != 24 || snap.FetchedAt.IsZero() {
		t.Fatalf("snapshot metadata not set: %+v", snap)
	}
	if snap.AdsetCount() != 1 {
		t.Fatalf("adsets = %d, want 1", snap.AdsetCount())
	}
}

func TestFetchSnapshot_ServiceFailure(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"success":false,"error":"window too large"}`)
	_, err := testClient(srv).FetchSnapshot(context.Background(), 24)

	var svcErr *snapshot.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("err = %v, want ServiceError", err)
	}
	if err.Error() != "window too large" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestFetchSnapshot_StatusError(t *testing.T) {
	srv, _ := newServer(t, http.StatusBadGateway, `oops`)
	_, err := testClient(srv).FetchSnapshot(context.Background(), 24)

	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway || se.Op != OpFetch {
		t.Fatalf("err = %v, want StatusError 502", err)
	}
	if !errors.Is(err, ErrTransport) {
		t.Fatal("status error should match ErrTransport")
	}
}

func TestFetchSnapshot_Malformed(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `[1,2,3]`)
	res := testClient(srv).Fetch(context.Background(), 24)
	if res.OK() || !errors.Is(res.Err, snapshot.ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", res.Err)
	}
}

func TestFetchSnapshot_NetworkError(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{}`)
	c := testClient(srv)
	srv.Close()

	_, err := c.FetchSnapshot(context.Background(), 24)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestSubmitBudget_PostsMultiplier(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"ok":true}`)
	if err := testClient(srv).SubmitBudget(context.Background(), "cmp 7", 1.1); err != nil {
		t.Fatalf("SubmitBudget: %v", err)
	}

	c := (*calls)[0]
	if c.method != http.MethodPost || c.path != "/api/campaign/budget/cmp 7" {
		t.Fatalf("request = %s %s", c.method, c.path)
	}
	var body map[string]float64
	if err := json.Unmarshal(c.body, &body); err != nil {
		t.Fatalf("body %q: %v", c.body, err)
	}
	if len(body) != 1 || body["multiplier"] != 1.1 {
		t.Fatalf("body = %v, want {multiplier: 1.1}", body)
	}
}

func TestSubmitBudget_ServerErrorNotRetried(t *testing.T) {
	srv, calls := newServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
	err := testClient(srv).SubmitBudget(context.Background(), "cmp-7", 1.2)

	var se *StatusError
	if !errors.As(err, &se) || se.Op != OpBudget || se.Code != http.StatusInternalServerError {
		t.Fatalf("err = %v, want StatusError 500", err)
	}
	if !errors.Is(err, ErrTransport) {
		t.Fatal("status error should match ErrTransport")
	}
	if len(*calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(*calls))
	}
}

func TestSubmitBudget_NetworkError(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{}`)
	c := testClient(srv)
	srv.Close()

	if err := c.SubmitBudget(context.Background(), "cmp-7", 1.2); !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
}

func TestPauseAdset_PostsWithoutBody(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, ``)
	if err := testClient(srv).PauseAdset(context.Background(), "a-42"); err != nil {
		t.Fatalf("PauseAdset: %v", err)
	}
	c := (*calls)[0]
	if c.method != http.MethodPost || c.path != "/api/adset/pause/a-42" || len(c.body) != 0 {
		t.Fatalf("request = %s %s body=%q", c.method, c.path, c.body)
	}
}

func TestPauseAdset_Non2xx(t *testing.T) {
	srv, _ := newServer(t, http.StatusNotFound, `{"error":"unknown adset"}`)
	err := testClient(srv).PauseAdset(context.Background(), "a-42")
	var se *StatusError
	if !errors.As(err, &se) || se.Op != OpPause || se.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want StatusError 404", err)
	}
}

func TestAction_RejectsEmptyTarget(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, ``)
	if err := testClient(srv).PauseAdset(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty id")
	}
	if len(*calls) != 0 {
		t.Fatal("request sent for empty id")
	}
}
