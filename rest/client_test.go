package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/guldfisk/cubeclient-go/client"
	"github.com/guldfisk/cubeclient-go/models"
	"github.com/guldfisk/cubeclient-go/pagination"
)

func newTestClient(t *testing.T, handler http.Handler, mutate func(*client.Config)) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := client.DefaultConfig()
	cfg.Host = srv.URL
	if mutate != nil {
		mutate(&cfg)
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestNewParsesHost(t *testing.T) {
	cfg := client.DefaultConfig()
	cfg.Host = "http://cubes.example.com:8000"

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Scheme() != "http" || c.Host() != "cubes.example.com:8000" {
		t.Fatalf("parsed (%s, %s)", c.Scheme(), c.Host())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(client.Config{})
	var cfgErr *client.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *client.ConfigError", err)
	}
}

func TestLoginStoresSession(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login/" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "hunter2" {
			t.Errorf("credentials not forwarded: %v", r.PostForm)
		}
		writeJSON(t, w, map[string]any{
			"token": "tok-123",
			"user":  map[string]any{"id": 1, "username": "alice"},
		})
	}), nil)

	token, err := c.Login(context.Background(), "alice", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "tok-123" || c.Token() != "tok-123" {
		t.Fatalf("token = %q, stored %q", token, c.Token())
	}
	if user := c.User(); user == nil || user.Username != "alice" {
		t.Fatalf("stored user = %+v", user)
	}

	c.Logout()
	if c.Token() != "" || c.User() != nil {
		t.Fatal("Logout did not clear session state")
	}
}

func TestAuthorizationHeader(t *testing.T) {
	var sawAuth atomic.Value
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth.Store(r.Header.Get("Authorization"))
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("request id header missing")
		}
		writeJSON(t, w, map[string]any{"version": "1.2.3"})
	}), nil)
	c.SetToken("tok-456")

	if _, err := c.MinClientVersion(context.Background()); err != nil {
		t.Fatalf("MinClientVersion: %v", err)
	}
	if got := sawAuth.Load(); got != "Token tok-456" {
		t.Fatalf("Authorization = %q", got)
	}
}

func TestStatusError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such release", http.StatusNotFound)
	}), nil)

	_, err := c.Release(context.Background(), 9)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("StatusCode = %d", statusErr.StatusCode)
	}
}

func TestReleaseDecode(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cube-releases/7/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("native") != "true" {
			t.Error("native flag missing")
		}
		writeJSON(t, w, map[string]any{
			"id":            7,
			"name":          "first",
			"created_at":    "2023-01-02T03:04:05",
			"intended_size": 360,
			"cube":          map[string]any{"printings": []any{}},
		})
	}), nil)

	release, err := c.Release(context.Background(), 7)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if release.ID != 7 || !release.Loaded() || release.IntendedSize != 360 {
		t.Fatalf("decoded %+v", release)
	}
}

// pagedCubesHandler serves a versioned-cubes listing with the given total
// count and counts requests.
func pagedCubesHandler(t *testing.T, count int, calls *atomic.Int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		results := make([]map[string]any, 0, limit)
		for i := offset; i < offset+limit && i < count; i++ {
			results = append(results, map[string]any{
				"id":          i,
				"name":        fmt.Sprintf("cube %d", i),
				"created_at":  "2023-01-02T03:04:05",
				"description": "",
			})
		}
		writeJSON(t, w, map[string]any{"count": count, "results": results})
	})
}

func TestVersionedCubesLazy(t *testing.T) {
	var calls atomic.Int64
	c, _ := newTestClient(t, pagedCubesHandler(t, 25, &calls), nil)
	ctx := context.Background()

	cubes, err := c.VersionedCubes(ctx, 0, 10, false)
	if err != nil {
		t.Fatalf("VersionedCubes: %v", err)
	}
	if cubes.Hits() != 25 {
		t.Fatalf("Hits() = %d", cubes.Hits())
	}
	if calls.Load() != 1 {
		t.Fatalf("construction issued %d requests", calls.Load())
	}

	cube, err := cubes.Get(ctx, 23)
	if err != nil {
		t.Fatalf("Get(23): %v", err)
	}
	if cube.ID != 23 {
		t.Fatalf("Get(23).ID = %d", cube.ID)
	}
	if calls.Load() != 2 {
		t.Fatalf("Get(23) issued %d total requests", calls.Load())
	}
}

func TestVersionedCubesMemo(t *testing.T) {
	var calls atomic.Int64
	c, _ := newTestClient(t, pagedCubesHandler(t, 5, &calls), nil)
	ctx := context.Background()

	first, err := c.VersionedCubes(ctx, 0, 10, false)
	if err != nil {
		t.Fatalf("VersionedCubes: %v", err)
	}
	second, err := c.VersionedCubes(ctx, 0, 10, false)
	if err != nil {
		t.Fatalf("VersionedCubes cached: %v", err)
	}
	if first != second {
		t.Fatal("memoized listing not reused")
	}
	if calls.Load() != 1 {
		t.Fatalf("cached call issued requests: %d", calls.Load())
	}

	third, err := c.VersionedCubes(ctx, 0, 10, true)
	if err != nil {
		t.Fatalf("VersionedCubes fresh: %v", err)
	}
	if third == first {
		t.Fatal("fresh listing returned the memo")
	}
	if calls.Load() != 2 {
		t.Fatalf("fresh call issued %d total requests", calls.Load())
	}
}

func TestStaticPaginationMode(t *testing.T) {
	var calls atomic.Int64
	c, _ := newTestClient(t, pagedCubesHandler(t, 25, &calls), func(cfg *client.Config) {
		cfg.StaticPagination = true
	})

	cubes, err := c.VersionedCubes(context.Background(), 0, 10, false)
	if err != nil {
		t.Fatalf("VersionedCubes: %v", err)
	}
	page, ok := cubes.(*pagination.StaticPage[*models.VersionedCube])
	if !ok {
		t.Fatalf("static mode returned %T", cubes)
	}
	if page.Len() != 10 || page.Hits() != 25 {
		t.Fatalf("page Len %d Hits %d", page.Len(), page.Hits())
	}

	// A static page never reaches back to the service.
	if _, err := page.Get(context.Background(), 3); err != nil {
		t.Fatalf("Get(3): %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("static page issued %d requests", calls.Load())
	}
}

func TestSearchQueryParams(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("query") != "lightning" || q.Get("order_by") != "cmc" ||
			q.Get("descending") != "true" || q.Get("search_target") != "printings" {
			t.Errorf("query params: %v", q)
		}
		writeJSON(t, w, map[string]any{"count": 1, "results": []any{12345}})
	}), nil)

	printings, err := c.SearchPrintings(
		context.Background(), "lightning", 0, 10,
		client.SearchOptions{OrderBy: "cmc", Descending: true},
	)
	if err != nil {
		t.Fatalf("SearchPrintings: %v", err)
	}
	printing, err := printings.Get(context.Background(), 0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	if printing.ID != 12345 {
		t.Fatalf("printing = %+v", printing)
	}
}

func TestLimitedSessionsQueryParams(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("sort_key") != "created_at" || q.Get("ascending") != "false" || q.Get("state_filter") != "PLAYING" {
			t.Errorf("query params: %v", q)
		}
		writeJSON(t, w, map[string]any{"count": 0, "results": []any{}})
	}), nil)

	sessions, err := c.LimitedSessions(
		context.Background(), 0, 10,
		client.SessionsOptions{Filters: map[string]string{"state_filter": "PLAYING"}},
	)
	if err != nil {
		t.Fatalf("LimitedSessions: %v", err)
	}
	if sessions.Hits() != 0 {
		t.Fatalf("Hits() = %d", sessions.Hits())
	}
}

func TestUploadLimitedDeck(t *testing.T) {
	deckPayload := json.RawMessage(`{"maindeck": [], "sideboard": []}`)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/limited/pools/3/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		if r.PostForm.Get("name") != "aggro" || r.PostForm.Get("deck") != string(deckPayload) {
			t.Errorf("form: %v", r.PostForm)
		}
		writeJSON(t, w, map[string]any{
			"id":         42,
			"name":       "aggro",
			"created_at": "2023-01-02T03:04:05",
			"user":       map[string]any{"id": 1, "username": "alice"},
			"deck":       json.RawMessage(deckPayload),
		})
	}), nil)

	deck, err := c.UploadLimitedDeck(context.Background(), 3, "aggro", models.Deck{RawMessage: deckPayload})
	if err != nil {
		t.Fatalf("UploadLimitedDeck: %v", err)
	}
	if deck.ID != 42 || !deck.Loaded() {
		t.Fatalf("uploaded deck = %+v", deck)
	}
}

func TestDownloadDB(t *testing.T) {
	payload := []byte("card database bytes")
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/db" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write(payload)
	}), nil)

	var buf bytes.Buffer
	if err := c.DownloadDB(context.Background(), &buf); err != nil {
		t.Fatalf("DownloadDB: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), payload) {
		t.Fatalf("downloaded %q", buf.Bytes())
	}
}

func TestRatingsDecode(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ratings/release/7/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		writeJSON(t, w, map[string]any{
			"id":         3,
			"release":    map[string]any{"id": 7, "name": "first"},
			"created_at": "2023-01-02T03:04:05",
			"ratings": []map[string]any{
				{"id": 1, "cardboard_cubeable": "Island", "example_cubeable": 5, "rating": 1500},
			},
			"node_rating_components": []map[string]any{
				{"id": 2, "node": map[string]any{"options": []any{}}, "rating_component": 900, "weight": "0.25"},
			},
		})
	}), nil)

	ratings, err := c.RatingsForRelease(context.Background(), 7)
	if err != nil {
		t.Fatalf("RatingsForRelease: %v", err)
	}
	if ratings.Release == nil || ratings.Release.ID != 7 {
		t.Fatalf("release = %+v", ratings.Release)
	}
	rating, ok := ratings.Rating("Island")
	if !ok || rating.Rating != 1500 {
		t.Fatalf("Rating(Island) = (%+v, %v)", rating, ok)
	}
	if len(ratings.NodeRatingComponents) != 1 || ratings.NodeRatingComponents[0].Weight != "0.25" {
		t.Fatalf("node components = %+v", ratings.NodeRatingComponents)
	}
}

func TestRequestMetrics(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/db-info/" {
			writeJSON(t, w, map[string]any{
				"created_at":          "2023-01-02T03:04:05",
				"json_updated_at":     "2023-01-02T03:04:05",
				"last_expansion_name": "MH2",
				"checksum":            "abc",
			})
			return
		}
		http.Error(w, "nope", http.StatusInternalServerError)
	}), func(cfg *client.Config) {
		cfg.Metrics = &countingMetrics{}
	})
	m := c.metrics.(*countingMetrics)

	if _, err := c.DBInfo(context.Background()); err != nil {
		t.Fatalf("DBInfo: %v", err)
	}
	if _, err := c.Patch(context.Background(), 1); err == nil {
		t.Fatal("failing request returned nil error")
	}

	if got := m.ok.Load(); got != 1 {
		t.Fatalf("ok requests = %d", got)
	}
	if got := m.failed.Load(); got != 1 {
		t.Fatalf("failed requests = %d", got)
	}
}

type countingMetrics struct {
	ok     atomic.Int64
	failed atomic.Int64
}

func (m *countingMetrics) Request(_ string, failed bool) {
	if failed {
		m.failed.Add(1)
	} else {
		m.ok.Add(1)
	}
}

func (m *countingMetrics) CacheHit()  {}
func (m *countingMetrics) CacheMiss() {}
func (m *countingMetrics) Dedup()     {}
