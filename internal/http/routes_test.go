package http

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"pegfall/internal/domain"
	"pegfall/internal/ws"
)

type stubHistory struct {
	rounds []*domain.RoundResult
	err    error
	code   string
	limit  int
}

func (s *stubHistory) ListByRoom(_ context.Context, code string, limit int) ([]*domain.RoundResult, error) {
	s.code, s.limit = code, limit
	return s.rounds, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestEngine(t *testing.T, d Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if d.Hub == nil {
		d.Hub = ws.NewHub(context.Background(), ws.DefaultRoomConfig())
		t.Cleanup(d.Hub.Shutdown)
	}
	d.RateLimit, d.RateWindow, d.Version = 100, time.Minute, "test"
	r := gin.New()
	RegisterRoutes(r, d)
	return r
}

func do(r nethttp.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealthWithoutDatabase(t *testing.T) {
	r := newTestEngine(t, Deps{})
	for _, path := range []string{"/health", "/healthz", "/readyz"} {
		if w := do(r, nethttp.MethodGet, path); w.Code != nethttp.StatusOK {
			t.Fatalf("%s: %d %s", path, w.Code, w.Body)
		}
	}
	w := do(r, nethttp.MethodGet, "/readyz")
	if !strings.Contains(w.Body.String(), `"database":"disabled"`) {
		t.Fatalf("readyz body = %s", w.Body)
	}
}

func TestReadinessReportsDatabaseFailure(t *testing.T) {
	r := newTestEngine(t, Deps{DB: stubPinger{err: errors.New("down")}})
	if w := do(r, nethttp.MethodGet, "/readyz"); w.Code != nethttp.StatusServiceUnavailable {
		t.Fatalf("readyz = %d", w.Code)
	}
	if w := do(r, nethttp.MethodGet, "/health"); w.Code != nethttp.StatusServiceUnavailable {
		t.Fatalf("health = %d", w.Code)
	}
}

func TestRoomLifecycleAPI(t *testing.T) {
	r := newTestEngine(t, Deps{})

	w := do(r, nethttp.MethodPost, "/api/v1/rooms")
	if w.Code != nethttp.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body)
	}
	var created struct{ Code string }
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil || created.Code == "" {
		t.Fatalf("create body %s: %v", w.Body, err)
	}

	w = do(r, nethttp.MethodGet, "/api/v1/rooms")
	if !strings.Contains(w.Body.String(), created.Code) {
		t.Fatalf("list = %s", w.Body)
	}

	w = do(r, nethttp.MethodGet, "/api/v1/rooms/"+strings.ToLower(created.Code))
	if w.Code != nethttp.StatusOK {
		t.Fatalf("get = %d %s", w.Code, w.Body)
	}
	var view ws.View
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Code != created.Code || view.Phase != "lobby" || view.Connections != 0 {
		t.Fatalf("view = %+v", view)
	}

	if w := do(r, nethttp.MethodGet, "/api/v1/rooms/NOPE42"); w.Code != nethttp.StatusNotFound {
		t.Fatalf("missing room = %d", w.Code)
	}
}

func TestHistory(t *testing.T) {
	r := newTestEngine(t, Deps{})
	if w := do(r, nethttp.MethodGet, "/api/v1/rooms/main/history"); w.Code != nethttp.StatusServiceUnavailable {
		t.Fatalf("history without archive = %d", w.Code)
	}

	h := &stubHistory{rounds: []*domain.RoundResult{{RoomCode: "MAIN", Round: 3}}}
	r = newTestEngine(t, Deps{History: h})

	if w := do(r, nethttp.MethodGet, "/api/v1/rooms/main/history?limit=0"); w.Code != nethttp.StatusBadRequest {
		t.Fatalf("bad limit = %d", w.Code)
	}
	w := do(r, nethttp.MethodGet, "/api/v1/rooms/main/history?limit=500")
	if w.Code != nethttp.StatusOK {
		t.Fatalf("history = %d %s", w.Code, w.Body)
	}
	if h.code != "MAIN" || h.limit != 100 {
		t.Fatalf("queried %q limit %d", h.code, h.limit)
	}
	if !strings.Contains(w.Body.String(), `"round":3`) {
		t.Fatalf("body = %s", w.Body)
	}

	h.err = errors.New("boom")
	if w := do(r, nethttp.MethodGet, "/api/v1/rooms/main/history"); w.Code != nethttp.StatusInternalServerError {
		t.Fatalf("history error = %d", w.Code)
	}
}
