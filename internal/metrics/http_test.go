package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_RecordsPatternAndStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := Middleware(mux)

	ok := httpRequestsTotal.WithLabelValues(http.MethodGet, "GET /things/{id}", "418")
	before := testutil.ToFloat64(ok)

	for _, id := range []string{"1", "2"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/things/"+id, nil))
		if rr.Code != http.StatusTeapot {
			t.Fatalf("expected 418, got %d", rr.Code)
		}
	}

	if got := testutil.ToFloat64(ok) - before; got != 2 {
		t.Fatalf("expected 2 requests recorded under the pattern, got %v", got)
	}
}

func TestMiddleware_UnmatchedRouteIsUnknown(t *testing.T) {
	h := Middleware(http.NewServeMux())

	notFound := httpRequestsTotal.WithLabelValues(http.MethodGet, "unknown", "404")
	before := testutil.ToFloat64(notFound)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(notFound) - before; got != 1 {
		t.Fatalf("expected 1 unknown request, got %v", got)
	}
}
