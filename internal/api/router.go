package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Router(h *Handler, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /kram/{$}", h.Kram)
	mux.HandleFunc("POST /add_number/{$}", h.AddNumber)

	mux.HandleFunc("GET /hello", h.Hello)
	mux.HandleFunc("GET /v1/health", h.Health)
	mux.HandleFunc("GET /v1/scheduler/status", h.SchedulerStatus)
	mux.Handle("GET /metrics", promhttp.Handler())

	static := http.FileServer(http.Dir(staticDir))
	mux.Handle("GET /static/", http.StripPrefix("/static/", static))
	mux.Handle("GET /{$}", static)

	return mux
}
