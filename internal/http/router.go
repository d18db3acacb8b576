package httpserver

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voltgrid/internal/http/handlers"
	"voltgrid/internal/observability"
)

// Middleware chains are applied per route group.
type Middleware func(http.Handler) http.Handler

// Deps groups everything the router mounts.
type Deps struct {
	Stations *handlers.StationsHandlers
	Bookings *handlers.BookingsHandlers
	Stream   http.HandlerFunc
	Health   http.HandlerFunc

	Auth     Middleware // bearer identity, required on booking routes
	Operator Middleware // operator role, layered above Auth
	APIKey   Middleware // administrative key for catalogue mutation
}

// NewRouter registers endpoints.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Public catalogue reads.
	mux.HandleFunc("GET /stations", d.Stations.List)
	mux.HandleFunc("GET /stations/search", d.Stations.Search)
	mux.HandleFunc("GET /stations/{id}", d.Stations.Get)

	// Catalogue mutation: operator role plus service API key.
	admin := func(h http.HandlerFunc) http.Handler {
		return d.Auth(d.Operator(d.APIKey(h)))
	}
	mux.Handle("POST /stations", admin(d.Stations.Create))
	mux.Handle("POST /stations/import", admin(d.Stations.Import))
	mux.Handle("PUT /stations/{id}", admin(d.Stations.Update))
	mux.Handle("PATCH /stations/{id}/status", admin(d.Stations.SetStatus))
	mux.Handle("DELETE /stations/{id}", admin(d.Stations.Delete))

	// Booking routes need a resolved caller identity.
	mux.Handle("POST /bookings", d.Auth(http.HandlerFunc(d.Bookings.Reserve)))
	mux.Handle("POST /bookings/{id}/cancel", d.Auth(http.HandlerFunc(d.Bookings.Cancel)))
	mux.Handle("POST /bookings/{id}/start", d.Auth(http.HandlerFunc(d.Bookings.Start)))
	mux.Handle("POST /bookings/{id}/complete", d.Auth(d.Operator(http.HandlerFunc(d.Bookings.Complete))))
	mux.Handle("GET /bookings/me", d.Auth(http.HandlerFunc(d.Bookings.ListMine)))

	if d.Stream != nil {
		mux.HandleFunc("GET /ws/stations", d.Stream)
	}
	mux.HandleFunc("GET /health", d.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	return instrument(mux)
}

// instrument records request counts and latency; the route pattern keeps label
// cardinality bounded.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(rec.status)
		observability.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		observability.HTTPRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack keeps the websocket upgrade working behind the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}
