// internal/metrics/metrics.go
//
// Prometheus instrumentation.
//   - HTTP: request count by route and status class, latency by route.
//   - Game: starts, accepted/rejected guesses, finishes and attempts used.
//   - Cache: hits and misses.
//
// New returns a no-op Provider when metrics are disabled.

package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robalobadob/epiwordle/internal/game"
)

// Provider is implemented by the Prometheus collector set and by the no-op.
type Provider interface {
	game.Observer
	CacheHit()
	CacheMiss()
	ObserveRequest(route string, status int, d time.Duration)
	Handler() http.Handler
}

type Prometheus struct {
	gatherer prometheus.Gatherer

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	gamesStarted    prometheus.Counter
	guesses         *prometheus.CounterVec
	gamesFinished   *prometheus.CounterVec
	attempts        prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// New registers the collectors on reg (and serves them from gatherer).
func New(enabled bool, reg prometheus.Registerer, gatherer prometheus.Gatherer) Provider {
	if !enabled {
		return noop{}
	}
	f := promauto.With(reg)
	return &Prometheus{
		gatherer: gatherer,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "epiwordle_http_requests_total",
			Help: "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "epiwordle_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		gamesStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "epiwordle_games_started_total",
			Help: "Games started.",
		}),
		guesses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "epiwordle_guesses_total",
			Help: "Guesses by outcome (accepted or the rejection reason).",
		}, []string{"outcome"}),
		gamesFinished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "epiwordle_games_finished_total",
			Help: "Completed games by result.",
		}, []string{"result"}),
		attempts: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "epiwordle_game_attempts",
			Help:    "Guesses used by completed games.",
			Buckets: prometheus.LinearBuckets(1, 1, game.DefaultMaxAttempts),
		}),
		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "epiwordle_cache_hits_total",
			Help: "Cache hits.",
		}),
		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "epiwordle_cache_misses_total",
			Help: "Cache misses.",
		}),
	}
}

func (p *Prometheus) GameStarted()   { p.gamesStarted.Inc() }
func (p *Prometheus) GuessAccepted() { p.guesses.WithLabelValues("accepted").Inc() }
func (p *Prometheus) CacheHit()      { p.cacheHits.Inc() }
func (p *Prometheus) CacheMiss()     { p.cacheMisses.Inc() }

func (p *Prometheus) GuessRejected(reason error) {
	p.guesses.WithLabelValues(rejection(reason)).Inc()
}

func (p *Prometheus) GameFinished(won bool, attempts int) {
	result := "lost"
	if won {
		result = "won"
	}
	p.gamesFinished.WithLabelValues(result).Inc()
	p.attempts.Observe(float64(attempts))
}

func (p *Prometheus) ObserveRequest(route string, status int, d time.Duration) {
	p.requests.WithLabelValues(route, statusClass(status)).Inc()
	p.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

// rejection keeps the outcome label set bounded.
func rejection(err error) string {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		return "not_found"
	case errors.Is(err, game.ErrForbidden):
		return "forbidden"
	case errors.Is(err, game.ErrSessionAlreadyOver), errors.Is(err, game.ErrAttemptsExhausted):
		return "over"
	case errors.Is(err, game.ErrInvalidGuessLength):
		return "invalid_length"
	case errors.Is(err, game.ErrWordNotInDictionary):
		return "not_in_dictionary"
	case errors.Is(err, game.ErrPersistenceConflict):
		return "conflict"
	default:
		return "error"
	}
}

func statusClass(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Middleware records every request under its chi route pattern.
func Middleware(p Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			p.ObserveRequest(route, sw.status, time.Since(start))
		})
	}
}

type noop struct{}

func (noop) GameStarted()                              {}
func (noop) GuessAccepted()                            {}
func (noop) GuessRejected(error)                       {}
func (noop) GameFinished(bool, int)                    {}
func (noop) CacheHit()                                 {}
func (noop) CacheMiss()                                {}
func (noop) ObserveRequest(string, int, time.Duration) {}
func (noop) Handler() http.Handler                     { return http.NotFoundHandler() }
