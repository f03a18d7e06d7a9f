package server

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/fluida-labs/fluida"
	"github.com/fluida-labs/fluida/errors"
	"github.com/fluida-labs/fluida/x/htlc"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fluida",
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests served by the query API.",
	}, []string{"method", "endpoint", "status"})
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fluida",
		Subsystem: "api",
		Name:      "http_request_duration_seconds",
		Help:      "Query API request latency.",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// Viewer gives read access to the last committed state.
type Viewer interface {
	View(fn func(db fluida.ReadOnlyKVStore) error) error
}

// NewHTTPHandler returns the read only HTTP API of the swap engine.
//
//	GET /health
//	GET /metrics
//	GET /htlc/counter
//	GET /htlc/custodian
//	GET /htlc/swaps/{id}
//	GET /htlc/hashlock/{hash}
//
// Swap ids are decimal or 0x prefixed hexadecimal numbers. Hash locks are
// hex encoded.
func NewHTTPHandler(state Viewer, logger log.Logger) http.Handler {
	a := &api{state: state, logger: logger}

	r := mux.NewRouter()
	r.Use(instrument)
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	q := r.PathPrefix("/htlc").Subrouter()
	q.HandleFunc("/counter", a.counter).Methods("GET")
	q.HandleFunc("/custodian", a.custodian).Methods("GET")
	q.HandleFunc("/swaps/{id}", a.swap).Methods("GET")
	q.HandleFunc("/hashlock/{hash}", a.hashLock).Methods("GET")
	return r
}

type api struct {
	state  Viewer
	logger log.Logger
}

func (a *api) counter(w http.ResponseWriter, r *http.Request) {
	var n uint64
	err := a.state.View(func(db fluida.ReadOnlyKVStore) (err error) {
		n, err = htlc.Counter(db)
		return err
	})
	if err != nil {
		a.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"counter": n})
}

func (a *api) custodian(w http.ResponseWriter, r *http.Request) {
	var c fluida.Address
	err := a.state.View(func(db fluida.ReadOnlyKVStore) (err error) {
		c, err = htlc.Custodian(db)
		return err
	})
	if err != nil {
		a.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]fluida.Address{"custodian": c})
}

func (a *api) swap(w http.ResponseWriter, r *http.Request) {
	id, err := htlc.ParseAmount(mux.Vars(r)["id"])
	if err != nil {
		a.respondError(w, errors.Wrap(err, "swap id"))
		return
	}
	var swap *htlc.Swap
	err = a.state.View(func(db fluida.ReadOnlyKVStore) (err error) {
		swap, err = htlc.GetSwap(db, id)
		return err
	})
	if err != nil {
		a.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, htlc.SwapEntry{ID: id.Uint64(), Swap: swap})
}

func (a *api) hashLock(w http.ResponseWriter, r *http.Request) {
	hash, err := hex.DecodeString(mux.Vars(r)["hash"])
	if err != nil {
		a.respondError(w, errors.Wrap(errors.ErrInput, "hash lock must be hex encoded"))
		return
	}
	var entries []htlc.SwapEntry
	err = a.state.View(func(db fluida.ReadOnlyKVStore) (err error) {
		entries, err = htlc.SwapsByHashLock(db, hash)
		return err
	})
	if err != nil {
		a.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *api) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case htlc.ErrSwapNotFound.Is(err), errors.ErrNotFound.Is(err):
		status = http.StatusNotFound
	case errors.ErrInput.Is(err), errors.ErrOverflow.Is(err):
		status = http.StatusBadRequest
	default:
		a.logger.Error("query failed", "err", err)
	}
	_, log := errors.ABCIInfo(err, false)
	writeJSON(w, status, map[string]string{"error": log})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
	})
}
