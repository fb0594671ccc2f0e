// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/stakepool/api/events"
	"github.com/vechain/stakepool/api/middleware"
	"github.com/vechain/stakepool/api/pools"
	"github.com/vechain/stakepool/api/subscriptions"
	"github.com/vechain/stakepool/eventdb"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/metrics"
	"github.com/vechain/stakepool/pool"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	PprofOn              bool
	EnableMetrics        bool
	EventsLimit          uint64
	ParticipantsLimit    uint64
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
}

// New returns the api handler and a func to close hijacked websocket connections.
func New(svc *pool.Service, eventDB *eventdb.EventDB, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	pools.New(svc, opts.ParticipantsLimit).
		Mount(router, "/pool")
	if eventDB != nil {
		events.New(eventDB, opts.EventsLimit).
			Mount(router, "/events")
	}
	subs := subscriptions.New(svc, origins)
	subs.Mount(router, "/subscriptions")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	enabled := opts.EnableReqLogger
	if enabled == nil {
		enabled = &atomic.Bool{}
	}
	router.Use(middleware.RequestLoggerMiddleware(logger, enabled, opts.SlowQueriesThreshold))

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
	)(handler)

	return handler.ServeHTTP, subs.Close
}
