// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vechain/stakepool/api/admin"
	"github.com/vechain/stakepool/health"
)

// StartAdminServer serves the admin endpoints on addr. It returns the admin url and a func to stop it.
func StartAdminServer(addr string, logLevel *slog.LevelVar, apiLogs *atomic.Bool, health *health.Health) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen admin API addr [%v]", addr)
	}

	srv := &http.Server{
		Handler:           admin.New(logLevel, apiLogs, health),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
	var g errgroup.Group
	g.Go(func() error {
		return srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/admin", func() {
		srv.Close()
		if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("admin server exited", "err", err)
		}
	}, nil
}
