// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakepool/api"
	"github.com/vechain/stakepool/api/events"
	"github.com/vechain/stakepool/eventdb"
	"github.com/vechain/stakepool/health"
	"github.com/vechain/stakepool/kv"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/metrics"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/scheduler"
	"github.com/vechain/stakepool/thor"
	"github.com/vechain/stakepool/venue"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "poold")

	// solo defaults
	soloPool  = thor.BytesToAddress([]byte("solo pool"))
	soloOwner = thor.BytesToAddress([]byte("solo owner"))
	soloVenue = thor.BytesToAddress([]byte("solo venue"))
)

const exportPageSize = 1000

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "poold",
		Usage:     "Node of a custodial staking pool",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			cacheFlag,
			poolAddrFlag,
			ownerFlag,
			feeRateFlag,
			venueFlag,
			venueURLFlag,
			legacyUnstakeFlag,
			epochFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiEventsLimitFlag,
			apiParticipantsLimitFlag,
			enableAPILogsFlag,
			apiSlowQueriesThresholdFlag,
			pprofFlag,
			enableMetricsFlag,
			adminAddrFlag,
			verbosityFlag,
			jsonLogsFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "solo",
				Usage: "run a pool against an in-process simulated venue for test & dev",
				Flags: []cli.Flag{
					configFlag,
					dataDirFlag,
					cacheFlag,
					persistFlag,
					poolAddrFlag,
					ownerFlag,
					feeRateFlag,
					legacyUnstakeFlag,
					epochFlag,
					apiAddrFlag,
					apiCorsFlag,
					apiTimeoutFlag,
					apiEventsLimitFlag,
					apiParticipantsLimitFlag,
					enableAPILogsFlag,
					apiSlowQueriesThresholdFlag,
					pprofFlag,
					enableMetricsFlag,
					adminAddrFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: soloAction,
			},
			{
				Name:  "venue",
				Usage: "serve a simulated staking venue over HTTP",
				Flags: []cli.Flag{
					venueListenFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: venueAction,
			},
			{
				Name:  "export-events",
				Usage: "write the pool event log as JSON lines",
				Flags: []cli.Flag{
					configFlag,
					dataDirFlag,
					poolAddrFlag,
					outputFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: exportEventsAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	s := loadSettings(ctx, nil)
	if len(s.venues) == 0 {
		return errors.New("no venue endpoint configured, set --venue-url or the venues config")
	}
	instanceDir := makeInstanceDir(ctx, s)

	mainDB := openMainDB(ctx, instanceDir)
	defer func() { logger.Info("closing pool database..."); mainDB.Close() }()

	eventDB := openEventDB(instanceDir)
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	return runPool(ctx, exitSignal, logLevel, s, makeVenueDirectory(s), mainDB, eventDB, instanceDir, nil)
}

func soloAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	s := loadSettings(ctx, func(cfg *Config) {
		if cfg.Pool.Address == "" {
			cfg.Pool.Address = soloPool.String()
		}
		if cfg.Pool.Owner == "" {
			cfg.Pool.Owner = soloOwner.String()
		}
		if cfg.Pool.Venue == "" {
			cfg.Pool.Venue = soloVenue.String()
		}
		// the simulated venue is the only one reachable in solo mode
		cfg.Venues = nil
	})

	sim := venue.NewSimulated()
	venues := venue.NewDirectory()
	venues.Register(s.venue, sim)

	var (
		mainDB      *lvldb.LevelDB
		eventDB     *eventdb.EventDB
		instanceDir string
		err         error
	)
	if ctx.Bool(persistFlag.Name) {
		logger.Warn("simulated venue balances are not persisted")
		instanceDir = makeInstanceDir(ctx, s)
		mainDB = openMainDB(ctx, instanceDir)
		eventDB = openEventDB(instanceDir)
	} else {
		instanceDir = "Memory"
		if mainDB, err = lvldb.NewMem(); err != nil {
			fatal(fmt.Sprintf("open pool database: %v", err))
		}
		if eventDB, err = eventdb.NewMem(); err != nil {
			fatal(fmt.Sprintf("open event database: %v", err))
		}
	}
	defer func() { logger.Info("closing pool database..."); mainDB.Close() }()
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	return runPool(ctx, exitSignal, logLevel, s, venues, mainDB, eventDB, instanceDir, sim)
}

// runPool serves the pool until exitSignal is done. A non-nil sim is
// exposed under /venue next to the pool API.
func runPool(
	ctx *cli.Context,
	exitSignal context.Context,
	logLevel *slog.LevelVar,
	s *settings,
	venues *venue.Directory,
	mainDB kv.Store,
	eventDB *eventdb.EventDB,
	instanceDir string,
	sim *venue.Simulated,
) error {
	enableMetrics := ctx.Bool(enableMetricsFlag.Name)
	if enableMetrics {
		metrics.InitializePrometheusMetrics()
	}

	svc := pool.NewService(mainDB, s.pool, venues, s.opts, eventDB)
	defer svc.Close()

	if err := initPool(svc, s); err != nil {
		return err
	}
	summary, err := svc.Summary()
	if err != nil {
		return err
	}

	hlth := health.New(s.maxProbeAge)
	hlth.PoolInitialized(true)

	watchCtx, cancelWatch := context.WithCancel(exitSignal)
	var g errgroup.Group
	defer func() {
		cancelWatch()
		g.Wait()
	}()
	g.Go(func() error {
		hlth.Watch(watchCtx, s.probeEvery, func(ctx context.Context) error {
			_, err := svc.VenueBalance(ctx)
			return err
		})
		return nil
	})
	g.Go(func() error {
		checkClockOffset()
		return nil
	})

	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	apiHandler, closeSubs := api.New(svc, eventDB, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableMetrics:        enableMetrics,
		EventsLimit:          ctx.Uint64(apiEventsLimitFlag.Name),
		ParticipantsLimit:    ctx.Uint64(apiParticipantsLimitFlag.Name),
		EnableReqLogger:      apiLogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
	})

	var handler http.Handler = apiHandler
	if sim != nil {
		router := mux.NewRouter()
		venue.NewHandler(sim).Mount(router, "/venue")
		router.PathPrefix("/").Handler(apiHandler)
		handler = router
	}

	apiURL, srvCloser := startAPIServer(ctx, handler)
	defer func() { logger.Info("stopping API server..."); srvCloser() }()
	defer closeSubs()

	var adminURL string
	if addr := ctx.String(adminAddrFlag.Name); addr != "" {
		url, closer, err := api.StartAdminServer(addr, logLevel, apiLogs, hlth)
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping admin server..."); closer() }()
		adminURL = url
	}

	if s.epoch != "" {
		sched := scheduler.New(exitSignal, svc, s.epochTimeout)
		if err := sched.Register(s.epoch); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	printStartupMessage(s, summary, instanceDir, apiURL, adminURL)

	<-exitSignal.Done()
	return nil
}

func venueAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	router := mux.NewRouter()
	venue.NewHandler(venue.NewSimulated()).Mount(router, "/venue")

	url, closer := startServer(ctx.String(venueListenFlag.Name), requestBodyLimit(router))
	defer func() { logger.Info("stopping venue server..."); closer() }()

	fmt.Printf("Simulated venue [ %vvenue ]\n", url)
	<-exitSignal.Done()
	return nil
}

func exportEventsAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	initLogger(ctx)

	s := loadSettings(ctx, nil)
	eventDB := openEventDB(makeInstanceDir(ctx, s))
	defer eventDB.Close()

	total, err := eventDB.Count(exitSignal)
	if err != nil {
		return err
	}

	path := ctx.String(outputFlag.Name)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create [%v]", path)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)

	fmt.Fprintf(os.Stderr, ">> Exporting %d events to %v <<\n", total, path)
	bar := pb.New64(int64(total)).SetMaxWidth(90)
	bar.Output = os.Stderr
	bar.Start()
	defer func() { bar.NotPrint = true }()

	for offset := uint64(0); offset < total; offset += exportPageSize {
		found, err := eventDB.Filter(exitSignal, &eventdb.Filter{
			Options: &eventdb.Options{Offset: offset, Limit: exportPageSize},
		})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			break
		}
		for _, ev := range found {
			if err := enc.Encode(events.ConvertEvent(ev)); err != nil {
				return errors.Wrap(err, "write event")
			}
			bar.Add64(1)
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "flush")
	}
	bar.Finish()
	return nil
}
