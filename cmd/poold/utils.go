// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakepool/eventdb"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/lvldb"
	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/venue"
)

const (
	// maxClockOffset is the drift beyond which event timestamps become misleading.
	maxClockOffset      = 5 * time.Second
	venueRequestTimeout = 10 * time.Second
)

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) *slog.LevelVar {
	lvl := &slog.LevelVar{}
	lvl.Set(log.FromLegacyLevel(int(ctx.Uint64(verbosityFlag.Name))))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stderr, lvl)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, lvl, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return lvl
}

// applyFlags overrides config values with the flags given on the command line.
func applyFlags(ctx *cli.Context, cfg *Config) {
	if ctx.IsSet(poolAddrFlag.Name) {
		cfg.Pool.Address = ctx.String(poolAddrFlag.Name)
	}
	if ctx.IsSet(ownerFlag.Name) {
		cfg.Pool.Owner = ctx.String(ownerFlag.Name)
	}
	if ctx.IsSet(feeRateFlag.Name) {
		bps := ctx.Uint64(feeRateFlag.Name)
		cfg.Pool.FeeBps = &bps
	}
	if ctx.IsSet(venueFlag.Name) {
		cfg.Pool.Venue = ctx.String(venueFlag.Name)
	}
	if ctx.IsSet(venueURLFlag.Name) {
		cfg.addVenue(cfg.Pool.Venue, ctx.String(venueURLFlag.Name))
	}
	if ctx.IsSet(legacyUnstakeFlag.Name) {
		cfg.Pool.LegacyUnstake = ctx.Bool(legacyUnstakeFlag.Name)
	}
	if ctx.IsSet(epochFlag.Name) {
		cfg.Schedule.Epoch = ctx.String(epochFlag.Name)
	}
}

// loadSettings resolves config file, environment and flags. fill, if not
// nil, supplies values left blank by all three.
func loadSettings(ctx *cli.Context, fill func(*Config)) *settings {
	cfg, err := LoadConfig(ctx.String(configFlag.Name))
	if err != nil {
		fatal(err)
	}
	applyFlags(ctx, cfg)
	if fill != nil {
		fill(cfg)
	}
	s, err := cfg.Validate()
	if err != nil {
		fatal(fmt.Sprintf("invalid config: %v", err))
	}
	return s
}

func makeDataDir(ctx *cli.Context) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name))
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		fatal(fmt.Sprintf("create data dir [%v]: %v", dataDir, err))
	}
	return dataDir
}

// makeInstanceDir returns the directory holding one pool's databases.
func makeInstanceDir(ctx *cli.Context, s *settings) string {
	dataDir := makeDataDir(ctx)

	instanceDir := filepath.Join(dataDir, fmt.Sprintf("pool-%x", s.pool.Bytes()[16:]))
	if err := os.MkdirAll(instanceDir, 0700); err != nil {
		fatal(fmt.Sprintf("create instance dir [%v]: %v", instanceDir, err))
	}
	return instanceDir
}

func openMainDB(ctx *cli.Context, dir string) *lvldb.LevelDB {
	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	logger.Debug("cache size(MB)", "size", cacheMB)

	// Ensure Go's GC ignores the database cache for trigger percentage
	gogc := math.Max(20, math.Min(100, 100/(float64(cacheMB)/1024)))

	logger.Debug("sanitize Go's GC trigger", "percent", int(gogc))
	debug.SetGCPercent(int(gogc))

	fdCache := suggestFDCache()
	logger.Debug("fd cache", "n", fdCache)

	path := filepath.Join(dir, "main.db")
	db, err := lvldb.New(path, lvldb.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: fdCache,
	})
	if err != nil {
		fatal(fmt.Sprintf("open pool database [%v]: %v", path, err))
	}
	return db
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/4 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 4)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() int {
	limit, err := fdlimit.Current()
	if err != nil {
		fatal("failed to get fd limit:", err)
	}
	if limit <= 1024 {
		logger.Warn("low fd limit, increase it if possible", "limit", limit)
	}

	n := limit / 2
	if n > 1024 {
		return 1024
	}
	return n
}

func openEventDB(dir string) *eventdb.EventDB {
	path := filepath.Join(dir, "events.db")
	db, err := eventdb.New(path)
	if err != nil {
		fatal(fmt.Sprintf("open event database [%v]: %v", path, err))
	}
	return db
}

func makeVenueDirectory(s *settings) *venue.Directory {
	dir := venue.NewDirectory()
	client := &http.Client{Timeout: venueRequestTimeout}
	for addr, url := range s.venues {
		dir.Register(addr, venue.NewClientWithHTTP(url, client))
		logger.Info("venue registered", "venue", addr, "url", url)
	}
	return dir
}

// initPool writes the initial owner, venue and fee rate to a fresh pool.
// An initialized pool keeps what it has; changes go through the owner API.
func initPool(svc *pool.Service, s *settings) error {
	ok, err := svc.Initialized()
	if err != nil {
		return err
	}
	if ok {
		summary, err := svc.Summary()
		if err != nil {
			return err
		}
		if (!s.owner.IsZero() && s.owner != summary.Owner) || (!s.venue.IsZero() && s.venue != summary.Venue) {
			logger.Warn("pool already initialized, configured owner and venue ignored",
				"owner", summary.Owner, "venue", summary.Venue)
		}
		return nil
	}
	if s.owner.IsZero() || s.venue.IsZero() {
		return errors.New("pool is not initialized, owner and venue are required")
	}
	if err := svc.Init(s.owner, s.venue, s.feeRate); err != nil {
		return errors.WithMessage(err, "init pool")
	}
	logger.Info("pool initialized", "owner", s.owner, "venue", s.venue, "feeRate", s.feeRate)
	return nil
}

func handleAPITimeout(handler http.Handler, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// subscriptions live as long as the peer does
		if r.Header.Get("Upgrade") != "" {
			handler.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		handler.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestBodyLimit(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
		handler.ServeHTTP(w, r)
	})
}

// startServer serves handler on addr until the returned func is called.
func startServer(addr string, handler http.Handler) (string, func()) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen addr [%v]: %v", addr, err))
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second}
	var g errgroup.Group
	g.Go(func() error {
		return srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
		if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("server exited", "addr", addr, "err", err)
		}
	}
}

func startAPIServer(ctx *cli.Context, handler http.Handler) (string, func()) {
	if timeout := ctx.Uint64(apiTimeoutFlag.Name); timeout > 0 {
		handler = handleAPITimeout(handler, time.Duration(timeout)*time.Millisecond)
	}
	return startServer(ctx.String(apiAddrFlag.Name), requestBodyLimit(handler))
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if resp.ClockOffset > maxClockOffset || resp.ClockOffset < -maxClockOffset {
		logger.Warn("clock offset detected, event timestamps will drift", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}

func printStartupMessage(s *settings, summary *pool.Summary, instanceDir, apiURL, adminURL string) {
	fmt.Printf(`Starting %v
    Pool         [ %v ]
    Owner        [ %v ]
    Venue        [ %v ]
    Fee rate     [ %v bps ]
    Unstake      [ %v ]
    Epoch        [ %v ]
    Instance dir [ %v ]
    API portal   [ %v ]
    Admin        [ %v ]
`,
		"poold "+fullVersion(),
		s.pool,
		summary.Owner,
		summary.Venue,
		summary.FeeRate,
		func() string {
			if s.opts.LegacyUnstake {
				return "legacy"
			}
			return "strict"
		}(),
		func() string {
			if s.epoch == "" {
				return "manual"
			}
			return s.epoch
		}(),
		instanceDir,
		apiURL,
		func() string {
			if adminURL == "" {
				return "disabled"
			}
			return adminURL
		}(),
	)
}

func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.vechain.stakepool")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.stakepool")
		default:
			return filepath.Join(home, ".org.vechain.stakepool")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
