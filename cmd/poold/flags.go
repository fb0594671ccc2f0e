// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakepool/log"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to the YAML pool config",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for pool state and event databases",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Usage: "megabytes of ram allocated to the state database",
		Value: 256,
	}
	persistFlag = cli.BoolFlag{
		Name:  "persist",
		Usage: "keep solo pool state in --data-dir instead of memory",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8669",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiTimeoutFlag = cli.Uint64Flag{
		Name:  "api-timeout",
		Value: 10000,
		Usage: "API request timeout value in milliseconds",
	}
	apiEventsLimitFlag = cli.Uint64Flag{
		Name:  "api-events-limit",
		Value: 1000,
		Usage: "limit the number of events returned by /events API",
	}
	apiParticipantsLimitFlag = cli.Uint64Flag{
		Name:  "api-participants-limit",
		Value: 100,
		Usage: "limit the page size of /pool/participants API",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	apiSlowQueriesThresholdFlag = cli.Uint64Flag{
		Name:  "api-slow-queries-threshold",
		Usage: "all queries with duration(ms) above threshold will be logged",
		Value: 1000,
	}
	pprofFlag = cli.BoolFlag{
		Name:  "pprof",
		Usage: "turn on go-pprof",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection, served at /metrics",
	}
	adminAddrFlag = cli.StringFlag{
		Name:  "admin-addr",
		Usage: "admin service listening address (disabled if empty)",
	}
	verbosityFlag = cli.Uint64Flag{
		Name:  "verbosity",
		Value: log.LegacyLevelInfo,
		Usage: "log verbosity (0-9)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}

	// pool policy, each overrides the config file
	poolAddrFlag = cli.StringFlag{
		Name:  "pool",
		Usage: "pool account address",
	}
	ownerFlag = cli.StringFlag{
		Name:  "owner",
		Usage: "pool owner address, used when the pool is first initialized",
	}
	feeRateFlag = cli.Uint64Flag{
		Name:  "fee-bps",
		Usage: "owner fee in basis points, used when the pool is first initialized",
	}
	venueFlag = cli.StringFlag{
		Name:  "venue",
		Usage: "address of the staking venue",
	}
	venueURLFlag = cli.StringFlag{
		Name:  "venue-url",
		Usage: "HTTP endpoint of the venue named by --venue",
	}
	legacyUnstakeFlag = cli.BoolFlag{
		Name:  "legacy-unstake",
		Usage: "check unstake requests against staked balance only, over-commitment fails at commit time",
	}
	epochFlag = cli.StringFlag{
		Name:  "epoch",
		Usage: "cron spec (with seconds) for settlement epochs, disabled if empty",
	}

	// venue server
	venueListenFlag = cli.StringFlag{
		Name:  "listen",
		Value: "localhost:8670",
		Usage: "simulated venue listening address",
	}

	// export-events
	outputFlag = cli.StringFlag{
		Name:  "out",
		Value: "events.jsonl",
		Usage: "file to write exported events to, one JSON object per line",
	}
)
