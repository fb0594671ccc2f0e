// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakepool/pool"
	"github.com/vechain/stakepool/pool/ledger"
	"github.com/vechain/stakepool/thor"
)

// VenueConfig binds a venue address to the HTTP endpoint serving it.
type VenueConfig struct {
	Address string `yaml:"address"`
	URL     string `yaml:"url"`
}

// Config is the YAML pool config. Environment variables override the file
// and command line flags override both.
type Config struct {
	Pool struct {
		Address       string  `yaml:"address"`
		Owner         string  `yaml:"owner"`
		FeeBps        *uint64 `yaml:"fee_bps"`
		Venue         string  `yaml:"venue"`
		LegacyUnstake bool    `yaml:"legacy_unstake"`
		SweepPageSize uint64  `yaml:"sweep_page_size"`
	} `yaml:"pool"`
	Venues   []VenueConfig `yaml:"venues"`
	Schedule struct {
		Epoch   string        `yaml:"epoch"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"schedule"`
	Health struct {
		ProbeInterval time.Duration `yaml:"probe_interval"`
		MaxProbeAge   time.Duration `yaml:"max_probe_age"`
	} `yaml:"health"`
}

// LoadConfig reads the config at path, if any, then applies environment
// overrides and defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "read config")
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(err, "parse config")
			}
		}
	}

	if v := os.Getenv("POOLD_POOL"); v != "" {
		cfg.Pool.Address = v
	}
	if v := os.Getenv("POOLD_OWNER"); v != "" {
		cfg.Pool.Owner = v
	}
	if v := os.Getenv("POOLD_FEE_BPS"); v != "" {
		bps, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "POOLD_FEE_BPS")
		}
		cfg.Pool.FeeBps = &bps
	}
	if v := os.Getenv("POOLD_VENUE"); v != "" {
		cfg.Pool.Venue = v
	}
	if v := os.Getenv("POOLD_VENUE_URL"); v != "" {
		cfg.addVenue(cfg.Pool.Venue, v)
	}
	if v := os.Getenv("POOLD_EPOCH"); v != "" {
		cfg.Schedule.Epoch = v
	}

	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Pool.FeeBps == nil {
		bps := uint64(pool.DefaultFeeRate)
		c.Pool.FeeBps = &bps
	}
	if c.Schedule.Timeout == 0 {
		c.Schedule.Timeout = 30 * time.Second
	}
	if c.Health.ProbeInterval == 0 {
		c.Health.ProbeInterval = 15 * time.Second
	}
	if c.Health.MaxProbeAge == 0 {
		c.Health.MaxProbeAge = 4 * c.Health.ProbeInterval
	}
}

// addVenue points the venue at addr to url, replacing an existing entry.
func (c *Config) addVenue(addr, url string) {
	for i := range c.Venues {
		if c.Venues[i].Address == addr {
			c.Venues[i].URL = url
			return
		}
	}
	c.Venues = append(c.Venues, VenueConfig{Address: addr, URL: url})
}

// settings is a validated Config.
type settings struct {
	pool         thor.Address
	owner        thor.Address
	feeRate      uint64
	venue        thor.Address
	venues       map[thor.Address]string
	opts         pool.Options
	epoch        string
	epochTimeout time.Duration
	probeEvery   time.Duration
	maxProbeAge  time.Duration
}

func parseOptionalAddress(name, s string) (thor.Address, error) {
	if s == "" {
		return thor.Address{}, nil
	}
	addr, err := thor.ParseAddress(s)
	if err != nil {
		return thor.Address{}, errors.WithMessage(err, name)
	}
	return addr, nil
}

// Validate checks the config and resolves it into settings. The pool
// address is always required; owner and venue only matter until the pool
// is initialized and are checked there.
func (c *Config) Validate() (*settings, error) {
	s := &settings{
		feeRate:      *c.Pool.FeeBps,
		venues:       make(map[thor.Address]string),
		epoch:        c.Schedule.Epoch,
		epochTimeout: c.Schedule.Timeout,
		probeEvery:   c.Health.ProbeInterval,
		maxProbeAge:  c.Health.MaxProbeAge,
		opts: pool.Options{
			LegacyUnstake: c.Pool.LegacyUnstake,
			SweepPageSize: c.Pool.SweepPageSize,
		},
	}

	var err error
	if c.Pool.Address == "" {
		return nil, errors.New("pool.address is required")
	}
	if s.pool, err = parseOptionalAddress("pool.address", c.Pool.Address); err != nil {
		return nil, err
	}
	if s.owner, err = parseOptionalAddress("pool.owner", c.Pool.Owner); err != nil {
		return nil, err
	}
	if s.venue, err = parseOptionalAddress("pool.venue", c.Pool.Venue); err != nil {
		return nil, err
	}
	if s.feeRate > ledger.MaxFeeRate {
		return nil, errors.Errorf("pool.fee_bps %d exceeds %d", s.feeRate, ledger.MaxFeeRate)
	}
	for i, v := range c.Venues {
		addr, err := parseOptionalAddress("venues.address", v.Address)
		if err != nil {
			return nil, err
		}
		if addr.IsZero() || v.URL == "" {
			return nil, errors.Errorf("venues[%d]: address and url are required", i)
		}
		s.venues[addr] = v.URL
	}
	return s, nil
}
