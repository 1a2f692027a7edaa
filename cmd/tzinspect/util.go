// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cloudeng.io/sync/errgroup"
	"github.com/cosnicolaou/tzdb/internal/zonecache"
	"github.com/cosnicolaou/tzdb/tzif"
	"github.com/cosnicolaou/tzdb/zone"
)

type ZoneFileFlags struct {
	ZoneConfig string `subcmd:"zone-config,,path/URI to a file containing custom zone definitions"`
	TZDir      string `subcmd:"tzdata,/usr/share/zoneinfo,path to the system zoneinfo directory"`
	CacheFile  string `subcmd:"cache,,path to a sqlite cache of compiled zones"`
	Verbose    bool   `subcmd:"verbose,false,log zone loading to stderr"`
}

func setupLogging(verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

// zoneLoader resolves zone names against, in order, the custom zone
// configuration, the compiled-zone cache and the TZif files in the
// zoneinfo directory. Zones parsed from TZif files are written back to
// the cache.
type zoneLoader struct {
	configured zone.Zones
	cache      *zonecache.Cache
	tzdir      string
	logger     *slog.Logger
}

func newZoneLoader(ctx context.Context, fv *ZoneFileFlags) (*zoneLoader, error) {
	ld := &zoneLoader{tzdir: fv.TZDir, logger: setupLogging(fv.Verbose)}
	if len(fv.ZoneConfig) > 0 {
		zones, err := zone.ParseConfigFile(ctx, fv.ZoneConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to parse zone config %v: %w", fv.ZoneConfig, err)
		}
		ld.configured = zones
	}
	if len(fv.CacheFile) > 0 {
		cache, err := zonecache.New(fv.CacheFile, zonecache.WithLogger(ld.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to open cache %v: %w", fv.CacheFile, err)
		}
		ld.cache = cache
	}
	return ld, nil
}

func (ld *zoneLoader) close() {
	if ld.cache != nil {
		ld.cache.Close()
	}
}

func (ld *zoneLoader) load(name string) (*zone.Zone, error) {
	if z := ld.configured.Lookup(name); z != nil {
		ld.logger.Info("loaded", "zone", name, "source", "config")
		return z, nil
	}
	if ld.cache != nil {
		z, version, err := ld.cache.Load(name)
		if err == nil {
			ld.logger.Info("loaded", "zone", name, "source", "cache", "version", version)
			return z, nil
		}
		if !errors.Is(err, zonecache.ErrNotCached) {
			ld.logger.Warn("cache load failed", "zone", name, "err", err)
		}
	}
	if strings.Contains(name, "..") {
		return nil, fmt.Errorf("invalid zone name: %v", name)
	}
	data, err := os.ReadFile(filepath.Join(ld.tzdir, name))
	if err != nil {
		return nil, fmt.Errorf("unknown zone %v: %w", name, err)
	}
	d, err := tzif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zone %v: %w", name, err)
	}
	z, err := zone.FromTZif(name, d)
	if err != nil {
		return nil, err
	}
	ld.logger.Info("loaded", "zone", name, "source", "tzdata")
	if ld.cache != nil {
		version := fmt.Sprintf("%x", sha256.Sum256(data))[:12]
		if err := ld.cache.Store(z, version); err != nil {
			ld.logger.Warn("cache store failed", "zone", name, "err", err)
		}
	}
	return z, nil
}

// loadAll loads the named zones concurrently, preserving argument
// order.
func (ld *zoneLoader) loadAll(names []string) ([]*zone.Zone, error) {
	zones := make([]*zone.Zone, len(names))
	var g errgroup.T
	for i, name := range names {
		g.Go(func() error {
			z, err := ld.load(name)
			zones[i] = z
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return zones, nil
}

// known returns the zone names available without consulting the
// zoneinfo directory, in lexical order.
func (ld *zoneLoader) known() ([]string, error) {
	seen := map[string]struct{}{}
	for _, z := range ld.configured.Zones {
		seen[z.Name()] = struct{}{}
	}
	if ld.cache != nil {
		names, err := ld.cache.Names()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
