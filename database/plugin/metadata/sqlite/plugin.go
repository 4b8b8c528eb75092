// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqlite

import (
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/database/plugin"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultDataDir        = ".agora"
	defaultVacuumInterval = 24 * time.Hour
)

type SqliteOptionFunc func(*MetadataStoreSqlite)

func WithLogger(logger *slog.Logger) SqliteOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) SqliteOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.promRegistry = registry
	}
}

// WithDataDir stores the index under dataDir. An empty value keeps it in memory
func WithDataDir(dataDir string) SqliteOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.dataDir = dataDir
	}
}

// WithVacuumInterval sets how often unused space is reclaimed. Zero disables vacuuming
func WithVacuumInterval(interval time.Duration) SqliteOptionFunc {
	return func(m *MetadataStoreSqlite) {
		m.vacuumInterval = interval
	}
}

var (
	pluginOpts = struct {
		dataDir     string
		vacuumHours uint64
	}{
		dataDir:     defaultDataDir,
		vacuumHours: uint64(defaultVacuumInterval / time.Hour),
	}
	pluginOptsMutex sync.RWMutex
)

func init() {
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "sqlite",
			Description:        "SQLite relational database",
			NewFromOptionsFunc: newFromPluginOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "Data directory for sqlite storage",
					DefaultValue: defaultDataDir,
					Dest:         &pluginOpts.dataDir,
				},
				{
					Name:         "vacuum-interval",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "Hours between VACUUM runs, 0 to disable",
					DefaultValue: pluginOpts.vacuumHours,
					Dest:         &pluginOpts.vacuumHours,
				},
			},
		},
	)
}

// PluginVacuumInterval returns the vacuum interval collected from the
// command line, environment and config file
func PluginVacuumInterval() time.Duration {
	pluginOptsMutex.RLock()
	defer pluginOptsMutex.RUnlock()
	return time.Duration(pluginOpts.vacuumHours) * time.Hour // #nosec G115
}

func newFromPluginOptions() plugin.Plugin {
	pluginOptsMutex.RLock()
	dataDir := pluginOpts.dataDir
	pluginOptsMutex.RUnlock()
	interval := PluginVacuumInterval()
	p, err := NewWithOptions(
		WithDataDir(dataDir),
		WithVacuumInterval(interval),
	)
	if err != nil {
		// Defer the error to Start()
		return plugin.NewErrorPlugin(err)
	}
	return p
}
