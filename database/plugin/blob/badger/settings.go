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

package badger

import (
	"log/slog"
	"sync"

	"github.com/blinklabs-io/agora/database/plugin"
	"github.com/prometheus/client_golang/prometheus"
)

// Default sizes for BadgerDB (in bytes)
const (
	DefaultBlockCacheSize   = 256 << 20
	DefaultIndexCacheSize   = 64 << 20
	DefaultValueLogFileSize = 256 << 20
	DefaultMemTableSize     = 64 << 20
	// Account data is small, keep most values in the LSM tree
	DefaultValueThreshold = 4096

	defaultDataDir = ".agora"
)

// Settings tunes the badger instance backing the account store
type Settings struct {
	DataDir          string
	BlockCacheSize   uint64
	IndexCacheSize   uint64
	ValueLogFileSize int64
	MemTableSize     int64
	ValueThreshold   int64
	GC               bool
	Compression      bool
}

// DefaultSettings returns the settings used when nothing is configured.
// DataDir is left empty, which selects an in-memory store
func DefaultSettings() Settings {
	return Settings{
		BlockCacheSize:   DefaultBlockCacheSize,
		IndexCacheSize:   DefaultIndexCacheSize,
		ValueLogFileSize: DefaultValueLogFileSize,
		MemTableSize:     DefaultMemTableSize,
		ValueThreshold:   DefaultValueThreshold,
		GC:               true,
		Compression:      true,
	}
}

type BlobStoreBadgerOptionFunc func(*BlobStoreBadger)

func WithLogger(logger *slog.Logger) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.promRegistry = registry
	}
}

// WithSettings replaces all tunables at once
func WithSettings(s Settings) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.settings = s
	}
}

// WithDataDir overrides the data directory. An empty value selects an
// in-memory store
func WithDataDir(dataDir string) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.settings.DataDir = dataDir
	}
}

// WithGc toggles value log garbage collection
func WithGc(enabled bool) BlobStoreBadgerOptionFunc {
	return func(b *BlobStoreBadger) {
		b.settings.GC = enabled
	}
}

var (
	pluginSettings      = pluginDefaults()
	pluginSettingsMutex sync.RWMutex
)

func pluginDefaults() Settings {
	s := DefaultSettings()
	s.DataDir = defaultDataDir
	return s
}

// PluginSettings returns the settings collected from the command line,
// environment and config file
func PluginSettings() Settings {
	pluginSettingsMutex.RLock()
	defer pluginSettingsMutex.RUnlock()
	return pluginSettings
}

func init() {
	def := pluginDefaults()
	plugin.Register(
		plugin.PluginEntry{
			Type:        plugin.PluginTypeBlob,
			Name:        "badger",
			Description: "BadgerDB local key-value store",
			NewFromOptionsFunc: func() plugin.Plugin {
				p, err := New(WithSettings(PluginSettings()))
				if err != nil {
					// Defer the error to Start()
					return plugin.NewErrorPlugin(err)
				}
				return p
			},
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "Data directory for badger storage",
					DefaultValue: def.DataDir,
					Dest:         &pluginSettings.DataDir,
				},
				{
					Name:         "block-cache-size",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "Badger block cache size in bytes",
					DefaultValue: def.BlockCacheSize,
					Dest:         &pluginSettings.BlockCacheSize,
				},
				{
					Name:         "index-cache-size",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "Badger index cache size in bytes",
					DefaultValue: def.IndexCacheSize,
					Dest:         &pluginSettings.IndexCacheSize,
				},
				{
					Name:         "gc",
					Type:         plugin.PluginOptionTypeBool,
					Description:  "Enable value log garbage collection",
					DefaultValue: def.GC,
					Dest:         &pluginSettings.GC,
				},
				{
					Name:         "compression",
					Type:         plugin.PluginOptionTypeBool,
					Description:  "Compress SST blocks with snappy",
					DefaultValue: def.Compression,
					Dest:         &pluginSettings.Compression,
				},
			},
		},
	)
}
