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

package gormstore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/database/plugin"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ServerConfig holds the connection settings of a networked SQL backend
type ServerConfig struct {
	Host     string
	User     string
	Password string
	Database string
	SSLMode  string
	TimeZone string
	DSN      string
	Port     uint64
}

// withDefaults fills every unset field from def
func (c ServerConfig) withDefaults(def ServerConfig) ServerConfig {
	for _, f := range []struct{ dst, src *string }{
		{&c.Host, &def.Host},
		{&c.User, &def.User},
		{&c.Database, &def.Database},
		{&c.SSLMode, &def.SSLMode},
		{&c.TimeZone, &def.TimeZone},
	} {
		if *f.dst == "" {
			*f.dst = *f.src
		}
	}
	if c.Port == 0 {
		c.Port = def.Port
	}
	return c
}

// Backend describes one SQL server flavor
type Backend struct {
	// Name is used in plugin registration and log messages
	Name string
	// Product is the human readable server name
	Product  string
	Defaults ServerConfig
	// FormatDSN builds a connection string from the individual settings
	FormatDSN func(ServerConfig) string
	Dialector func(dsn string) gorm.Dialector
	// PrepareStmt enables gorm's prepared statement cache
	PrepareStmt bool
}

// Register adds the backend to the metadata plugin registry, exposing every
// ServerConfig field as a plugin option
func (b Backend) Register() {
	var mu sync.RWMutex
	opts := b.Defaults
	str := func(name, desc string, dest *string, def string) plugin.PluginOption {
		return plugin.PluginOption{
			Name:         name,
			Type:         plugin.PluginOptionTypeString,
			Description:  b.Product + " " + desc,
			DefaultValue: def,
			Dest:         dest,
		}
	}
	plugin.Register(
		plugin.PluginEntry{
			Type:        plugin.PluginTypeMetadata,
			Name:        b.Name,
			Description: b.Product + " relational database",
			NewFromOptionsFunc: func() plugin.Plugin {
				mu.RLock()
				cfg := opts
				mu.RUnlock()
				return b.New(WithServerConfig(cfg))
			},
			Options: []plugin.PluginOption{
				str("host", "host", &opts.Host, b.Defaults.Host),
				{
					Name:         "port",
					Type:         plugin.PluginOptionTypeUint,
					Description:  b.Product + " port",
					DefaultValue: b.Defaults.Port,
					Dest:         &opts.Port,
				},
				str("user", "user", &opts.User, b.Defaults.User),
				str("password", "password", &opts.Password, ""),
				str("database", "database name", &opts.Database, b.Defaults.Database),
				str("ssl-mode", "TLS mode", &opts.SSLMode, b.Defaults.SSLMode),
				str("timezone", "connection time zone", &opts.TimeZone, b.Defaults.TimeZone),
				str("dsn", "DSN (overrides the other connection options when set)", &opts.DSN, ""),
			},
		},
	)
}

// New returns an unconnected store for the backend. The connection is
// opened by Start
func (b Backend) New(opts ...ServerOptionFunc) *ServerStore {
	s := &ServerStore{backend: b}
	for _, opt := range opts {
		opt(s)
	}
	s.config = s.config.withDefaults(b.Defaults)
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return s
}

type ServerOptionFunc func(*ServerStore)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) ServerOptionFunc {
	return func(s *ServerStore) {
		s.logger = logger
	}
}

// WithServerConfig replaces the connection settings. Unset fields keep
// the backend defaults
func WithServerConfig(cfg ServerConfig) ServerOptionFunc {
	return func(s *ServerStore) {
		s.config = cfg
	}
}

// ServerStore is a Store backed by a networked SQL server
type ServerStore struct {
	*Store
	logger  *slog.Logger
	backend Backend
	config  ServerConfig
}

// Config returns the effective connection settings
func (s *ServerStore) Config() ServerConfig {
	return s.config
}

// ConnString returns the configured DSN, or one assembled from the
// individual connection settings
func (s *ServerStore) ConnString() string {
	if dsn := strings.TrimSpace(s.config.DSN); dsn != "" {
		return dsn
	}
	return s.backend.FormatDSN(s.config)
}

// Start implements the plugin.Plugin interface
func (s *ServerStore) Start() error {
	if s.Store != nil {
		return errors.New("metadata store already started")
	}
	db, err := gorm.Open(
		s.backend.Dialector(s.ConnString()),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
			PrepareStmt:            s.backend.PrepareStmt,
		},
	)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", s.backend.Name, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	s.logger.Info(
		"connected to "+s.backend.Name+" metadata store",
		"component", "database",
		"host", s.config.Host,
		"port", s.config.Port,
		"database", s.config.Database,
	)
	store, err := New(db, s.logger)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	s.Store = store
	return nil
}

// Stop implements the plugin.Plugin interface
func (s *ServerStore) Stop() error {
	return s.Close()
}

// Close closes the connection pool if Start succeeded
func (s *ServerStore) Close() error {
	if s.Store == nil {
		return nil
	}
	db, err := s.DB().DB()
	if err != nil {
		return err
	}
	s.Store = nil
	return db.Close()
}
