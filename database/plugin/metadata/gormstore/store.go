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

// Package gormstore implements the governance query index on top of GORM.
// The SQL backends embed Store and only differ in how they open the
// connection
package gormstore

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/agora/database/models"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// New wraps an open GORM handle, installs query tracing and migrates the
// index schema
func New(db *gorm.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &Store{
		db:     db,
		logger: logger,
	}
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	if err := s.AutoMigrate(&CommitTimestamp{}); err != nil {
		return nil, err
	}
	for _, model := range models.MigrateModels {
		s.logger.Debug(
			fmt.Sprintf("creating table: %T", model),
			"component", "database",
		)
		if err := s.AutoMigrate(model); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AutoMigrate wraps the gorm AutoMigrate
func (d *Store) AutoMigrate(dst ...any) error {
	return d.db.AutoMigrate(dst...)
}

// DB returns the underlying GORM database handle
func (d *Store) DB() *gorm.DB {
	return d.db
}
