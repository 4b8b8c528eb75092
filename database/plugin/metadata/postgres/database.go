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

// Package postgres registers the PostgreSQL metadata plugin
package postgres

import (
	"strconv"
	"strings"

	"github.com/blinklabs-io/agora/database/plugin/metadata/gormstore"
	"gorm.io/driver/postgres"
)

var backend = gormstore.Backend{
	Name:    "postgres",
	Product: "PostgreSQL",
	Defaults: gormstore.ServerConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Database: "agora",
		SSLMode:  "disable",
	},
	FormatDSN:   formatDSN,
	Dialector:   postgres.Open,
	PrepareStmt: true,
}

func init() {
	backend.Register()
}

// formatDSN builds a libpq keyword/value connection string
func formatDSN(c gormstore.ServerConfig) string {
	parts := []string{
		"host=" + c.Host,
		"user=" + c.User,
		"password=" + c.Password,
		"dbname=" + c.Database,
		"port=" + strconv.FormatUint(c.Port, 10),
		"sslmode=" + c.SSLMode,
	}
	if c.TimeZone != "" {
		parts = append(parts, "TimeZone="+c.TimeZone)
	}
	return strings.Join(parts, " ")
}

// New returns an unconnected PostgreSQL store
func New(opts ...gormstore.ServerOptionFunc) *gormstore.ServerStore {
	return backend.New(opts...)
}
