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

// Package mysql registers the MySQL metadata plugin
package mysql

import (
	"fmt"
	"time"

	"github.com/blinklabs-io/agora/database/plugin/metadata/gormstore"
	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var backend = gormstore.Backend{
	Name:    "mysql",
	Product: "MySQL",
	Defaults: gormstore.ServerConfig{
		Host:     "localhost",
		Port:     3306,
		User:     "root",
		Database: "agora",
		TimeZone: "UTC",
	},
	FormatDSN: formatDSN,
	Dialector: func(dsn string) gorm.Dialector {
		return gormmysql.Open(dsn)
	},
}

func init() {
	backend.Register()
}

// formatDSN builds a go-sql-driver DSN. An unknown time zone falls back
// to UTC
func formatDSN(c gormstore.ServerConfig) string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.AllowNativePasswords = true
	if c.TimeZone != "" {
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			loc = time.UTC
		}
		cfg.Loc = loc
	}
	if c.SSLMode != "" {
		cfg.Params = map[string]string{"tls": c.SSLMode}
	}
	return cfg.FormatDSN()
}

// New returns an unconnected MySQL store
func New(opts ...gormstore.ServerOptionFunc) *gormstore.ServerStore {
	return backend.New(opts...)
}
