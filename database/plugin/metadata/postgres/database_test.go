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

package postgres

import (
	"testing"

	"github.com/blinklabs-io/agora/database/plugin"
	"github.com/blinklabs-io/agora/database/plugin/metadata/gormstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnStringFromConfig(t *testing.T) {
	s := New(gormstore.WithServerConfig(gormstore.ServerConfig{
		Host:     "db.example",
		Port:     6543,
		Password: "secret",
		TimeZone: "UTC",
	}))
	assert.Equal(
		t,
		"host=db.example user=postgres password=secret dbname=agora port=6543 sslmode=disable TimeZone=UTC",
		s.ConnString(),
	)
}

func TestConnStringDSNOverrides(t *testing.T) {
	s := New(gormstore.WithServerConfig(gormstore.ServerConfig{
		Host: "ignored",
		DSN:  "  postgres://u:p@h:1/db  ",
	}))
	assert.Equal(t, "postgres://u:p@h:1/db", s.ConnString())
}

func TestCloseBeforeStart(t *testing.T) {
	require.NoError(t, New().Close())
}

func TestPluginFromCmdlineOptions(t *testing.T) {
	p := plugin.GetPlugin(plugin.PluginTypeMetadata, "postgres")
	require.NotNil(t, p)
	s, ok := p.(*gormstore.ServerStore)
	require.True(t, ok)
	assert.Equal(t, uint64(5432), s.Config().Port)
	assert.Equal(t, "disable", s.Config().SSLMode)
}
