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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/blinklabs-io/agora/database/plugin"
	"github.com/blinklabs-io/agora/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPluginOption string

func init() {
	plugin.Register(plugin.PluginEntry{
		Type:        plugin.PluginTypeBlob,
		Name:        "configtest",
		Description: "config test plugin",
		NewFromOptionsFunc: func() plugin.Plugin {
			return nil
		},
		Options: []plugin.PluginOption{
			{
				Name:         "path",
				Type:         plugin.PluginOptionTypeString,
				DefaultValue: "",
				Dest:         &testPluginOption,
			},
		},
	})
}

// isolate keeps the default config file lookup away from the real home
// directory
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agora.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Same(t, cfg, GetConfig())

	key, err := cfg.ProgramKey()
	require.NoError(t, err)
	assert.Equal(t, state.ProgramID, key)
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	programID := "GovER5Lthms3bLBqWub97yVrMmEogzX7xNjdXpPPCVZw"
	path := writeConfig(t, `
databasePath: "/var/lib/agora"
bindAddr: "127.0.0.1"
apiPort: 9000
metricsPort: 9100
programId: "`+programID+`"
shutdownTimeout: "5s"
maxCallDepth: 2
tracing: true
tracingStdout: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	expected := DefaultConfig()
	expected.DatabasePath = "/var/lib/agora"
	expected.BindAddr = "127.0.0.1"
	expected.ApiPort = 9000
	expected.MetricsPort = 9100
	expected.ProgramID = programID
	expected.ShutdownTimeout = "5s"
	expected.MaxCallDepth = 2
	expected.Tracing = true
	expected.TracingStdout = true
	assert.Equal(t, expected, cfg)
}

func TestLoadConfigSection(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
config:
  apiPort: 7000
database:
  blob:
    plugin: configtest
    configtest:
      path: /tmp/blobs
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint(7000), cfg.ApiPort)
	assert.Equal(t, "configtest", cfg.BlobPlugin)
	assert.Equal(t, DefaultMetadataPlugin, cfg.MetadataPlugin)
	assert.Equal(t, "/tmp/blobs", testPluginOption)
}

func TestLoadConfigSectionKeepsDefaults(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
config:
  bindAddr: 127.0.0.1
  tracing: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	expected := DefaultConfig()
	expected.BindAddr = "127.0.0.1"
	expected.Tracing = true
	assert.Equal(t, expected, cfg)

	d, err := cfg.ShutdownTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, "30s", d.String())
}

func TestLoadConfigSectionInvalid(t *testing.T) {
	isolate(t)
	_, err := LoadConfig(writeConfig(t, `config:
  apiPort: many
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config section")
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "apiPort: 9000\ndatabasePath: from-file\n")
	t.Setenv("AGORA_API_PORT", "9500")
	t.Setenv("AGORA_DATABASE_METADATA_PLUGIN", "memory")
	t.Setenv("AGORA_TRACING", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint(9500), cfg.ApiPort)
	assert.Equal(t, "from-file", cfg.DatabasePath)
	assert.Equal(t, "memory", cfg.MetadataPlugin)
	assert.True(t, cfg.Tracing)
}

func TestLoadInvalid(t *testing.T) {
	isolate(t)
	tests := []struct {
		name    string
		content string
	}{
		{"program id", "programId: not-base58!"},
		{"shutdown timeout", "shutdownTimeout: soon"},
		{"negative shutdown timeout", "shutdownTimeout: -1s"},
		{"call depth", "maxCallDepth: 0"},
		{"yaml", "apiPort: [1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.content))
			require.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDefaultConfigFileLookup(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".agora"), 0o700))
	require.NoError(t, os.WriteFile(
		filepath.Join(home, ".agora", "agora.yaml"),
		[]byte("apiPort: 8181\n"),
		0o600,
	))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, uint(8181), cfg.ApiPort)
}

func TestShutdownTimeoutDuration(t *testing.T) {
	cfg := DefaultConfig()
	d, err := cfg.ShutdownTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, "30s", d.String())
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
