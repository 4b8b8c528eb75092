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

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/blinklabs-io/agora/internal/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPlugins(t *testing.T) {
	shouldExit, output := listPlugins("badger", "sqlite")
	assert.False(t, shouldExit)
	assert.Empty(t, output)

	shouldExit, output = listPlugins("list", "sqlite")
	assert.True(t, shouldExit)
	assert.Contains(t, output, "Available blob plugins:")
	assert.Contains(t, output, "badger")
	assert.NotContains(t, output, "Available metadata plugins:")

	shouldExit, output = listPlugins("list", "list")
	assert.True(t, shouldExit)
	assert.Contains(t, output, "Available metadata plugins:")
	assert.Contains(t, output, "sqlite")
}

func TestListAllPlugins(t *testing.T) {
	output := listAllPlugins()
	assert.Contains(t, output, "Blob Storage Plugins:")
	assert.Contains(t, output, "Metadata Storage Plugins:")
	assert.Contains(t, output, "badger")
	assert.Contains(t, output, "sqlite")
}

func TestRootCommandSubcommands(t *testing.T) {
	rootCmd, err := newRootCommand()
	require.NoError(t, err)
	for _, name := range []string{"serve", "pda", "proposals", "list", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("blob-badger-data-dir"))
}

func TestVersionCommandSkipsConfig(t *testing.T) {
	rootCmd, err := newRootCommand()
	require.NoError(t, err)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "agora "))
}

func TestWithConfigRequiresConfig(t *testing.T) {
	called := false
	run := withConfig(func(*cobra.Command, *config.Config) error {
		called = true
		return nil
	})
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	require.ErrorIs(t, run(cmd, nil), errNoConfig)
	assert.False(t, called)

	cmd.SetContext(config.WithContext(context.Background(), config.DefaultConfig()))
	require.NoError(t, run(cmd, nil))
	assert.True(t, called)
}

func TestApplyServeFlags(t *testing.T) {
	cmd := serveCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--api-port", "0", "--bind-addr", "127.0.0.1"}))
	cfg := config.DefaultConfig()
	applyServeFlags(cmd, cfg)
	assert.Equal(t, "127.0.0.1", cfg.BindAddr)
	assert.Zero(t, cfg.ApiPort)
	assert.Equal(t, config.DefaultConfig().MetricsPort, cfg.MetricsPort)
}
