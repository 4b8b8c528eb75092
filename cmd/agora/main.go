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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/blinklabs-io/agora/database/plugin"
	"github.com/blinklabs-io/agora/internal/config"
	"github.com/blinklabs-io/agora/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

const programName = "agora"

var errNoConfig = errors.New("no config found in context")

var rootFlags = struct {
	debug      bool
	configFile string
	blob       string
	metadata   string
}{}

// setupLogging installs the process-wide JSON logger and sizes GOMAXPROCS
func setupLogging() (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if rootFlags.debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts)).
		With("component", programName)
	slog.SetDefault(logger)
	_, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		logger.Info(fmt.Sprintf(format, v...))
	}))
	if err != nil {
		return nil, fmt.Errorf("set GOMAXPROCS: %w", err)
	}
	logger.Info("version: " + version.GetVersionString())
	return logger, nil
}

func writePlugins(buf *strings.Builder, pluginType plugin.PluginType) {
	for _, p := range plugin.GetPlugins(pluginType) {
		fmt.Fprintf(buf, "  %s: %s\n", p.Name, p.Description)
	}
}

// listPlugins reports the available plugins for each store given as "list"
func listPlugins(
	blobPlugin, metadataPlugin string,
) (shouldExit bool, output string) {
	var buf strings.Builder
	if blobPlugin == "list" {
		buf.WriteString("Available blob plugins:\n")
		writePlugins(&buf, plugin.PluginTypeBlob)
	}
	if metadataPlugin == "list" {
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString("Available metadata plugins:\n")
		writePlugins(&buf, plugin.PluginTypeMetadata)
	}
	return buf.Len() > 0, buf.String()
}

func listAllPlugins() string {
	var buf strings.Builder
	buf.WriteString("Available plugins:\n\nBlob Storage Plugins:\n")
	writePlugins(&buf, plugin.PluginTypeBlob)
	buf.WriteString("\nMetadata Storage Plugins:\n")
	writePlugins(&buf, plugin.PluginTypeMetadata)
	return buf.String()
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all available plugins",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprint(cmd.OutOrStdout(), listAllPlugins())
		},
	}
}

// loadConfig resolves the config file, environment and storage flags and
// attaches the result to the command context
func loadConfig(cmd *cobra.Command, _ []string) error {
	if done, output := listPlugins(rootFlags.blob, rootFlags.metadata); done {
		fmt.Fprint(cmd.OutOrStdout(), output)
		os.Exit(0)
	}
	cfg, err := config.LoadConfig(rootFlags.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	flags := cmd.Root().PersistentFlags()
	if flags.Changed("blob") {
		cfg.BlobPlugin = rootFlags.blob
	}
	if flags.Changed("metadata") {
		cfg.MetadataPlugin = rootFlags.metadata
	}
	cmd.SetContext(config.WithContext(cmd.Context(), cfg))
	return nil
}

// withConfig adapts a config-aware handler to cobra's RunE
func withConfig(
	fn func(*cobra.Command, *config.Config) error,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg := config.FromContext(cmd.Context())
		if cfg == nil {
			return errNoConfig
		}
		return fn(cmd, cfg)
	}
}

func newRootCommand() (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:               programName,
		Short:             "Governance proposal node",
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		RunE:              withConfig(serveRun),
	}
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&rootFlags.debug, "debug", "D", false, "enable debug logging")
	flags.StringVar(&rootFlags.configFile, "config", "", "path to config file")
	flags.StringVarP(
		&rootFlags.blob, "blob", "b", config.DefaultBlobPlugin,
		"blob store plugin to use, 'list' to show available",
	)
	flags.StringVarP(
		&rootFlags.metadata, "metadata", "m", config.DefaultMetadataPlugin,
		"metadata store plugin to use, 'list' to show available",
	)
	if err := plugin.PopulateCmdlineOptions(flags); err != nil {
		return nil, fmt.Errorf("adding plugin flags: %w", err)
	}
	rootCmd.AddCommand(
		serveCommand(),
		pdaCommand(),
		proposalsCommand(),
		listCommand(),
		versionCommand(),
	)
	return rootCmd, nil
}

func main() {
	rootCmd, err := newRootCommand()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// cobra prints the error itself
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
