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
	"github.com/blinklabs-io/agora/internal/config"
	"github.com/blinklabs-io/agora/internal/node"
	"github.com/spf13/cobra"
)

var serveFlags = struct {
	bindAddr    string
	apiPort     uint
	metricsPort uint
}{}

// applyServeFlags overrides the listener settings given on the command line
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("bind-addr") {
		cfg.BindAddr = serveFlags.bindAddr
	}
	if flags.Changed("api-port") {
		cfg.ApiPort = serveFlags.apiPort
	}
	if flags.Changed("metrics-port") {
		cfg.MetricsPort = serveFlags.metricsPort
	}
}

func serveRun(cmd *cobra.Command, cfg *config.Config) error {
	applyServeFlags(cmd, cfg)
	logger, err := setupLogging()
	if err != nil {
		return err
	}
	return node.Run(cfg, logger)
}

func serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the governance node",
		RunE:  withConfig(serveRun),
	}
	cmd.Flags().StringVar(&serveFlags.bindAddr, "bind-addr", "", "address to listen on")
	cmd.Flags().UintVar(&serveFlags.apiPort, "api-port", 0, "HTTP API port, 0 disables the API")
	cmd.Flags().UintVar(&serveFlags.metricsPort, "metrics-port", 0, "metrics port, 0 disables metrics")
	return cmd
}
