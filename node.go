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

package agora

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/api"
	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/governance"
	"github.com/blinklabs-io/agora/ledger"
	"github.com/blinklabs-io/agora/tag"
	"github.com/blinklabs-io/agora/token"
)

const defaultShutdownTimeout = 30 * time.Second

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	ledgerState   *ledger.State
	metrics       *governance.Metrics
	api           *api.API
	shutdownFuncs []func(context.Context) error
	cancel        context.CancelFunc
	config        Config
	done          chan struct{}
	started       chan struct{}
	mu            sync.Mutex
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	n := &Node{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		done:     make(chan struct{}),
		started:  make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Run starts the node and blocks until ctx is cancelled or Stop is called
func (n *Node) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	n.mu.Lock()
	n.cancel = cancel
	n.mu.Unlock()
	if err := n.start(runCtx); err != nil {
		return errors.Join(err, n.Stop())
	}
	close(n.started)
	select {
	case <-ctx.Done():
	case <-n.done:
	}
	return nil
}

// Started is closed once Run has brought up every component
func (n *Node) Started() <-chan struct{} {
	return n.started
}

func (n *Node) start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	logger := n.config.logger.With("component", "node")
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(ctx); err != nil {
			return err
		}
	}
	// Load database
	dbNeedsRecovery := false
	db, err := database.New(&database.Config{
		DataDir:        n.config.dataDir,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
	})
	if db == nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		logger.Warn(
			"database initialization error, needs recovery",
			"error",
			err,
		)
		dbNeedsRecovery = true
	}
	// Load state
	ls, err := ledger.NewState(ledger.StateConfig{
		Database:     n.db,
		EventBus:     n.eventBus,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		Clock:        n.config.clock,
		MaxCallDepth: n.config.maxCallDepth,
	})
	if err != nil {
		return fmt.Errorf("failed to load ledger state: %w", err)
	}
	n.ledgerState = ls
	n.ledgerState.RegisterProgram(token.NewProgram())
	n.ledgerState.RegisterProgram(tag.NewProgram())
	n.ledgerState.RegisterProgram(
		governance.New(
			governance.WithProgramID(n.config.programID),
			governance.WithLogger(n.config.logger),
		),
	)
	n.ledgerState.RegisterIndexer(
		governance.NewIndexer(n.config.programID, n.config.clock),
	)
	// Run DB recovery if needed
	if dbNeedsRecovery {
		if err := n.ledgerState.RecoverCommitTimestampConflict(); err != nil {
			return fmt.Errorf("failed to recover database: %w", err)
		}
	}
	if n.config.promRegistry != nil {
		n.metrics = governance.NewMetrics(n.config.promRegistry)
		n.metrics.Subscribe(n.eventBus)
	}
	// Start HTTP API
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.Config{ListenAddress: n.config.apiListenAddress},
			api.NewNodeAdapter(n.ledgerState, n.config.programID),
			n.config.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return fmt.Errorf("failed to start API: %w", err)
		}
	}
	logger.Info(
		"node started",
		"program", n.config.programID.String(),
	)
	return nil
}

// LedgerState returns the runtime, or nil before Run
func (n *Node) LedgerState() *ledger.State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledgerState
}

// APIAddr returns the bound API address, or nil when the API is not running
func (n *Node) APIAddr() net.Addr {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.api == nil {
		return nil
	}
	return n.api.Addr()
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	shutdownTimeout := defaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger := n.config.logger.With("component", "node")
	var err error

	logger.Debug("starting graceful shutdown")

	// Stop accepting new transactions
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	if n.cancel != nil {
		n.cancel()
	}

	// Drain queued events before the database goes away
	if n.metrics != nil {
		n.metrics.Unsubscribe(n.eventBus)
	}
	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
