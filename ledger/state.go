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

// Package ledger is the host runtime: it owns account storage, enforces
// ownership and signer rules, dispatches instructions to programs and
// commits each transaction atomically.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/event"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultMaxCallDepth = 4

// Program is an on-chain program hosted by the runtime
type Program interface {
	ProgramID() solana.PublicKey
	Process(ctx *InvokeContext, accounts []*solana.AccountMeta, data []byte) error
}

// AccountIndexer receives the accounts changed by a transaction before it
// commits. An indexer error aborts the transaction.
type AccountIndexer interface {
	IndexAccounts(txn *database.Txn, changes []AccountChange) error
}

type StateConfig struct {
	Database     *database.Database
	EventBus     *event.EventBus
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Clock        func() time.Time
	MaxCallDepth int
}

type State struct {
	sync.Mutex
	config    StateConfig
	programs  map[solana.PublicKey]Program
	indexers  []AccountIndexer
	metrics   stateMetrics
	tracer    trace.Tracer
	programMu sync.RWMutex
}

func NewState(cfg StateConfig) (*State, error) {
	if cfg.Database == nil {
		return nil, errors.New("ledger state requires a database")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "ledger")
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.MaxCallDepth <= 0 {
		cfg.MaxCallDepth = DefaultMaxCallDepth
	}
	s := &State{
		config:   cfg,
		programs: make(map[solana.PublicKey]Program),
		tracer:   otel.Tracer("github.com/blinklabs-io/agora/ledger"),
	}
	if cfg.PromRegistry != nil {
		s.metrics.init(cfg.PromRegistry)
	}
	return s, nil
}

// RegisterProgram makes p invocable at its program ID
func (s *State) RegisterProgram(p Program) {
	s.programMu.Lock()
	defer s.programMu.Unlock()
	s.programs[p.ProgramID()] = p
}

func (s *State) RegisterIndexer(i AccountIndexer) {
	s.programMu.Lock()
	defer s.programMu.Unlock()
	s.indexers = append(s.indexers, i)
}

func (s *State) program(id solana.PublicKey) (Program, bool) {
	s.programMu.RLock()
	defer s.programMu.RUnlock()
	p, ok := s.programs[id]
	return p, ok
}

func (s *State) Database() *database.Database {
	return s.config.Database
}

// GetAccount returns the committed state of an account
func (s *State) GetAccount(address solana.PublicKey) (*Account, error) {
	acct, err := s.config.Database.GetAccount(address[:], nil)
	if err != nil {
		return nil, err
	}
	return &Account{
		Owner: solana.PublicKeyFromBytes(acct.Owner),
		Data:  acct.Data,
	}, nil
}

// ProcessTransaction executes tx against a single database transaction.
// Any instruction failure rolls back every write and is returned as an
// *InstructionError.
func (s *State) ProcessTransaction(ctx context.Context, tx *Transaction) error {
	if tx == nil || len(tx.Instructions) == 0 {
		return ErrEmptyTransaction
	}
	ctx, span := s.tracer.Start(ctx, "ledger.ProcessTransaction")
	defer span.End()
	span.SetAttributes(
		attribute.Int("instructions", len(tx.Instructions)),
		attribute.Int("signers", len(tx.Signers)),
	)
	start := time.Now()
	err := s.processTransaction(ctx, tx)
	if s.metrics.transactionsTotal != nil {
		result := "success"
		if err != nil {
			result = "failure"
		}
		s.metrics.transactionsTotal.WithLabelValues(result).Inc()
		s.metrics.transactionDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *State) processTransaction(ctx context.Context, tx *Transaction) error {
	s.Lock()
	defer s.Unlock()
	now := tx.Timestamp
	if now == 0 {
		now = s.config.Clock().Unix()
	}
	txn := s.config.Database.Transaction(true)
	exec := newExecution(ctx, s, txn, now, tx.Signers)
	for idx, inst := range tx.Instructions {
		err := exec.invokeTopLevel(inst)
		s.recordInstruction(inst.ProgramID(), err)
		if err != nil {
			if rbErr := txn.Rollback(); rbErr != nil {
				s.config.Logger.Error(
					"failed to roll back transaction",
					"error", rbErr,
				)
			}
			return &InstructionError{Index: idx, Err: err}
		}
	}
	changes, err := exec.flush()
	if err != nil {
		_ = txn.Rollback()
		return err
	}
	s.programMu.RLock()
	indexers := s.indexers
	s.programMu.RUnlock()
	for _, indexer := range indexers {
		if err := indexer.IndexAccounts(txn, changes); err != nil {
			_ = txn.Rollback()
			return fmt.Errorf("index accounts: %w", err)
		}
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	if s.metrics.accountsWritten != nil {
		s.metrics.accountsWritten.Add(float64(len(changes)))
	}
	if s.config.EventBus != nil {
		for _, evt := range exec.events {
			// The bus logs and counts drops
			_ = s.config.EventBus.PublishAsync(evt.Type, evt)
		}
	}
	return nil
}

func (s *State) recordInstruction(programID solana.PublicKey, err error) {
	if s.metrics.instructionsTotal == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	s.metrics.instructionsTotal.WithLabelValues(programID.String(), result).Inc()
}

// RecoverCommitTimestampConflict rebuilds the query index from the stored
// accounts of every registered program. It is used after the database
// reports that the account store and the index were committed out of step.
func (s *State) RecoverCommitTimestampConflict() error {
	s.Lock()
	defer s.Unlock()
	s.programMu.RLock()
	owners := make([]solana.PublicKey, 0, len(s.programs))
	for id := range s.programs {
		owners = append(owners, id)
	}
	indexers := s.indexers
	s.programMu.RUnlock()
	txn := s.config.Database.Transaction(true)
	return txn.Do(func(txn *database.Txn) error {
		var changes []AccountChange
		for _, owner := range owners {
			accounts, err := s.config.Database.AccountsByOwner(owner.Bytes(), txn)
			if err != nil {
				return fmt.Errorf("load accounts of %s: %w", owner, err)
			}
			for _, acct := range accounts {
				changes = append(changes, AccountChange{
					Address: solana.PublicKeyFromBytes(acct.Address),
					Account: &Account{
						Owner: owner,
						Data:  acct.Data,
					},
				})
			}
		}
		for _, indexer := range indexers {
			if err := indexer.IndexAccounts(txn, changes); err != nil {
				return fmt.Errorf("index accounts: %w", err)
			}
		}
		s.config.Logger.Info(
			"rebuilt account index",
			"accounts", len(changes),
		)
		return nil
	})
}
