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

// Package governance implements the governance program: proposal lifecycle,
// weighted voting, vote-power delegation and execution of approved
// transactions
package governance

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/agora/instruction"
	"github.com/blinklabs-io/agora/ledger"
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
)

// Program implements ledger.Program
type Program struct {
	programID solana.PublicKey
	logger    *slog.Logger
}

type ProgramOptionFunc func(*Program)

// WithProgramID deploys the program at a different address
func WithProgramID(programID solana.PublicKey) ProgramOptionFunc {
	return func(p *Program) {
		p.programID = programID
	}
}

// WithLogger specifies the logger for instruction failures
func WithLogger(logger *slog.Logger) ProgramOptionFunc {
	return func(p *Program) {
		p.logger = logger
	}
}

func New(opts ...ProgramOptionFunc) *Program {
	p := &Program{
		programID: state.ProgramID,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	p.logger = p.logger.With("component", "governance")
	return p
}

func (p *Program) ProgramID() solana.PublicKey {
	return p.programID
}

func (p *Program) Process(ctx *ledger.InvokeContext, accounts []*solana.AccountMeta, data []byte) error {
	ix, err := instruction.Decode(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInstruction, err)
	}
	h := &handler{
		ctx:      ctx,
		accounts: accounts,
	}
	if err := h.dispatch(ix); err != nil {
		p.logger.Debug(
			"instruction failed",
			"instruction", ix.Kind().String(),
			"error", err,
		)
		return err
	}
	return nil
}

func (h *handler) dispatch(ix instruction.Instruction) error {
	switch ix := ix.(type) {
	case *instruction.CreateGovernance:
		return h.createGovernance(ix)
	case *instruction.CreateScope:
		return h.createScope(ix)
	case *instruction.DeleteScope:
		return h.deleteScope()
	case *instruction.DepositGoverningTokens:
		return h.depositGoverningTokens(ix)
	case *instruction.WithdrawGoverningTokens:
		return h.withdrawGoverningTokens()
	case *instruction.CreateTokenOwnerBudgetRecord:
		return h.createTokenOwnerBudgetRecord(ix)
	case *instruction.CreateDelegatee:
		return h.createDelegatee(ix)
	case *instruction.Delegate:
		return h.delegate(ix)
	case *instruction.Undelegate:
		return h.undelegate(ix)
	case *instruction.DelegateHistory:
		return h.replayHistory(state.DelegationDirectionDelegate)
	case *instruction.UndelegateHistory:
		return h.replayHistory(state.DelegationDirectionUndelegate)
	case *instruction.CreateProposal:
		return h.createProposal(ix)
	case *instruction.InsertScope:
		return h.insertScope()
	case *instruction.CreateProposalOption:
		return h.createProposalOption(ix)
	case *instruction.InsertTransaction:
		return h.insertTransaction(ix)
	case *instruction.RemoveTransaction:
		return h.removeTransaction()
	case *instruction.SetExecutionFlags:
		return h.setExecutionFlags(ix)
	case *instruction.AddSignatory:
		return h.addSignatory(ix)
	case *instruction.SignOffProposal:
		return h.signOffProposal()
	case *instruction.FinalizeDraft:
		return h.finalizeDraft()
	case *instruction.CancelProposal:
		return h.cancelProposal()
	case *instruction.Vote:
		return h.vote(ix)
	case *instruction.Unvote:
		return h.unvote()
	case *instruction.CountMaxVoteWeights:
		return h.countMaxVoteWeights()
	case *instruction.CountVotes:
		return h.countVotes()
	case *instruction.ExecuteProposal:
		return h.executeProposal(ix)
	case *instruction.FlagTransactionError:
		return h.flagTransactionError()
	}
	return fmt.Errorf("%w: %s", ErrInvalidInstruction, ix.Kind())
}
