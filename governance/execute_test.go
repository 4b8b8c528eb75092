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

package governance_test

import (
	"testing"

	"github.com/blinklabs-io/agora/governance"
	"github.com/blinklabs-io/agora/internal/test/testutil"
	"github.com/blinklabs-io/agora/state"
	"github.com/blinklabs-io/agora/token"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// treasuryPayout is a succeeded proposal whose winning option pays out of
// a native treasury account holding 30 tokens, one transaction per amount
type treasuryPayout struct {
	*proposal
	payMint      solana.PublicKey
	source       solana.PublicKey
	dest         solana.PublicKey
	instructions [][]state.ConditionedInstruction
	completedAt  int64
}

func newTreasuryPayout(t *testing.T, f *fixture, flags state.ExecutionFlags, amounts ...uint64) *treasuryPayout {
	t.Helper()
	creator := f.newHolder(60, 60)
	f.newHolder(40, 0)
	// Paid in a separate mint so the treasury does not count toward the max
	// vote weight
	payMint := f.newMint()
	source := f.newTokenAccount(payMint, f.treasury, 30)
	dest := f.newTokenAccount(payMint, testutil.NewKey(), 0)

	p := f.createProposal(creator, state.InstructionOption("pay"), state.DenyOption())
	ret := &treasuryPayout{proposal: p, payMint: payMint, source: source, dest: dest}
	for i, amount := range amounts {
		inst, err := state.NewConditionedInstruction(f.scope, token.Transfer(source, dest, f.treasury, amount))
		require.NoError(t, err)
		insts := []state.ConditionedInstruction{inst}
		require.NoError(t, f.insertTransaction(p, 0, uint16(i), holdUpTime, insts...)) // #nosec G115
		ret.instructions = append(ret.instructions, insts)
	}
	if flags != state.ExecutionFlagsNone {
		f.mustExec(
			[]solana.PublicKey{creator.owner},
			f.build(f.b.SetExecutionFlags(p.address, creator.record, creator.owner, flags)),
		)
	}
	require.NoError(t, f.finalize(p))
	require.NoError(t, f.vote(p, creator.record, creator.owner, 0))
	f.now += maxVotingTime + coolOffTime
	require.NoError(t, f.count(p))
	require.Equal(t, state.ProposalStateSucceeded, f.proposal(p).State)
	ret.completedAt = f.now
	return ret
}

func (f *fixture) execute(p *treasuryPayout, index uint16) error {
	return f.exec(nil, f.build(f.b.ExecuteProposal(f.govSeed, p.address, 0, index, p.instructions[index])))
}

func (f *fixture) transaction(p *proposal, index uint16) *state.ProposalTransactionV2 {
	f.t.Helper()
	key, _, err := f.b.ProposalTransactionAddress(p.address, 0, index)
	require.NoError(f.t, err)
	var ret state.ProposalTransactionV2
	f.load(key, &ret)
	return &ret
}

func TestExecuteProposal(t *testing.T) {
	f := newFixture(t)
	p := newTreasuryPayout(t, f, state.ExecutionFlagsNone, 25, 5)

	f.now = p.completedAt + holdUpTime - 1
	require.ErrorIs(t, f.execute(p, 0), governance.ErrCannotExecuteTransactionWithinHoldUpTime)

	f.now = p.completedAt + holdUpTime
	require.NoError(t, f.execute(p, 0))
	assert.Equal(t, uint64(25), f.balance(p.dest))
	tx := f.transaction(p.proposal, 0)
	assert.Equal(t, state.TransactionExecutionStatusSuccess, tx.ExecutionStatus)
	require.NotNil(t, tx.ExecutedAt)
	assert.Equal(t, f.now, *tx.ExecutedAt)
	proposal := f.proposal(p.proposal)
	assert.Equal(t, state.ProposalStateExecuting, proposal.State)
	require.NotNil(t, proposal.ExecutingAt)

	require.ErrorIs(t, f.execute(p, 0), governance.ErrTransactionAlreadyExecuted)
	assert.Equal(t, uint64(25), f.balance(p.dest))

	require.NoError(t, f.execute(p, 1))
	assert.Equal(t, uint64(30), f.balance(p.dest))
	proposal = f.proposal(p.proposal)
	assert.Equal(t, state.ProposalStateCompleted, proposal.State)
	assert.Equal(t, uint16(1), proposal.OptionsExecutedCount)
	require.NotNil(t, proposal.ClosedAt)
	assert.Equal(t, uint16(2), f.option(p.proposal, 0).TransactionsExecutedCount)

	require.ErrorIs(t, f.execute(p, 1), governance.ErrInvalidStateCannotExecute)
}

func TestExecuteProposalOrdered(t *testing.T) {
	f := newFixture(t)
	p := newTreasuryPayout(t, f, state.ExecutionFlagsOrdered, 25, 5)
	f.now += holdUpTime

	require.ErrorIs(t, f.execute(p, 1), governance.ErrCannotExecuteTransactionOutOfOrder)
	require.NoError(t, f.execute(p, 0))
	require.NoError(t, f.execute(p, 1))
	assert.Equal(t, state.ProposalStateCompleted, f.proposal(p.proposal).State)
}

func TestFlagTransactionError(t *testing.T) {
	f := newFixture(t)
	p := newTreasuryPayout(t, f, state.ExecutionFlagsNone, 25, 10)
	flag := func(index uint16) error {
		return f.exec(
			[]solana.PublicKey{p.creator.owner},
			f.build(f.b.FlagTransactionError(p.address, 0, index, p.creator.record, p.creator.owner)),
		)
	}
	require.ErrorIs(t, flag(1), governance.ErrCannotExecuteTransactionWithinHoldUpTime)

	f.now += holdUpTime
	require.NoError(t, f.execute(p, 0))
	require.ErrorIs(t, flag(0), governance.ErrTransactionAlreadyExecuted)

	// The treasury is short, so the failed payout leaves no trace
	require.ErrorIs(t, f.execute(p, 1), token.ErrInsufficientFunds)
	assert.Equal(t, uint64(5), f.balance(p.source))
	assert.Equal(t, state.TransactionExecutionStatusNone, f.transaction(p.proposal, 1).ExecutionStatus)
	assert.Equal(t, state.ProposalStateExecuting, f.proposal(p.proposal).State)

	require.NoError(t, flag(1))
	assert.Equal(t, state.TransactionExecutionStatusError, f.transaction(p.proposal, 1).ExecutionStatus)
	assert.Equal(t, state.ProposalStateExecutingWithErrors, f.proposal(p.proposal).State)
	require.ErrorIs(t, flag(1), governance.ErrTransactionAlreadyFlaggedWithError)

	// A flagged transaction can be retried once the treasury is topped up
	f.mustExec([]solana.PublicKey{f.mintAuthority}, token.MintTo(p.payMint, p.source, f.mintAuthority, 5))
	require.NoError(t, f.execute(p, 1))
	assert.Equal(t, uint64(35), f.balance(p.dest))
	assert.Equal(t, state.TransactionExecutionStatusSuccess, f.transaction(p.proposal, 1).ExecutionStatus)
	assert.Equal(t, state.ProposalStateCompleted, f.proposal(p.proposal).State)
}

func TestExecuteDefeatedOption(t *testing.T) {
	f := newFixture(t)
	creator := f.newHolder(40, 40)
	f.newHolder(60, 0)
	p := f.createProposal(creator, state.InstructionOption("a"), state.DenyOption())
	other := f.createScope(defaultScopeConfig(f.mint))
	inst, err := state.NewConditionedInstruction(f.scope, f.build(f.b.DeleteScope(other, f.gov, f.authority)))
	require.NoError(t, err)
	insts := []state.ConditionedInstruction{inst}
	require.NoError(t, f.insertTransaction(p, 0, 0, holdUpTime, insts...))
	require.NoError(t, f.finalize(p))
	require.NoError(t, f.vote(p, creator.record, creator.owner, 0))
	f.now += maxVotingTime + coolOffTime + holdUpTime
	require.NoError(t, f.count(p))
	require.Equal(t, state.ProposalStateDefeated, f.proposal(p).State)

	err = f.exec(nil, f.build(f.b.ExecuteProposal(f.govSeed, p.address, 0, 0, insts)))
	require.ErrorIs(t, err, governance.ErrInvalidStateCannotExecute)
}
