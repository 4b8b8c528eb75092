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

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/governance"
	"github.com/blinklabs-io/agora/instruction"
	"github.com/blinklabs-io/agora/internal/test/testutil"
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountVotesThreshold(t *testing.T) {
	testCases := []struct {
		name       string
		yes        uint64
		deny       uint64
		abstain    uint64
		wantState  state.ProposalState
		wantResult state.OptionVoteResult
	}{
		{
			name:       "above threshold",
			yes:        60,
			deny:       10,
			abstain:    30,
			wantState:  state.ProposalStateSucceeded,
			wantResult: state.OptionVoteResultSucceeded,
		},
		{
			name:       "below threshold",
			yes:        40,
			deny:       10,
			abstain:    50,
			wantState:  state.ProposalStateDefeated,
			wantResult: state.OptionVoteResultDefeated,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			yes := f.newHolder(tc.yes, tc.yes)
			deny := f.newHolder(tc.deny, tc.deny)
			// Minted but never deposited, still part of the max vote weight
			f.newHolder(tc.abstain, 0)
			p := f.createProposal(yes, state.InstructionOption("fund"), state.DenyOption())
			require.NoError(t, f.finalize(p))
			require.NoError(t, f.vote(p, yes.record, yes.owner, 0))
			require.NoError(t, f.vote(p, deny.record, deny.owner, 1))
			assert.Equal(t, tc.yes, optionWeight(f.option(p, 0), f.scope))
			assert.Equal(t, tc.deny, optionWeight(f.option(p, 1), f.scope))

			f.now += maxVotingTime + coolOffTime
			require.NoError(t, f.count(p))

			proposal := f.proposal(p)
			assert.Equal(t, tc.wantState, proposal.State)
			require.Len(t, proposal.RulesMaxVoteWeight, 1)
			require.NotNil(t, proposal.RulesMaxVoteWeight[0].MaxVoteWeight)
			assert.Equal(t, tc.yes+tc.deny+tc.abstain, *proposal.RulesMaxVoteWeight[0].MaxVoteWeight)
			require.NotNil(t, proposal.VotingCompletedAt)
			assert.Equal(t, f.now, *proposal.VotingCompletedAt)
			assert.Equal(t, tc.wantResult, f.option(p, 0).VoteResult)
			assert.Equal(t, state.OptionVoteResultNone, f.option(p, 1).VoteResult)
			assert.Zero(t, f.ownerRecord(yes.record).OutstandingProposalCount)
		})
	}
}

func TestCountVotesTiming(t *testing.T) {
	f := newFixture(t)
	creator := f.newHolder(60, 60)
	f.newHolder(40, 0)
	p := f.createProposal(creator, state.InstructionOption("fund"), state.DenyOption())
	require.NoError(t, f.finalize(p))
	require.NoError(t, f.vote(p, creator.record, creator.owner, 0))

	countVotes := f.build(f.b.CountVotes(p.address, creator.record, []solana.PublicKey{f.scope}, p.options))
	require.ErrorIs(t, f.exec(nil, countVotes), governance.ErrMaxVoteWeightNotCalculated)

	countMax := f.build(f.b.CountMaxVoteWeights(p.address, []instruction.RuleSources{
		{Scope: f.scope, Sources: []solana.PublicKey{f.mint}},
	}))
	f.mustExec(nil, countMax)
	require.ErrorIs(t, f.exec(nil, countMax), governance.ErrMaxVoteWeightAlreadyCalculated)

	f.now += maxVotingTime + coolOffTime - 1
	require.ErrorIs(t, f.exec(nil, countVotes), governance.ErrCannotFinalizeVotingInProgress)

	f.now++
	f.mustExec(nil, countVotes)
	assert.Equal(t, state.ProposalStateSucceeded, f.proposal(p).State)
	require.ErrorIs(t, f.exec(nil, countVotes), governance.ErrInvalidStateCannotCountVotes)
}

func TestCreateProposalIndex(t *testing.T) {
	f := newFixture(t)
	creator := f.newHolder(10, 10)
	err := f.exec(
		[]solana.PublicKey{creator.owner, f.payer},
		f.build(f.b.CreateProposal(f.gov, creator.record, creator.owner, f.payer, 1, state.SingleChoice(), 1, state.MintSource(f.mint))),
	)
	require.ErrorIs(t, err, governance.ErrInvalidProposalIndex)

	f.createProposal(creator, state.InstructionOption("a"))
	f.createProposal(creator, state.InstructionOption("b"))
	var gov state.Governance
	f.load(f.gov, &gov)
	assert.Equal(t, uint32(2), gov.ProposalsCount)
	assert.Equal(t, uint32(2), f.ownerRecord(creator.record).OutstandingProposalCount)
}

func TestDraftEditsAfterFinalize(t *testing.T) {
	f := newFixture(t)
	creator := f.newHolder(10, 10)
	p := f.createProposal(creator, state.InstructionOption("a"), state.DenyOption())
	other := f.createScope(defaultScopeConfig(f.mint))
	signers := []solana.PublicKey{creator.owner, f.payer}

	err := f.exec(signers, f.build(f.b.CreateProposalOption(p.address, 2, creator.record, creator.owner, f.payer, state.DenyOption())))
	require.ErrorIs(t, err, governance.ErrDenyOptionAlreadyExists)

	require.NoError(t, f.finalize(p))
	assert.Equal(t, state.ProposalStateVoting, f.proposal(p).State)

	err = f.exec(signers, f.build(f.b.CreateProposalOption(p.address, 2, creator.record, creator.owner, f.payer, state.InstructionOption("late"))))
	require.ErrorIs(t, err, governance.ErrInvalidStateCannotEditOptions)

	err = f.exec(signers, f.build(f.b.InsertScope(p.address, other, creator.record, creator.owner)))
	require.ErrorIs(t, err, governance.ErrInvalidStateCannotEditScopes)

	inst, err := state.NewConditionedInstruction(f.scope, f.build(f.b.DeleteScope(other, f.gov, f.authority)))
	require.NoError(t, err)
	err = f.insertTransaction(p, 0, 0, holdUpTime, inst)
	require.ErrorIs(t, err, governance.ErrInvalidStateCannotEditTransactions)

	err = f.finalize(p)
	require.ErrorIs(t, err, governance.ErrInvalidStateCannotFinalizeDraft)
}

func TestFinalizeDraftValidation(t *testing.T) {
	f := newFixture(t)
	creator := f.newHolder(10, 10)

	// No options
	p := f.createProposal(creator)
	require.ErrorIs(t, f.finalize(p), governance.ErrInvalidProposalOptions)

	// Only a deny option
	p = f.createProposal(creator, state.DenyOption())
	require.ErrorIs(t, f.finalize(p), governance.ErrInvalidProposalOptions)

	// Creator below the amount criteria
	config := defaultScopeConfig(f.mint)
	config.Proposal.CreateProposalCriteria.Amount = 11
	f.scope = f.createScope(config)
	p = f.createProposal(creator, state.InstructionOption("a"), state.DenyOption())
	require.ErrorIs(t, f.finalize(p), governance.ErrCreateProposalCriteriaNotMet)
}

func TestInsertTransaction(t *testing.T) {
	f := newFixture(t)
	creator := f.newHolder(10, 10)
	p := f.createProposal(creator, state.InstructionOption("a"), state.DenyOption())
	other := f.createScope(defaultScopeConfig(f.mint))
	inner := f.build(f.b.DeleteScope(other, f.gov, f.authority))
	inst, err := state.NewConditionedInstruction(f.scope, inner)
	require.NoError(t, err)

	require.ErrorIs(t, f.insertTransaction(p, 0, 0, holdUpTime-1, inst), governance.ErrHoldUpTimeBelowRequiredMin)
	require.ErrorIs(t, f.insertTransaction(p, 0, 1, holdUpTime, inst), governance.ErrInvalidTransactionIndex)
	require.ErrorIs(t, f.insertTransaction(p, 1, 0, holdUpTime, inst), governance.ErrInvalidProposalOptions)

	// A scope not attached to the proposal cannot condition an instruction
	unattached, err := state.NewConditionedInstruction(other, inner)
	require.NoError(t, err)
	require.ErrorIs(t, f.insertTransaction(p, 0, 0, holdUpTime, unattached), governance.ErrInvalidTransactionScope)

	require.NoError(t, f.insertTransaction(p, 0, 0, holdUpTime, inst))
	require.NoError(t, f.insertTransaction(p, 0, 1, holdUpTime+5, inst))
	opt := f.option(p, 0)
	assert.Equal(t, uint16(2), opt.TransactionsCount)
	assert.Equal(t, uint16(2), opt.TransactionsNextIndex)

	txKey, _, err := f.b.ProposalTransactionAddress(p.address, 0, 1)
	require.NoError(t, err)
	var tx state.ProposalTransactionV2
	f.load(txKey, &tx)
	assert.Equal(t, uint32(holdUpTime+5), tx.HoldUpTime)
	require.Len(t, tx.Instructions, 1)
	assert.Equal(t, f.scope, tx.Instructions[0].Scope)

	// Only the last transaction can be removed
	signers := []solana.PublicKey{creator.owner}
	err = f.exec(signers, f.build(f.b.RemoveTransaction(p.address, 0, 0, creator.record, creator.owner)))
	require.ErrorIs(t, err, governance.ErrInvalidTransactionIndex)
	f.mustExec(signers, f.build(f.b.RemoveTransaction(p.address, 0, 1, creator.record, creator.owner)))
	_, err = f.ledger.GetAccount(txKey)
	require.ErrorIs(t, err, database.ErrAccountNotFound)
	assert.Equal(t, uint16(1), f.option(p, 0).TransactionsCount)
}

func TestSignatories(t *testing.T) {
	f := newFixture(t)
	creator := f.newHolder(10, 10)
	p := f.createProposal(creator, state.InstructionOption("a"), state.DenyOption())
	signatory := testutil.NewKey()
	f.mustExec(
		[]solana.PublicKey{creator.owner, f.payer},
		f.build(f.b.AddSignatory(p.address, signatory, creator.record, creator.owner, f.payer)),
	)
	assert.Equal(t, uint16(1), f.proposal(p).SignatoriesCount)
	require.ErrorIs(t, f.finalize(p), governance.ErrNotAllSignatoriesSignedOff)

	signOff := f.build(f.b.SignOffProposal(p.address, signatory))
	f.mustExec([]solana.PublicKey{signatory}, signOff)
	proposal := f.proposal(p)
	assert.Equal(t, state.ProposalStateSigningOff, proposal.State)
	assert.Equal(t, uint16(1), proposal.SignatoriesSignedOffCount)
	require.NotNil(t, proposal.SigningOffAt)

	err := f.exec([]solana.PublicKey{signatory}, signOff)
	require.ErrorIs(t, err, governance.ErrSignatoryAlreadySignedOff)

	require.NoError(t, f.finalize(p))
	assert.Equal(t, state.ProposalStateVoting, f.proposal(p).State)
}

func TestCancelProposal(t *testing.T) {
	f := newFixture(t)
	creator := f.newHolder(10, 10)
	cancel := func(p *proposal) error {
		return f.exec(
			[]solana.PublicKey{creator.owner},
			f.build(f.b.CancelProposal(p.address, creator.record, creator.owner, []solana.PublicKey{f.scope})),
		)
	}

	draft := f.createProposal(creator, state.InstructionOption("a"))
	require.NoError(t, cancel(draft))
	proposal := f.proposal(draft)
	assert.Equal(t, state.ProposalStateCancelled, proposal.State)
	require.NotNil(t, proposal.ClosedAt)
	assert.Zero(t, f.ownerRecord(creator.record).OutstandingProposalCount)
	require.ErrorIs(t, cancel(draft), governance.ErrInvalidStateCannotCancelProposal)

	voting := f.createProposal(creator, state.InstructionOption("a"), state.DenyOption())
	require.NoError(t, f.finalize(voting))
	f.now += maxVotingTime
	require.ErrorIs(t, cancel(voting), governance.ErrCannotCancelAfterVotingTime)
	f.now--
	require.NoError(t, cancel(voting))
	assert.Equal(t, state.ProposalStateCancelled, f.proposal(voting).State)
}
