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

package state_test

import (
	"testing"

	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalRoundTrip(t *testing.T) {
	maxWeight := uint64(100)
	votingAt := int64(1700000000)
	pct := uint8(50)
	deny := solana.NewWallet().PublicKey()
	orig := state.ProposalV2{
		Governance:       solana.NewWallet().PublicKey(),
		State:            state.ProposalStateVoting,
		Creator:          solana.NewWallet().PublicKey(),
		TokenOwnerRecord: solana.NewWallet().PublicKey(),
		Index:            7,
		VoteType:         state.MultiChoice(2, 1),
		Source:           state.MintSource(solana.NewWallet().PublicKey()),
		OptionsCount:     3,
		ScopesCount:      1,
		RulesMaxVoteWeight: []state.RuleWeight{
			{Rule: solana.NewWallet().PublicKey(), MaxVoteWeight: &maxWeight},
			{Rule: solana.NewWallet().PublicKey()},
		},
		DenyOption:              &deny,
		DraftAt:                 votingAt - 60,
		VotingAt:                &votingAt,
		VoteThresholdPercentage: &pct,
	}
	data, err := state.Marshal(orig)
	require.NoError(t, err)
	assert.Equal(t, state.AccountTypeProposal, state.PeekAccountType(data))
	var decoded state.ProposalV2
	require.NoError(t, state.Unmarshal(data, &decoded))
	assert.Equal(t, orig, decoded)
	assert.Equal(t, 1, decoded.RuleIndex(orig.RulesMaxVoteWeight[1].Rule))
	assert.Equal(t, -1, decoded.RuleIndex(solana.NewWallet().PublicKey()))
}

func TestScopeConfigVariants(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	factory := solana.NewWallet().PublicKey()
	orig := state.Scope{
		ID:         solana.NewWallet().PublicKey(),
		Governance: solana.NewWallet().PublicKey(),
		Config: state.ScopeConfig{
			Vote: state.VoteConfig{
				Threshold: state.Threshold{Numerator: 1, Denominator: 2},
				SourceWeights: []state.SourceWeight{
					{Source: state.MintSource(mint), Weight: 1},
					{Source: state.TagSource(factory), Weight: 10},
				},
				Condition: state.VoteCondition{
					Kind:          state.VoteConditionTag,
					RecordFactory: factory,
				},
			},
			Time: state.TimeConfig{
				MinTransactionHoldUpTime: 10,
				MaxVotingTime:            100,
				ProposalCoolOffTime:      5,
			},
			Proposal: state.ProposalConfig{
				CreateProposalCriteria: state.CreateProposalCriteria{
					Kind:          state.CreateProposalCriteriaTag,
					RecordFactory: factory,
				},
			},
		},
	}
	data, err := state.Marshal(orig)
	require.NoError(t, err)
	var decoded state.Scope
	require.NoError(t, state.Unmarshal(data, &decoded))
	assert.Equal(t, orig, decoded)

	w, ok := decoded.Config.Vote.SourceWeight(state.TagSource(factory))
	assert.True(t, ok)
	assert.Equal(t, uint64(10), w)
	_, ok = decoded.Config.Vote.SourceWeight(state.MintSource(factory))
	assert.False(t, ok)
	assert.Equal(t, int64(1100), decoded.Config.Time.VotingEndsAt(1000))
	assert.Equal(t, int64(1105), decoded.Config.Time.CoolOffEndsAt(1000))
}

func TestUnmarshalRejectsWrongType(t *testing.T) {
	data, err := state.Marshal(state.Governance{Seed: solana.NewWallet().PublicKey()})
	require.NoError(t, err)
	var scope state.Scope
	err = state.Unmarshal(data, &scope)
	require.ErrorIs(t, err, state.ErrAccountTypeMismatch)
}

func TestUnmarshalRejectsTrailingData(t *testing.T) {
	data, err := state.Marshal(state.SignatoryRecord{SignedOff: true})
	require.NoError(t, err)
	var rec state.SignatoryRecord
	err = state.Unmarshal(append(data, 0), &rec)
	require.ErrorIs(t, err, state.ErrTrailingData)
}

func TestUnmarshalShortData(t *testing.T) {
	data, err := state.Marshal(state.VoteRecordV2{Vote: []uint16{0, 2}, Weight: 5})
	require.NoError(t, err)
	var rec state.VoteRecordV2
	require.Error(t, state.Unmarshal(data[:len(data)-3], &rec))
}

func TestDelegationPendingRoundTrip(t *testing.T) {
	orig := state.DelegationRecord{
		Delegator: solana.NewWallet().PublicKey(),
		Delegatee: solana.NewWallet().PublicKey(),
		Scope:     solana.NewWallet().PublicKey(),
		Amount:    42,
		Pending: &state.PendingHistory{
			Direction: state.DelegationDirectionUndelegate,
			Amount:    12,
			NextVote:  solana.NewWallet().PublicKey(),
		},
	}
	data, err := state.Marshal(orig)
	require.NoError(t, err)
	var decoded state.DelegationRecord
	require.NoError(t, state.Unmarshal(data, &decoded))
	assert.Equal(t, orig, decoded)
}

func TestTransactionInstructionConversion(t *testing.T) {
	program := solana.NewWallet().PublicKey()
	acct := solana.NewWallet().PublicKey()
	inst := solana.NewInstruction(
		program,
		solana.AccountMetaSlice{solana.NewAccountMeta(acct, true, false)},
		[]byte{1, 2, 3},
	)
	scope := solana.NewWallet().PublicKey()
	ci, err := state.NewConditionedInstruction(scope, inst)
	require.NoError(t, err)
	orig := state.ProposalTransactionV2{
		OptionIndex:      1,
		InstructionIndex: 0,
		HoldUpTime:       30,
		Instructions:     []state.ConditionedInstruction{ci},
	}
	data, err := state.Marshal(orig)
	require.NoError(t, err)
	var decoded state.ProposalTransactionV2
	require.NoError(t, state.Unmarshal(data, &decoded))
	assert.Equal(t, orig, decoded)

	back := decoded.Instructions[0].Instruction()
	assert.Equal(t, program, back.ProgramID())
	require.Len(t, back.Accounts(), 1)
	assert.True(t, back.Accounts()[0].IsWritable)
	assert.False(t, back.Accounts()[0].IsSigner)
}

func TestOptionBucket(t *testing.T) {
	rule := solana.NewWallet().PublicKey()
	src := state.MintSource(solana.NewWallet().PublicKey())
	opt := state.ProposalOption{OptionType: state.InstructionOption("yes")}
	opt.Bucket(rule, src).Weight += 5
	opt.Bucket(rule, src).Weight += 7
	opt.Bucket(rule, state.TagSource(src.Key)).Weight++
	require.Len(t, opt.VoteWeights, 2)
	assert.Equal(t, uint64(12), opt.VoteWeights[0].Weight)
	assert.False(t, opt.IsDeny())
}

func TestVerifyAddress(t *testing.T) {
	governance := solana.NewWallet().PublicKey()
	seeds := state.ProposalSeeds(governance, 3)
	addr, bump, err := state.FindAddress(state.ProgramID, seeds)
	require.NoError(t, err)
	require.NoError(t, state.VerifyAddress(state.ProgramID, seeds, bump, addr))
	require.ErrorIs(
		t,
		state.VerifyAddress(state.ProgramID, state.ProposalSeeds(governance, 4), bump, addr),
		state.ErrInvalidSeeds,
	)
	if bump > 0 {
		require.ErrorIs(
			t,
			state.VerifyAddress(state.ProgramID, seeds, bump-1, addr),
			state.ErrInvalidSeeds,
		)
	}
	signer, err := solana.CreateProgramAddress(state.SignerSeeds(seeds, bump), state.ProgramID)
	require.NoError(t, err)
	assert.Equal(t, addr, signer)
}

func TestParseProposalState(t *testing.T) {
	for s := state.ProposalStateDraft; s <= state.ProposalStateCancelled; s++ {
		parsed, err := state.ParseProposalState(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := state.ParseProposalState("Tipped")
	require.Error(t, err)
}
