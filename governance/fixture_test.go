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
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/governance"
	"github.com/blinklabs-io/agora/instruction"
	"github.com/blinklabs-io/agora/internal/test/testutil"
	"github.com/blinklabs-io/agora/ledger"
	"github.com/blinklabs-io/agora/state"
	"github.com/blinklabs-io/agora/tag"
	"github.com/blinklabs-io/agora/token"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

const (
	startTime     = 1_700_000_000
	maxVotingTime = 100
	coolOffTime   = 20
	holdUpTime    = 10
)

type fixture struct {
	t             *testing.T
	db            *database.Database
	bus           *event.EventBus
	ledger        *ledger.State
	b             *instruction.Builder
	now           int64
	payer         solana.PublicKey
	authority     solana.PublicKey
	mintAuthority solana.PublicKey
	mint          solana.PublicKey
	govSeed       solana.PublicKey
	gov           solana.PublicKey
	treasury      solana.PublicKey
	scope         solana.PublicKey
	proposals     uint32
}

// holder is a governing token owner with a funded token account and, once
// deposited, a vote power record
type holder struct {
	owner   solana.PublicKey
	account solana.PublicKey
	record  solana.PublicKey
}

type proposal struct {
	address solana.PublicKey
	creator *holder
	options []solana.PublicKey
}

func defaultScopeConfig(mint solana.PublicKey) state.ScopeConfig {
	return state.ScopeConfig{
		Vote: state.VoteConfig{
			Threshold: state.Threshold{Numerator: 50, Denominator: 100},
			SourceWeights: []state.SourceWeight{
				{Source: state.MintSource(mint), Weight: 1},
			},
		},
		Time: state.TimeConfig{
			MinTransactionHoldUpTime: holdUpTime,
			MaxVotingTime:            maxVotingTime,
			ProposalCoolOffTime:      coolOffTime,
		},
		Proposal: state.ProposalConfig{
			CreateProposalCriteria: state.CreateProposalCriteria{
				Kind:   state.CreateProposalCriteriaAmount,
				Amount: 1,
			},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDatabase(t)
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	ls, err := ledger.NewState(ledger.StateConfig{Database: db, EventBus: bus})
	require.NoError(t, err)
	ls.RegisterProgram(token.NewProgram())
	ls.RegisterProgram(tag.NewProgram())
	ls.RegisterProgram(governance.New())
	f := &fixture{
		t:             t,
		db:            db,
		bus:           bus,
		ledger:        ls,
		b:             instruction.NewBuilder(state.ProgramID),
		now:           startTime,
		payer:         testutil.NewKey(),
		authority:     testutil.NewKey(),
		mintAuthority: testutil.NewKey(),
		govSeed:       testutil.NewKey(),
	}
	ls.RegisterIndexer(governance.NewIndexer(state.ProgramID, func() time.Time {
		return time.Unix(f.now, 0)
	}))
	f.mint = f.newMint()
	f.gov, _, err = f.b.GovernanceAddress(f.govSeed)
	require.NoError(t, err)
	f.treasury, _, err = f.b.NativeTreasuryAddress(f.gov)
	require.NoError(t, err)
	f.mustExec(
		[]solana.PublicKey{f.payer},
		f.build(f.b.CreateGovernance(f.payer, f.govSeed, &f.authority)),
	)
	f.scope = f.createScope(defaultScopeConfig(f.mint))
	return f
}

func (f *fixture) build(inst solana.Instruction, err error) solana.Instruction {
	f.t.Helper()
	require.NoError(f.t, err)
	return inst
}

func (f *fixture) exec(signers []solana.PublicKey, insts ...solana.Instruction) error {
	return f.ledger.ProcessTransaction(context.Background(), &ledger.Transaction{
		Signers:      signers,
		Instructions: insts,
		Timestamp:    f.now,
	})
}

func (f *fixture) mustExec(signers []solana.PublicKey, insts ...solana.Instruction) {
	f.t.Helper()
	require.NoError(f.t, f.exec(signers, insts...))
}

func (f *fixture) load(address solana.PublicKey, v state.Layout) {
	f.t.Helper()
	acct, err := f.ledger.GetAccount(address)
	require.NoError(f.t, err)
	require.NoError(f.t, state.Unmarshal(acct.Data, v))
}

func (f *fixture) newMint() solana.PublicKey {
	f.t.Helper()
	mint := testutil.NewKey()
	f.mustExec([]solana.PublicKey{mint}, token.InitializeMint(mint, &f.mintAuthority, 0))
	return mint
}

func (f *fixture) newTokenAccount(mint, owner solana.PublicKey, amount uint64) solana.PublicKey {
	f.t.Helper()
	acct := testutil.NewKey()
	f.mustExec([]solana.PublicKey{acct}, token.InitializeAccount(acct, mint, owner))
	if amount > 0 {
		f.mustExec([]solana.PublicKey{f.mintAuthority}, token.MintTo(mint, acct, f.mintAuthority, amount))
	}
	return acct
}

func (f *fixture) balance(acct solana.PublicKey) uint64 {
	f.t.Helper()
	a, err := f.ledger.GetAccount(acct)
	require.NoError(f.t, err)
	decoded, err := token.DecodeAccount(a.Owner, a.Data)
	require.NoError(f.t, err)
	return decoded.Amount
}

func (f *fixture) createScope(config state.ScopeConfig) solana.PublicKey {
	f.t.Helper()
	id := testutil.NewKey()
	scope, _, err := f.b.ScopeAddress(f.gov, id)
	require.NoError(f.t, err)
	f.mustExec(
		[]solana.PublicKey{f.authority, f.payer},
		f.build(f.b.CreateScope(f.gov, f.authority, f.payer, id, config)),
	)
	return scope
}

// newHolder mints minted tokens to a new owner and deposits deposited of them
func (f *fixture) newHolder(minted, deposited uint64) *holder {
	f.t.Helper()
	h := &holder{owner: testutil.NewKey()}
	h.account = f.newTokenAccount(f.mint, h.owner, minted)
	var err error
	h.record, _, err = f.b.TokenOwnerRecordAddress(f.gov, state.MintSource(f.mint), h.owner)
	require.NoError(f.t, err)
	if deposited > 0 {
		f.deposit(h, deposited)
	}
	return h
}

func (f *fixture) deposit(h *holder, amount uint64) {
	f.t.Helper()
	f.mustExec(
		[]solana.PublicKey{h.owner, f.payer},
		f.build(f.b.DepositMint(f.gov, f.mint, h.owner, h.account, f.payer, token.ProgramID, amount)),
	)
}

// createProposal creates a single choice draft attached to the fixture scope
func (f *fixture) createProposal(creator *holder, options ...state.OptionType) *proposal {
	f.t.Helper()
	index := f.proposals
	address, _, err := f.b.ProposalAddress(f.gov, index)
	require.NoError(f.t, err)
	signers := []solana.PublicKey{creator.owner, f.payer}
	f.mustExec(
		signers,
		f.build(f.b.CreateProposal(f.gov, creator.record, creator.owner, f.payer, index, state.SingleChoice(), 1, state.MintSource(f.mint))),
		f.build(f.b.InsertScope(address, f.scope, creator.record, creator.owner)),
	)
	f.proposals++
	p := &proposal{address: address, creator: creator}
	for i, opt := range options {
		key, _, err := f.b.ProposalOptionAddress(address, uint16(i)) // #nosec G115
		require.NoError(f.t, err)
		f.mustExec(
			signers,
			f.build(f.b.CreateProposalOption(address, uint16(i), creator.record, creator.owner, f.payer, opt)), // #nosec G115
		)
		p.options = append(p.options, key)
	}
	return p
}

func (f *fixture) insertTransaction(p *proposal, optionIndex, index uint16, holdUp uint32, insts ...state.ConditionedInstruction) error {
	return f.exec(
		[]solana.PublicKey{p.creator.owner, f.payer},
		f.build(f.b.InsertTransaction(p.address, optionIndex, index, holdUp, insts, p.creator.record, p.creator.owner, f.payer)),
	)
}

func (f *fixture) finalize(p *proposal) error {
	return f.exec(
		[]solana.PublicKey{p.creator.owner},
		f.build(f.b.FinalizeDraft(p.address, p.creator.record, p.creator.owner, []solana.PublicKey{f.scope}, nil)),
	)
}

func (f *fixture) vote(p *proposal, record, owner solana.PublicKey, options ...int) error {
	keys := make([]solana.PublicKey, 0, len(options))
	for _, i := range options {
		keys = append(keys, p.options[i])
	}
	return f.exec(
		[]solana.PublicKey{owner, f.payer},
		f.build(f.b.Vote(p.address, f.scope, record, owner, f.payer, nil, keys)),
	)
}

func (f *fixture) unvote(p *proposal, h *holder, options ...int) error {
	keys := make([]solana.PublicKey, 0, len(options))
	for _, i := range options {
		keys = append(keys, p.options[i])
	}
	return f.exec(
		[]solana.PublicKey{h.owner},
		f.build(f.b.Unvote(p.address, f.scope, h.record, h.owner, keys)),
	)
}

// count snapshots max vote weights and counts the votes
func (f *fixture) count(p *proposal) error {
	rules := []instruction.RuleSources{{Scope: f.scope, Sources: []solana.PublicKey{f.mint}}}
	if err := f.exec(nil, f.build(f.b.CountMaxVoteWeights(p.address, rules))); err != nil {
		return err
	}
	return f.exec(nil, f.build(f.b.CountVotes(p.address, p.creator.record, []solana.PublicKey{f.scope}, p.options)))
}

func (f *fixture) proposal(p *proposal) *state.ProposalV2 {
	f.t.Helper()
	var ret state.ProposalV2
	f.load(p.address, &ret)
	return &ret
}

func (f *fixture) option(p *proposal, i int) *state.ProposalOption {
	f.t.Helper()
	var ret state.ProposalOption
	f.load(p.options[i], &ret)
	return &ret
}

func (f *fixture) ownerRecord(address solana.PublicKey) *state.VotePowerOwnerRecord {
	f.t.Helper()
	var ret state.VotePowerOwnerRecord
	f.load(address, &ret)
	return &ret
}

// optionWeight sums the raw weight an option holds under the fixture scope
func optionWeight(o *state.ProposalOption, scope solana.PublicKey) uint64 {
	var total uint64
	for _, vw := range o.VoteWeights {
		if vw.Rule == scope {
			total += vw.Weight
		}
	}
	return total
}
