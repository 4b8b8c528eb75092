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

package instruction

import (
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
)

// Builder assembles governance instructions for one program deployment,
// deriving every program address from the documented seeds
type Builder struct {
	ProgramID solana.PublicKey
}

func NewBuilder(programID solana.PublicKey) *Builder {
	return &Builder{ProgramID: programID}
}

func (b *Builder) find(seeds [][]byte) (solana.PublicKey, uint8, error) {
	return state.FindAddress(b.ProgramID, seeds)
}

func (b *Builder) build(ix Instruction, metas ...*solana.AccountMeta) (solana.Instruction, error) {
	data, err := Encode(ix)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(b.ProgramID, metas, data), nil
}

func (b *Builder) GovernanceAddress(seed solana.PublicKey) (solana.PublicKey, uint8, error) {
	return b.find(state.GovernanceSeeds(seed))
}

func (b *Builder) NativeTreasuryAddress(governance solana.PublicKey) (solana.PublicKey, uint8, error) {
	return b.find(state.NativeTreasurySeeds(governance))
}

func (b *Builder) HoldingAddress(governance, mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return b.find(state.GoverningTokenHoldingSeeds(governance, mint))
}

func (b *Builder) ScopeAddress(governance, id solana.PublicKey) (solana.PublicKey, uint8, error) {
	return b.find(state.ScopeSeeds(governance, id))
}

func (b *Builder) TokenOwnerRecordAddress(
	governance solana.PublicKey,
	source state.VotePowerUnit,
	owner solana.PublicKey,
) (solana.PublicKey, uint8, error) {
	return b.find(state.TokenOwnerRecordSeeds(governance, source.Key, owner))
}

func (b *Builder) DelegateeRecordAddress(
	governance solana.PublicKey,
	source state.VotePowerUnit,
	owner, scope solana.PublicKey,
) (solana.PublicKey, uint8, error) {
	return b.find(state.DelegateeRecordSeeds(governance, source.Key, owner, scope))
}

func (b *Builder) BudgetRecordAddress(ownerRecord, scope solana.PublicKey) (solana.PublicKey, uint8, error) {
	return b.find(state.TokenOwnerBudgetRecordSeeds(ownerRecord, scope))
}

func (b *Builder) DelegationRecordAddress(delegator, delegatee, scope solana.PublicKey) (solana.PublicKey, uint8, error) {
	return b.find(state.DelegationRecordSeeds(delegator, delegatee, scope))
}

func (b *Builder) ProposalAddress(governance solana.PublicKey, index uint32) (solana.PublicKey, uint8, error) {
	return b.find(state.ProposalSeeds(governance, index))
}

func (b *Builder) ProposalOptionAddress(proposal solana.PublicKey, index uint16) (solana.PublicKey, uint8, error) {
	return b.find(state.ProposalOptionSeeds(proposal, index))
}

func (b *Builder) ProposalTransactionAddress(
	proposal solana.PublicKey,
	optionIndex, instructionIndex uint16,
) (solana.PublicKey, uint8, error) {
	return b.find(state.ProposalTransactionSeeds(proposal, optionIndex, instructionIndex))
}

func (b *Builder) VoteRecordAddress(proposal, ownerRecord, scope solana.PublicKey) (solana.PublicKey, uint8, error) {
	return b.find(state.VoteRecordSeeds(proposal, ownerRecord, scope))
}

func (b *Builder) SignatoryRecordAddress(proposal, signatory solana.PublicKey) (solana.PublicKey, uint8, error) {
	return b.find(state.SignatoryRecordSeeds(proposal, signatory))
}

// CreateGovernance accounts: governance (w), payer (s)
func (b *Builder) CreateGovernance(payer, seed solana.PublicKey, authority *solana.PublicKey) (solana.Instruction, error) {
	governance, bump, err := b.GovernanceAddress(seed)
	if err != nil {
		return nil, err
	}
	return b.build(
		&CreateGovernance{InitialAuthority: authority, Seed: seed, BumpSeed: bump},
		solana.Meta(governance).WRITE(),
		solana.Meta(payer).WRITE().SIGNER(),
	)
}

// CreateScope accounts: scope (w), governance, authority (s), payer (s)
func (b *Builder) CreateScope(
	governance, authority, payer, id solana.PublicKey,
	config state.ScopeConfig,
) (solana.Instruction, error) {
	scope, bump, err := b.ScopeAddress(governance, id)
	if err != nil {
		return nil, err
	}
	return b.build(
		&CreateScope{ID: id, Config: config, BumpSeed: bump},
		solana.Meta(scope).WRITE(),
		solana.Meta(governance),
		solana.Meta(authority).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
	)
}

// DeleteScope accounts: scope (w), governance, authority (s)
func (b *Builder) DeleteScope(scope, governance, authority solana.PublicKey) (solana.Instruction, error) {
	return b.build(
		&DeleteScope{},
		solana.Meta(scope).WRITE(),
		solana.Meta(governance),
		solana.Meta(authority).SIGNER(),
	)
}

// DepositMint accounts: owner record (w), governance, owner (s), payer (s),
// source token account (w), holding (w), mint, token program
func (b *Builder) DepositMint(
	governance, mint, owner, sourceTokenAccount, payer, tokenProgram solana.PublicKey,
	amount uint64,
) (solana.Instruction, error) {
	record, bump, err := b.TokenOwnerRecordAddress(governance, state.MintSource(mint), owner)
	if err != nil {
		return nil, err
	}
	holding, _, err := b.HoldingAddress(governance, mint)
	if err != nil {
		return nil, err
	}
	return b.build(
		&DepositGoverningTokens{Amount: amount, TokenOwnerRecordBumpSeed: bump},
		solana.Meta(record).WRITE(),
		solana.Meta(governance),
		solana.Meta(owner).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(sourceTokenAccount).WRITE(),
		solana.Meta(holding).WRITE(),
		solana.Meta(mint),
		solana.Meta(tokenProgram),
	)
}

// DepositTag accounts: owner record (w), governance, owner (s), payer (s),
// tag record
func (b *Builder) DepositTag(governance, factory, owner, tagRecord, payer solana.PublicKey) (solana.Instruction, error) {
	record, bump, err := b.TokenOwnerRecordAddress(governance, state.TagSource(factory), owner)
	if err != nil {
		return nil, err
	}
	return b.build(
		&DepositGoverningTokens{Amount: 1, TokenOwnerRecordBumpSeed: bump},
		solana.Meta(record).WRITE(),
		solana.Meta(governance),
		solana.Meta(owner).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(tagRecord),
	)
}

// WithdrawMint accounts: owner record (w), governance, owner (s),
// destination token account (w), holding (w), token program
func (b *Builder) WithdrawMint(
	governance, mint, owner, destination, tokenProgram solana.PublicKey,
) (solana.Instruction, error) {
	record, _, err := b.TokenOwnerRecordAddress(governance, state.MintSource(mint), owner)
	if err != nil {
		return nil, err
	}
	holding, _, err := b.HoldingAddress(governance, mint)
	if err != nil {
		return nil, err
	}
	return b.build(
		&WithdrawGoverningTokens{},
		solana.Meta(record).WRITE(),
		solana.Meta(governance),
		solana.Meta(owner).SIGNER(),
		solana.Meta(destination).WRITE(),
		solana.Meta(holding).WRITE(),
		solana.Meta(tokenProgram),
	)
}

// WithdrawTag accounts: owner record (w), governance, owner (s)
func (b *Builder) WithdrawTag(governance, factory, owner solana.PublicKey) (solana.Instruction, error) {
	record, _, err := b.TokenOwnerRecordAddress(governance, state.TagSource(factory), owner)
	if err != nil {
		return nil, err
	}
	return b.build(
		&WithdrawGoverningTokens{},
		solana.Meta(record).WRITE(),
		solana.Meta(governance),
		solana.Meta(owner).SIGNER(),
	)
}

// CreateTokenOwnerBudgetRecord accounts: budget (w), owner record,
// owner (s), payer (s), scope
func (b *Builder) CreateTokenOwnerBudgetRecord(
	ownerRecord, scope, owner, payer solana.PublicKey,
) (solana.Instruction, error) {
	budget, bump, err := b.BudgetRecordAddress(ownerRecord, scope)
	if err != nil {
		return nil, err
	}
	return b.build(
		&CreateTokenOwnerBudgetRecord{Scope: scope, BumpSeed: bump},
		solana.Meta(budget).WRITE(),
		solana.Meta(ownerRecord),
		solana.Meta(owner).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(scope),
	)
}

// CreateDelegatee accounts: delegatee record (w), governance, scope,
// delegatee owner (s), payer (s)
func (b *Builder) CreateDelegatee(
	governance, scope solana.PublicKey,
	source state.VotePowerUnit,
	owner, payer solana.PublicKey,
) (solana.Instruction, error) {
	record, bump, err := b.DelegateeRecordAddress(governance, source, owner, scope)
	if err != nil {
		return nil, err
	}
	return b.build(
		&CreateDelegatee{Scope: scope, VotePowerUnit: source, TokenOwnerRecordBumpSeed: bump},
		solana.Meta(record).WRITE(),
		solana.Meta(governance),
		solana.Meta(scope),
		solana.Meta(owner).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
	)
}

// Delegate accounts: delegation (w), delegator record (w), delegator
// owner (s), budget (w), delegatee record (w), scope, payer (s)
func (b *Builder) Delegate(
	delegatorRecord, delegateeRecord, scope, owner, payer solana.PublicKey,
	amount uint64,
) (solana.Instruction, error) {
	delegation, bump, err := b.DelegationRecordAddress(delegatorRecord, delegateeRecord, scope)
	if err != nil {
		return nil, err
	}
	budget, _, err := b.BudgetRecordAddress(delegatorRecord, scope)
	if err != nil {
		return nil, err
	}
	return b.build(
		&Delegate{Amount: amount, DelegationRecordBumpSeed: bump},
		solana.Meta(delegation).WRITE(),
		solana.Meta(delegatorRecord).WRITE(),
		solana.Meta(owner).SIGNER(),
		solana.Meta(budget).WRITE(),
		solana.Meta(delegateeRecord).WRITE(),
		solana.Meta(scope),
		solana.Meta(payer).WRITE().SIGNER(),
	)
}

// Undelegate accounts: delegation (w), delegator record (w), delegator
// owner (s), budget (w), delegatee record (w), scope
func (b *Builder) Undelegate(
	delegatorRecord, delegateeRecord, scope, owner solana.PublicKey,
	amount uint64,
) (solana.Instruction, error) {
	delegation, _, err := b.DelegationRecordAddress(delegatorRecord, delegateeRecord, scope)
	if err != nil {
		return nil, err
	}
	budget, _, err := b.BudgetRecordAddress(delegatorRecord, scope)
	if err != nil {
		return nil, err
	}
	return b.build(
		&Undelegate{Amount: amount},
		solana.Meta(delegation).WRITE(),
		solana.Meta(delegatorRecord).WRITE(),
		solana.Meta(owner).SIGNER(),
		solana.Meta(budget).WRITE(),
		solana.Meta(delegateeRecord).WRITE(),
		solana.Meta(scope),
	)
}

// HistoryStep is one delegatee vote to replay. Options lists the vote's
// option accounts and is empty when the proposal no longer accepts weight
// changes or the vote was relinquished.
type HistoryStep struct {
	VoteRecord solana.PublicKey
	Proposal   solana.PublicKey
	Options    []solana.PublicKey
}

// DelegateHistory accounts: delegation (w), scope, budget (w), delegator
// record (w), delegatee record, then per step: vote record (w), proposal,
// options (w)
func (b *Builder) DelegateHistory(
	delegatorRecord, delegateeRecord, scope solana.PublicKey,
	steps []HistoryStep,
) (solana.Instruction, error) {
	return b.history(&DelegateHistory{}, delegatorRecord, delegateeRecord, scope, steps)
}

// UndelegateHistory takes the same accounts as DelegateHistory
func (b *Builder) UndelegateHistory(
	delegatorRecord, delegateeRecord, scope solana.PublicKey,
	steps []HistoryStep,
) (solana.Instruction, error) {
	return b.history(&UndelegateHistory{}, delegatorRecord, delegateeRecord, scope, steps)
}

func (b *Builder) history(
	ix Instruction,
	delegatorRecord, delegateeRecord, scope solana.PublicKey,
	steps []HistoryStep,
) (solana.Instruction, error) {
	delegation, _, err := b.DelegationRecordAddress(delegatorRecord, delegateeRecord, scope)
	if err != nil {
		return nil, err
	}
	budget, _, err := b.BudgetRecordAddress(delegatorRecord, scope)
	if err != nil {
		return nil, err
	}
	metas := []*solana.AccountMeta{
		solana.Meta(delegation).WRITE(),
		solana.Meta(scope),
		solana.Meta(budget).WRITE(),
		solana.Meta(delegatorRecord).WRITE(),
		solana.Meta(delegateeRecord),
	}
	for _, step := range steps {
		metas = append(metas, solana.Meta(step.VoteRecord).WRITE(), solana.Meta(step.Proposal))
		for _, opt := range step.Options {
			metas = append(metas, solana.Meta(opt).WRITE())
		}
	}
	return b.build(ix, metas...)
}

// CreateProposal accounts: proposal (w), governance (w), creator record
// (w), creator (s), payer (s). index must be the governance's current
// proposal count.
func (b *Builder) CreateProposal(
	governance, creatorRecord, creator, payer solana.PublicKey,
	index uint32,
	voteType state.VoteType,
	scopesCount uint16,
	source state.VotePowerUnit,
) (solana.Instruction, error) {
	proposal, bump, err := b.ProposalAddress(governance, index)
	if err != nil {
		return nil, err
	}
	return b.build(
		&CreateProposal{VoteType: voteType, ScopesCount: scopesCount, Source: source, BumpSeed: bump},
		solana.Meta(proposal).WRITE(),
		solana.Meta(governance).WRITE(),
		solana.Meta(creatorRecord).WRITE(),
		solana.Meta(creator).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
	)
}

// InsertScope accounts: proposal (w), scope, creator record, creator (s)
func (b *Builder) InsertScope(proposal, scope, creatorRecord, creator solana.PublicKey) (solana.Instruction, error) {
	return b.build(
		&InsertScope{},
		solana.Meta(proposal).WRITE(),
		solana.Meta(scope),
		solana.Meta(creatorRecord),
		solana.Meta(creator).SIGNER(),
	)
}

// CreateProposalOption accounts: option (w), proposal (w), creator record,
// creator (s), payer (s). index must be the proposal's current option
// count.
func (b *Builder) CreateProposalOption(
	proposal solana.PublicKey,
	index uint16,
	creatorRecord, creator, payer solana.PublicKey,
	optionType state.OptionType,
) (solana.Instruction, error) {
	option, bump, err := b.ProposalOptionAddress(proposal, index)
	if err != nil {
		return nil, err
	}
	return b.build(
		&CreateProposalOption{OptionType: optionType, BumpSeed: bump},
		solana.Meta(option).WRITE(),
		solana.Meta(proposal).WRITE(),
		solana.Meta(creatorRecord),
		solana.Meta(creator).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
	)
}

// InsertTransaction accounts: transaction (w), proposal, option (w),
// creator record, creator (s), payer (s), then each distinct scope the
// instructions are conditioned on
func (b *Builder) InsertTransaction(
	proposal solana.PublicKey,
	optionIndex, instructionIndex uint16,
	holdUpTime uint32,
	instructions []state.ConditionedInstruction,
	creatorRecord, creator, payer solana.PublicKey,
) (solana.Instruction, error) {
	tx, bump, err := b.ProposalTransactionAddress(proposal, optionIndex, instructionIndex)
	if err != nil {
		return nil, err
	}
	option, _, err := b.ProposalOptionAddress(proposal, optionIndex)
	if err != nil {
		return nil, err
	}
	metas := []*solana.AccountMeta{
		solana.Meta(tx).WRITE(),
		solana.Meta(proposal),
		solana.Meta(option).WRITE(),
		solana.Meta(creatorRecord),
		solana.Meta(creator).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
	}
	seen := make(map[solana.PublicKey]struct{})
	for _, inst := range instructions {
		if _, ok := seen[inst.Scope]; ok {
			continue
		}
		seen[inst.Scope] = struct{}{}
		metas = append(metas, solana.Meta(inst.Scope))
	}
	return b.build(
		&InsertTransaction{
			OptionIndex:      optionIndex,
			InstructionIndex: instructionIndex,
			HoldUpTime:       holdUpTime,
			Instructions:     instructions,
			BumpSeed:         bump,
		},
		metas...,
	)
}

// RemoveTransaction accounts: transaction (w), proposal, option (w),
// creator record, creator (s)
func (b *Builder) RemoveTransaction(
	proposal solana.PublicKey,
	optionIndex, instructionIndex uint16,
	creatorRecord, creator solana.PublicKey,
) (solana.Instruction, error) {
	tx, _, err := b.ProposalTransactionAddress(proposal, optionIndex, instructionIndex)
	if err != nil {
		return nil, err
	}
	option, _, err := b.ProposalOptionAddress(proposal, optionIndex)
	if err != nil {
		return nil, err
	}
	return b.build(
		&RemoveTransaction{},
		solana.Meta(tx).WRITE(),
		solana.Meta(proposal),
		solana.Meta(option).WRITE(),
		solana.Meta(creatorRecord),
		solana.Meta(creator).SIGNER(),
	)
}

// SetExecutionFlags accounts: proposal (w), creator record, creator (s)
func (b *Builder) SetExecutionFlags(
	proposal, creatorRecord, creator solana.PublicKey,
	flags state.ExecutionFlags,
) (solana.Instruction, error) {
	return b.build(
		&SetExecutionFlags{Flags: flags},
		solana.Meta(proposal).WRITE(),
		solana.Meta(creatorRecord),
		solana.Meta(creator).SIGNER(),
	)
}

// AddSignatory accounts: signatory record (w), proposal (w), creator
// record, creator (s), payer (s)
func (b *Builder) AddSignatory(
	proposal, signatory, creatorRecord, creator, payer solana.PublicKey,
) (solana.Instruction, error) {
	record, bump, err := b.SignatoryRecordAddress(proposal, signatory)
	if err != nil {
		return nil, err
	}
	return b.build(
		&AddSignatory{Signatory: signatory, BumpSeed: bump},
		solana.Meta(record).WRITE(),
		solana.Meta(proposal).WRITE(),
		solana.Meta(creatorRecord),
		solana.Meta(creator).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
	)
}

// SignOffProposal accounts: proposal (w), signatory record (w),
// signatory (s)
func (b *Builder) SignOffProposal(proposal, signatory solana.PublicKey) (solana.Instruction, error) {
	record, _, err := b.SignatoryRecordAddress(proposal, signatory)
	if err != nil {
		return nil, err
	}
	return b.build(
		&SignOffProposal{},
		solana.Meta(proposal).WRITE(),
		solana.Meta(record).WRITE(),
		solana.Meta(signatory).SIGNER(),
	)
}

// FinalizeDraft accounts: proposal (w), creator record, creator (s), then
// per attached scope in rule order: scope, criteria proof. The proof is a
// tag record for tag criteria and the creator record otherwise; a nil
// proofs slice uses the creator record throughout.
func (b *Builder) FinalizeDraft(
	proposal, creatorRecord, creator solana.PublicKey,
	scopes, proofs []solana.PublicKey,
) (solana.Instruction, error) {
	metas := []*solana.AccountMeta{
		solana.Meta(proposal).WRITE(),
		solana.Meta(creatorRecord),
		solana.Meta(creator).SIGNER(),
	}
	for i, scope := range scopes {
		proof := creatorRecord
		if i < len(proofs) {
			proof = proofs[i]
		}
		metas = append(metas, solana.Meta(scope), solana.Meta(proof))
	}
	return b.build(&FinalizeDraft{}, metas...)
}

// CancelProposal accounts: proposal (w), creator record (w), creator (s),
// then the attached scopes in rule order
func (b *Builder) CancelProposal(
	proposal, creatorRecord, creator solana.PublicKey,
	scopes []solana.PublicKey,
) (solana.Instruction, error) {
	metas := []*solana.AccountMeta{
		solana.Meta(proposal).WRITE(),
		solana.Meta(creatorRecord).WRITE(),
		solana.Meta(creator).SIGNER(),
	}
	for _, scope := range scopes {
		metas = append(metas, solana.Meta(scope))
	}
	return b.build(&CancelProposal{}, metas...)
}

// Vote accounts: vote record (w), proposal, scope, owner record (w),
// owner (s), payer (s), budget record, condition proof, options (w).
// conditionProof is the voter's tag record when the scope has a tag
// condition; nil passes the owner record.
func (b *Builder) Vote(
	proposal, scope, ownerRecord, owner, payer solana.PublicKey,
	conditionProof *solana.PublicKey,
	options []solana.PublicKey,
) (solana.Instruction, error) {
	voteRecord, bump, err := b.VoteRecordAddress(proposal, ownerRecord, scope)
	if err != nil {
		return nil, err
	}
	budget, _, err := b.BudgetRecordAddress(ownerRecord, scope)
	if err != nil {
		return nil, err
	}
	proof := ownerRecord
	if conditionProof != nil {
		proof = *conditionProof
	}
	metas := []*solana.AccountMeta{
		solana.Meta(voteRecord).WRITE(),
		solana.Meta(proposal),
		solana.Meta(scope),
		solana.Meta(ownerRecord).WRITE(),
		solana.Meta(owner).SIGNER(),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(budget),
		solana.Meta(proof),
	}
	for _, opt := range options {
		metas = append(metas, solana.Meta(opt).WRITE())
	}
	return b.build(&Vote{VoteRecordBumpSeed: bump}, metas...)
}

// Unvote accounts: vote record (w), proposal, scope, owner record (w),
// owner (s), options (w). Options may be omitted once the proposal has
// left Voting.
func (b *Builder) Unvote(
	proposal, scope, ownerRecord, owner solana.PublicKey,
	options []solana.PublicKey,
) (solana.Instruction, error) {
	voteRecord, _, err := b.VoteRecordAddress(proposal, ownerRecord, scope)
	if err != nil {
		return nil, err
	}
	metas := []*solana.AccountMeta{
		solana.Meta(voteRecord).WRITE(),
		solana.Meta(proposal),
		solana.Meta(scope),
		solana.Meta(ownerRecord).WRITE(),
		solana.Meta(owner).SIGNER(),
	}
	for _, opt := range options {
		metas = append(metas, solana.Meta(opt).WRITE())
	}
	return b.build(&Unvote{}, metas...)
}

// RuleSources lists a scope and the supply account of each of its
// source weights in configuration order: the mint for mint sources and
// the factory for tag sources
type RuleSources struct {
	Scope   solana.PublicKey
	Sources []solana.PublicKey
}

// CountMaxVoteWeights accounts: proposal (w), then per rule: scope,
// sources
func (b *Builder) CountMaxVoteWeights(proposal solana.PublicKey, rules []RuleSources) (solana.Instruction, error) {
	metas := []*solana.AccountMeta{solana.Meta(proposal).WRITE()}
	for _, rule := range rules {
		metas = append(metas, solana.Meta(rule.Scope))
		for _, src := range rule.Sources {
			metas = append(metas, solana.Meta(src))
		}
	}
	return b.build(&CountMaxVoteWeights{}, metas...)
}

// CountVotes accounts: proposal (w), creator record (w), scopes in rule
// order, then every option (w) in index order
func (b *Builder) CountVotes(
	proposal, creatorRecord solana.PublicKey,
	scopes, options []solana.PublicKey,
) (solana.Instruction, error) {
	metas := []*solana.AccountMeta{
		solana.Meta(proposal).WRITE(),
		solana.Meta(creatorRecord).WRITE(),
	}
	for _, scope := range scopes {
		metas = append(metas, solana.Meta(scope))
	}
	for _, opt := range options {
		metas = append(metas, solana.Meta(opt).WRITE())
	}
	return b.build(&CountVotes{}, metas...)
}

// ExecuteProposal accounts: governance, proposal (w), transaction (w),
// option (w), native treasury (w), then every account and program the
// transaction's instructions reference
func (b *Builder) ExecuteProposal(
	governanceSeed, proposal solana.PublicKey,
	optionIndex, instructionIndex uint16,
	instructions []state.ConditionedInstruction,
) (solana.Instruction, error) {
	governance, bump, err := b.GovernanceAddress(governanceSeed)
	if err != nil {
		return nil, err
	}
	treasury, _, err := b.NativeTreasuryAddress(governance)
	if err != nil {
		return nil, err
	}
	tx, _, err := b.ProposalTransactionAddress(proposal, optionIndex, instructionIndex)
	if err != nil {
		return nil, err
	}
	option, _, err := b.ProposalOptionAddress(proposal, optionIndex)
	if err != nil {
		return nil, err
	}
	metas := []*solana.AccountMeta{
		solana.Meta(governance),
		solana.Meta(proposal).WRITE(),
		solana.Meta(tx).WRITE(),
		solana.Meta(option).WRITE(),
		solana.Meta(treasury).WRITE(),
	}
	index := make(map[solana.PublicKey]*solana.AccountMeta)
	for _, m := range metas {
		index[m.PublicKey] = m
	}
	add := func(pk solana.PublicKey, writable bool) {
		if m, ok := index[pk]; ok {
			m.IsWritable = m.IsWritable || writable
			return
		}
		m := solana.NewAccountMeta(pk, writable, false)
		index[pk] = m
		metas = append(metas, m)
	}
	for _, inst := range instructions {
		for _, a := range inst.Accounts {
			add(a.Pubkey, a.IsWritable)
		}
		add(inst.ProgramID, false)
	}
	return b.build(&ExecuteProposal{GovernanceBumpSeed: bump}, metas...)
}

// FlagTransactionError accounts: proposal (w), creator record, creator
// (s), transaction (w), option
func (b *Builder) FlagTransactionError(
	proposal solana.PublicKey,
	optionIndex, instructionIndex uint16,
	creatorRecord, creator solana.PublicKey,
) (solana.Instruction, error) {
	tx, _, err := b.ProposalTransactionAddress(proposal, optionIndex, instructionIndex)
	if err != nil {
		return nil, err
	}
	option, _, err := b.ProposalOptionAddress(proposal, optionIndex)
	if err != nil {
		return nil, err
	}
	return b.build(
		&FlagTransactionError{},
		solana.Meta(proposal).WRITE(),
		solana.Meta(creatorRecord),
		solana.Meta(creator).SIGNER(),
		solana.Meta(tx).WRITE(),
		solana.Meta(option),
	)
}
