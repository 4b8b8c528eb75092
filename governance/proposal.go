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

package governance

import (
	"fmt"

	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/instruction"
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
)

// createProposal accounts: proposal (w), governance (w), creator record (w),
// creator (s), payer (w, s)
func (h *handler) createProposal(ix *instruction.CreateProposal) error {
	if err := h.need(5); err != nil {
		return err
	}
	proposalKey, govKey, recordKey, creator := h.key(0), h.key(1), h.key(2), h.key(3)
	gov, err := h.loadGovernance(govKey)
	if err != nil {
		return err
	}
	record, err := h.loadOwnerRecord(recordKey, creator)
	if err != nil {
		return err
	}
	if !record.Governance.Equals(govKey) {
		return fmt.Errorf("%w: creator record %s", ErrInvalidGovernance, recordKey)
	}
	if record.Source != ix.Source {
		return fmt.Errorf("%w: creator record holds %s", ErrInvalidVotePowerSource, record.Source)
	}
	if ix.ScopesCount == 0 {
		return fmt.Errorf("%w: at least one scope is required", ErrInvalidProposalScopes)
	}
	if ix.VoteType.Kind > state.VoteTypeMultiChoice {
		return fmt.Errorf("%w: vote type", ErrInvalidInstruction)
	}
	index := gov.ProposalsCount
	if err := state.VerifyAddress(h.programID(), state.ProposalSeeds(govKey, index), ix.BumpSeed, proposalKey); err != nil {
		return fmt.Errorf("%w: proposal %d must use the next index", ErrInvalidProposalIndex, index)
	}
	proposal := &state.ProposalV2{
		Governance:       govKey,
		State:            state.ProposalStateDraft,
		Creator:          creator,
		TokenOwnerRecord: recordKey,
		Index:            index,
		VoteType:         ix.VoteType,
		Source:           ix.Source,
		ScopesCount:      ix.ScopesCount,
		DraftAt:          h.now(),
	}
	if err := h.create(proposalKey, state.ProposalSeeds(govKey, index), ix.BumpSeed, proposal, ErrAccountAlreadyInUse); err != nil {
		return err
	}
	if gov.ProposalsCount == ^uint32(0) {
		return ErrArithmeticOverflow
	}
	gov.ProposalsCount++
	record.OutstandingProposalCount++
	if err := h.store(govKey, gov); err != nil {
		return err
	}
	if err := h.store(recordKey, record); err != nil {
		return err
	}
	h.ctx.Emit(event.ProposalStateEventType, event.ProposalStateEvent{
		Proposal:   proposalKey,
		Governance: govKey,
		To:         state.ProposalStateDraft.String(),
	})
	return nil
}

// insertScope accounts: proposal (w), scope, creator record, creator (s)
func (h *handler) insertScope() error {
	if err := h.need(4); err != nil {
		return err
	}
	proposalKey, scopeKey := h.key(0), h.key(1)
	proposal, err := h.loadCreatorProposal(proposalKey, h.key(2), h.key(3))
	if err != nil {
		return err
	}
	if proposal.State != state.ProposalStateDraft {
		return ErrInvalidStateCannotEditScopes
	}
	scope, err := h.loadScope(scopeKey, proposal.Governance)
	if err != nil {
		return err
	}
	if scope.Deleted {
		return fmt.Errorf("%w: %s", ErrScopeDeleted, scopeKey)
	}
	if proposal.RuleIndex(scopeKey) >= 0 {
		return fmt.Errorf("%w: %s", ErrScopeAlreadyInserted, scopeKey)
	}
	if proposal.RulesCount() >= int(proposal.ScopesCount) {
		return fmt.Errorf("%w: capacity %d", ErrTooManyScopes, proposal.ScopesCount)
	}
	proposal.RulesMaxVoteWeight = append(proposal.RulesMaxVoteWeight, state.RuleWeight{Rule: scopeKey})
	return h.store(proposalKey, proposal)
}

// createProposalOption accounts: option (w), proposal (w), creator record,
// creator (s), payer (w, s)
func (h *handler) createProposalOption(ix *instruction.CreateProposalOption) error {
	if err := h.need(5); err != nil {
		return err
	}
	optionKey, proposalKey := h.key(0), h.key(1)
	proposal, err := h.loadCreatorProposal(proposalKey, h.key(2), h.key(3))
	if err != nil {
		return err
	}
	if proposal.State != state.ProposalStateDraft {
		return ErrInvalidStateCannotEditOptions
	}
	if ix.OptionType.Kind == state.OptionKindDeny {
		if proposal.DenyOption != nil {
			return ErrDenyOptionAlreadyExists
		}
		proposal.DenyOption = &optionKey
	}
	index := proposal.OptionsCount
	if index == ^uint16(0) {
		return ErrArithmeticOverflow
	}
	err = h.create(
		optionKey,
		state.ProposalOptionSeeds(proposalKey, index),
		ix.BumpSeed,
		&state.ProposalOption{
			Proposal:   proposalKey,
			Index:      index,
			OptionType: ix.OptionType,
		},
		ErrAccountAlreadyInUse,
	)
	if err != nil {
		return err
	}
	proposal.OptionsCount++
	return h.store(proposalKey, proposal)
}

// editableOption loads the proposal and option of a transaction edit.
// Accounts: transaction (w), proposal, option (w), creator record, creator (s)
func (h *handler) editableOption(optionIndex uint16) (*state.ProposalV2, *state.ProposalOption, error) {
	if err := h.need(5); err != nil {
		return nil, nil, err
	}
	proposal, err := h.loadCreatorProposal(h.key(1), h.key(3), h.key(4))
	if err != nil {
		return nil, nil, err
	}
	if proposal.State != state.ProposalStateDraft {
		return nil, nil, ErrInvalidStateCannotEditTransactions
	}
	option, err := h.loadOption(h.key(2), h.key(1))
	if err != nil {
		return nil, nil, err
	}
	if option.Index != optionIndex {
		return nil, nil, fmt.Errorf("%w: option %d", ErrInvalidOptionForTransaction, option.Index)
	}
	if option.IsDeny() {
		return nil, nil, fmt.Errorf("%w: deny option cannot hold transactions", ErrInvalidProposalOptions)
	}
	return proposal, option, nil
}

// insertTransaction accounts: transaction (w), proposal, option (w),
// creator record, creator (s), payer (w, s), then every scope referenced by
// the instructions
func (h *handler) insertTransaction(ix *instruction.InsertTransaction) error {
	proposal, option, err := h.editableOption(ix.OptionIndex)
	if err != nil {
		return err
	}
	txKey, proposalKey, optionKey := h.key(0), h.key(1), h.key(2)
	if ix.InstructionIndex != option.TransactionsNextIndex {
		return fmt.Errorf("%w: expected %d", ErrInvalidTransactionIndex, option.TransactionsNextIndex)
	}
	if len(ix.Instructions) == 0 {
		return fmt.Errorf("%w: no instructions", ErrInvalidProposalTransaction)
	}
	minHoldUp := make(map[solana.PublicKey]uint32)
	for i := 6; i < len(h.accounts); i++ {
		scope, err := h.loadScope(h.key(i), proposal.Governance)
		if err != nil {
			return err
		}
		minHoldUp[h.key(i)] = scope.Config.Time.MinTransactionHoldUpTime
	}
	for _, inst := range ix.Instructions {
		if proposal.RuleIndex(inst.Scope) < 0 {
			return fmt.Errorf("%w: %s not attached to proposal", ErrInvalidTransactionScope, inst.Scope)
		}
		required, ok := minHoldUp[inst.Scope]
		if !ok {
			return fmt.Errorf("%w: scope %s", ErrNotEnoughAccountKeys, inst.Scope)
		}
		if ix.HoldUpTime < required {
			return fmt.Errorf("%w: %d < %d", ErrHoldUpTimeBelowRequiredMin, ix.HoldUpTime, required)
		}
	}
	err = h.create(
		txKey,
		state.ProposalTransactionSeeds(proposalKey, ix.OptionIndex, ix.InstructionIndex),
		ix.BumpSeed,
		&state.ProposalTransactionV2{
			Proposal:         proposalKey,
			OptionIndex:      ix.OptionIndex,
			InstructionIndex: ix.InstructionIndex,
			HoldUpTime:       ix.HoldUpTime,
			Instructions:     ix.Instructions,
		},
		ErrAccountAlreadyInUse,
	)
	if err != nil {
		return err
	}
	option.TransactionsCount++
	option.TransactionsNextIndex++
	return h.store(optionKey, option)
}

// removeTransaction removes the last transaction of an option so indexes stay
// contiguous. Accounts: transaction (w), proposal, option (w), creator
// record, creator (s)
func (h *handler) removeTransaction() error {
	if err := h.need(5); err != nil {
		return err
	}
	var tx state.ProposalTransactionV2
	if err := h.load(h.key(0), &tx); err != nil {
		return err
	}
	if !tx.Proposal.Equals(h.key(1)) {
		return fmt.Errorf("%w: transaction %s", ErrInvalidProposalTransaction, h.key(0))
	}
	_, option, err := h.editableOption(tx.OptionIndex)
	if err != nil {
		return err
	}
	if option.TransactionsNextIndex == 0 || tx.InstructionIndex != option.TransactionsNextIndex-1 {
		return fmt.Errorf("%w: only the last transaction can be removed", ErrInvalidTransactionIndex)
	}
	if err := h.ctx.CloseAccount(h.key(0)); err != nil {
		return err
	}
	option.TransactionsCount--
	option.TransactionsNextIndex--
	return h.store(h.key(2), option)
}

// setExecutionFlags accounts: proposal (w), creator record, creator (s)
func (h *handler) setExecutionFlags(ix *instruction.SetExecutionFlags) error {
	if err := h.need(3); err != nil {
		return err
	}
	proposal, err := h.loadCreatorProposal(h.key(0), h.key(1), h.key(2))
	if err != nil {
		return err
	}
	if proposal.State != state.ProposalStateDraft {
		return ErrInvalidStateCannotEditTransactions
	}
	if ix.Flags > state.ExecutionFlagsOrdered {
		return fmt.Errorf("%w: %d", ErrInvalidExecutionFlags, ix.Flags)
	}
	proposal.ExecutionFlags = ix.Flags
	return h.store(h.key(0), proposal)
}

// addSignatory accounts: signatory record (w), proposal (w), creator record,
// creator (s), payer (w, s)
func (h *handler) addSignatory(ix *instruction.AddSignatory) error {
	if err := h.need(5); err != nil {
		return err
	}
	recordKey, proposalKey := h.key(0), h.key(1)
	proposal, err := h.loadCreatorProposal(proposalKey, h.key(2), h.key(3))
	if err != nil {
		return err
	}
	if proposal.State != state.ProposalStateDraft {
		return ErrInvalidStateCannotEditSignatories
	}
	err = h.create(
		recordKey,
		state.SignatoryRecordSeeds(proposalKey, ix.Signatory),
		ix.BumpSeed,
		&state.SignatoryRecord{Proposal: proposalKey, Signatory: ix.Signatory},
		ErrAccountAlreadyInUse,
	)
	if err != nil {
		return err
	}
	proposal.SignatoriesCount++
	return h.store(proposalKey, proposal)
}

// signOffProposal accounts: proposal (w), signatory record (w), signatory (s)
func (h *handler) signOffProposal() error {
	if err := h.need(3); err != nil {
		return err
	}
	proposalKey, recordKey, signatory := h.key(0), h.key(1), h.key(2)
	proposal, err := h.loadProposal(proposalKey)
	if err != nil {
		return err
	}
	if proposal.State != state.ProposalStateDraft && proposal.State != state.ProposalStateSigningOff {
		return ErrInvalidStateCannotSignOff
	}
	var record state.SignatoryRecord
	if err := h.load(recordKey, &record); err != nil {
		return err
	}
	if !record.Proposal.Equals(proposalKey) || !record.Signatory.Equals(signatory) || !h.ctx.IsSigner(signatory) {
		return fmt.Errorf("%w: %s", ErrInvalidSignatory, signatory)
	}
	if record.SignedOff {
		return ErrSignatoryAlreadySignedOff
	}
	record.SignedOff = true
	proposal.SignatoriesSignedOffCount++
	if proposal.State == state.ProposalStateDraft {
		proposal.SigningOffAt = timestamp(h.now())
		h.transition(proposalKey, proposal, state.ProposalStateSigningOff)
	}
	if err := h.store(recordKey, &record); err != nil {
		return err
	}
	return h.store(proposalKey, proposal)
}

func validateOptions(proposal *state.ProposalV2) error {
	if proposal.OptionsCount < 2 {
		return fmt.Errorf("%w: at least two options are required", ErrInvalidProposalOptions)
	}
	if proposal.VoteType.Kind == state.VoteTypeMultiChoice {
		if proposal.VoteType.MaxVoterOptions > proposal.OptionsCount ||
			proposal.VoteType.MaxWinningOptions > proposal.OptionsCount {
			return fmt.Errorf("%w: vote type bounds exceed %d options", ErrInvalidProposalOptions, proposal.OptionsCount)
		}
	}
	return nil
}

// finalizeDraft opens voting. Accounts: proposal (w), creator record,
// creator (s), then per attached scope in insertion order: scope and the
// account proving the creator meets the scope's creation criteria
func (h *handler) finalizeDraft() error {
	if err := h.need(3); err != nil {
		return err
	}
	proposalKey, recordKey, creator := h.key(0), h.key(1), h.key(2)
	proposal, err := h.loadCreatorProposal(proposalKey, recordKey, creator)
	if err != nil {
		return err
	}
	switch proposal.State {
	case state.ProposalStateDraft:
		if proposal.SignatoriesCount > 0 {
			return ErrNotAllSignatoriesSignedOff
		}
	case state.ProposalStateSigningOff:
		if proposal.SignatoriesSignedOffCount != proposal.SignatoriesCount {
			return ErrNotAllSignatoriesSignedOff
		}
	default:
		return ErrInvalidStateCannotFinalizeDraft
	}
	if proposal.RulesCount() == 0 || proposal.RulesCount() != int(proposal.ScopesCount) {
		return fmt.Errorf("%w: %d of %d scopes attached", ErrInvalidProposalScopes, proposal.RulesCount(), proposal.ScopesCount)
	}
	if err := validateOptions(proposal); err != nil {
		return err
	}
	if err := h.need(3 + 2*proposal.RulesCount()); err != nil {
		return err
	}
	var record state.VotePowerOwnerRecord
	if err := h.load(recordKey, &record); err != nil {
		return err
	}
	for i, rule := range proposal.RulesMaxVoteWeight {
		scopeKey, proofKey := h.key(3+2*i), h.key(4+2*i)
		if !scopeKey.Equals(rule.Rule) {
			return fmt.Errorf("%w: expected scope %s", ErrInvalidProposalScopes, rule.Rule)
		}
		scope, err := h.loadScope(scopeKey, proposal.Governance)
		if err != nil {
			return err
		}
		if scope.Deleted {
			return fmt.Errorf("%w: %s", ErrScopeDeleted, scopeKey)
		}
		if err := h.assertCanCreateProposal(scope, &record, recordKey, proofKey, creator); err != nil {
			return err
		}
	}
	proposal.VotingAt = timestamp(h.now())
	h.transition(proposalKey, proposal, state.ProposalStateVoting)
	return h.store(proposalKey, proposal)
}

func (h *handler) assertCanCreateProposal(
	scope *state.Scope,
	record *state.VotePowerOwnerRecord,
	recordKey, proofKey, creator solana.PublicKey,
) error {
	criteria := scope.Config.Proposal.CreateProposalCriteria
	switch criteria.Kind {
	case state.CreateProposalCriteriaAmount:
		if !proofKey.Equals(recordKey) || record.Amount < criteria.Amount {
			return fmt.Errorf("%w: %d of %d required", ErrCreateProposalCriteriaNotMet, record.Amount, criteria.Amount)
		}
	case state.CreateProposalCriteriaTag:
		if _, err := h.verifyTagOwnership(proofKey, creator, &criteria.RecordFactory); err != nil {
			return fmt.Errorf("%w: %w", ErrCreateProposalCriteriaNotMet, err)
		}
	default:
		return ErrCreateProposalCriteriaNotMet
	}
	return nil
}

// cancelProposal accounts: proposal (w), creator record (w), creator (s),
// then every attached scope when the proposal is already voting
func (h *handler) cancelProposal() error {
	if err := h.need(3); err != nil {
		return err
	}
	proposalKey, recordKey, creator := h.key(0), h.key(1), h.key(2)
	proposal, err := h.loadCreatorProposal(proposalKey, recordKey, creator)
	if err != nil {
		return err
	}
	switch proposal.State {
	case state.ProposalStateDraft, state.ProposalStateSigningOff:
	case state.ProposalStateVoting:
		scopes, err := h.ruleScopes(proposal, 3)
		if err != nil {
			return err
		}
		for _, scope := range scopes {
			if h.now() >= scope.Config.Time.VotingEndsAt(*proposal.VotingAt) {
				return ErrCannotCancelAfterVotingTime
			}
		}
	default:
		return ErrInvalidStateCannotCancelProposal
	}
	var record state.VotePowerOwnerRecord
	if err := h.load(recordKey, &record); err != nil {
		return err
	}
	if record.OutstandingProposalCount > 0 {
		record.OutstandingProposalCount--
	}
	proposal.ClosedAt = timestamp(h.now())
	h.transition(proposalKey, proposal, state.ProposalStateCancelled)
	if err := h.store(recordKey, &record); err != nil {
		return err
	}
	return h.store(proposalKey, proposal)
}

// ruleScopes loads the proposal's scopes from consecutive accounts starting
// at offset, in rule order
func (h *handler) ruleScopes(proposal *state.ProposalV2, offset int) ([]*state.Scope, error) {
	if err := h.need(offset + proposal.RulesCount()); err != nil {
		return nil, err
	}
	if proposal.VotingAt == nil {
		return nil, ErrInvalidProposalState
	}
	ret := make([]*state.Scope, 0, proposal.RulesCount())
	for i, rule := range proposal.RulesMaxVoteWeight {
		scopeKey := h.key(offset + i)
		if !scopeKey.Equals(rule.Rule) {
			return nil, fmt.Errorf("%w: expected scope %s", ErrInvalidProposalScopes, rule.Rule)
		}
		scope, err := h.loadScope(scopeKey, proposal.Governance)
		if err != nil {
			return nil, err
		}
		ret = append(ret, scope)
	}
	return ret, nil
}
