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

// voteOptions loads the options a vote names and validates the selection
// against the proposal's vote type
func (h *handler) voteOptions(
	proposalKey solana.PublicKey,
	proposal *state.ProposalV2,
	keys []solana.PublicKey,
) ([]*state.ProposalOption, bool, error) {
	if len(keys) == 0 {
		return nil, false, fmt.Errorf("%w: no options", ErrInvalidVote)
	}
	switch proposal.VoteType.Kind {
	case state.VoteTypeSingleChoice:
		if len(keys) != 1 {
			return nil, false, fmt.Errorf("%w: single choice takes one option", ErrInvalidVote)
		}
	case state.VoteTypeMultiChoice:
		if limit := proposal.VoteType.MaxVoterOptions; limit > 0 && len(keys) > int(limit) {
			return nil, false, fmt.Errorf("%w: at most %d options", ErrInvalidVote, limit)
		}
	}
	seen := make(map[uint16]struct{}, len(keys))
	options := make([]*state.ProposalOption, 0, len(keys))
	deny := false
	for _, key := range keys {
		option, err := h.loadOption(key, proposalKey)
		if err != nil {
			return nil, false, err
		}
		if _, ok := seen[option.Index]; ok {
			return nil, false, fmt.Errorf("%w: option %d repeated", ErrInvalidVote, option.Index)
		}
		seen[option.Index] = struct{}{}
		deny = deny || option.IsDeny()
		options = append(options, option)
	}
	if deny && len(options) > 1 {
		return nil, false, fmt.Errorf("%w: deny must be the only option", ErrInvalidVote)
	}
	return options, deny, nil
}

// checkVoteWindow enforces the voting and cool-off windows of scope
func (h *handler) checkVoteWindow(proposal *state.ProposalV2, scope *state.Scope, deny bool) error {
	votingAt := *proposal.VotingAt
	now := h.now()
	if now < scope.Config.Time.VotingEndsAt(votingAt) {
		return nil
	}
	if now < scope.Config.Time.CoolOffEndsAt(votingAt) {
		if deny {
			return nil
		}
		return ErrVoteNotAllowedInCoolOffTime
	}
	return ErrProposalVotingTimeExpired
}

// voterWeight is the weight record may cast under scope. Regular records
// vote with the part of their deposit not delegated under the scope.
func (h *handler) voterWeight(record *state.VotePowerOwnerRecord, recordKey, scopeKey, budgetKey solana.PublicKey) (uint64, error) {
	if record.IsDelegatee() {
		return record.Amount, nil
	}
	if _, err := h.derive(budgetKey, state.TokenOwnerBudgetRecordSeeds(recordKey, scopeKey)); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidBudgetRecord, err)
	}
	var budget state.TokenOwnerBudgetRecord
	found, err := h.loadOptional(budgetKey, &budget)
	if err != nil {
		return 0, err
	}
	if !found {
		return record.Amount, nil
	}
	return budget.Remaining(record.Amount), nil
}

// vote accounts: vote record (w), proposal, scope, owner record (w),
// owner (s), payer (w, s), budget record, condition proof, options (w)
func (h *handler) vote(ix *instruction.Vote) error {
	if err := h.need(9); err != nil {
		return err
	}
	voteKey, proposalKey, scopeKey, recordKey, owner := h.key(0), h.key(1), h.key(2), h.key(3), h.key(4)
	budgetKey, proofKey := h.key(6), h.key(7)
	proposal, err := h.loadProposal(proposalKey)
	if err != nil {
		return err
	}
	if proposal.State != state.ProposalStateVoting || proposal.VotingAt == nil {
		return ErrInvalidStateCannotVote
	}
	if proposal.RuleIndex(scopeKey) < 0 {
		return fmt.Errorf("%w: %s not attached to proposal", ErrInvalidVoteScope, scopeKey)
	}
	scope, err := h.loadScope(scopeKey, proposal.Governance)
	if err != nil {
		return err
	}
	record, err := h.loadOwnerRecord(recordKey, owner)
	if err != nil {
		return err
	}
	if !record.Governance.Equals(proposal.Governance) {
		return fmt.Errorf("%w: owner record %s", ErrInvalidGovernance, recordKey)
	}
	if record.IsDelegatee() && !record.DelegatedByScope.Equals(scopeKey) {
		return fmt.Errorf("%w: delegatee votes under %s", ErrInvalidVoteScope, *record.DelegatedByScope)
	}
	if _, ok := scope.Config.Vote.SourceWeight(record.Source); !ok {
		return fmt.Errorf("%w: %s not weighted by scope", ErrInvalidVotePowerSource, record.Source)
	}
	optionKeys := make([]solana.PublicKey, 0, len(h.accounts)-8)
	for i := 8; i < len(h.accounts); i++ {
		optionKeys = append(optionKeys, h.key(i))
	}
	options, deny, err := h.voteOptions(proposalKey, proposal, optionKeys)
	if err != nil {
		return err
	}
	if err := h.checkVoteWindow(proposal, scope, deny); err != nil {
		return err
	}
	if cond := scope.Config.Vote.Condition; cond.Kind == state.VoteConditionTag {
		if _, err := h.verifyTagOwnership(proofKey, owner, &cond.RecordFactory); err != nil {
			return fmt.Errorf("%w: %w", ErrVoteConditionNotMet, err)
		}
	}
	weight, err := h.voterWeight(record, recordKey, scopeKey, budgetKey)
	if err != nil {
		return err
	}
	indexes := make([]uint16, 0, len(options))
	for i, option := range options {
		bucket := option.Bucket(scopeKey, record.Source)
		if bucket.Weight, err = checkedAdd(bucket.Weight, weight); err != nil {
			return err
		}
		if err := h.store(optionKeys[i], option); err != nil {
			return err
		}
		indexes = append(indexes, option.Index)
	}
	vote := &state.VoteRecordV2{
		Proposal:         proposalKey,
		TokenOwnerRecord: recordKey,
		Scope:            scopeKey,
		Vote:             indexes,
		Weight:           weight,
		PreviousVote:     record.LatestVote,
	}
	err = h.create(voteKey, state.VoteRecordSeeds(proposalKey, recordKey, scopeKey), ix.VoteRecordBumpSeed, vote, ErrVoteAlreadyExists)
	if err != nil {
		return err
	}
	record.LatestVote = &voteKey
	if record.FirstVote == nil {
		record.FirstVote = &voteKey
	}
	record.UnrelinquishedVotesCount++
	record.TotalVotesCount++
	if err := h.store(recordKey, record); err != nil {
		return err
	}
	h.ctx.Emit(event.VoteEventType, event.VoteEvent{
		Proposal:    proposalKey,
		VoteRecord:  voteKey,
		OwnerRecord: recordKey,
		Scope:       scopeKey,
		Options:     indexes,
		Weight:      weight,
	})
	return nil
}

// unvote relinquishes a vote. While the proposal is still voting the weight
// is withdrawn from the options, which must then follow the vote accounts.
// Accounts: vote record (w), proposal, scope, owner record (w), owner (s),
// options (w)
func (h *handler) unvote() error {
	if err := h.need(5); err != nil {
		return err
	}
	voteKey, proposalKey, scopeKey, recordKey, owner := h.key(0), h.key(1), h.key(2), h.key(3), h.key(4)
	var vote state.VoteRecordV2
	if err := h.load(voteKey, &vote); err != nil {
		return err
	}
	if !vote.Proposal.Equals(proposalKey) || !vote.TokenOwnerRecord.Equals(recordKey) || !vote.Scope.Equals(scopeKey) {
		return fmt.Errorf("%w: vote record %s", ErrInvalidVote, voteKey)
	}
	record, err := h.loadOwnerRecord(recordKey, owner)
	if err != nil {
		return err
	}
	if vote.IsRelinquished {
		return ErrVoteAlreadyRelinquished
	}
	proposal, err := h.loadProposal(proposalKey)
	if err != nil {
		return err
	}
	if proposal.State == state.ProposalStateVoting && proposal.VotingAt != nil {
		scope, err := h.loadScope(scopeKey, proposal.Governance)
		if err != nil {
			return err
		}
		if h.now() >= scope.Config.Time.CoolOffEndsAt(*proposal.VotingAt) {
			return ErrCannotRelinquishInFinalizingState
		}
		if err := h.need(5 + len(vote.Vote)); err != nil {
			return err
		}
		for i, index := range vote.Vote {
			optionKey := h.key(5 + i)
			option, err := h.loadOption(optionKey, proposalKey)
			if err != nil {
				return err
			}
			if option.Index != index {
				return fmt.Errorf("%w: option %s out of vote order", ErrInvalidVote, optionKey)
			}
			bucket := option.Bucket(scopeKey, record.Source)
			if bucket.Weight, err = checkedSub(bucket.Weight, vote.Weight); err != nil {
				return err
			}
			if err := h.store(optionKey, option); err != nil {
				return err
			}
		}
	}
	vote.IsRelinquished = true
	if record.UnrelinquishedVotesCount > 0 {
		record.UnrelinquishedVotesCount--
	}
	if err := h.store(voteKey, &vote); err != nil {
		return err
	}
	if err := h.store(recordKey, record); err != nil {
		return err
	}
	h.ctx.Emit(event.VoteEventType, event.VoteEvent{
		Proposal:     proposalKey,
		VoteRecord:   voteKey,
		OwnerRecord:  recordKey,
		Scope:        scopeKey,
		Options:      vote.Vote,
		Weight:       vote.Weight,
		Relinquished: true,
	})
	return nil
}
