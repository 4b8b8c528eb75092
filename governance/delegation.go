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

// createDelegatee accounts: delegatee record (w), governance, scope, owner (s), payer (w, s)
func (h *handler) createDelegatee(ix *instruction.CreateDelegatee) error {
	if err := h.need(5); err != nil {
		return err
	}
	recordKey, govKey, scopeKey, owner := h.key(0), h.key(1), h.key(2), h.key(3)
	if _, err := h.loadGovernance(govKey); err != nil {
		return err
	}
	if !scopeKey.Equals(ix.Scope) {
		return fmt.Errorf("%w: scope account mismatch", ErrInvalidDelegatee)
	}
	scope, err := h.loadScope(scopeKey, govKey)
	if err != nil {
		return err
	}
	if scope.Deleted {
		return fmt.Errorf("%w: %s", ErrScopeDeleted, scopeKey)
	}
	if _, ok := scope.Config.Vote.SourceWeight(ix.VotePowerUnit); !ok {
		return fmt.Errorf("%w: %s not weighted by scope", ErrInvalidVotePowerSource, ix.VotePowerUnit)
	}
	if err := h.requireSigner(owner); err != nil {
		return err
	}
	return h.create(
		recordKey,
		state.DelegateeRecordSeeds(govKey, ix.VotePowerUnit.Key, owner, scopeKey),
		ix.TokenOwnerRecordBumpSeed,
		&state.VotePowerOwnerRecord{
			Governance:       govKey,
			Source:           ix.VotePowerUnit,
			GoverningOwner:   owner,
			DelegatedByScope: &scopeKey,
		},
		ErrTokenOwnerRecordAlreadyExists,
	)
}

// delegationAccounts are the records shared by Delegate and Undelegate
type delegationAccounts struct {
	delegationKey solana.PublicKey
	delegatorKey  solana.PublicKey
	budgetKey     solana.PublicKey
	delegateeKey  solana.PublicKey
	scopeKey      solana.PublicKey
	delegator     *state.VotePowerOwnerRecord
	delegatee     *state.VotePowerOwnerRecord
	budget        *state.TokenOwnerBudgetRecord
}

// loadDelegation accounts: delegation (w), delegator record (w), owner (s),
// budget (w), delegatee record (w), scope
func (h *handler) loadDelegation() (*delegationAccounts, error) {
	if err := h.need(6); err != nil {
		return nil, err
	}
	d := &delegationAccounts{
		delegationKey: h.key(0),
		delegatorKey:  h.key(1),
		budgetKey:     h.key(3),
		delegateeKey:  h.key(4),
		scopeKey:      h.key(5),
	}
	var err error
	if d.delegator, err = h.loadOwnerRecord(d.delegatorKey, h.key(2)); err != nil {
		return nil, err
	}
	if d.delegator.IsDelegatee() {
		return nil, ErrDelegatingDelegateNotAllowed
	}
	var delegatee state.VotePowerOwnerRecord
	if err := h.load(d.delegateeKey, &delegatee); err != nil {
		return nil, err
	}
	if !delegatee.IsDelegatee() || !delegatee.DelegatedByScope.Equals(d.scopeKey) {
		return nil, fmt.Errorf("%w: %s is not a delegatee for scope %s", ErrInvalidDelegatee, d.delegateeKey, d.scopeKey)
	}
	if !delegatee.Governance.Equals(d.delegator.Governance) || delegatee.Source != d.delegator.Source {
		return nil, fmt.Errorf("%w: governance or source mismatch", ErrInvalidDelegatee)
	}
	d.delegatee = &delegatee
	if _, err := h.loadScope(d.scopeKey, d.delegator.Governance); err != nil {
		return nil, err
	}
	if _, err := h.derive(d.budgetKey, state.TokenOwnerBudgetRecordSeeds(d.delegatorKey, d.scopeKey)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBudgetRecord, err)
	}
	var budget state.TokenOwnerBudgetRecord
	if err := h.load(d.budgetKey, &budget); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBudgetRecord, err)
	}
	d.budget = &budget
	return d, nil
}

// pendingFor starts a history replay over the delegatee's votes, or returns
// nil when the delegatee has never voted
func pendingFor(delegatee *state.VotePowerOwnerRecord, direction state.DelegationDirection, amount uint64) *state.PendingHistory {
	if delegatee.LatestVote == nil {
		return nil
	}
	return &state.PendingHistory{
		Direction: direction,
		Amount:    amount,
		NextVote:  *delegatee.LatestVote,
	}
}

// delegate accounts: delegation (w), delegator record (w), owner (s),
// budget (w), delegatee record (w), scope, payer (w, s)
func (h *handler) delegate(ix *instruction.Delegate) error {
	d, err := h.loadDelegation()
	if err != nil {
		return err
	}
	if ix.Amount == 0 {
		return ErrInvalidDelegationAmount
	}
	if d.delegator.UnrelinquishedVotesCount > 0 {
		return ErrVotesMustBeRelinquishedToDelegate
	}
	if ix.Amount > d.budget.Remaining(d.delegator.Amount) {
		return fmt.Errorf(
			"%w: %d requested, %d available",
			ErrInsufficientDelegationBudget,
			ix.Amount,
			d.budget.Remaining(d.delegator.Amount),
		)
	}
	var delegation state.DelegationRecord
	exists, err := h.loadOptional(d.delegationKey, &delegation)
	if err != nil {
		return err
	}
	seeds := state.DelegationRecordSeeds(d.delegatorKey, d.delegateeKey, d.scopeKey)
	if exists {
		if _, err := h.derive(d.delegationKey, seeds); err != nil {
			return err
		}
		if delegation.Pending != nil {
			return ErrDelegationHistoryPending
		}
		if delegation.Amount, err = checkedAdd(delegation.Amount, ix.Amount); err != nil {
			return err
		}
	} else {
		if err := state.VerifyAddress(h.programID(), seeds, ix.DelegationRecordBumpSeed, d.delegationKey); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidSeeds, d.delegationKey)
		}
		delegation = state.DelegationRecord{
			Delegator: d.delegatorKey,
			Delegatee: d.delegateeKey,
			Scope:     d.scopeKey,
			Amount:    ix.Amount,
		}
		d.delegator.OutstandingDelegationCount++
	}
	delegation.Pending = pendingFor(d.delegatee, state.DelegationDirectionDelegate, ix.Amount)
	if d.budget.Delegated, err = checkedAdd(d.budget.Delegated, ix.Amount); err != nil {
		return err
	}
	if d.delegatee.Amount, err = checkedAdd(d.delegatee.Amount, ix.Amount); err != nil {
		return err
	}
	if err := h.storeDelegation(d, &delegation); err != nil {
		return err
	}
	h.emitDelegation(d.delegationKey, &delegation, ix.Amount, false, delegation.Pending == nil)
	return nil
}

// undelegate accounts: delegation (w), delegator record (w), owner (s),
// budget (w), delegatee record (w), scope
//
// The budget is only released once the delegatee's votes no longer carry the
// undelegated weight
func (h *handler) undelegate(ix *instruction.Undelegate) error {
	d, err := h.loadDelegation()
	if err != nil {
		return err
	}
	var delegation state.DelegationRecord
	if err := h.load(d.delegationKey, &delegation); err != nil {
		return err
	}
	if _, err := h.derive(d.delegationKey, state.DelegationRecordSeeds(d.delegatorKey, d.delegateeKey, d.scopeKey)); err != nil {
		return err
	}
	if delegation.Pending != nil {
		return ErrDelegationHistoryPending
	}
	if ix.Amount == 0 || ix.Amount > delegation.Amount {
		return fmt.Errorf("%w: %d of %d delegated", ErrInvalidDelegationAmount, ix.Amount, delegation.Amount)
	}
	delegation.Amount -= ix.Amount
	if d.delegatee.Amount, err = checkedSub(d.delegatee.Amount, ix.Amount); err != nil {
		return err
	}
	delegation.Pending = pendingFor(d.delegatee, state.DelegationDirectionUndelegate, ix.Amount)
	if delegation.Pending == nil {
		if err := settleUndelegation(d.delegator, d.budget, &delegation, ix.Amount); err != nil {
			return err
		}
	}
	if err := h.storeDelegation(d, &delegation); err != nil {
		return err
	}
	h.emitDelegation(d.delegationKey, &delegation, ix.Amount, true, delegation.Pending == nil)
	return nil
}

// settleUndelegation returns undelegated weight to the delegator's budget
func settleUndelegation(
	delegator *state.VotePowerOwnerRecord,
	budget *state.TokenOwnerBudgetRecord,
	delegation *state.DelegationRecord,
	amount uint64,
) error {
	var err error
	if budget.Delegated, err = checkedSub(budget.Delegated, amount); err != nil {
		return err
	}
	if delegation.Amount == 0 {
		if delegator.OutstandingDelegationCount == 0 {
			return ErrArithmeticOverflow
		}
		delegator.OutstandingDelegationCount--
	}
	return nil
}

func (h *handler) storeDelegation(d *delegationAccounts, delegation *state.DelegationRecord) error {
	if delegation.Amount == 0 && delegation.Pending == nil {
		if err := h.ctx.CloseAccount(d.delegationKey); err != nil {
			return err
		}
	} else if err := h.store(d.delegationKey, delegation); err != nil {
		return err
	}
	if err := h.store(d.delegatorKey, d.delegator); err != nil {
		return err
	}
	if err := h.store(d.budgetKey, d.budget); err != nil {
		return err
	}
	return h.store(d.delegateeKey, d.delegatee)
}

func (h *handler) emitDelegation(
	address solana.PublicKey,
	delegation *state.DelegationRecord,
	amount uint64,
	undelegate bool,
	replayed bool,
) {
	h.ctx.Emit(event.DelegationEventType, event.DelegationEvent{
		Delegation: address,
		Delegator:  delegation.Delegator,
		Delegatee:  delegation.Delegatee,
		Scope:      delegation.Scope,
		Amount:     amount,
		Undelegate: undelegate,
		Replayed:   replayed,
	})
}

// replayHistory walks the delegatee's vote chain from the pending cursor and
// applies the pending amount to every vote still open for weight changes.
//
// Accounts: delegation (w), scope, budget (w), delegator record (w),
// delegatee record, then for each vote: vote record (w), proposal, and the
// vote's option accounts (w) in vote order
func (h *handler) replayHistory(direction state.DelegationDirection) error {
	if err := h.need(5); err != nil {
		return err
	}
	delegationKey, scopeKey, budgetKey, delegatorKey, delegateeKey := h.key(0), h.key(1), h.key(2), h.key(3), h.key(4)
	var delegation state.DelegationRecord
	if err := h.load(delegationKey, &delegation); err != nil {
		return err
	}
	if !delegation.Scope.Equals(scopeKey) || !delegation.Delegator.Equals(delegatorKey) || !delegation.Delegatee.Equals(delegateeKey) {
		return fmt.Errorf("%w: accounts do not match delegation", ErrInvalidDelegationHistory)
	}
	pending := delegation.Pending
	if pending == nil {
		return ErrNoPendingDelegationHistory
	}
	if pending.Direction != direction {
		return fmt.Errorf("%w: pending %s", ErrInvalidDelegationHistory, pending.Direction)
	}
	var delegator state.VotePowerOwnerRecord
	if err := h.load(delegatorKey, &delegator); err != nil {
		return err
	}
	var delegatee state.VotePowerOwnerRecord
	if err := h.load(delegateeKey, &delegatee); err != nil {
		return err
	}
	scope, err := h.loadScope(scopeKey, delegator.Governance)
	if err != nil {
		return err
	}
	if _, err := h.derive(budgetKey, state.TokenOwnerBudgetRecordSeeds(delegatorKey, scopeKey)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBudgetRecord, err)
	}
	var budget state.TokenOwnerBudgetRecord
	if err := h.load(budgetKey, &budget); err != nil {
		return err
	}
	next := &pending.NextVote
	idx := 5
	steps := 0
	for next != nil && idx < len(h.accounts) {
		if idx+2 > len(h.accounts) {
			return ErrNotEnoughAccountKeys
		}
		voteKey, proposalKey := h.key(idx), h.key(idx+1)
		if !voteKey.Equals(*next) {
			return fmt.Errorf("%w: expected vote %s, got %s", ErrInvalidDelegationHistory, *next, voteKey)
		}
		var vote state.VoteRecordV2
		if err := h.load(voteKey, &vote); err != nil {
			return err
		}
		if !vote.TokenOwnerRecord.Equals(delegateeKey) || !vote.Proposal.Equals(proposalKey) {
			return fmt.Errorf("%w: vote %s", ErrInvalidDelegationHistory, voteKey)
		}
		idx += 2
		if idx+len(vote.Vote) > len(h.accounts) {
			return ErrNotEnoughAccountKeys
		}
		optionKeys := make([]solana.PublicKey, len(vote.Vote))
		for i := range vote.Vote {
			optionKeys[i] = h.key(idx + i)
		}
		idx += len(vote.Vote)
		if err := h.replayVote(voteKey, &vote, proposalKey, scope, delegatee.Source, optionKeys, direction, pending.Amount); err != nil {
			return err
		}
		next = vote.PreviousVote
		steps++
	}
	if steps == 0 {
		return fmt.Errorf("%w: no votes supplied", ErrInvalidDelegationHistory)
	}
	replayed := next == nil
	if replayed {
		delegation.Pending = nil
		if direction == state.DelegationDirectionUndelegate {
			if err := settleUndelegation(&delegator, &budget, &delegation, pending.Amount); err != nil {
				return err
			}
		}
	} else {
		delegation.Pending.NextVote = *next
	}
	if delegation.Amount == 0 && delegation.Pending == nil {
		if err := h.ctx.CloseAccount(delegationKey); err != nil {
			return err
		}
	} else if err := h.store(delegationKey, &delegation); err != nil {
		return err
	}
	if err := h.store(delegatorKey, &delegator); err != nil {
		return err
	}
	if err := h.store(budgetKey, &budget); err != nil {
		return err
	}
	h.emitDelegation(delegationKey, &delegation, pending.Amount, direction == state.DelegationDirectionUndelegate, replayed)
	return nil
}

// replayVote applies a delegation change to one of the delegatee's votes.
// Votes are only adjusted before their proposal's voting time ends. During
// the cool-off an undelegation cannot be replayed: the vote still counts the
// weight and the delegator could cast it again as a deny vote. Once the
// cool-off has passed the weights are frozen and the vote is skipped
func (h *handler) replayVote(
	voteKey solana.PublicKey,
	vote *state.VoteRecordV2,
	proposalKey solana.PublicKey,
	scope *state.Scope,
	source state.VotePowerUnit,
	optionKeys []solana.PublicKey,
	direction state.DelegationDirection,
	amount uint64,
) error {
	proposal, err := h.loadProposal(proposalKey)
	if err != nil {
		return err
	}
	if vote.IsRelinquished ||
		proposal.State != state.ProposalStateVoting ||
		proposal.VotingAt == nil {
		return nil
	}
	now := h.now()
	if now >= scope.Config.Time.VotingEndsAt(*proposal.VotingAt) {
		if direction == state.DelegationDirectionUndelegate &&
			now < scope.Config.Time.CoolOffEndsAt(*proposal.VotingAt) {
			return fmt.Errorf("%w: vote %s on %s", ErrUndelegateInCoolOffTime, voteKey, proposalKey)
		}
		return nil
	}
	apply := checkedAdd
	if direction == state.DelegationDirectionUndelegate {
		apply = checkedSub
	}
	for i, optionKey := range optionKeys {
		option, err := h.loadOption(optionKey, proposalKey)
		if err != nil {
			return err
		}
		if option.Index != vote.Vote[i] {
			return fmt.Errorf("%w: option %s out of vote order", ErrInvalidDelegationHistory, optionKey)
		}
		bucket := option.Bucket(vote.Scope, source)
		if bucket.Weight, err = apply(bucket.Weight, amount); err != nil {
			return err
		}
		if err := h.store(optionKey, option); err != nil {
			return err
		}
	}
	if vote.Weight, err = apply(vote.Weight, amount); err != nil {
		return err
	}
	return h.store(voteKey, vote)
}
