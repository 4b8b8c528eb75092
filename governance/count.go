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
	"cmp"
	"fmt"
	"slices"

	"github.com/blinklabs-io/agora/state"
	"github.com/blinklabs-io/agora/tag"
	"github.com/blinklabs-io/agora/token"
	"github.com/gagliardetto/solana-go"
)

// sourceSupply reads the circulating amount of a vote power source from its
// mint or tag factory account
func (h *handler) sourceSupply(source state.VotePowerUnit, address solana.PublicKey) (uint64, error) {
	if !address.Equals(source.Key) {
		return 0, fmt.Errorf("%w: expected %s", ErrInvalidVotePowerSource, source.Key)
	}
	acct, err := h.ctx.Account(address)
	if err != nil {
		return 0, err
	}
	switch source.Kind {
	case state.VotePowerUnitMint:
		mint, err := token.DecodeMint(acct.Owner, acct.Data)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidVotePowerSource, err)
		}
		return mint.Supply, nil
	case state.VotePowerUnitTag:
		factory, err := tag.DecodeFactory(acct.Owner, acct.Data)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidVotePowerSource, err)
		}
		return factory.Outstanding, nil
	default:
		return 0, ErrInvalidVotePowerSource
	}
}

// countMaxVoteWeights snapshots the max vote weight of every rule.
// Accounts: proposal (w), then per rule: scope, one supply account per
// source weight in configuration order
func (h *handler) countMaxVoteWeights() error {
	if err := h.need(1); err != nil {
		return err
	}
	proposalKey := h.key(0)
	proposal, err := h.loadProposal(proposalKey)
	if err != nil {
		return err
	}
	if proposal.State != state.ProposalStateVoting {
		return ErrInvalidStateCannotCountVotes
	}
	for _, rule := range proposal.RulesMaxVoteWeight {
		if rule.MaxVoteWeight != nil {
			return ErrMaxVoteWeightAlreadyCalculated
		}
	}
	next := 1
	for i := range proposal.RulesMaxVoteWeight {
		rule := &proposal.RulesMaxVoteWeight[i]
		if err := h.need(next + 1); err != nil {
			return err
		}
		if !h.key(next).Equals(rule.Rule) {
			return fmt.Errorf("%w: expected scope %s", ErrInvalidProposalScopes, rule.Rule)
		}
		scope, err := h.loadScope(rule.Rule, proposal.Governance)
		if err != nil {
			return err
		}
		next++
		var total uint64
		for _, sw := range scope.Config.Vote.SourceWeights {
			if err := h.need(next + 1); err != nil {
				return err
			}
			supply, err := h.sourceSupply(sw.Source, h.key(next))
			if err != nil {
				return err
			}
			next++
			weighted, err := checkedMul(supply, sw.Weight)
			if err != nil {
				return err
			}
			if total, err = checkedAdd(total, weighted); err != nil {
				return err
			}
		}
		rule.MaxVoteWeight = &total
	}
	return h.store(proposalKey, proposal)
}

// ruleWeight is the weight an option received under one rule with the
// scope's source multipliers applied
func ruleWeight(option *state.ProposalOption, rule solana.PublicKey, scope *state.Scope) (uint64, error) {
	var total uint64
	for _, vw := range option.VoteWeights {
		if vw.Rule != rule {
			continue
		}
		multiplier, ok := scope.Config.Vote.SourceWeight(vw.Source)
		if !ok {
			continue
		}
		weighted, err := checkedMul(vw.Weight, multiplier)
		if err != nil {
			return 0, err
		}
		if total, err = checkedAdd(total, weighted); err != nil {
			return 0, err
		}
	}
	return total, nil
}

type tally struct {
	option *state.ProposalOption
	key    solana.PublicKey
	total  uint64
}

// countVotes settles the outcome once every scope's cool-off has ended.
// Accounts: proposal (w), creator record (w), scopes in rule order, then
// every option (w) in index order
func (h *handler) countVotes() error {
	if err := h.need(2); err != nil {
		return err
	}
	proposalKey, recordKey := h.key(0), h.key(1)
	proposal, err := h.loadProposal(proposalKey)
	if err != nil {
		return err
	}
	if proposal.State != state.ProposalStateVoting {
		return ErrInvalidStateCannotCountVotes
	}
	if !proposal.TokenOwnerRecord.Equals(recordKey) {
		return fmt.Errorf("%w: record %s", ErrInvalidProposalCreator, recordKey)
	}
	maxWeights := make([]uint64, 0, proposal.RulesCount())
	for _, rule := range proposal.RulesMaxVoteWeight {
		if rule.MaxVoteWeight == nil {
			return ErrMaxVoteWeightNotCalculated
		}
		maxWeights = append(maxWeights, *rule.MaxVoteWeight)
	}
	scopes, err := h.ruleScopes(proposal, 2)
	if err != nil {
		return err
	}
	for _, scope := range scopes {
		if h.now() < scope.Config.Time.CoolOffEndsAt(*proposal.VotingAt) {
			return ErrCannotFinalizeVotingInProgress
		}
	}
	offset := 2 + len(scopes)
	if err := h.need(offset + int(proposal.OptionsCount)); err != nil {
		return err
	}
	tallies := make([]tally, 0, proposal.OptionsCount)
	var deny *tally
	for i := range int(proposal.OptionsCount) {
		key := h.key(offset + i)
		option, err := h.loadOption(key, proposalKey)
		if err != nil {
			return err
		}
		if int(option.Index) != i {
			return fmt.Errorf("%w: option %d out of order", ErrInvalidProposalOptions, option.Index)
		}
		tallies = append(tallies, tally{option: option, key: key})
		if option.IsDeny() {
			deny = &tallies[len(tallies)-1]
		}
	}

	// An option passes when it clears the threshold under every rule
	var candidates []*tally
	for i := range tallies {
		t := &tallies[i]
		if t.option.IsDeny() {
			continue
		}
		approved := true
		for r, rule := range proposal.RulesMaxVoteWeight {
			weight, err := ruleWeight(t.option, rule.Rule, scopes[r])
			if err != nil {
				return err
			}
			var denyWeight uint64
			if deny != nil {
				if denyWeight, err = ruleWeight(deny.option, rule.Rule, scopes[r]); err != nil {
					return err
				}
			}
			ok, err := IsApproved(scopes[r].Config.Vote.Threshold, weight, denyWeight, maxWeights[r])
			if err != nil {
				return err
			}
			approved = approved && ok
			if t.total, err = checkedAdd(t.total, weight); err != nil {
				return err
			}
		}
		if approved {
			candidates = append(candidates, t)
		}
	}
	slices.SortStableFunc(candidates, func(a, b *tally) int {
		if c := cmp.Compare(b.total, a.total); c != 0 {
			return c
		}
		return cmp.Compare(a.option.Index, b.option.Index)
	})
	limit := len(candidates)
	switch proposal.VoteType.Kind {
	case state.VoteTypeSingleChoice:
		limit = min(limit, 1)
	case state.VoteTypeMultiChoice:
		if w := int(proposal.VoteType.MaxWinningOptions); w > 0 {
			limit = min(limit, w)
		}
	}
	winners := make(map[uint16]struct{}, limit)
	for _, t := range candidates[:limit] {
		winners[t.option.Index] = struct{}{}
	}

	proposal.WinningOptionsCount = 0
	proposal.DefeatedOptionsCount = 0
	for i := range tallies {
		t := &tallies[i]
		switch {
		case t.option.IsDeny():
			t.option.VoteResult = state.OptionVoteResultNone
		case hasKey(winners, t.option.Index):
			t.option.VoteResult = state.OptionVoteResultSucceeded
			proposal.WinningOptionsCount++
			if t.option.TransactionsCount == 0 {
				proposal.OptionsExecutedCount++
			}
		default:
			t.option.VoteResult = state.OptionVoteResultDefeated
			proposal.DefeatedOptionsCount++
		}
		if err := h.store(t.key, t.option); err != nil {
			return err
		}
	}
	proposal.OptionsCountedCount = proposal.OptionsCount

	var percentage uint8
	for _, scope := range scopes {
		p, err := ThresholdPercentage(scope.Config.Vote.Threshold)
		if err != nil {
			return err
		}
		percentage = max(percentage, p)
	}
	proposal.VoteThresholdPercentage = &percentage
	now := h.now()
	proposal.VotingCompletedAt = timestamp(now)
	if proposal.WinningOptionsCount > 0 {
		h.transition(proposalKey, proposal, state.ProposalStateSucceeded)
	} else {
		proposal.ClosedAt = timestamp(now)
		h.transition(proposalKey, proposal, state.ProposalStateDefeated)
	}

	var record state.VotePowerOwnerRecord
	if err := h.load(recordKey, &record); err != nil {
		return err
	}
	if record.OutstandingProposalCount > 0 {
		record.OutstandingProposalCount--
	}
	if err := h.store(recordKey, &record); err != nil {
		return err
	}
	return h.store(proposalKey, proposal)
}

func hasKey[K comparable, V any](m map[K]V, k K) bool {
	_, ok := m[k]
	return ok
}
