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

	"github.com/blinklabs-io/agora/instruction"
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
)

// createGovernance accounts: governance (w), payer (w, s)
func (h *handler) createGovernance(ix *instruction.CreateGovernance) error {
	if err := h.need(2); err != nil {
		return err
	}
	return h.create(
		h.key(0),
		state.GovernanceSeeds(ix.Seed),
		ix.BumpSeed,
		&state.Governance{
			Authority: ix.InitialAuthority,
			Seed:      ix.Seed,
			BumpSeed:  ix.BumpSeed,
		},
		ErrAccountAlreadyInUse,
	)
}

func (h *handler) requireAuthority(gov *state.Governance, authority solana.PublicKey) error {
	if gov.Authority == nil || !gov.Authority.Equals(authority) || !h.ctx.IsSigner(authority) {
		return fmt.Errorf("%w: %s", ErrInvalidAuthority, authority)
	}
	return nil
}

func validateScopeConfig(config *state.ScopeConfig) error {
	if err := validateThreshold(config.Vote.Threshold); err != nil {
		return err
	}
	if len(config.Vote.SourceWeights) == 0 {
		return fmt.Errorf("%w: no source weights", ErrInvalidVotePowerSource)
	}
	seen := make(map[state.VotePowerUnit]struct{}, len(config.Vote.SourceWeights))
	for _, sw := range config.Vote.SourceWeights {
		if _, ok := seen[sw.Source]; ok {
			return fmt.Errorf("%w: duplicate source %s", ErrInvalidVotePowerSource, sw.Source)
		}
		seen[sw.Source] = struct{}{}
	}
	return nil
}

// createScope accounts: scope (w), governance, authority (s), payer (w, s)
func (h *handler) createScope(ix *instruction.CreateScope) error {
	if err := h.need(4); err != nil {
		return err
	}
	scopeKey, govKey, authority := h.key(0), h.key(1), h.key(2)
	gov, err := h.loadGovernance(govKey)
	if err != nil {
		return err
	}
	if err := h.requireAuthority(gov, authority); err != nil {
		return err
	}
	if err := validateScopeConfig(&ix.Config); err != nil {
		return err
	}
	return h.create(
		scopeKey,
		state.ScopeSeeds(govKey, ix.ID),
		ix.BumpSeed,
		&state.Scope{
			ID:         ix.ID,
			Governance: govKey,
			Config:     ix.Config,
		},
		ErrAccountAlreadyInUse,
	)
}

// deleteScope accounts: scope (w), governance, authority (s)
func (h *handler) deleteScope() error {
	if err := h.need(3); err != nil {
		return err
	}
	scopeKey, govKey, authority := h.key(0), h.key(1), h.key(2)
	gov, err := h.loadGovernance(govKey)
	if err != nil {
		return err
	}
	if err := h.requireAuthority(gov, authority); err != nil {
		return err
	}
	scope, err := h.loadScope(scopeKey, govKey)
	if err != nil {
		return err
	}
	if scope.Deleted {
		return fmt.Errorf("%w: %s", ErrScopeDeleted, scopeKey)
	}
	scope.Deleted = true
	return h.store(scopeKey, scope)
}
