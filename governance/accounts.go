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
	"github.com/blinklabs-io/agora/ledger"
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
)

// handler carries one instruction invocation
type handler struct {
	ctx      *ledger.InvokeContext
	accounts []*solana.AccountMeta
}

func (h *handler) need(n int) error {
	if len(h.accounts) < n {
		return fmt.Errorf("%w: expected at least %d, got %d", ErrNotEnoughAccountKeys, n, len(h.accounts))
	}
	return nil
}

func (h *handler) key(i int) solana.PublicKey {
	return h.accounts[i].PublicKey
}

func (h *handler) now() int64 {
	return h.ctx.Now()
}

func (h *handler) programID() solana.PublicKey {
	return h.ctx.ProgramID()
}

func (h *handler) requireSigner(address solana.PublicKey) error {
	if !h.ctx.IsSigner(address) {
		return fmt.Errorf("%w: %s", ErrGoverningOwnerMustSign, address)
	}
	return nil
}

func (h *handler) isEmpty(address solana.PublicKey) (bool, error) {
	acct, err := h.ctx.Account(address)
	if err != nil {
		return false, err
	}
	return acct.IsEmpty(), nil
}

// load decodes a program-owned account into v
func (h *handler) load(address solana.PublicKey, v state.Layout) error {
	acct, err := h.ctx.Account(address)
	if err != nil {
		return err
	}
	if acct.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrAccountNotInitialized, address)
	}
	if !acct.Owner.Equals(h.programID()) {
		return fmt.Errorf("%w: %s owned by %s", ErrInvalidAccountOwner, address, acct.Owner)
	}
	if err := state.Unmarshal(acct.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidAccountData, address, err)
	}
	return nil
}

// loadOptional is load for accounts that may not exist yet
func (h *handler) loadOptional(address solana.PublicKey, v state.Layout) (bool, error) {
	empty, err := h.isEmpty(address)
	if err != nil || empty {
		return false, err
	}
	return true, h.load(address, v)
}

func (h *handler) store(address solana.PublicKey, v state.Marshaler) error {
	data, err := state.Marshal(v)
	if err != nil {
		return err
	}
	return h.ctx.SetAccount(address, &ledger.Account{Owner: h.programID(), Data: data})
}

// create verifies a caller supplied bump against seeds and stores v in a
// fresh account. inUse is returned when the account already exists
func (h *handler) create(
	address solana.PublicKey,
	seeds [][]byte,
	bump uint8,
	v state.Marshaler,
	inUse error,
) error {
	if err := state.VerifyAddress(h.programID(), seeds, bump, address); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSeeds, address)
	}
	empty, err := h.isEmpty(address)
	if err != nil {
		return err
	}
	if !empty {
		return fmt.Errorf("%w: %s", inUse, address)
	}
	return h.store(address, v)
}

// derive checks that address is the canonical program address for seeds
func (h *handler) derive(address solana.PublicKey, seeds [][]byte) (uint8, error) {
	expected, bump, err := state.FindAddress(h.programID(), seeds)
	if err != nil {
		return 0, err
	}
	if !expected.Equals(address) {
		return 0, fmt.Errorf("%w: %s", ErrInvalidSeeds, address)
	}
	return bump, nil
}

func (h *handler) loadGovernance(address solana.PublicKey) (*state.Governance, error) {
	var gov state.Governance
	if err := h.load(address, &gov); err != nil {
		return nil, err
	}
	return &gov, nil
}

// loadScope loads a scope belonging to governance
func (h *handler) loadScope(address, governance solana.PublicKey) (*state.Scope, error) {
	var scope state.Scope
	if err := h.load(address, &scope); err != nil {
		return nil, err
	}
	if !scope.Governance.Equals(governance) {
		return nil, fmt.Errorf("%w: scope %s", ErrInvalidGovernance, address)
	}
	return &scope, nil
}

// loadOwnerRecord loads a vote-power record and verifies its governing owner
// signed the instruction
func (h *handler) loadOwnerRecord(address, owner solana.PublicKey) (*state.VotePowerOwnerRecord, error) {
	var record state.VotePowerOwnerRecord
	if err := h.load(address, &record); err != nil {
		return nil, err
	}
	if !record.GoverningOwner.Equals(owner) {
		return nil, fmt.Errorf("%w: %s not owned by %s", ErrInvalidTokenOwnerRecord, address, owner)
	}
	if err := h.requireSigner(owner); err != nil {
		return nil, err
	}
	return &record, nil
}

func (h *handler) loadProposal(address solana.PublicKey) (*state.ProposalV2, error) {
	var proposal state.ProposalV2
	if err := h.load(address, &proposal); err != nil {
		return nil, err
	}
	return &proposal, nil
}

// loadCreatorProposal loads a proposal and checks the creator signed with
// the record the proposal was created from
func (h *handler) loadCreatorProposal(address, creatorRecord, creator solana.PublicKey) (*state.ProposalV2, error) {
	proposal, err := h.loadProposal(address)
	if err != nil {
		return nil, err
	}
	if !proposal.TokenOwnerRecord.Equals(creatorRecord) || !proposal.Creator.Equals(creator) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidProposalCreator, creator)
	}
	if !h.ctx.IsSigner(creator) {
		return nil, fmt.Errorf("%w: creator must sign", ErrInvalidProposalCreator)
	}
	return proposal, nil
}

// loadOption loads a proposal option and checks it belongs to proposal
func (h *handler) loadOption(address, proposal solana.PublicKey) (*state.ProposalOption, error) {
	var option state.ProposalOption
	if err := h.load(address, &option); err != nil {
		return nil, err
	}
	if !option.Proposal.Equals(proposal) {
		return nil, fmt.Errorf("%w: option %s", ErrInvalidProposalOptions, address)
	}
	return &option, nil
}

// transition moves a proposal to a new state and emits the change
func (h *handler) transition(address solana.PublicKey, proposal *state.ProposalV2, to state.ProposalState) {
	from := proposal.State
	proposal.State = to
	h.ctx.Logger().Debug(
		"proposal state changed",
		"component", "governance",
		"proposal", address.String(),
		"from", from.String(),
		"to", to.String(),
	)
	h.ctx.Emit(event.ProposalStateEventType, event.ProposalStateEvent{
		Proposal:   address,
		Governance: proposal.Governance,
		From:       from.String(),
		To:         to.String(),
	})
}

func timestamp(v int64) *int64 {
	return &v
}
