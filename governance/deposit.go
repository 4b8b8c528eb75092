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
	"github.com/blinklabs-io/agora/tag"
	"github.com/blinklabs-io/agora/token"
	"github.com/gagliardetto/solana-go"
)

// depositGoverningTokens accounts for a mint source:
// record (w), governance, owner (s), payer (w, s), source token account (w),
// holding (w), mint, token program
//
// and for a tag source:
// record (w), governance, owner (s), payer (w, s), tag record
func (h *handler) depositGoverningTokens(ix *instruction.DepositGoverningTokens) error {
	if err := h.need(5); err != nil {
		return err
	}
	recordKey, govKey, owner := h.key(0), h.key(1), h.key(2)
	if _, err := h.loadGovernance(govKey); err != nil {
		return err
	}
	if err := h.requireSigner(owner); err != nil {
		return err
	}
	proof, err := h.ctx.Account(h.key(4))
	if err != nil {
		return err
	}
	var (
		source state.VotePowerUnit
		amount uint64
	)
	if proof.Owner.Equals(tag.ProgramID) {
		factory, err := h.verifyTagOwnership(h.key(4), owner, nil)
		if err != nil {
			return err
		}
		source, amount = state.TagSource(factory), 1
	} else {
		if err := h.need(8); err != nil {
			return err
		}
		mint := h.key(6)
		if ix.Amount == 0 {
			return ErrInvalidDepositAmount
		}
		if err := h.depositMint(govKey, mint, owner, ix.Amount); err != nil {
			return err
		}
		source, amount = state.MintSource(mint), ix.Amount
	}
	var record state.VotePowerOwnerRecord
	exists, err := h.loadOptional(recordKey, &record)
	if err != nil {
		return err
	}
	if !exists {
		return h.create(
			recordKey,
			state.TokenOwnerRecordSeeds(govKey, source.Key, owner),
			ix.TokenOwnerRecordBumpSeed,
			&state.VotePowerOwnerRecord{
				Governance:     govKey,
				Source:         source,
				Amount:         amount,
				GoverningOwner: owner,
			},
			ErrTokenOwnerRecordAlreadyExists,
		)
	}
	if _, err := h.derive(recordKey, state.TokenOwnerRecordSeeds(govKey, source.Key, owner)); err != nil {
		return err
	}
	if !record.GoverningOwner.Equals(owner) || record.Source != source || record.IsDelegatee() {
		return fmt.Errorf("%w: %s", ErrInvalidTokenOwnerRecord, recordKey)
	}
	if source.Kind == state.VotePowerUnitTag {
		// A tag carries a fixed weight of one
		if record.Amount != 0 {
			return fmt.Errorf("%w: tag already deposited", ErrInvalidDepositAmount)
		}
		record.Amount = 1
	} else if record.Amount, err = checkedAdd(record.Amount, amount); err != nil {
		return err
	}
	return h.store(recordKey, &record)
}

// depositMint moves tokens into the governance holding account, creating
// the holding account on first use
func (h *handler) depositMint(govKey, mint, owner solana.PublicKey, amount uint64) error {
	sourceAccount, holding, tokenProgram := h.key(4), h.key(5), h.key(7)
	if !tokenProgram.Equals(token.ProgramID) {
		return fmt.Errorf("%w: %s", ErrInvalidTokenProgram, tokenProgram)
	}
	holdingSeeds := state.GoverningTokenHoldingSeeds(govKey, mint)
	holdingBump, err := h.derive(holding, holdingSeeds)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHoldingAccount, err)
	}
	empty, err := h.isEmpty(holding)
	if err != nil {
		return err
	}
	if empty {
		err := h.ctx.InvokeSigned(
			token.InitializeAccount(holding, mint, govKey),
			state.SignerSeeds(holdingSeeds, holdingBump),
		)
		if err != nil {
			return fmt.Errorf("initialize holding account: %w", err)
		}
	}
	return h.ctx.Invoke(token.Transfer(sourceAccount, holding, owner, amount))
}

// verifyTagOwnership checks that address is the tag record issued to owner.
// When factory is non-nil the tag must come from it
func (h *handler) verifyTagOwnership(
	address, owner solana.PublicKey,
	factory *solana.PublicKey,
) (solana.PublicKey, error) {
	acct, err := h.ctx.Account(address)
	if err != nil {
		return solana.PublicKey{}, err
	}
	record, err := tag.DecodeRecord(acct.Owner, acct.Data)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %w", ErrInvalidTagRecord, err)
	}
	if !record.Owner.Equals(owner) {
		return solana.PublicKey{}, fmt.Errorf("%w: not issued to %s", ErrInvalidTagRecord, owner)
	}
	if factory != nil && !record.Factory.Equals(*factory) {
		return solana.PublicKey{}, fmt.Errorf("%w: wrong factory", ErrInvalidTagRecord)
	}
	expected, _, err := tag.RecordAddress(record.Factory, owner)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !expected.Equals(address) {
		return solana.PublicKey{}, fmt.Errorf("%w: address", ErrInvalidTagRecord)
	}
	return record.Factory, nil
}

// withdrawGoverningTokens accounts for a mint source:
// record (w), governance, owner (s), destination (w), holding (w), token program
//
// and for a tag source:
// record (w), governance, owner (s)
func (h *handler) withdrawGoverningTokens() error {
	if err := h.need(3); err != nil {
		return err
	}
	recordKey, govKey, owner := h.key(0), h.key(1), h.key(2)
	gov, err := h.loadGovernance(govKey)
	if err != nil {
		return err
	}
	record, err := h.loadOwnerRecord(recordKey, owner)
	if err != nil {
		return err
	}
	if !record.Governance.Equals(govKey) {
		return fmt.Errorf("%w: record %s", ErrInvalidGovernance, recordKey)
	}
	if record.IsDelegatee() {
		return fmt.Errorf("%w: delegatee records hold no deposit", ErrInvalidTokenOwnerRecord)
	}
	if _, err := h.derive(recordKey, state.TokenOwnerRecordSeeds(govKey, record.Source.Key, owner)); err != nil {
		return err
	}
	if record.UnrelinquishedVotesCount > 0 {
		return ErrAllVotesMustBeRelinquishedToWithdrawGoverningTokens
	}
	if record.OutstandingProposalCount > 0 {
		return ErrAllProposalsMustBeFinalisedToWithdrawGoverningTokens
	}
	if record.OutstandingDelegationCount > 0 {
		return ErrAllDelegationsMustBeUndelegatedToWithdrawGoverningTokens
	}
	if record.Source.Kind == state.VotePowerUnitMint && record.Amount > 0 {
		if err := h.need(6); err != nil {
			return err
		}
		destination, holding, tokenProgram := h.key(3), h.key(4), h.key(5)
		if !tokenProgram.Equals(token.ProgramID) {
			return fmt.Errorf("%w: %s", ErrInvalidTokenProgram, tokenProgram)
		}
		if _, err := h.derive(holding, state.GoverningTokenHoldingSeeds(govKey, record.Source.Key)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidHoldingAccount, err)
		}
		err := h.ctx.InvokeSigned(
			token.Transfer(holding, destination, govKey, record.Amount),
			state.SignerSeeds(state.GovernanceSeeds(gov.Seed), gov.BumpSeed),
		)
		if err != nil {
			return fmt.Errorf("release governing tokens: %w", err)
		}
	}
	record.Amount = 0
	return h.store(recordKey, record)
}

// createTokenOwnerBudgetRecord accounts:
// budget (w), owner record, owner (s), payer (w, s), scope
func (h *handler) createTokenOwnerBudgetRecord(ix *instruction.CreateTokenOwnerBudgetRecord) error {
	if err := h.need(5); err != nil {
		return err
	}
	budgetKey, recordKey, owner, scopeKey := h.key(0), h.key(1), h.key(2), h.key(4)
	record, err := h.loadOwnerRecord(recordKey, owner)
	if err != nil {
		return err
	}
	if record.IsDelegatee() {
		return ErrDelegatingDelegateNotAllowed
	}
	if !scopeKey.Equals(ix.Scope) {
		return fmt.Errorf("%w: scope account mismatch", ErrInvalidBudgetRecord)
	}
	scope, err := h.loadScope(scopeKey, record.Governance)
	if err != nil {
		return err
	}
	if scope.Deleted {
		return fmt.Errorf("%w: %s", ErrScopeDeleted, scopeKey)
	}
	return h.create(
		budgetKey,
		state.TokenOwnerBudgetRecordSeeds(recordKey, scopeKey),
		ix.BumpSeed,
		&state.TokenOwnerBudgetRecord{
			TokenOwnerRecord: recordKey,
			Scope:            scopeKey,
		},
		ErrAccountAlreadyInUse,
	)
}
