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

package state

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// VotePowerOwnerRecord holds the weight one owner has for one source, and
// for delegatee records, one scope
type VotePowerOwnerRecord struct {
	Governance                 solana.PublicKey
	Source                     VotePowerUnit
	Amount                     uint64
	GoverningOwner             solana.PublicKey
	UnrelinquishedVotesCount   uint64
	TotalVotesCount            uint64
	OutstandingProposalCount   uint32
	OutstandingDelegationCount uint32
	DelegatedByScope           *solana.PublicKey
	FirstVote                  *solana.PublicKey
	LatestVote                 *solana.PublicKey
}

// IsDelegatee reports whether the record only receives delegated weight
func (o *VotePowerOwnerRecord) IsDelegatee() bool {
	return o.DelegatedByScope != nil
}

func (o VotePowerOwnerRecord) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.U8(uint8(AccountTypeTokenOwnerRecord))
	w.Pubkey(o.Governance)
	w.Layout(o.Source)
	w.U64(o.Amount)
	w.Pubkey(o.GoverningOwner)
	w.U64(o.UnrelinquishedVotesCount)
	w.U64(o.TotalVotesCount)
	w.U32(o.OutstandingProposalCount)
	w.U32(o.OutstandingDelegationCount)
	w.OptionPubkey(o.DelegatedByScope)
	w.OptionPubkey(o.FirstVote)
	w.OptionPubkey(o.LatestVote)
	return w.Err()
}

func (o *VotePowerOwnerRecord) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	r.AccountTypeTag(AccountTypeTokenOwnerRecord)
	o.Governance = r.Pubkey()
	r.Layout(&o.Source)
	o.Amount = r.U64()
	o.GoverningOwner = r.Pubkey()
	o.UnrelinquishedVotesCount = r.U64()
	o.TotalVotesCount = r.U64()
	o.OutstandingProposalCount = r.U32()
	o.OutstandingDelegationCount = r.U32()
	o.DelegatedByScope = r.OptionPubkey()
	o.FirstVote = r.OptionPubkey()
	o.LatestVote = r.OptionPubkey()
	return r.Err()
}

// TokenOwnerBudgetRecord tracks how much of an owner record is delegated
// under one scope
type TokenOwnerBudgetRecord struct {
	TokenOwnerRecord solana.PublicKey
	Scope            solana.PublicKey
	Delegated        uint64
}

// Remaining is the undelegated part of amount
func (b *TokenOwnerBudgetRecord) Remaining(amount uint64) uint64 {
	if b.Delegated >= amount {
		return 0
	}
	return amount - b.Delegated
}

func (b TokenOwnerBudgetRecord) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.U8(uint8(AccountTypeTokenOwnerBudgetRecord))
	w.Pubkey(b.TokenOwnerRecord)
	w.Pubkey(b.Scope)
	w.U64(b.Delegated)
	return w.Err()
}

func (b *TokenOwnerBudgetRecord) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	r.AccountTypeTag(AccountTypeTokenOwnerBudgetRecord)
	b.TokenOwnerRecord = r.Pubkey()
	b.Scope = r.Pubkey()
	b.Delegated = r.U64()
	return r.Err()
}

type DelegationDirection uint8

const (
	DelegationDirectionDelegate DelegationDirection = iota
	DelegationDirectionUndelegate
)

func (d DelegationDirection) String() string {
	switch d {
	case DelegationDirectionDelegate:
		return "delegate"
	case DelegationDirectionUndelegate:
		return "undelegate"
	default:
		return fmt.Sprintf("DelegationDirection(%d)", uint8(d))
	}
}

// PendingHistory is a vote history replay that has not reached the end of
// the delegatee's vote list yet
type PendingHistory struct {
	Direction DelegationDirection
	Amount    uint64
	NextVote  solana.PublicKey
}

type DelegationRecord struct {
	Delegator solana.PublicKey
	Delegatee solana.PublicKey
	Scope     solana.PublicKey
	Amount    uint64
	Pending   *PendingHistory
}

func (d DelegationRecord) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.U8(uint8(AccountTypeDelegationRecord))
	w.Pubkey(d.Delegator)
	w.Pubkey(d.Delegatee)
	w.Pubkey(d.Scope)
	w.U64(d.Amount)
	if w.Option(d.Pending != nil) {
		w.U8(uint8(d.Pending.Direction))
		w.U64(d.Pending.Amount)
		w.Pubkey(d.Pending.NextVote)
	}
	return w.Err()
}

func (d *DelegationRecord) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	r.AccountTypeTag(AccountTypeDelegationRecord)
	d.Delegator = r.Pubkey()
	d.Delegatee = r.Pubkey()
	d.Scope = r.Pubkey()
	d.Amount = r.U64()
	d.Pending = nil
	if r.Option() {
		d.Pending = &PendingHistory{
			Direction: DelegationDirection(r.U8()),
			Amount:    r.U64(),
			NextVote:  r.Pubkey(),
		}
	}
	return r.Err()
}
