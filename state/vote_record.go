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
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// VoteRecordV2 is one owner record's vote on a proposal under a scope.
// PreviousVote links the owner's votes newest first.
type VoteRecordV2 struct {
	Proposal         solana.PublicKey
	TokenOwnerRecord solana.PublicKey
	Scope            solana.PublicKey
	Vote             []uint16
	Weight           uint64
	IsRelinquished   bool
	PreviousVote     *solana.PublicKey
}

func (v VoteRecordV2) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.U8(uint8(AccountTypeVoteRecord))
	w.Pubkey(v.Proposal)
	w.Pubkey(v.TokenOwnerRecord)
	w.Pubkey(v.Scope)
	w.Len(len(v.Vote))
	for _, idx := range v.Vote {
		w.U16(idx)
	}
	w.U64(v.Weight)
	w.Bool(v.IsRelinquished)
	w.OptionPubkey(v.PreviousVote)
	return w.Err()
}

func (v *VoteRecordV2) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	r.AccountTypeTag(AccountTypeVoteRecord)
	v.Proposal = r.Pubkey()
	v.TokenOwnerRecord = r.Pubkey()
	v.Scope = r.Pubkey()
	n := r.Len()
	v.Vote = make([]uint16, 0, n)
	for range n {
		v.Vote = append(v.Vote, r.U16())
	}
	v.Weight = r.U64()
	v.IsRelinquished = r.Bool()
	v.PreviousVote = r.OptionPubkey()
	return r.Err()
}
