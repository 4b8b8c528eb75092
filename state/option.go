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

type OptionKind uint8

const (
	OptionKindInstruction OptionKind = iota
	OptionKindDeny
)

// OptionType is Instruction(label) or Deny
type OptionType struct {
	Kind  OptionKind
	Label string
}

func InstructionOption(label string) OptionType {
	return OptionType{Kind: OptionKindInstruction, Label: label}
}

func DenyOption() OptionType {
	return OptionType{Kind: OptionKindDeny}
}

func (o OptionType) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.U8(uint8(o.Kind))
	if o.Kind == OptionKindInstruction {
		w.Str(o.Label)
	}
	return w.Err()
}

func (o *OptionType) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	o.Kind = OptionKind(r.U8())
	o.Label = ""
	switch o.Kind {
	case OptionKindInstruction:
		o.Label = r.Str()
	case OptionKindDeny:
	default:
		if r.Err() == nil {
			return fmt.Errorf("unknown option type %d", o.Kind)
		}
	}
	return r.Err()
}

type OptionVoteResult uint8

const (
	OptionVoteResultNone OptionVoteResult = iota
	OptionVoteResultSucceeded
	OptionVoteResultDefeated
)

func (r OptionVoteResult) String() string {
	switch r {
	case OptionVoteResultNone:
		return "None"
	case OptionVoteResultSucceeded:
		return "Succeeded"
	case OptionVoteResultDefeated:
		return "Defeated"
	default:
		return fmt.Sprintf("OptionVoteResult(%d)", uint8(r))
	}
}

// VoteWeight is the weight an option holds for one (rule, source) pair
type VoteWeight struct {
	Rule   solana.PublicKey
	Source VotePowerUnit
	Weight uint64
}

type ProposalOption struct {
	Proposal                  solana.PublicKey
	Index                     uint16
	OptionType                OptionType
	VoteWeights               []VoteWeight
	VoteResult                OptionVoteResult
	TransactionsCount         uint16
	TransactionsExecutedCount uint16
	TransactionsNextIndex     uint16
}

func (o *ProposalOption) IsDeny() bool {
	return o.OptionType.Kind == OptionKindDeny
}

// Bucket returns the weight entry for (rule, source), creating it when
// missing
func (o *ProposalOption) Bucket(rule solana.PublicKey, source VotePowerUnit) *VoteWeight {
	for i := range o.VoteWeights {
		if o.VoteWeights[i].Rule == rule && o.VoteWeights[i].Source == source {
			return &o.VoteWeights[i]
		}
	}
	o.VoteWeights = append(o.VoteWeights, VoteWeight{Rule: rule, Source: source})
	return &o.VoteWeights[len(o.VoteWeights)-1]
}

func (o ProposalOption) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.U8(uint8(AccountTypeProposalOption))
	w.Pubkey(o.Proposal)
	w.U16(o.Index)
	w.Layout(o.OptionType)
	w.Len(len(o.VoteWeights))
	for _, vw := range o.VoteWeights {
		w.Pubkey(vw.Rule)
		w.Layout(vw.Source)
		w.U64(vw.Weight)
	}
	w.U8(uint8(o.VoteResult))
	w.U16(o.TransactionsCount)
	w.U16(o.TransactionsExecutedCount)
	w.U16(o.TransactionsNextIndex)
	return w.Err()
}

func (o *ProposalOption) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	r.AccountTypeTag(AccountTypeProposalOption)
	o.Proposal = r.Pubkey()
	o.Index = r.U16()
	r.Layout(&o.OptionType)
	n := r.Len()
	o.VoteWeights = make([]VoteWeight, 0, n)
	for range n {
		var vw VoteWeight
		vw.Rule = r.Pubkey()
		r.Layout(&vw.Source)
		vw.Weight = r.U64()
		o.VoteWeights = append(o.VoteWeights, vw)
	}
	o.VoteResult = OptionVoteResult(r.U8())
	o.TransactionsCount = r.U16()
	o.TransactionsExecutedCount = r.U16()
	o.TransactionsNextIndex = r.U16()
	return r.Err()
}
