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

type ProposalState uint8

const (
	ProposalStateDraft ProposalState = iota
	ProposalStateSigningOff
	ProposalStateVoting
	ProposalStateSucceeded
	ProposalStateDefeated
	ProposalStateExecuting
	ProposalStateExecutingWithErrors
	ProposalStateCompleted
	ProposalStateCancelled
)

var proposalStateNames = [...]string{
	"Draft",
	"SigningOff",
	"Voting",
	"Succeeded",
	"Defeated",
	"Executing",
	"ExecutingWithErrors",
	"Completed",
	"Cancelled",
}

func (s ProposalState) String() string {
	if int(s) < len(proposalStateNames) {
		return proposalStateNames[s]
	}
	return fmt.Sprintf("ProposalState(%d)", uint8(s))
}

// ParseProposalState is the inverse of ProposalState.String
func ParseProposalState(name string) (ProposalState, error) {
	for i, n := range proposalStateNames {
		if n == name {
			return ProposalState(i), nil // #nosec G115
		}
	}
	return 0, fmt.Errorf("unknown proposal state %q", name)
}

type VoteTypeKind uint8

const (
	VoteTypeSingleChoice VoteTypeKind = iota
	VoteTypeMultiChoice
)

// VoteType bounds how many options a voter may pick and how many may win.
// Zero bounds are unlimited.
type VoteType struct {
	Kind              VoteTypeKind
	MaxVoterOptions   uint16
	MaxWinningOptions uint16
}

func SingleChoice() VoteType {
	return VoteType{Kind: VoteTypeSingleChoice}
}

func MultiChoice(maxVoterOptions, maxWinningOptions uint16) VoteType {
	return VoteType{
		Kind:              VoteTypeMultiChoice,
		MaxVoterOptions:   maxVoterOptions,
		MaxWinningOptions: maxWinningOptions,
	}
}

func (v VoteType) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.U8(uint8(v.Kind))
	if v.Kind == VoteTypeMultiChoice {
		w.U16(v.MaxVoterOptions)
		w.U16(v.MaxWinningOptions)
	}
	return w.Err()
}

func (v *VoteType) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	v.Kind = VoteTypeKind(r.U8())
	v.MaxVoterOptions, v.MaxWinningOptions = 0, 0
	switch v.Kind {
	case VoteTypeSingleChoice:
	case VoteTypeMultiChoice:
		v.MaxVoterOptions = r.U16()
		v.MaxWinningOptions = r.U16()
	default:
		if r.Err() == nil {
			return fmt.Errorf("unknown vote type %d", v.Kind)
		}
	}
	return r.Err()
}

type ExecutionFlags uint8

const (
	ExecutionFlagsNone ExecutionFlags = iota
	ExecutionFlagsOrdered
)

// RuleWeight is one attached scope and its max vote weight snapshot
type RuleWeight struct {
	Rule          solana.PublicKey
	MaxVoteWeight *uint64
}

type ProposalV2 struct {
	Governance                solana.PublicKey
	State                     ProposalState
	Creator                   solana.PublicKey
	TokenOwnerRecord          solana.PublicKey
	Index                     uint32
	VoteType                  VoteType
	Source                    VotePowerUnit
	ExecutionFlags            ExecutionFlags
	OptionsCount              uint16
	OptionsCountedCount       uint16
	OptionsExecutedCount      uint16
	ScopesCount               uint16
	SignatoriesCount          uint16
	SignatoriesSignedOffCount uint16
	RulesMaxVoteWeight        []RuleWeight
	DenyOption                *solana.PublicKey
	WinningOptionsCount       uint16
	DefeatedOptionsCount      uint16
	DraftAt                   int64
	SigningOffAt              *int64
	VotingAt                  *int64
	VotingCompletedAt         *int64
	ExecutingAt               *int64
	ClosedAt                  *int64
	VoteThresholdPercentage   *uint8
}

func (p *ProposalV2) RulesCount() int {
	return len(p.RulesMaxVoteWeight)
}

// RuleIndex returns the position of scope in the attached rules or -1
func (p *ProposalV2) RuleIndex(scope solana.PublicKey) int {
	for i, rw := range p.RulesMaxVoteWeight {
		if rw.Rule == scope {
			return i
		}
	}
	return -1
}

func (p ProposalV2) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.U8(uint8(AccountTypeProposal))
	w.Pubkey(p.Governance)
	w.U8(uint8(p.State))
	w.Pubkey(p.Creator)
	w.Pubkey(p.TokenOwnerRecord)
	w.U32(p.Index)
	w.Layout(p.VoteType)
	w.Layout(p.Source)
	w.U8(uint8(p.ExecutionFlags))
	w.U16(p.OptionsCount)
	w.U16(p.OptionsCountedCount)
	w.U16(p.OptionsExecutedCount)
	w.U16(p.ScopesCount)
	w.U16(p.SignatoriesCount)
	w.U16(p.SignatoriesSignedOffCount)
	w.Len(len(p.RulesMaxVoteWeight))
	for _, rw := range p.RulesMaxVoteWeight {
		w.Pubkey(rw.Rule)
		w.OptionU64(rw.MaxVoteWeight)
	}
	w.OptionPubkey(p.DenyOption)
	w.U16(p.WinningOptionsCount)
	w.U16(p.DefeatedOptionsCount)
	w.I64(p.DraftAt)
	w.OptionI64(p.SigningOffAt)
	w.OptionI64(p.VotingAt)
	w.OptionI64(p.VotingCompletedAt)
	w.OptionI64(p.ExecutingAt)
	w.OptionI64(p.ClosedAt)
	w.OptionU8(p.VoteThresholdPercentage)
	return w.Err()
}

func (p *ProposalV2) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	r.AccountTypeTag(AccountTypeProposal)
	p.Governance = r.Pubkey()
	p.State = ProposalState(r.U8())
	p.Creator = r.Pubkey()
	p.TokenOwnerRecord = r.Pubkey()
	p.Index = r.U32()
	r.Layout(&p.VoteType)
	r.Layout(&p.Source)
	p.ExecutionFlags = ExecutionFlags(r.U8())
	p.OptionsCount = r.U16()
	p.OptionsCountedCount = r.U16()
	p.OptionsExecutedCount = r.U16()
	p.ScopesCount = r.U16()
	p.SignatoriesCount = r.U16()
	p.SignatoriesSignedOffCount = r.U16()
	n := r.Len()
	p.RulesMaxVoteWeight = make([]RuleWeight, 0, n)
	for range n {
		var rw RuleWeight
		rw.Rule = r.Pubkey()
		rw.MaxVoteWeight = r.OptionU64()
		p.RulesMaxVoteWeight = append(p.RulesMaxVoteWeight, rw)
	}
	p.DenyOption = r.OptionPubkey()
	p.WinningOptionsCount = r.U16()
	p.DefeatedOptionsCount = r.U16()
	p.DraftAt = r.I64()
	p.SigningOffAt = r.OptionI64()
	p.VotingAt = r.OptionI64()
	p.VotingCompletedAt = r.OptionI64()
	p.ExecutingAt = r.OptionI64()
	p.ClosedAt = r.OptionI64()
	p.VoteThresholdPercentage = r.OptionU8()
	if r.Err() == nil && int(p.State) >= len(proposalStateNames) {
		return fmt.Errorf("unknown proposal state %d", p.State)
	}
	return r.Err()
}

// SignatoryRecord tracks one required sign-off
type SignatoryRecord struct {
	Proposal  solana.PublicKey
	Signatory solana.PublicKey
	SignedOff bool
}

func (s SignatoryRecord) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.U8(uint8(AccountTypeSignatoryRecord))
	w.Pubkey(s.Proposal)
	w.Pubkey(s.Signatory)
	w.Bool(s.SignedOff)
	return w.Err()
}

func (s *SignatoryRecord) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	r.AccountTypeTag(AccountTypeSignatoryRecord)
	s.Proposal = r.Pubkey()
	s.Signatory = r.Pubkey()
	s.SignedOff = r.Bool()
	return r.Err()
}
