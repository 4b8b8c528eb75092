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

// Threshold is the fraction of the max vote weight an option must exceed
type Threshold struct {
	Numerator   uint64
	Denominator uint64
}

// SourceWeight multiplies the weight contributed by a source under a scope
type SourceWeight struct {
	Source VotePowerUnit
	Weight uint64
}

type VoteTipping uint8

const (
	VoteTippingDisabled VoteTipping = iota
	VoteTippingStrict
	VoteTippingEarly
)

type VoteConditionKind uint8

const (
	VoteConditionNone VoteConditionKind = iota
	VoteConditionTag
)

// VoteCondition optionally requires voters to hold a tag from a factory
type VoteCondition struct {
	Kind          VoteConditionKind
	RecordFactory solana.PublicKey
}

type VoteConfig struct {
	Threshold     Threshold
	SourceWeights []SourceWeight
	VoteTipping   VoteTipping
	Condition     VoteCondition
}

// SourceWeight returns the multiplier configured for source
func (c *VoteConfig) SourceWeight(source VotePowerUnit) (uint64, bool) {
	for _, sw := range c.SourceWeights {
		if sw.Source == source {
			return sw.Weight, true
		}
	}
	return 0, false
}

// TimeConfig durations are in seconds
type TimeConfig struct {
	MinTransactionHoldUpTime uint32
	MaxVotingTime            uint32
	ProposalCoolOffTime      uint32
}

// VotingEndsAt is the end of the window for non-deny votes
func (c TimeConfig) VotingEndsAt(votingAt int64) int64 {
	return votingAt + int64(c.MaxVotingTime)
}

// CoolOffEndsAt is the end of the window for deny votes and unvotes
func (c TimeConfig) CoolOffEndsAt(votingAt int64) int64 {
	return c.VotingEndsAt(votingAt) + int64(c.ProposalCoolOffTime)
}

type CreateProposalCriteriaKind uint8

const (
	CreateProposalCriteriaAmount CreateProposalCriteriaKind = iota
	CreateProposalCriteriaTag
)

// CreateProposalCriteria gates who may finalize a proposal under a scope
type CreateProposalCriteria struct {
	Kind          CreateProposalCriteriaKind
	Amount        uint64
	RecordFactory solana.PublicKey
}

type ProposalConfig struct {
	CreateProposalCriteria CreateProposalCriteria
}

type ScopeConfig struct {
	Vote     VoteConfig
	Time     TimeConfig
	Proposal ProposalConfig
}

func (c ScopeConfig) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.U64(c.Vote.Threshold.Numerator)
	w.U64(c.Vote.Threshold.Denominator)
	w.Len(len(c.Vote.SourceWeights))
	for _, sw := range c.Vote.SourceWeights {
		w.Layout(sw.Source)
		w.U64(sw.Weight)
	}
	w.U8(uint8(c.Vote.VoteTipping))
	w.U8(uint8(c.Vote.Condition.Kind))
	if c.Vote.Condition.Kind == VoteConditionTag {
		w.Pubkey(c.Vote.Condition.RecordFactory)
	}
	w.U32(c.Time.MinTransactionHoldUpTime)
	w.U32(c.Time.MaxVotingTime)
	w.U32(c.Time.ProposalCoolOffTime)
	criteria := c.Proposal.CreateProposalCriteria
	w.U8(uint8(criteria.Kind))
	switch criteria.Kind {
	case CreateProposalCriteriaAmount:
		w.U64(criteria.Amount)
	case CreateProposalCriteriaTag:
		w.Pubkey(criteria.RecordFactory)
	}
	return w.Err()
}

func (c *ScopeConfig) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	c.Vote.Threshold.Numerator = r.U64()
	c.Vote.Threshold.Denominator = r.U64()
	n := r.Len()
	c.Vote.SourceWeights = make([]SourceWeight, 0, n)
	for range n {
		var sw SourceWeight
		r.Layout(&sw.Source)
		sw.Weight = r.U64()
		c.Vote.SourceWeights = append(c.Vote.SourceWeights, sw)
	}
	c.Vote.VoteTipping = VoteTipping(r.U8())
	c.Vote.Condition.Kind = VoteConditionKind(r.U8())
	switch c.Vote.Condition.Kind {
	case VoteConditionNone:
	case VoteConditionTag:
		c.Vote.Condition.RecordFactory = r.Pubkey()
	default:
		if r.Err() == nil {
			return fmt.Errorf("unknown vote condition %d", c.Vote.Condition.Kind)
		}
	}
	c.Time.MinTransactionHoldUpTime = r.U32()
	c.Time.MaxVotingTime = r.U32()
	c.Time.ProposalCoolOffTime = r.U32()
	criteria := &c.Proposal.CreateProposalCriteria
	criteria.Kind = CreateProposalCriteriaKind(r.U8())
	switch criteria.Kind {
	case CreateProposalCriteriaAmount:
		criteria.Amount = r.U64()
	case CreateProposalCriteriaTag:
		criteria.RecordFactory = r.Pubkey()
	default:
		if r.Err() == nil {
			return fmt.Errorf("unknown create proposal criteria %d", criteria.Kind)
		}
	}
	return r.Err()
}

// Scope is a rule: acceptance criteria plus time windows for a set of
// vote power sources
type Scope struct {
	ID         solana.PublicKey
	Governance solana.PublicKey
	Config     ScopeConfig
	Deleted    bool
}

func (s Scope) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.U8(uint8(AccountTypeScope))
	w.Pubkey(s.ID)
	w.Pubkey(s.Governance)
	w.Layout(s.Config)
	w.Bool(s.Deleted)
	return w.Err()
}

func (s *Scope) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	r.AccountTypeTag(AccountTypeScope)
	s.ID = r.Pubkey()
	s.Governance = r.Pubkey()
	r.Layout(&s.Config)
	s.Deleted = r.Bool()
	return r.Err()
}
