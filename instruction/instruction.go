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

// Package instruction defines the governance instruction set: a closed
// tagged union encoded as a one byte discriminant followed by the borsh
// fields of the variant.
package instruction

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/blinklabs-io/agora/state"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var ErrUnknownInstruction = errors.New("unknown instruction")

type Kind uint8

const (
	KindCreateGovernance Kind = iota
	KindCreateScope
	KindDeleteScope
	KindDepositGoverningTokens
	KindWithdrawGoverningTokens
	KindCreateTokenOwnerBudgetRecord
	KindCreateDelegatee
	KindDelegate
	KindUndelegate
	KindDelegateHistory
	KindUndelegateHistory
	KindCreateProposal
	KindInsertScope
	KindCreateProposalOption
	KindInsertTransaction
	KindRemoveTransaction
	KindAddSignatory
	KindSignOffProposal
	KindFinalizeDraft
	KindCancelProposal
	KindVote
	KindUnvote
	KindCountMaxVoteWeights
	KindCountVotes
	KindExecuteProposal
	KindFlagTransactionError
	KindSetExecutionFlags
)

var kindNames = [...]string{
	"CreateGovernance",
	"CreateScope",
	"DeleteScope",
	"DepositGoverningTokens",
	"WithdrawGoverningTokens",
	"CreateTokenOwnerBudgetRecord",
	"CreateDelegatee",
	"Delegate",
	"Undelegate",
	"DelegateHistory",
	"UndelegateHistory",
	"CreateProposal",
	"InsertScope",
	"CreateProposalOption",
	"InsertTransaction",
	"RemoveTransaction",
	"AddSignatory",
	"SignOffProposal",
	"FinalizeDraft",
	"CancelProposal",
	"Vote",
	"Unvote",
	"CountMaxVoteWeights",
	"CountVotes",
	"ExecuteProposal",
	"FlagTransactionError",
	"SetExecutionFlags",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Instruction is implemented by every variant
type Instruction interface {
	state.Layout
	Kind() Kind
}

// Encode serializes ix with its discriminant
func Encode(ix Instruction) ([]byte, error) {
	var buf bytes.Buffer
	enc := bin.NewBorshEncoder(&buf)
	if err := enc.WriteUint8(uint8(ix.Kind())); err != nil {
		return nil, err
	}
	if err := ix.MarshalWithEncoder(enc); err != nil {
		return nil, fmt.Errorf("encode %s: %w", ix.Kind(), err)
	}
	return buf.Bytes(), nil
}

// Decode parses instruction data into its variant
func Decode(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrUnknownInstruction)
	}
	var ix Instruction
	switch Kind(data[0]) {
	case KindCreateGovernance:
		ix = &CreateGovernance{}
	case KindCreateScope:
		ix = &CreateScope{}
	case KindDeleteScope:
		ix = &DeleteScope{}
	case KindDepositGoverningTokens:
		ix = &DepositGoverningTokens{}
	case KindWithdrawGoverningTokens:
		ix = &WithdrawGoverningTokens{}
	case KindCreateTokenOwnerBudgetRecord:
		ix = &CreateTokenOwnerBudgetRecord{}
	case KindCreateDelegatee:
		ix = &CreateDelegatee{}
	case KindDelegate:
		ix = &Delegate{}
	case KindUndelegate:
		ix = &Undelegate{}
	case KindDelegateHistory:
		ix = &DelegateHistory{}
	case KindUndelegateHistory:
		ix = &UndelegateHistory{}
	case KindCreateProposal:
		ix = &CreateProposal{}
	case KindInsertScope:
		ix = &InsertScope{}
	case KindCreateProposalOption:
		ix = &CreateProposalOption{}
	case KindInsertTransaction:
		ix = &InsertTransaction{}
	case KindRemoveTransaction:
		ix = &RemoveTransaction{}
	case KindAddSignatory:
		ix = &AddSignatory{}
	case KindSignOffProposal:
		ix = &SignOffProposal{}
	case KindFinalizeDraft:
		ix = &FinalizeDraft{}
	case KindCancelProposal:
		ix = &CancelProposal{}
	case KindVote:
		ix = &Vote{}
	case KindUnvote:
		ix = &Unvote{}
	case KindCountMaxVoteWeights:
		ix = &CountMaxVoteWeights{}
	case KindCountVotes:
		ix = &CountVotes{}
	case KindExecuteProposal:
		ix = &ExecuteProposal{}
	case KindFlagTransactionError:
		ix = &FlagTransactionError{}
	case KindSetExecutionFlags:
		ix = &SetExecutionFlags{}
	default:
		return nil, fmt.Errorf("%w: discriminant %d", ErrUnknownInstruction, data[0])
	}
	if err := state.Unmarshal(data[1:], ix); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ix.Kind(), err)
	}
	return ix, nil
}

type noArgs struct{}

func (noArgs) MarshalWithEncoder(*bin.Encoder) error    { return nil }
func (*noArgs) UnmarshalWithDecoder(*bin.Decoder) error { return nil }

type CreateGovernance struct {
	InitialAuthority *solana.PublicKey
	Seed             solana.PublicKey
	BumpSeed         uint8
}

func (*CreateGovernance) Kind() Kind { return KindCreateGovernance }

func (c *CreateGovernance) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.OptionPubkey(c.InitialAuthority)
	w.Pubkey(c.Seed)
	w.U8(c.BumpSeed)
	return w.Err()
}

func (c *CreateGovernance) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	c.InitialAuthority = r.OptionPubkey()
	c.Seed = r.Pubkey()
	c.BumpSeed = r.U8()
	return r.Err()
}

type CreateScope struct {
	ID       solana.PublicKey
	Config   state.ScopeConfig
	BumpSeed uint8
}

func (*CreateScope) Kind() Kind { return KindCreateScope }

func (c *CreateScope) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.Pubkey(c.ID)
	w.Layout(c.Config)
	w.U8(c.BumpSeed)
	return w.Err()
}

func (c *CreateScope) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	c.ID = r.Pubkey()
	r.Layout(&c.Config)
	c.BumpSeed = r.U8()
	return r.Err()
}

type DeleteScope struct{ noArgs }

func (*DeleteScope) Kind() Kind { return KindDeleteScope }

// DepositGoverningTokens adds Amount from a mint source. Tag sources
// always record a weight of one and ignore Amount.
type DepositGoverningTokens struct {
	Amount                   uint64
	TokenOwnerRecordBumpSeed uint8
}

func (*DepositGoverningTokens) Kind() Kind { return KindDepositGoverningTokens }

func (d *DepositGoverningTokens) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.U64(d.Amount)
	w.U8(d.TokenOwnerRecordBumpSeed)
	return w.Err()
}

func (d *DepositGoverningTokens) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	d.Amount = r.U64()
	d.TokenOwnerRecordBumpSeed = r.U8()
	return r.Err()
}

type WithdrawGoverningTokens struct{ noArgs }

func (*WithdrawGoverningTokens) Kind() Kind { return KindWithdrawGoverningTokens }

type CreateTokenOwnerBudgetRecord struct {
	Scope    solana.PublicKey
	BumpSeed uint8
}

func (*CreateTokenOwnerBudgetRecord) Kind() Kind { return KindCreateTokenOwnerBudgetRecord }

func (c *CreateTokenOwnerBudgetRecord) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.Pubkey(c.Scope)
	w.U8(c.BumpSeed)
	return w.Err()
}

func (c *CreateTokenOwnerBudgetRecord) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	c.Scope = r.Pubkey()
	c.BumpSeed = r.U8()
	return r.Err()
}

type CreateDelegatee struct {
	Scope                    solana.PublicKey
	VotePowerUnit            state.VotePowerUnit
	TokenOwnerRecordBumpSeed uint8
}

func (*CreateDelegatee) Kind() Kind { return KindCreateDelegatee }

func (c *CreateDelegatee) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.Pubkey(c.Scope)
	w.Layout(c.VotePowerUnit)
	w.U8(c.TokenOwnerRecordBumpSeed)
	return w.Err()
}

func (c *CreateDelegatee) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	c.Scope = r.Pubkey()
	r.Layout(&c.VotePowerUnit)
	c.TokenOwnerRecordBumpSeed = r.U8()
	return r.Err()
}

type Delegate struct {
	Amount                   uint64
	DelegationRecordBumpSeed uint8
}

func (*Delegate) Kind() Kind { return KindDelegate }

func (d *Delegate) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.U64(d.Amount)
	w.U8(d.DelegationRecordBumpSeed)
	return w.Err()
}

func (d *Delegate) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	d.Amount = r.U64()
	d.DelegationRecordBumpSeed = r.U8()
	return r.Err()
}

type Undelegate struct {
	Amount uint64
}

func (*Undelegate) Kind() Kind { return KindUndelegate }

func (u *Undelegate) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.U64(u.Amount)
	return w.Err()
}

func (u *Undelegate) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	u.Amount = r.U64()
	return r.Err()
}

type DelegateHistory struct{ noArgs }

func (*DelegateHistory) Kind() Kind { return KindDelegateHistory }

type UndelegateHistory struct{ noArgs }

func (*UndelegateHistory) Kind() Kind { return KindUndelegateHistory }

type CreateProposal struct {
	VoteType    state.VoteType
	ScopesCount uint16
	Source      state.VotePowerUnit
	BumpSeed    uint8
}

func (*CreateProposal) Kind() Kind { return KindCreateProposal }

func (c *CreateProposal) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.Layout(c.VoteType)
	w.U16(c.ScopesCount)
	w.Layout(c.Source)
	w.U8(c.BumpSeed)
	return w.Err()
}

func (c *CreateProposal) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	r.Layout(&c.VoteType)
	c.ScopesCount = r.U16()
	r.Layout(&c.Source)
	c.BumpSeed = r.U8()
	return r.Err()
}

type InsertScope struct{ noArgs }

func (*InsertScope) Kind() Kind { return KindInsertScope }

type CreateProposalOption struct {
	OptionType state.OptionType
	BumpSeed   uint8
}

func (*CreateProposalOption) Kind() Kind { return KindCreateProposalOption }

func (c *CreateProposalOption) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.Layout(c.OptionType)
	w.U8(c.BumpSeed)
	return w.Err()
}

func (c *CreateProposalOption) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	r.Layout(&c.OptionType)
	c.BumpSeed = r.U8()
	return r.Err()
}

type InsertTransaction struct {
	OptionIndex      uint16
	InstructionIndex uint16
	HoldUpTime       uint32
	Instructions     []state.ConditionedInstruction
	BumpSeed         uint8
}

func (*InsertTransaction) Kind() Kind { return KindInsertTransaction }

func (i *InsertTransaction) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.U16(i.OptionIndex)
	w.U16(i.InstructionIndex)
	w.U32(i.HoldUpTime)
	w.Len(len(i.Instructions))
	for _, inst := range i.Instructions {
		w.Layout(inst)
	}
	w.U8(i.BumpSeed)
	return w.Err()
}

func (i *InsertTransaction) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	i.OptionIndex = r.U16()
	i.InstructionIndex = r.U16()
	i.HoldUpTime = r.U32()
	n := r.Len()
	i.Instructions = make([]state.ConditionedInstruction, 0, n)
	for range n {
		var inst state.ConditionedInstruction
		r.Layout(&inst)
		i.Instructions = append(i.Instructions, inst)
	}
	i.BumpSeed = r.U8()
	return r.Err()
}

type RemoveTransaction struct{ noArgs }

func (*RemoveTransaction) Kind() Kind { return KindRemoveTransaction }

type AddSignatory struct {
	Signatory solana.PublicKey
	BumpSeed  uint8
}

func (*AddSignatory) Kind() Kind { return KindAddSignatory }

func (a *AddSignatory) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.Pubkey(a.Signatory)
	w.U8(a.BumpSeed)
	return w.Err()
}

func (a *AddSignatory) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	a.Signatory = r.Pubkey()
	a.BumpSeed = r.U8()
	return r.Err()
}

type SignOffProposal struct{ noArgs }

func (*SignOffProposal) Kind() Kind { return KindSignOffProposal }

type FinalizeDraft struct{ noArgs }

func (*FinalizeDraft) Kind() Kind { return KindFinalizeDraft }

type CancelProposal struct{ noArgs }

func (*CancelProposal) Kind() Kind { return KindCancelProposal }

// Vote casts the owner record's weight on the option accounts supplied
// with the instruction
type Vote struct {
	VoteRecordBumpSeed uint8
}

func (*Vote) Kind() Kind { return KindVote }

func (v *Vote) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.U8(v.VoteRecordBumpSeed)
	return w.Err()
}

func (v *Vote) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	v.VoteRecordBumpSeed = r.U8()
	return r.Err()
}

type Unvote struct{ noArgs }

func (*Unvote) Kind() Kind { return KindUnvote }

type CountMaxVoteWeights struct{ noArgs }

func (*CountMaxVoteWeights) Kind() Kind { return KindCountMaxVoteWeights }

type CountVotes struct{ noArgs }

func (*CountVotes) Kind() Kind { return KindCountVotes }

type ExecuteProposal struct {
	GovernanceBumpSeed uint8
}

func (*ExecuteProposal) Kind() Kind { return KindExecuteProposal }

func (e *ExecuteProposal) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.U8(e.GovernanceBumpSeed)
	return w.Err()
}

func (e *ExecuteProposal) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	e.GovernanceBumpSeed = r.U8()
	return r.Err()
}

type FlagTransactionError struct{ noArgs }

func (*FlagTransactionError) Kind() Kind { return KindFlagTransactionError }

type SetExecutionFlags struct {
	Flags state.ExecutionFlags
}

func (*SetExecutionFlags) Kind() Kind { return KindSetExecutionFlags }

func (s *SetExecutionFlags) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.U8(uint8(s.Flags))
	return w.Err()
}

func (s *SetExecutionFlags) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	s.Flags = state.ExecutionFlags(r.U8())
	return r.Err()
}
