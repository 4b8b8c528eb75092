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

type AccountMetaData struct {
	Pubkey     solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

// ConditionedInstruction is an instruction gated by the scope it was
// proposed under
type ConditionedInstruction struct {
	Scope     solana.PublicKey
	ProgramID solana.PublicKey
	Accounts  []AccountMetaData
	Data      []byte
}

// Instruction converts to a solana instruction for invocation
func (c *ConditionedInstruction) Instruction() solana.Instruction {
	metas := make(solana.AccountMetaSlice, 0, len(c.Accounts))
	for _, a := range c.Accounts {
		metas = append(metas, solana.NewAccountMeta(a.Pubkey, a.IsWritable, a.IsSigner))
	}
	return solana.NewInstruction(c.ProgramID, metas, c.Data)
}

// NewConditionedInstruction captures inst under scope
func NewConditionedInstruction(scope solana.PublicKey, inst solana.Instruction) (ConditionedInstruction, error) {
	data, err := inst.Data()
	if err != nil {
		return ConditionedInstruction{}, err
	}
	ret := ConditionedInstruction{
		Scope:     scope,
		ProgramID: inst.ProgramID(),
		Data:      data,
	}
	for _, meta := range inst.Accounts() {
		ret.Accounts = append(ret.Accounts, AccountMetaData{
			Pubkey:     meta.PublicKey,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		})
	}
	return ret, nil
}

func (c ConditionedInstruction) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.Pubkey(c.Scope)
	w.Pubkey(c.ProgramID)
	w.Len(len(c.Accounts))
	for _, a := range c.Accounts {
		w.Pubkey(a.Pubkey)
		w.Bool(a.IsSigner)
		w.Bool(a.IsWritable)
	}
	w.Bytes(c.Data)
	return w.Err()
}

func (c *ConditionedInstruction) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	c.Scope = r.Pubkey()
	c.ProgramID = r.Pubkey()
	n := r.Len()
	c.Accounts = make([]AccountMetaData, 0, n)
	for range n {
		c.Accounts = append(c.Accounts, AccountMetaData{
			Pubkey:     r.Pubkey(),
			IsSigner:   r.Bool(),
			IsWritable: r.Bool(),
		})
	}
	c.Data = r.Bytes()
	return r.Err()
}

type TransactionExecutionStatus uint8

const (
	TransactionExecutionStatusNone TransactionExecutionStatus = iota
	TransactionExecutionStatusSuccess
	TransactionExecutionStatusError
)

func (s TransactionExecutionStatus) String() string {
	switch s {
	case TransactionExecutionStatusSuccess:
		return "Success"
	case TransactionExecutionStatusError:
		return "Error"
	default:
		return "None"
	}
}

type ProposalTransactionV2 struct {
	Proposal         solana.PublicKey
	OptionIndex      uint16
	InstructionIndex uint16
	HoldUpTime       uint32
	Instructions     []ConditionedInstruction
	ExecutedAt       *int64
	ExecutionStatus  TransactionExecutionStatus
}

func (t ProposalTransactionV2) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.U8(uint8(AccountTypeProposalTransaction))
	w.Pubkey(t.Proposal)
	w.U16(t.OptionIndex)
	w.U16(t.InstructionIndex)
	w.U32(t.HoldUpTime)
	w.Len(len(t.Instructions))
	for _, inst := range t.Instructions {
		w.Layout(inst)
	}
	w.OptionI64(t.ExecutedAt)
	w.U8(uint8(t.ExecutionStatus))
	return w.Err()
}

func (t *ProposalTransactionV2) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	r.AccountTypeTag(AccountTypeProposalTransaction)
	t.Proposal = r.Pubkey()
	t.OptionIndex = r.U16()
	t.InstructionIndex = r.U16()
	t.HoldUpTime = r.U32()
	n := r.Len()
	t.Instructions = make([]ConditionedInstruction, 0, n)
	for range n {
		var inst ConditionedInstruction
		r.Layout(&inst)
		t.Instructions = append(t.Instructions, inst)
	}
	t.ExecutedAt = r.OptionI64()
	t.ExecutionStatus = TransactionExecutionStatus(r.U8())
	return r.Err()
}
