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

// Package tag issues non-transferable membership tags. A factory
// authority issues at most one tag record per owner and may revoke it.
package tag

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/blinklabs-io/agora/state"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var ProgramID = solana.MustPublicKeyFromBase58("6L5GzqR5AJWEvtMUiMqySnNLKr7YVGgiqnNTmH9xzyp8")

const SeedTagRecord = "tag-record"

var (
	ErrInvalidInstruction = errors.New("invalid tag instruction")
	ErrInvalidAccount     = errors.New("invalid tag account")
	ErrAlreadyInitialized = errors.New("tag account already initialized")
	ErrInvalidAuthority   = errors.New("invalid factory authority")
)

type accountType uint8

const (
	accountTypeFactory accountType = iota + 1
	accountTypeRecord
)

// Factory issues tags. Outstanding counts unrevoked tags.
type Factory struct {
	Authority   solana.PublicKey
	Outstanding uint64
}

func (f Factory) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.U8(uint8(accountTypeFactory))
	w.Pubkey(f.Authority)
	w.U64(f.Outstanding)
	return w.Err()
}

func (f *Factory) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	if t := accountType(r.U8()); r.Err() == nil && t != accountTypeFactory {
		return fmt.Errorf("%w: not a factory", ErrInvalidAccount)
	}
	f.Authority = r.Pubkey()
	f.Outstanding = r.U64()
	return r.Err()
}

// Record attests that Owner holds a tag from Factory
type Record struct {
	Factory solana.PublicKey
	Owner   solana.PublicKey
}

func (t Record) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.U8(uint8(accountTypeRecord))
	w.Pubkey(t.Factory)
	w.Pubkey(t.Owner)
	return w.Err()
}

func (t *Record) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	if at := accountType(r.U8()); r.Err() == nil && at != accountTypeRecord {
		return fmt.Errorf("%w: not a tag record", ErrInvalidAccount)
	}
	t.Factory = r.Pubkey()
	t.Owner = r.Pubkey()
	return r.Err()
}

func DecodeFactory(owner solana.PublicKey, data []byte) (*Factory, error) {
	if !owner.Equals(ProgramID) {
		return nil, fmt.Errorf("%w: owner %s", ErrInvalidAccount, owner)
	}
	var f Factory
	if err := state.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func DecodeRecord(owner solana.PublicKey, data []byte) (*Record, error) {
	if !owner.Equals(ProgramID) {
		return nil, fmt.Errorf("%w: owner %s", ErrInvalidAccount, owner)
	}
	var t Record
	if err := state.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// RecordAddress derives the tag record of owner under factory
func RecordAddress(factory, owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{[]byte(SeedTagRecord), factory[:], owner[:]},
		ProgramID,
	)
}

type Kind uint8

const (
	KindCreateFactory Kind = iota
	KindIssueTag
	KindRevokeTag
)

func encode(kind Kind, fields func(w *state.Writer)) []byte {
	var buf bytes.Buffer
	w := state.NewWriter(bin.NewBorshEncoder(&buf))
	w.U8(uint8(kind))
	if fields != nil {
		fields(w)
	}
	return buf.Bytes()
}

// CreateFactory accounts: factory (w, s), authority (s)
func CreateFactory(factory, authority solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(factory).WRITE().SIGNER(),
			solana.Meta(authority).SIGNER(),
		},
		encode(KindCreateFactory, nil),
	)
}

// IssueTag accounts: record (w), factory (w), authority (s), owner
func IssueTag(factory, authority, owner solana.PublicKey) (solana.Instruction, error) {
	record, _, err := RecordAddress(factory, owner)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(record).WRITE(),
			solana.Meta(factory).WRITE(),
			solana.Meta(authority).SIGNER(),
			solana.Meta(owner),
		},
		encode(KindIssueTag, nil),
	), nil
}

// RevokeTag accounts: record (w), factory (w), authority (s)
func RevokeTag(factory, authority, owner solana.PublicKey) (solana.Instruction, error) {
	record, _, err := RecordAddress(factory, owner)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.Meta(record).WRITE(),
			solana.Meta(factory).WRITE(),
			solana.Meta(authority).SIGNER(),
		},
		encode(KindRevokeTag, nil),
	), nil
}
