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

// Package token is a minimal fungible token program: mints with a supply
// and token accounts with balances
package token

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/agora/state"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ProgramID is the address the token program is hosted at
var ProgramID = solana.TokenProgramID

var (
	ErrInvalidInstruction = errors.New("invalid token instruction")
	ErrInvalidAccount     = errors.New("invalid token account")
	ErrAlreadyInitialized = errors.New("token account already initialized")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrMintMismatch       = errors.New("token account mint mismatch")
	ErrOwnerMismatch      = errors.New("token account owner mismatch")
	ErrMintAuthority      = errors.New("invalid mint authority")
	ErrOverflow           = errors.New("token amount overflow")
)

type accountType uint8

const (
	accountTypeMint accountType = iota + 1
	accountTypeAccount
)

// Mint is a token definition
type Mint struct {
	Authority *solana.PublicKey
	Supply    uint64
	Decimals  uint8
}

func (m Mint) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.U8(uint8(accountTypeMint))
	w.OptionPubkey(m.Authority)
	w.U64(m.Supply)
	w.U8(m.Decimals)
	return w.Err()
}

func (m *Mint) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	if t := accountType(r.U8()); r.Err() == nil && t != accountTypeMint {
		return fmt.Errorf("%w: not a mint", ErrInvalidAccount)
	}
	m.Authority = r.OptionPubkey()
	m.Supply = r.U64()
	m.Decimals = r.U8()
	return r.Err()
}

// Account holds a balance of one mint controlled by Owner
type Account struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

func (a Account) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.U8(uint8(accountTypeAccount))
	w.Pubkey(a.Mint)
	w.Pubkey(a.Owner)
	w.U64(a.Amount)
	return w.Err()
}

func (a *Account) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	if t := accountType(r.U8()); r.Err() == nil && t != accountTypeAccount {
		return fmt.Errorf("%w: not a token account", ErrInvalidAccount)
	}
	a.Mint = r.Pubkey()
	a.Owner = r.Pubkey()
	a.Amount = r.U64()
	return r.Err()
}

// DecodeMint parses mint account data owned by the token program
func DecodeMint(owner solana.PublicKey, data []byte) (*Mint, error) {
	if !owner.Equals(ProgramID) {
		return nil, fmt.Errorf("%w: owner %s", ErrInvalidAccount, owner)
	}
	var m Mint
	if err := state.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DecodeAccount parses token account data owned by the token program
func DecodeAccount(owner solana.PublicKey, data []byte) (*Account, error) {
	if !owner.Equals(ProgramID) {
		return nil, fmt.Errorf("%w: owner %s", ErrInvalidAccount, owner)
	}
	var a Account
	if err := state.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
