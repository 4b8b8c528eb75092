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

package token

import (
	"fmt"
	"math/bits"

	"github.com/blinklabs-io/agora/ledger"
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
)

// Program implements ledger.Program
type Program struct{}

func NewProgram() *Program {
	return &Program{}
}

func (p *Program) ProgramID() solana.PublicKey {
	return ProgramID
}

func (p *Program) Process(ctx *ledger.InvokeContext, accounts []*solana.AccountMeta, data []byte) error {
	var ix Instruction
	if err := state.Unmarshal(data, &ix); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInstruction, err)
	}
	need := map[Kind]int{
		KindInitializeMint:    1,
		KindInitializeAccount: 2,
		KindMintTo:            3,
		KindTransfer:          3,
		KindBurn:              3,
	}[ix.Kind]
	if len(accounts) < need {
		return fmt.Errorf("%w: expected %d accounts", ErrInvalidInstruction, need)
	}
	switch ix.Kind {
	case KindInitializeMint:
		return p.initializeMint(ctx, accounts[0].PublicKey, ix)
	case KindInitializeAccount:
		return p.initializeAccount(ctx, accounts[0].PublicKey, accounts[1].PublicKey, ix.Owner)
	case KindMintTo:
		return p.mintTo(ctx, accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey, ix.Amount)
	case KindTransfer:
		return p.transfer(ctx, accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey, ix.Amount)
	case KindBurn:
		return p.burn(ctx, accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey, ix.Amount)
	}
	return ErrInvalidInstruction
}

func (p *Program) claim(ctx *ledger.InvokeContext, address solana.PublicKey) error {
	acct, err := ctx.Account(address)
	if err != nil {
		return err
	}
	if !acct.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, address)
	}
	if !ctx.IsSigner(address) {
		return fmt.Errorf("%w: %s", ledger.ErrMissingRequiredSignature, address)
	}
	return nil
}

func (p *Program) store(ctx *ledger.InvokeContext, address solana.PublicKey, v state.Marshaler) error {
	data, err := state.Marshal(v)
	if err != nil {
		return err
	}
	return ctx.SetAccount(address, &ledger.Account{Owner: ProgramID, Data: data})
}

func (p *Program) loadMint(ctx *ledger.InvokeContext, address solana.PublicKey) (*Mint, error) {
	acct, err := ctx.Account(address)
	if err != nil {
		return nil, err
	}
	return DecodeMint(acct.Owner, acct.Data)
}

func (p *Program) loadAccount(ctx *ledger.InvokeContext, address solana.PublicKey) (*Account, error) {
	acct, err := ctx.Account(address)
	if err != nil {
		return nil, err
	}
	return DecodeAccount(acct.Owner, acct.Data)
}

func (p *Program) initializeMint(ctx *ledger.InvokeContext, mint solana.PublicKey, ix Instruction) error {
	if err := p.claim(ctx, mint); err != nil {
		return err
	}
	return p.store(ctx, mint, Mint{Authority: ix.Authority, Decimals: ix.Decimals})
}

func (p *Program) initializeAccount(ctx *ledger.InvokeContext, account, mint, owner solana.PublicKey) error {
	if err := p.claim(ctx, account); err != nil {
		return err
	}
	if _, err := p.loadMint(ctx, mint); err != nil {
		return err
	}
	return p.store(ctx, account, Account{Mint: mint, Owner: owner})
}

func (p *Program) mintTo(ctx *ledger.InvokeContext, mintAddr, dest, authority solana.PublicKey, amount uint64) error {
	mint, err := p.loadMint(ctx, mintAddr)
	if err != nil {
		return err
	}
	if mint.Authority == nil || !mint.Authority.Equals(authority) || !ctx.IsSigner(authority) {
		return ErrMintAuthority
	}
	acct, err := p.loadAccount(ctx, dest)
	if err != nil {
		return err
	}
	if !acct.Mint.Equals(mintAddr) {
		return ErrMintMismatch
	}
	var carry uint64
	if mint.Supply, carry = bits.Add64(mint.Supply, amount, 0); carry != 0 {
		return ErrOverflow
	}
	// Balance cannot overflow when supply did not
	acct.Amount += amount
	if err := p.store(ctx, mintAddr, mint); err != nil {
		return err
	}
	return p.store(ctx, dest, acct)
}

func (p *Program) transfer(ctx *ledger.InvokeContext, source, dest, owner solana.PublicKey, amount uint64) error {
	src, err := p.loadAccount(ctx, source)
	if err != nil {
		return err
	}
	if !src.Owner.Equals(owner) || !ctx.IsSigner(owner) {
		return ErrOwnerMismatch
	}
	if src.Amount < amount {
		return ErrInsufficientFunds
	}
	dst, err := p.loadAccount(ctx, dest)
	if err != nil {
		return err
	}
	if !dst.Mint.Equals(src.Mint) {
		return ErrMintMismatch
	}
	if source.Equals(dest) {
		return nil
	}
	src.Amount -= amount
	var carry uint64
	if dst.Amount, carry = bits.Add64(dst.Amount, amount, 0); carry != 0 {
		return ErrOverflow
	}
	if err := p.store(ctx, source, src); err != nil {
		return err
	}
	return p.store(ctx, dest, dst)
}

func (p *Program) burn(ctx *ledger.InvokeContext, source, mintAddr, owner solana.PublicKey, amount uint64) error {
	src, err := p.loadAccount(ctx, source)
	if err != nil {
		return err
	}
	if !src.Owner.Equals(owner) || !ctx.IsSigner(owner) {
		return ErrOwnerMismatch
	}
	if !src.Mint.Equals(mintAddr) {
		return ErrMintMismatch
	}
	if src.Amount < amount {
		return ErrInsufficientFunds
	}
	mint, err := p.loadMint(ctx, mintAddr)
	if err != nil {
		return err
	}
	src.Amount -= amount
	mint.Supply -= amount
	if err := p.store(ctx, source, src); err != nil {
		return err
	}
	return p.store(ctx, mintAddr, mint)
}
