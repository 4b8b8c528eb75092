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

package tag

import (
	"fmt"

	"github.com/blinklabs-io/agora/ledger"
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
)

type Program struct{}

func NewProgram() *Program {
	return &Program{}
}

func (p *Program) ProgramID() solana.PublicKey {
	return ProgramID
}

func (p *Program) Process(ctx *ledger.InvokeContext, accounts []*solana.AccountMeta, data []byte) error {
	if len(data) != 1 {
		return ErrInvalidInstruction
	}
	switch Kind(data[0]) {
	case KindCreateFactory:
		if len(accounts) < 2 {
			return ErrInvalidInstruction
		}
		return p.createFactory(ctx, accounts[0].PublicKey, accounts[1].PublicKey)
	case KindIssueTag:
		if len(accounts) < 4 {
			return ErrInvalidInstruction
		}
		return p.issue(ctx, accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey, accounts[3].PublicKey)
	case KindRevokeTag:
		if len(accounts) < 3 {
			return ErrInvalidInstruction
		}
		return p.revoke(ctx, accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey)
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidInstruction, data[0])
	}
}

func (p *Program) store(ctx *ledger.InvokeContext, address solana.PublicKey, v state.Marshaler) error {
	data, err := state.Marshal(v)
	if err != nil {
		return err
	}
	return ctx.SetAccount(address, &ledger.Account{Owner: ProgramID, Data: data})
}

func (p *Program) loadFactory(ctx *ledger.InvokeContext, factory, authority solana.PublicKey) (*Factory, error) {
	acct, err := ctx.Account(factory)
	if err != nil {
		return nil, err
	}
	f, err := DecodeFactory(acct.Owner, acct.Data)
	if err != nil {
		return nil, err
	}
	if !f.Authority.Equals(authority) || !ctx.IsSigner(authority) {
		return nil, ErrInvalidAuthority
	}
	return f, nil
}

func (p *Program) createFactory(ctx *ledger.InvokeContext, factory, authority solana.PublicKey) error {
	acct, err := ctx.Account(factory)
	if err != nil {
		return err
	}
	if !acct.IsEmpty() {
		return ErrAlreadyInitialized
	}
	if !ctx.IsSigner(factory) || !ctx.IsSigner(authority) {
		return ledger.ErrMissingRequiredSignature
	}
	return p.store(ctx, factory, Factory{Authority: authority})
}

func (p *Program) issue(ctx *ledger.InvokeContext, record, factory, authority, owner solana.PublicKey) error {
	f, err := p.loadFactory(ctx, factory, authority)
	if err != nil {
		return err
	}
	expected, _, err := RecordAddress(factory, owner)
	if err != nil {
		return err
	}
	if !expected.Equals(record) {
		return fmt.Errorf("%w: record address", ErrInvalidAccount)
	}
	acct, err := ctx.Account(record)
	if err != nil {
		return err
	}
	if !acct.IsEmpty() {
		return ErrAlreadyInitialized
	}
	f.Outstanding++
	if err := p.store(ctx, record, Record{Factory: factory, Owner: owner}); err != nil {
		return err
	}
	return p.store(ctx, factory, f)
}

func (p *Program) revoke(ctx *ledger.InvokeContext, record, factory, authority solana.PublicKey) error {
	f, err := p.loadFactory(ctx, factory, authority)
	if err != nil {
		return err
	}
	acct, err := ctx.Account(record)
	if err != nil {
		return err
	}
	t, err := DecodeRecord(acct.Owner, acct.Data)
	if err != nil {
		return err
	}
	if !t.Factory.Equals(factory) {
		return fmt.Errorf("%w: record factory", ErrInvalidAccount)
	}
	f.Outstanding--
	if err := ctx.CloseAccount(record); err != nil {
		return err
	}
	return p.store(ctx, factory, f)
}
