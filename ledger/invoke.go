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

package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/event"
	"github.com/gagliardetto/solana-go"
)

// execution is the state of one transaction in flight
type execution struct {
	ctx      context.Context
	state    *State
	txn      *database.Txn
	now      int64
	signers  map[solana.PublicKey]struct{}
	accounts map[solana.PublicKey]*Account
	dirty    []solana.PublicKey
	dirtySet map[solana.PublicKey]struct{}
	events   []event.Event
}

func newExecution(
	ctx context.Context,
	s *State,
	txn *database.Txn,
	now int64,
	signers []solana.PublicKey,
) *execution {
	e := &execution{
		ctx:      ctx,
		state:    s,
		txn:      txn,
		now:      now,
		signers:  make(map[solana.PublicKey]struct{}, len(signers)),
		accounts: make(map[solana.PublicKey]*Account),
		dirtySet: make(map[solana.PublicKey]struct{}),
	}
	for _, signer := range signers {
		e.signers[signer] = struct{}{}
	}
	return e
}

func (e *execution) load(address solana.PublicKey) (*Account, error) {
	if acct, ok := e.accounts[address]; ok {
		return acct, nil
	}
	stored, err := e.state.config.Database.GetAccount(address[:], e.txn)
	if err != nil {
		if !errors.Is(err, database.ErrAccountNotFound) {
			return nil, fmt.Errorf("load account %s: %w", address, err)
		}
		acct := &Account{}
		e.accounts[address] = acct
		return acct, nil
	}
	acct := &Account{
		Owner: solana.PublicKeyFromBytes(stored.Owner),
		Data:  stored.Data,
	}
	e.accounts[address] = acct
	return acct, nil
}

func (e *execution) store(address solana.PublicKey, acct *Account) {
	e.accounts[address] = acct
	if _, ok := e.dirtySet[address]; !ok {
		e.dirtySet[address] = struct{}{}
		e.dirty = append(e.dirty, address)
	}
}

// flush writes every modified account in modification order
func (e *execution) flush() ([]AccountChange, error) {
	db := e.state.config.Database
	changes := make([]AccountChange, 0, len(e.dirty))
	for _, address := range e.dirty {
		acct := e.accounts[address]
		if acct.IsEmpty() {
			if err := db.DeleteAccount(address[:], e.txn); err != nil {
				return nil, fmt.Errorf("delete account %s: %w", address, err)
			}
		} else {
			err := db.SetAccount(
				&database.Account{
					Address: address.Bytes(),
					Owner:   acct.Owner.Bytes(),
					Data:    acct.Data,
				},
				e.txn,
			)
			if err != nil {
				return nil, fmt.Errorf("store account %s: %w", address, err)
			}
		}
		changes = append(changes, AccountChange{Address: address, Account: acct.clone()})
	}
	return changes, nil
}

func (e *execution) invokeTopLevel(inst solana.Instruction) error {
	for _, meta := range inst.Accounts() {
		if !meta.IsSigner {
			continue
		}
		if _, ok := e.signers[meta.PublicKey]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, meta.PublicKey)
		}
	}
	return e.invoke(inst, 0)
}

func (e *execution) invoke(inst solana.Instruction, depth int) error {
	if depth > e.state.config.MaxCallDepth {
		return ErrCallDepthExceeded
	}
	programID := inst.ProgramID()
	program, ok := e.state.program(programID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, programID)
	}
	data, err := inst.Data()
	if err != nil {
		return err
	}
	accounts := inst.Accounts()
	ctx := &InvokeContext{
		exec:       e,
		programID:  programID,
		depth:      depth,
		privileges: make(map[solana.PublicKey]privilege, len(accounts)),
		logger: e.state.config.Logger.With(
			"program", programID.String(),
			"depth", depth,
		),
	}
	for _, meta := range accounts {
		p := ctx.privileges[meta.PublicKey]
		p.signer = p.signer || meta.IsSigner
		p.writable = p.writable || meta.IsWritable
		ctx.privileges[meta.PublicKey] = p
	}
	return program.Process(ctx, accounts, data)
}

type privilege struct {
	signer   bool
	writable bool
}

// InvokeContext is a program's view of the runtime while it processes one
// instruction
type InvokeContext struct {
	exec       *execution
	programID  solana.PublicKey
	depth      int
	privileges map[solana.PublicKey]privilege
	logger     *slog.Logger
}

func (c *InvokeContext) Context() context.Context {
	return c.exec.ctx
}

func (c *InvokeContext) ProgramID() solana.PublicKey {
	return c.programID
}

// Now is the unix timestamp the transaction executes at
func (c *InvokeContext) Now() int64 {
	return c.exec.now
}

func (c *InvokeContext) Logger() *slog.Logger {
	return c.logger
}

func (c *InvokeContext) IsSigner(address solana.PublicKey) bool {
	return c.privileges[address].signer
}

func (c *InvokeContext) IsWritable(address solana.PublicKey) bool {
	return c.privileges[address].writable
}

// Account returns a copy of an account passed to the instruction. Missing
// accounts are returned empty.
func (c *InvokeContext) Account(address solana.PublicKey) (*Account, error) {
	if _, ok := c.privileges[address]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotProvided, address)
	}
	acct, err := c.exec.load(address)
	if err != nil {
		return nil, err
	}
	return acct.clone(), nil
}

// SetAccount replaces an account. The program must own the account or it
// must be empty, and the new state may only be owned by the program.
// Writing an empty account closes it.
func (c *InvokeContext) SetAccount(address solana.PublicKey, acct *Account) error {
	p, ok := c.privileges[address]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotProvided, address)
	}
	if !p.writable {
		return fmt.Errorf("%w: %s", ErrAccountNotWritable, address)
	}
	current, err := c.exec.load(address)
	if err != nil {
		return err
	}
	if !current.IsEmpty() && !current.Owner.Equals(c.programID) {
		return fmt.Errorf("%w: %s owned by %s", ErrExternalAccountModified, address, current.Owner)
	}
	if !acct.IsEmpty() && !acct.Owner.Equals(c.programID) {
		return fmt.Errorf("%w: cannot assign %s to %s", ErrExternalAccountModified, address, acct.Owner)
	}
	c.exec.store(address, acct.clone())
	return nil
}

// CloseAccount empties an account owned by the program
func (c *InvokeContext) CloseAccount(address solana.PublicKey) error {
	return c.SetAccount(address, &Account{})
}

// Invoke calls another program with a subset of this instruction's
// accounts. Privileges cannot be escalated.
func (c *InvokeContext) Invoke(inst solana.Instruction) error {
	return c.InvokeSigned(inst)
}

// InvokeSigned is Invoke where each seed set signs as the program address
// it derives under the calling program
func (c *InvokeContext) InvokeSigned(inst solana.Instruction, signerSeeds ...[][]byte) error {
	pdaSigners := make(map[solana.PublicKey]struct{}, len(signerSeeds))
	for _, seeds := range signerSeeds {
		address, err := solana.CreateProgramAddress(seeds, c.programID)
		if err != nil {
			return fmt.Errorf("derive signer address: %w", err)
		}
		pdaSigners[address] = struct{}{}
	}
	for _, meta := range inst.Accounts() {
		p, ok := c.privileges[meta.PublicKey]
		if !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotProvided, meta.PublicKey)
		}
		if meta.IsWritable && !p.writable {
			return fmt.Errorf("%w: %s", ErrAccountNotWritable, meta.PublicKey)
		}
		if meta.IsSigner && !p.signer {
			if _, ok := pdaSigners[meta.PublicKey]; !ok {
				return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, meta.PublicKey)
			}
		}
	}
	return c.exec.invoke(inst, c.depth+1)
}

// Emit queues an event for publication after the transaction commits
func (c *InvokeContext) Emit(eventType event.EventType, data any) {
	c.exec.events = append(c.exec.events, event.NewEvent(eventType, data))
}
