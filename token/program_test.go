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

package token_test

import (
	"context"
	"testing"

	"github.com/blinklabs-io/agora/internal/test/testutil"
	"github.com/blinklabs-io/agora/ledger"
	"github.com/blinklabs-io/agora/token"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t     *testing.T
	state *ledger.State
}

func newFixture(t *testing.T) *fixture {
	s, err := ledger.NewState(ledger.StateConfig{Database: testutil.NewDatabase(t)})
	require.NoError(t, err)
	s.RegisterProgram(token.NewProgram())
	return &fixture{t: t, state: s}
}

func (f *fixture) run(signers []solana.PublicKey, insts ...solana.Instruction) error {
	return f.state.ProcessTransaction(context.Background(), &ledger.Transaction{
		Signers:      signers,
		Instructions: insts,
	})
}

func (f *fixture) balance(address solana.PublicKey) uint64 {
	acct, err := f.state.GetAccount(address)
	require.NoError(f.t, err)
	ta, err := token.DecodeAccount(acct.Owner, acct.Data)
	require.NoError(f.t, err)
	return ta.Amount
}

func (f *fixture) supply(address solana.PublicKey) uint64 {
	acct, err := f.state.GetAccount(address)
	require.NoError(f.t, err)
	m, err := token.DecodeMint(acct.Owner, acct.Data)
	require.NoError(f.t, err)
	return m.Supply
}

func TestMintTransferBurn(t *testing.T) {
	f := newFixture(t)
	mint := testutil.NewKey()
	authority := testutil.NewKey()
	alice := testutil.NewKey()
	bob := testutil.NewKey()
	aliceAcct := testutil.NewKey()
	bobAcct := testutil.NewKey()

	require.NoError(t, f.run(
		[]solana.PublicKey{mint, authority, aliceAcct, bobAcct},
		token.InitializeMint(mint, &authority, 6),
		token.InitializeAccount(aliceAcct, mint, alice),
		token.InitializeAccount(bobAcct, mint, bob),
		token.MintTo(mint, aliceAcct, authority, 100),
	))
	assert.Equal(t, uint64(100), f.supply(mint))

	require.NoError(t, f.run([]solana.PublicKey{alice}, token.Transfer(aliceAcct, bobAcct, alice, 30)))
	assert.Equal(t, uint64(70), f.balance(aliceAcct))
	assert.Equal(t, uint64(30), f.balance(bobAcct))

	require.ErrorIs(t, f.run([]solana.PublicKey{alice}, token.Transfer(aliceAcct, bobAcct, alice, 71)), token.ErrInsufficientFunds)
	require.ErrorIs(t, f.run([]solana.PublicKey{bob}, token.Transfer(aliceAcct, bobAcct, bob, 1)), token.ErrOwnerMismatch)

	require.NoError(t, f.run([]solana.PublicKey{bob}, token.Burn(bobAcct, mint, bob, 10)))
	assert.Equal(t, uint64(90), f.supply(mint))
	assert.Equal(t, uint64(20), f.balance(bobAcct))
}

func TestInitializeRequiresSignature(t *testing.T) {
	f := newFixture(t)
	mint := testutil.NewKey()
	require.ErrorIs(t, f.run(nil, token.InitializeMint(mint, nil, 0)), ledger.ErrMissingRequiredSignature)
	require.NoError(t, f.run([]solana.PublicKey{mint}, token.InitializeMint(mint, nil, 0)))
	require.ErrorIs(t, f.run([]solana.PublicKey{mint}, token.InitializeMint(mint, nil, 0)), token.ErrAlreadyInitialized)

	acct := testutil.NewKey()
	require.NoError(t, f.run([]solana.PublicKey{acct}, token.InitializeAccount(acct, mint, testutil.NewKey())))
	// A mint without an authority is fixed supply
	require.ErrorIs(t, f.run([]solana.PublicKey{mint}, token.MintTo(mint, acct, mint, 1)), token.ErrMintAuthority)
}

func TestTransferMintMismatch(t *testing.T) {
	f := newFixture(t)
	mintA, mintB := testutil.NewKey(), testutil.NewKey()
	authority := testutil.NewKey()
	owner := testutil.NewKey()
	a, b := testutil.NewKey(), testutil.NewKey()
	require.NoError(t, f.run(
		[]solana.PublicKey{mintA, mintB, authority, a, b},
		token.InitializeMint(mintA, &authority, 0),
		token.InitializeMint(mintB, &authority, 0),
		token.InitializeAccount(a, mintA, owner),
		token.InitializeAccount(b, mintB, owner),
		token.MintTo(mintA, a, authority, 5),
	))
	require.ErrorIs(t, f.run([]solana.PublicKey{owner}, token.Transfer(a, b, owner, 1)), token.ErrMintMismatch)
}
