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

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/governance"
	"github.com/blinklabs-io/agora/instruction"
	"github.com/blinklabs-io/agora/internal/test/testutil"
	"github.com/blinklabs-io/agora/ledger"
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerAPI(t *testing.T) *API {
	t.Helper()
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	ls, err := ledger.NewState(ledger.StateConfig{
		Database: testutil.NewDatabase(t),
		EventBus: bus,
	})
	require.NoError(t, err)
	ls.RegisterProgram(governance.New())
	ls.RegisterIndexer(governance.NewIndexer(state.ProgramID, nil))
	return newTestAPI(NewNodeAdapter(ls, state.ProgramID))
}

func createGovernanceTransaction(t *testing.T) (*solana.Transaction, solana.PublicKey) {
	t.Helper()
	payer := solana.NewWallet()
	authority := testutil.NewKey()
	b := instruction.NewBuilder(state.ProgramID)
	seed := testutil.NewKey()
	gov, _, err := b.GovernanceAddress(seed)
	require.NoError(t, err)
	inst, err := b.CreateGovernance(payer.PublicKey(), seed, &authority)
	require.NoError(t, err)
	tx, err := solana.NewTransaction(
		[]solana.Instruction{inst},
		solana.Hash{},
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer.PrivateKey
		}
		return nil
	})
	require.NoError(t, err)
	return tx, gov
}

func TestNewNodeAdapterNil(t *testing.T) {
	assert.Panics(t, func() {
		NewNodeAdapter(nil, state.ProgramID)
	})
}

func TestSubmitThroughLedger(t *testing.T) {
	a := newLedgerAPI(t)
	tx, gov := createGovernanceTransaction(t)

	w := serve(a, submitRequest(t, tx))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(
		t,
		tx.Signatures[0].String(),
		decode[SubmitTransactionResponse](t, w).Signature,
	)

	w = serve(a, httptest.NewRequest(
		http.MethodGet,
		"/api/v0/accounts/"+gov.String(),
		nil,
	))
	require.Equal(t, http.StatusOK, w.Code)
	acct := decode[AccountResponse](t, w)
	assert.Equal(t, state.ProgramID.String(), acct.Owner)
	assert.Equal(t, "Governance", acct.Type)

	// The governance account now exists
	w = serve(a, submitRequest(t, tx))
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[ErrorResponse](t, w)
	require.NotNil(t, resp.Code)
	code, _ := governance.CodeOf(governance.ErrAccountAlreadyInUse)
	assert.Equal(t, uint32(code), *resp.Code)
	require.NotNil(t, resp.Instruction)
	assert.Equal(t, 0, *resp.Instruction)
}

func TestSubmitBadSignature(t *testing.T) {
	a := newLedgerAPI(t)
	tx, gov := createGovernanceTransaction(t)
	tx.Signatures[0][0] ^= 0xff

	w := serve(a, submitRequest(t, tx))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, decode[ErrorResponse](t, w).Code)

	w = serve(a, httptest.NewRequest(
		http.MethodGet,
		"/api/v0/accounts/"+gov.String(),
		nil,
	))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQueriesThroughIndex(t *testing.T) {
	a := newLedgerAPI(t)

	w := serve(a, httptest.NewRequest(
		http.MethodGet,
		"/api/v0/proposals?governance="+testutil.NewKey().String(),
		nil,
	))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-Pagination-Count-Total"))
	assert.Empty(t, decode[[]ProposalResponse](t, w))

	w = serve(a, httptest.NewRequest(
		http.MethodGet,
		"/api/v0/proposals/"+testutil.NewKey().String(),
		nil,
	))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
