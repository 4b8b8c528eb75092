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
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/database/types"
	"github.com/blinklabs-io/agora/governance"
	"github.com/blinklabs-io/agora/internal/test/testutil"
	"github.com/blinklabs-io/agora/ledger"
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockNode implements Node for testing
type mockNode struct {
	proposals     []models.Proposal
	proposal      *models.Proposal
	options       []models.ProposalOption
	votes         []models.VoteRecord
	delegations   []models.Delegation
	account       AccountInfo
	submitErr     error
	queryErr      error
	submitted     *solana.Transaction
	gotGovernance solana.PublicKey
	gotState      *uint8
	gotDescending bool
}

func (m *mockNode) SubmitTransaction(
	_ context.Context,
	tx *solana.Transaction,
) (solana.Signature, error) {
	m.submitted = tx
	if m.submitErr != nil {
		return solana.Signature{}, m.submitErr
	}
	return tx.Signatures[0], nil
}

func (m *mockNode) Proposals(
	governance solana.PublicKey,
	proposalState *uint8,
	descending bool,
) ([]models.Proposal, error) {
	m.gotGovernance = governance
	m.gotState = proposalState
	m.gotDescending = descending
	return m.proposals, m.queryErr
}

func (m *mockNode) Proposal(
	_ solana.PublicKey,
) (*models.Proposal, []models.ProposalOption, error) {
	if m.queryErr != nil {
		return nil, nil, m.queryErr
	}
	if m.proposal == nil {
		return nil, nil, ErrNotFound
	}
	return m.proposal, m.options, nil
}

func (m *mockNode) VoteRecords(
	_ solana.PublicKey,
) ([]models.VoteRecord, error) {
	return m.votes, m.queryErr
}

func (m *mockNode) Delegations(
	_ solana.PublicKey,
) ([]models.Delegation, error) {
	return m.delegations, m.queryErr
}

func (m *mockNode) Account(
	_ solana.PublicKey,
) (AccountInfo, error) {
	if m.queryErr != nil {
		return AccountInfo{}, m.queryErr
	}
	if m.account.Owner.IsZero() {
		return AccountInfo{}, ErrNotFound
	}
	return m.account, nil
}

func newTestAPI(node Node) *API {
	return New(
		Config{
			ListenAddress: "127.0.0.1:0",
		},
		node,
		slog.Default(),
	)
}

func serve(a *API, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var ret T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ret))
	return ret
}

func signedTransaction(t *testing.T) *solana.Transaction {
	t.Helper()
	payer := solana.NewWallet()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			solana.NewInstruction(
				testutil.NewKey(),
				solana.AccountMetaSlice{
					solana.Meta(payer.PublicKey()).WRITE().SIGNER(),
				},
				[]byte{1},
			),
		},
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
	return tx
}

func submitRequest(t *testing.T, tx *solana.Transaction) *http.Request {
	t.Helper()
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)
	body, err := json.Marshal(SubmitTransactionRequest{
		Transaction: base64.StdEncoding.EncodeToString(raw),
	})
	require.NoError(t, err)
	return httptest.NewRequest(
		http.MethodPost,
		"/api/v0/transactions",
		bytes.NewReader(body),
	)
}

func TestStartStop(t *testing.T) {
	a := newTestAPI(&mockNode{})

	require.NoError(t, a.Start(t.Context()))
	a.mu.Lock()
	assert.NotNil(t, a.httpServer)
	a.mu.Unlock()

	resp, err := http.Get(fmt.Sprintf("http://%s/health", a.Addr()))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	err = a.Start(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")

	stopCtx, cancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer cancel()
	require.NoError(t, a.Stop(stopCtx))
	a.mu.Lock()
	assert.Nil(t, a.httpServer)
	a.mu.Unlock()
	http.DefaultClient.CloseIdleConnections()
}

func TestStartPortInUse(t *testing.T) {
	first := newTestAPI(&mockNode{})
	require.NoError(t, first.Start(t.Context()))
	defer func() {
		require.NoError(t, first.Stop(context.Background()))
	}()

	second := New(
		Config{ListenAddress: first.Addr().String()},
		&mockNode{},
		nil,
	)
	err := second.Start(t.Context())
	require.Error(t, err)
	second.mu.Lock()
	assert.Nil(t, second.httpServer)
	second.mu.Unlock()
}

func TestHandleRootAndHealth(t *testing.T) {
	a := newTestAPI(&mockNode{})

	w := serve(a, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	root := decode[RootResponse](t, w)
	assert.Equal(t, "agora", root.Name)
	assert.Equal(t, apiVersion, root.Version)

	w = serve(a, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[HealthResponse](t, w).IsHealthy)

	w = serve(a, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitTransaction(t *testing.T) {
	node := &mockNode{}
	a := newTestAPI(node)
	tx := signedTransaction(t)

	w := serve(a, submitRequest(t, tx))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(
		t,
		tx.Signatures[0].String(),
		decode[SubmitTransactionResponse](t, w).Signature,
	)
	require.NotNil(t, node.submitted)
	assert.Equal(t, tx.Message.AccountKeys, node.submitted.Message.AccountKeys)
}

func TestSubmitTransactionMalformed(t *testing.T) {
	a := newTestAPI(&mockNode{})
	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"not base64", `{"transaction":"***"}`},
		{"not a transaction", `{"transaction":"AQI="}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(a, httptest.NewRequest(
				http.MethodPost,
				"/api/v0/transactions",
				bytes.NewBufferString(tc.body),
			))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode[ErrorResponse](t, w)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Nil(t, resp.Code)
		})
	}
}

func TestSubmitTransactionRejected(t *testing.T) {
	node := &mockNode{
		submitErr: &ledger.InstructionError{
			Index: 2,
			Err:   fmt.Errorf("cast vote: %w", governance.ErrVoteAlreadyExists),
		},
	}
	a := newTestAPI(node)

	w := serve(a, submitRequest(t, signedTransaction(t)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[ErrorResponse](t, w)
	require.NotNil(t, resp.Code)
	code, _ := governance.CodeOf(governance.ErrVoteAlreadyExists)
	assert.Equal(t, uint32(code), *resp.Code)
	require.NotNil(t, resp.Instruction)
	assert.Equal(t, 2, *resp.Instruction)
	assert.Contains(t, resp.Message, "instruction 2")
}

func TestSubmitTransactionNodeFailure(t *testing.T) {
	node := &mockNode{submitErr: errors.New("disk full")}
	a := newTestAPI(node)

	w := serve(a, submitRequest(t, signedTransaction(t)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, decode[ErrorResponse](t, w).Message, "disk full")
}

func TestHandleProposals(t *testing.T) {
	gov := testutil.NewKey()
	node := &mockNode{}
	for i := range 5 {
		node.proposals = append(node.proposals, models.Proposal{
			Address:       testutil.NewKey().Bytes(),
			Governance:    gov.Bytes(),
			State:         uint8(state.ProposalStateVoting),
			ProposalIndex: uint32(i),
		})
	}
	a := newTestAPI(node)

	w := serve(a, httptest.NewRequest(
		http.MethodGet,
		"/api/v0/proposals?governance="+gov.String()+"&state=Voting&count=2&page=3&order=desc",
		nil,
	))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "3", w.Header().Get("X-Pagination-Page-Total"))
	resp := decode[[]ProposalResponse](t, w)
	require.Len(t, resp, 1)
	assert.Equal(t, uint32(4), resp[0].ProposalIndex)
	assert.Equal(t, "Voting", resp[0].State)
	assert.Equal(t, gov.String(), resp[0].Governance)
	assert.Empty(t, resp[0].Creator)

	assert.Equal(t, gov, node.gotGovernance)
	require.NotNil(t, node.gotState)
	assert.Equal(t, uint8(state.ProposalStateVoting), *node.gotState)
	assert.True(t, node.gotDescending)

	w = serve(a, httptest.NewRequest(http.MethodGet, "/api/v0/proposals?state=4", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, node.gotState)
	assert.Equal(t, uint8(state.ProposalStateDefeated), *node.gotState)
	assert.True(t, node.gotGovernance.IsZero())
}

func TestHandleProposalsBadQuery(t *testing.T) {
	a := newTestAPI(&mockNode{})
	for _, query := range []string{
		"governance=notakey",
		"state=Pending",
		"count=x",
		"order=sideways",
	} {
		w := serve(a, httptest.NewRequest(
			http.MethodGet,
			"/api/v0/proposals?"+query,
			nil,
		))
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}

	a = newTestAPI(&mockNode{queryErr: errors.New("boom")})
	w := serve(a, httptest.NewRequest(http.MethodGet, "/api/v0/proposals", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleProposal(t *testing.T) {
	address := testutil.NewKey()
	node := &mockNode{
		proposal: &models.Proposal{
			Address:      address.Bytes(),
			Governance:   testutil.NewKey().Bytes(),
			State:        uint8(state.ProposalStateSucceeded),
			OptionsCount: 2,
		},
		options: []models.ProposalOption{
			{
				Address:     testutil.NewKey().Bytes(),
				OptionIndex: 0,
				Label:       "yes",
				VoteResult:  uint8(state.OptionVoteResultSucceeded),
				Weight:      types.Uint64(60),
			},
			{
				Address:     testutil.NewKey().Bytes(),
				OptionIndex: 1,
				Deny:        true,
				VoteResult:  uint8(state.OptionVoteResultDefeated),
				Weight:      types.Uint64(30),
			},
		},
	}
	a := newTestAPI(node)

	w := serve(a, httptest.NewRequest(
		http.MethodGet,
		"/api/v0/proposals/"+address.String(),
		nil,
	))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ProposalResponse](t, w)
	assert.Equal(t, address.String(), resp.Address)
	assert.Equal(t, "Succeeded", resp.State)
	require.Len(t, resp.Options, 2)
	assert.Equal(t, "yes", resp.Options[0].Label)
	assert.Equal(t, "Succeeded", resp.Options[0].VoteResult)
	assert.Equal(t, uint64(60), resp.Options[0].Weight)
	assert.True(t, resp.Options[1].Deny)
	assert.Equal(t, "Defeated", resp.Options[1].VoteResult)

	node.proposal = nil
	w = serve(a, httptest.NewRequest(
		http.MethodGet,
		"/api/v0/proposals/"+address.String(),
		nil,
	))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(a, httptest.NewRequest(http.MethodGet, "/api/v0/proposals/xyz", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleProposalVotes(t *testing.T) {
	record := testutil.NewKey()
	node := &mockNode{
		votes: []models.VoteRecord{
			{
				Address:     testutil.NewKey().Bytes(),
				OwnerRecord: record.Bytes(),
				Scope:       testutil.NewKey().Bytes(),
				Options:     "0,2",
				Weight:      types.Uint64(40),
			},
			{
				Address:      testutil.NewKey().Bytes(),
				OwnerRecord:  testutil.NewKey().Bytes(),
				Scope:        testutil.NewKey().Bytes(),
				Relinquished: true,
			},
		},
	}
	a := newTestAPI(node)

	w := serve(a, httptest.NewRequest(
		http.MethodGet,
		"/api/v0/proposals/"+testutil.NewKey().String()+"/votes",
		nil,
	))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-Pagination-Count-Total"))
	resp := decode[[]VoteRecordResponse](t, w)
	require.Len(t, resp, 2)
	assert.Equal(t, record.String(), resp[0].OwnerRecord)
	assert.Equal(t, []uint16{0, 2}, resp[0].Options)
	assert.Equal(t, uint64(40), resp[0].Weight)
	assert.Empty(t, resp[1].Options)
	assert.True(t, resp[1].Relinquished)
}

func TestHandleDelegations(t *testing.T) {
	delegatee := testutil.NewKey()
	node := &mockNode{
		delegations: []models.Delegation{
			{
				Address:   testutil.NewKey().Bytes(),
				Delegator: testutil.NewKey().Bytes(),
				Delegatee: delegatee.Bytes(),
				Scope:     testutil.NewKey().Bytes(),
				Amount:    types.Uint64(30),
				Pending:   true,
			},
		},
	}
	a := newTestAPI(node)

	w := serve(a, httptest.NewRequest(
		http.MethodGet,
		"/api/v0/delegatees/"+delegatee.String()+"/delegations",
		nil,
	))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[[]DelegationResponse](t, w)
	require.Len(t, resp, 1)
	assert.Equal(t, delegatee.String(), resp[0].Delegatee)
	assert.Equal(t, uint64(30), resp[0].Amount)
	assert.True(t, resp[0].Pending)

	node.delegations = nil
	w = serve(a, httptest.NewRequest(
		http.MethodGet,
		"/api/v0/delegatees/"+delegatee.String()+"/delegations",
		nil,
	))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestHandleAccount(t *testing.T) {
	address := testutil.NewKey()
	owner := testutil.NewKey()
	node := &mockNode{
		account: AccountInfo{
			Owner: owner,
			Type:  "Proposal",
			Data:  []byte{6, 1, 2},
		},
	}
	a := newTestAPI(node)

	w := serve(a, httptest.NewRequest(
		http.MethodGet,
		"/api/v0/accounts/"+address.String(),
		nil,
	))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[AccountResponse](t, w)
	assert.Equal(t, address.String(), resp.Address)
	assert.Equal(t, owner.String(), resp.Owner)
	assert.Equal(t, "Proposal", resp.Type)
	assert.Equal(t, "BgEC", resp.Data)

	node.account = AccountInfo{}
	w = serve(a, httptest.NewRequest(
		http.MethodGet,
		"/api/v0/accounts/"+address.String(),
		nil,
	))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
