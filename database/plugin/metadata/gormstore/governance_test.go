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

package gormstore

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/database/types"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDbSeq int

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	testDbSeq++
	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:gormstore-test-%d?mode=memory&cache=shared", testDbSeq)),
		&gorm.Config{Logger: gormlogger.Discard},
	)
	require.NoError(t, err)
	sqlDb, err := db.DB()
	require.NoError(t, err)
	sqlDb.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDb.Close() //nolint:errcheck
	})
	store, err := New(db, nil)
	require.NoError(t, err)
	return store
}

func testAddress(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestProposalUpsertAndQuery(t *testing.T) {
	store := setupTestStore(t)
	gov := testAddress(1)
	otherGov := testAddress(2)

	for i := range uint32(3) {
		require.NoError(t, store.SetProposal(&models.Proposal{
			Address:       testAddress(byte(10 + i)),
			Governance:    gov,
			ProposalIndex: i,
			State:         0,
			DraftAt:       100,
		}, nil))
	}
	require.NoError(t, store.SetProposal(&models.Proposal{
		Address:    testAddress(20),
		Governance: otherGov,
		State:      2,
	}, nil))

	// Move one proposal to Voting
	require.NoError(t, store.SetProposal(&models.Proposal{
		Address:       testAddress(11),
		Governance:    gov,
		ProposalIndex: 1,
		State:         2,
		DraftAt:       999,
		VotingAt:      150,
	}, nil))

	p, err := store.GetProposal(testAddress(11), nil)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, uint8(2), p.State)
	assert.Equal(t, int64(150), p.VotingAt)
	// draft_at is not updated on conflict
	assert.Equal(t, int64(100), p.DraftAt)

	all, err := store.GetProposals(models.ProposalQuery{Governance: gov}, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint32(0), all[0].ProposalIndex)
	assert.Equal(t, uint32(2), all[2].ProposalIndex)

	voting := uint8(2)
	filtered, err := store.GetProposals(
		models.ProposalQuery{Governance: gov, State: &voting},
		nil,
	)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, testAddress(11), filtered[0].Address)

	page, err := store.GetProposals(
		models.ProposalQuery{Governance: gov, Limit: 1, Offset: 1, Descending: true},
		nil,
	)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, uint32(1), page[0].ProposalIndex)

	missing, err := store.GetProposal(testAddress(99), nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProposalOptionsOrdered(t *testing.T) {
	store := setupTestStore(t)
	proposal := testAddress(1)
	for _, idx := range []uint16{2, 0, 1} {
		require.NoError(t, store.SetProposalOption(&models.ProposalOption{
			Address:     testAddress(byte(30 + idx)),
			Proposal:    proposal,
			OptionIndex: idx,
			Deny:        idx == 0,
		}, nil))
	}
	require.NoError(t, store.SetProposalOption(&models.ProposalOption{
		Address:     testAddress(31),
		Proposal:    proposal,
		OptionIndex: 1,
		Weight:      types.Uint64(60),
		VoteResult:  1,
	}, nil))
	opts, err := store.GetProposalOptions(proposal, nil)
	require.NoError(t, err)
	require.Len(t, opts, 3)
	assert.True(t, opts[0].Deny)
	assert.Equal(t, types.Uint64(60), opts[1].Weight)
	assert.Equal(t, uint8(1), opts[1].VoteResult)
}

func TestVotesOwnersDelegations(t *testing.T) {
	store := setupTestStore(t)
	proposal := testAddress(1)
	record := testAddress(2)
	require.NoError(t, store.SetVoteRecord(&models.VoteRecord{
		Address:     testAddress(3),
		Proposal:    proposal,
		OwnerRecord: record,
		Scope:       testAddress(4),
		Options:     "1",
		Weight:      types.Uint64(42),
	}, nil))
	require.NoError(t, store.SetVoteRecord(&models.VoteRecord{
		Address:      testAddress(3),
		Proposal:     proposal,
		OwnerRecord:  record,
		Scope:        testAddress(4),
		Options:      "1",
		Weight:       types.Uint64(42),
		Relinquished: true,
	}, nil))
	votes, err := store.GetVoteRecords(proposal, nil)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.True(t, votes[0].Relinquished)

	owner := testAddress(5)
	require.NoError(t, store.SetOwnerRecord(&models.OwnerRecord{
		Address:    record,
		Governance: testAddress(6),
		Owner:      owner,
		Source:     testAddress(7),
		Amount:     types.Uint64(100),
	}, nil))
	records, err := store.GetOwnerRecordsByOwner(owner, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.Uint64(100), records[0].Amount)

	delegatee := testAddress(8)
	require.NoError(t, store.SetDelegation(&models.Delegation{
		Address:   testAddress(9),
		Delegator: record,
		Delegatee: delegatee,
		Scope:     testAddress(4),
		Amount:    types.Uint64(25),
		Pending:   true,
	}, nil))
	delegations, err := store.GetDelegationsByDelegatee(delegatee, nil)
	require.NoError(t, err)
	require.Len(t, delegations, 1)
	assert.True(t, delegations[0].Pending)
	assert.Equal(t, types.Uint64(25), delegations[0].Amount)

	require.NoError(t, store.DeleteDelegation(testAddress(9), nil))
	delegations, err = store.GetDelegationsByDelegatee(delegatee, nil)
	require.NoError(t, err)
	assert.Empty(t, delegations)
}

func TestTransactionRollback(t *testing.T) {
	store := setupTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.SetScope(&models.Scope{
		Address:              testAddress(1),
		Governance:           testAddress(2),
		ScopeID:              testAddress(3),
		ThresholdNumerator:   1,
		ThresholdDenominator: 2,
	}, txn))
	require.NoError(t, txn.Rollback())
	scope, err := store.GetScope(testAddress(1), nil)
	require.NoError(t, err)
	assert.Nil(t, scope)

	// Finished transactions cannot be reused
	err = store.SetScope(&models.Scope{Address: testAddress(1)}, txn)
	require.Error(t, err)

	txn = store.Transaction()
	require.NoError(t, store.SetScope(&models.Scope{
		Address:              testAddress(1),
		Governance:           testAddress(2),
		ScopeID:              testAddress(3),
		ThresholdDenominator: 2,
	}, txn))
	require.NoError(t, store.SetCommitTimestamp(1234, txn))
	require.NoError(t, txn.Commit())
	scope, err = store.GetScope(testAddress(1), nil)
	require.NoError(t, err)
	require.NotNil(t, scope)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1234), ts)
}

func TestResolveDBWrongType(t *testing.T) {
	store := setupTestStore(t)
	other := setupTestStore(t)
	otherTxn := other.Transaction()
	defer otherTxn.Rollback() //nolint:errcheck
	_, err := store.resolveDB(otherTxn)
	require.Error(t, err)
	_, err = store.resolveDB(fakeTxn{})
	require.ErrorIs(t, err, types.ErrTxnWrongType)
}

type fakeTxn struct{}

func (fakeTxn) Commit() error   { return nil }
func (fakeTxn) Rollback() error { return nil }
