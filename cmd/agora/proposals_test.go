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

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/blinklabs-io/agora/api"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/internal/test/testutil"
	"github.com/blinklabs-io/agora/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalQuery(t *testing.T) {
	gov := testutil.NewKey()
	query, err := proposalQuery(gov.String(), "Voting", 5, true)
	require.NoError(t, err)
	assert.Equal(t, gov.Bytes(), query.Governance)
	require.NotNil(t, query.State)
	assert.Equal(t, uint8(state.ProposalStateVoting), *query.State)
	assert.Equal(t, 5, query.Limit)
	assert.True(t, query.Descending)

	query, err = proposalQuery("", "3", 0, false)
	require.NoError(t, err)
	assert.Nil(t, query.Governance)
	require.NotNil(t, query.State)
	assert.Equal(t, uint8(3), *query.State)

	query, err = proposalQuery("", "", 0, false)
	require.NoError(t, err)
	assert.Nil(t, query.State)

	_, err = proposalQuery("bogus", "", 0, false)
	require.Error(t, err)
	_, err = proposalQuery("", "Pending", 0, false)
	require.Error(t, err)
}

func TestWriteProposals(t *testing.T) {
	db := testutil.NewDatabase(t)
	gov := testutil.NewKey()
	for i, s := range []state.ProposalState{state.ProposalStateDraft, state.ProposalStateVoting} {
		require.NoError(t, db.Metadata().SetProposal(&models.Proposal{
			Address:       testutil.NewKey().Bytes(),
			Governance:    gov.Bytes(),
			State:         uint8(s),
			ProposalIndex: uint32(i), // #nosec G115
			Creator:       testutil.NewKey().Bytes(),
			OwnerRecord:   testutil.NewKey().Bytes(),
		}, nil))
	}

	var buf bytes.Buffer
	query, err := proposalQuery(gov.String(), "Voting", 0, false)
	require.NoError(t, err)
	require.NoError(t, writeProposals(&buf, db, query))
	var resp api.ProposalResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "Voting", resp.State)
	assert.Equal(t, gov.String(), resp.Governance)
	assert.Equal(t, uint32(1), resp.ProposalIndex)

	buf.Reset()
	query, err = proposalQuery(testutil.NewKey().String(), "", 0, false)
	require.NoError(t, err)
	require.NoError(t, writeProposals(&buf, db, query))
	assert.Empty(t, buf.String())
}
