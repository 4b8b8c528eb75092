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

package tag_test

import (
	"context"
	"testing"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/internal/test/testutil"
	"github.com/blinklabs-io/agora/ledger"
	"github.com/blinklabs-io/agora/tag"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndRevoke(t *testing.T) {
	s, err := ledger.NewState(ledger.StateConfig{Database: testutil.NewDatabase(t)})
	require.NoError(t, err)
	s.RegisterProgram(tag.NewProgram())
	run := func(signers []solana.PublicKey, inst solana.Instruction) error {
		return s.ProcessTransaction(context.Background(), &ledger.Transaction{
			Signers:      signers,
			Instructions: []solana.Instruction{inst},
		})
	}
	outstanding := func(factory solana.PublicKey) uint64 {
		acct, err := s.GetAccount(factory)
		require.NoError(t, err)
		f, err := tag.DecodeFactory(acct.Owner, acct.Data)
		require.NoError(t, err)
		return f.Outstanding
	}

	factory := testutil.NewKey()
	authority := testutil.NewKey()
	owner := testutil.NewKey()
	require.NoError(t, run([]solana.PublicKey{factory, authority}, tag.CreateFactory(factory, authority)))

	issue, err := tag.IssueTag(factory, authority, owner)
	require.NoError(t, err)
	require.ErrorIs(t, run([]solana.PublicKey{owner}, mustSigner(t, issue, owner)), tag.ErrInvalidAuthority)
	require.NoError(t, run([]solana.PublicKey{authority}, issue))
	require.ErrorIs(t, run([]solana.PublicKey{authority}, issue), tag.ErrAlreadyInitialized)
	assert.Equal(t, uint64(1), outstanding(factory))

	recordAddr, _, err := tag.RecordAddress(factory, owner)
	require.NoError(t, err)
	acct, err := s.GetAccount(recordAddr)
	require.NoError(t, err)
	record, err := tag.DecodeRecord(acct.Owner, acct.Data)
	require.NoError(t, err)
	assert.Equal(t, owner, record.Owner)

	revoke, err := tag.RevokeTag(factory, authority, owner)
	require.NoError(t, err)
	require.NoError(t, run([]solana.PublicKey{authority}, revoke))
	assert.Equal(t, uint64(0), outstanding(factory))
	_, err = s.GetAccount(recordAddr)
	require.ErrorIs(t, err, database.ErrAccountNotFound)
}

// mustSigner rewrites the authority slot of a tag instruction to signer
func mustSigner(t *testing.T, inst solana.Instruction, signer solana.PublicKey) solana.Instruction {
	t.Helper()
	data, err := inst.Data()
	require.NoError(t, err)
	accounts := inst.Accounts()
	metas := make(solana.AccountMetaSlice, 0, len(accounts))
	for i, meta := range accounts {
		if i == 2 {
			metas = append(metas, solana.Meta(signer).SIGNER())
			continue
		}
		metas = append(metas, meta)
	}
	return solana.NewInstruction(inst.ProgramID(), metas, data)
}
