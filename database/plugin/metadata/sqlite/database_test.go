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

package sqlite

import (
	"bytes"
	"testing"
	"time"

	"github.com/blinklabs-io/agora/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoresAreIsolated(t *testing.T) {
	a, err := New("", nil, nil)
	require.NoError(t, err)
	defer a.Close() //nolint:errcheck
	b, err := New("", nil, nil)
	require.NoError(t, err)
	defer b.Close() //nolint:errcheck

	addr := bytes.Repeat([]byte{1}, 32)
	require.NoError(t, a.SetScope(&models.Scope{
		Address:              addr,
		Governance:           addr,
		ScopeID:              addr,
		ThresholdDenominator: 1,
	}, nil))
	scope, err := b.GetScope(addr, nil)
	require.NoError(t, err)
	assert.Nil(t, scope)
}

func TestPersistsToDataDir(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil, nil)
	require.NoError(t, err)
	addr := bytes.Repeat([]byte{2}, 32)
	require.NoError(t, store.SetProposal(&models.Proposal{
		Address:    addr,
		Governance: addr,
		State:      3,
	}, nil))
	require.NoError(t, store.Close())
	// Closing twice is harmless
	require.NoError(t, store.Close())

	store, err = New(dir, nil, nil)
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck
	p, err := store.GetProposal(addr, nil)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, uint8(3), p.State)
}

func TestOptions(t *testing.T) {
	m := &MetadataStoreSqlite{}
	WithDataDir("/tmp/test")(m)
	WithVacuumInterval(time.Minute)(m)
	assert.Equal(t, "/tmp/test", m.dataDir)
	assert.Equal(t, time.Minute, m.vacuumInterval)
}

func TestVacuumSchedule(t *testing.T) {
	mem, err := New("", nil, nil)
	require.NoError(t, err)
	defer mem.Close() //nolint:errcheck
	assert.Nil(t, mem.timerVacuum, "in-memory stores are never vacuumed")

	disabled, err := NewWithOptions(WithDataDir(t.TempDir()))
	require.NoError(t, err)
	defer disabled.Close() //nolint:errcheck
	assert.Nil(t, disabled.timerVacuum)

	store, err := New(t.TempDir(), nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, store.timerVacuum)
	require.NoError(t, store.runVacuum())
	require.NoError(t, store.Close())
	assert.Nil(t, store.timerVacuum)
}
