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

package governance

import (
	"errors"
	"fmt"
	"testing"

	"github.com/blinklabs-io/agora/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramErrorMatching(t *testing.T) {
	wrapped := &ledger.InstructionError{
		Index: 2,
		Err:   fmt.Errorf("%w: option 3", ErrInvalidVote),
	}
	require.ErrorIs(t, wrapped, ErrInvalidVote)
	assert.NotErrorIs(t, wrapped, ErrVoteAlreadyExists)

	code, ok := CodeOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrorCode(570), code)

	_, ok = CodeOf(errors.New("unrelated"))
	assert.False(t, ok)
}

func TestErrorFromCode(t *testing.T) {
	e, ok := ErrorFromCode(ErrTransactionAlreadyExecuted.Code())
	require.True(t, ok)
	assert.Same(t, ErrTransactionAlreadyExecuted, e)
	assert.Equal(t, "TransactionAlreadyExecuted", e.Name())
	assert.Contains(t, e.Error(), "592")

	_, ok = ErrorFromCode(1)
	assert.False(t, ok)
}

func TestErrorCodesUnique(t *testing.T) {
	names := make(map[string]ErrorCode, len(errorsByCode))
	for code, e := range errorsByCode {
		assert.Equal(t, code, e.Code())
		if prev, ok := names[e.Name()]; ok {
			t.Errorf("error name %s used by codes %d and %d", e.Name(), prev, code)
		}
		names[e.Name()] = code
	}
}
