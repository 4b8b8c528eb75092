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
	"errors"
	"fmt"
)

var (
	ErrMissingRequiredSignature = errors.New("missing required signature")
	ErrAccountNotWritable       = errors.New("account not writable")
	ErrAccountNotProvided       = errors.New("account not provided to instruction")
	ErrExternalAccountModified  = errors.New("instruction modified an account it does not own")
	ErrUnknownProgram           = errors.New("unknown program")
	ErrCallDepthExceeded        = errors.New("cross-program invocation depth exceeded")
	ErrEmptyTransaction         = errors.New("transaction has no instructions")
	ErrUnsupportedTransaction   = errors.New("unsupported transaction")
)

// InstructionError wraps the failure of one instruction in a transaction
type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d: %s", e.Index, e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}
