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
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Transaction is an ordered list of instructions executed atomically
type Transaction struct {
	Signers      []solana.PublicKey
	Instructions []solana.Instruction
	// Timestamp is the unix time the transaction executes at. Zero uses
	// the runtime clock.
	Timestamp int64
}

// TransactionFromSolana verifies the signatures of a signed transaction
// and maps its compiled instructions onto runtime instructions
func TransactionFromSolana(tx *solana.Transaction) (*Transaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: nil transaction", ErrUnsupportedTransaction)
	}
	msg := tx.Message
	if len(msg.AddressTableLookups) > 0 {
		return nil, fmt.Errorf("%w: address table lookups", ErrUnsupportedTransaction)
	}
	if err := tx.VerifySignatures(); err != nil {
		return nil, fmt.Errorf("verify signatures: %w", err)
	}
	keys := msg.AccountKeys
	numSigners := int(msg.Header.NumRequiredSignatures)
	if numSigners > len(keys) {
		return nil, fmt.Errorf("%w: header requires %d signers with %d keys", ErrUnsupportedTransaction, numSigners, len(keys))
	}
	writable := func(idx int) bool {
		if idx < numSigners {
			return idx < numSigners-int(msg.Header.NumReadonlySignedAccounts)
		}
		return idx < len(keys)-int(msg.Header.NumReadonlyUnsignedAccounts)
	}
	ret := &Transaction{
		Signers: append([]solana.PublicKey(nil), keys[:numSigners]...),
	}
	for i, compiled := range msg.Instructions {
		if int(compiled.ProgramIDIndex) >= len(keys) {
			return nil, fmt.Errorf("instruction %d: program index out of range", i)
		}
		metas := make(solana.AccountMetaSlice, 0, len(compiled.Accounts))
		for _, accountIdx := range compiled.Accounts {
			idx := int(accountIdx)
			if idx >= len(keys) {
				return nil, fmt.Errorf("instruction %d: account index out of range", i)
			}
			metas = append(metas, solana.NewAccountMeta(keys[idx], writable(idx), idx < numSigners))
		}
		ret.Instructions = append(
			ret.Instructions,
			solana.NewInstruction(keys[compiled.ProgramIDIndex], metas, compiled.Data),
		)
	}
	return ret, nil
}
