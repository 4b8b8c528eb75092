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
	"bytes"

	"github.com/gagliardetto/solana-go"
)

// Account is an owned blob of program data. An account with a zero owner
// and no data does not exist.
type Account struct {
	Owner solana.PublicKey
	Data  []byte
}

func (a *Account) IsEmpty() bool {
	return a == nil || (a.Owner.IsZero() && len(a.Data) == 0)
}

func (a *Account) clone() *Account {
	if a == nil {
		return &Account{}
	}
	return &Account{Owner: a.Owner, Data: bytes.Clone(a.Data)}
}

// AccountChange is an account written by a committed transaction. Closed
// accounts have an empty Account.
type AccountChange struct {
	Address solana.PublicKey
	Account *Account
}

func (c AccountChange) Closed() bool {
	return c.Account.IsEmpty()
}
