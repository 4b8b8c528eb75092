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

package database

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/blinklabs-io/agora/database/types"
)

var ErrAccountNotFound = errors.New("account not found")

// Account is the stored form of a program account. The blob value is the
// 32-byte owner followed by the account data
type Account struct {
	Address []byte
	Owner   []byte
	Data    []byte
}

func decodeAccount(address, val []byte) (*Account, error) {
	if len(val) < types.AccountKeyLength {
		return nil, fmt.Errorf(
			"account %x: stored value too short (%d bytes)",
			address,
			len(val),
		)
	}
	return &Account{
		Address: slices.Clone(address),
		Owner:   slices.Clone(val[:types.AccountKeyLength]),
		Data:    slices.Clone(val[types.AccountKeyLength:]),
	}, nil
}

// GetAccount returns the account stored at address, or ErrAccountNotFound
func (d *Database) GetAccount(address []byte, txn *Txn) (*Account, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	val, err := d.Blob().Get(txn.Blob(), types.AccountBlobKey(address))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return decodeAccount(address, val)
}

// SetAccount stores an account
func (d *Database) SetAccount(account *Account, txn *Txn) error {
	if len(account.Address) != types.AccountKeyLength ||
		len(account.Owner) != types.AccountKeyLength {
		return types.ErrInvalidAccountKey
	}
	owned := txn == nil
	if owned {
		txn = NewBlobOnlyTxn(d, true)
		defer txn.Release()
	}
	val := slices.Concat(account.Owner, account.Data)
	if err := d.Blob().Set(txn.Blob(), types.AccountBlobKey(account.Address), val); err != nil {
		return err
	}
	if owned {
		return txn.Commit()
	}
	return nil
}

// DeleteAccount removes the account at address
func (d *Database) DeleteAccount(address []byte, txn *Txn) error {
	owned := txn == nil
	if owned {
		txn = NewBlobOnlyTxn(d, true)
		defer txn.Release()
	}
	if err := d.Blob().Delete(txn.Blob(), types.AccountBlobKey(address)); err != nil {
		return err
	}
	if owned {
		return txn.Commit()
	}
	return nil
}

// AccountsByOwner scans every stored account and returns those owned by
// owner, in address order
func (d *Database) AccountsByOwner(owner []byte, txn *Txn) ([]*Account, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	prefix := []byte(types.AccountBlobKeyPrefix)
	iter := d.Blob().NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix},
	)
	defer iter.Close()
	var ret []*Account
	for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
		item := iter.Item()
		address, err := types.AccountAddressFromBlobKey(item.Key())
		if err != nil {
			// Not an account key
			continue
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		if len(val) < types.AccountKeyLength ||
			!bytes.Equal(val[:types.AccountKeyLength], owner) {
			continue
		}
		acct, err := decodeAccount(address, val)
		if err != nil {
			return nil, err
		}
		ret = append(ret, acct)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}
