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
	"errors"

	"github.com/blinklabs-io/agora/database/types"
	"gorm.io/gorm"
)

var errTxnFinished = errors.New("transaction already finished")

// gormTxn wraps a GORM transaction and implements types.Txn
type gormTxn struct {
	store    *Store
	db       *gorm.DB
	beginErr error
	finished bool
}

// Transaction starts a new metadata transaction. A failure to begin is
// reported by the first operation using the transaction
func (d *Store) Transaction() types.Txn {
	tx := d.DB().Begin()
	return &gormTxn{
		store:    d,
		db:       tx,
		beginErr: tx.Error,
	}
}

func (t *gormTxn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if t.beginErr != nil {
		return t.beginErr
	}
	return t.db.Commit().Error
}

func (t *gormTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if t.beginErr != nil {
		return nil
	}
	return t.db.Rollback().Error
}

// resolveDB returns the *gorm.DB for the given transaction, or d.DB() if
// txn is nil
func (d *Store) resolveDB(txn types.Txn) (*gorm.DB, error) {
	if txn == nil {
		return d.DB(), nil
	}
	stx, ok := txn.(*gormTxn)
	if !ok || stx == nil {
		return nil, types.ErrTxnWrongType
	}
	if stx.store != d {
		return nil, errors.New("transaction from different store")
	}
	if stx.beginErr != nil {
		return nil, stx.beginErr
	}
	if stx.finished {
		return nil, errTxnFinished
	}
	return stx.db, nil
}
