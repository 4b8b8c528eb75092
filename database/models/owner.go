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

package models

import (
	"github.com/blinklabs-io/agora/database/types"
)

// OwnerRecord indexes a vote power owner record account
type OwnerRecord struct {
	ID                     uint         `gorm:"primarykey"`
	Address                []byte       `gorm:"uniqueIndex;size:32;not null"`
	Governance             []byte       `gorm:"index;size:32;not null"`
	Owner                  []byte       `gorm:"index;size:32;not null"`
	SourceKind             uint8        // 0 mint, 1 tag
	Source                 []byte       `gorm:"size:32;not null"`
	Amount                 types.Uint64 `gorm:"not null"`
	DelegateeScope         []byte       `gorm:"size:32"`
	UnrelinquishedVotes    uint64
	TotalVotes             uint64
	OutstandingProposals   uint64
	OutstandingDelegations uint64
	UpdatedAt              int64
}

func (OwnerRecord) TableName() string {
	return "owner_record"
}

// Delegation indexes a delegation record account
type Delegation struct {
	ID        uint         `gorm:"primarykey"`
	Address   []byte       `gorm:"uniqueIndex;size:32;not null"`
	Delegator []byte       `gorm:"index;size:32;not null"`
	Delegatee []byte       `gorm:"index;size:32;not null"`
	Scope     []byte       `gorm:"size:32;not null"`
	Amount    types.Uint64 `gorm:"not null"`
	Pending   bool
	UpdatedAt int64
}

func (Delegation) TableName() string {
	return "delegation"
}
