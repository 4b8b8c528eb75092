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

// VoteRecord indexes a vote record account
type VoteRecord struct {
	ID           uint         `gorm:"primarykey"`
	Address      []byte       `gorm:"uniqueIndex;size:32;not null"`
	Proposal     []byte       `gorm:"index;size:32;not null"`
	OwnerRecord  []byte       `gorm:"index;size:32;not null"`
	Scope        []byte       `gorm:"size:32;not null"`
	Options      string       // comma separated option indexes
	Weight       types.Uint64 `gorm:"not null"`
	Relinquished bool
	UpdatedAt    int64
}

func (VoteRecord) TableName() string {
	return "vote_record"
}
