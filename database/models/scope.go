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

// Scope indexes a scope account
type Scope struct {
	ID                   uint   `gorm:"primarykey"`
	Address              []byte `gorm:"uniqueIndex;size:32;not null"`
	Governance           []byte `gorm:"index;size:32;not null"`
	ScopeID              []byte `gorm:"size:32;not null"`
	ThresholdNumerator   uint64
	ThresholdDenominator uint64
	MaxVotingTime        int64
	HoldUpTime           int64
	CoolOffTime          int64
	Deleted              bool
	UpdatedAt            int64
}

func (Scope) TableName() string {
	return "scope"
}
