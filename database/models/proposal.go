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

// Proposal indexes a proposal account
type Proposal struct {
	ID                uint   `gorm:"primarykey"`
	Address           []byte `gorm:"uniqueIndex;size:32;not null"`
	Governance        []byte `gorm:"index:idx_proposal_governance_state,priority:1;size:32;not null"`
	State             uint8  `gorm:"index:idx_proposal_governance_state,priority:2;not null"`
	ProposalIndex     uint32
	Creator           []byte `gorm:"index;size:32"`
	OwnerRecord       []byte `gorm:"size:32"`
	VoteType          uint8
	OptionsCount      uint16
	ScopesCount       uint16
	DraftAt           int64
	VotingAt          int64
	VotingCompletedAt int64
	ClosedAt          int64
	UpdatedAt         int64
}

func (Proposal) TableName() string {
	return "proposal"
}

// ProposalQuery filters proposal lookups. Nil or empty fields match all
type ProposalQuery struct {
	Governance []byte
	State      *uint8
	Limit      int
	Offset     int
	Descending bool
}

// ProposalOption indexes a proposal option account
type ProposalOption struct {
	ID                   uint   `gorm:"primarykey"`
	Address              []byte `gorm:"uniqueIndex;size:32;not null"`
	Proposal             []byte `gorm:"index;size:32;not null"`
	OptionIndex          uint16
	Label                string
	Deny                 bool
	VoteResult           uint8
	Weight               types.Uint64
	TransactionsCount    uint16
	TransactionsExecuted uint16
	UpdatedAt            int64
}

func (ProposalOption) TableName() string {
	return "proposal_option"
}
