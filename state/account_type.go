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

package state

import "fmt"

// AccountType is the leading discriminant byte of every governance account
type AccountType uint8

const (
	AccountTypeUninitialized AccountType = iota
	AccountTypeGovernance
	AccountTypeScope
	AccountTypeTokenOwnerRecord
	AccountTypeTokenOwnerBudgetRecord
	AccountTypeDelegationRecord
	AccountTypeProposal
	AccountTypeProposalOption
	AccountTypeProposalTransaction
	AccountTypeVoteRecord
	AccountTypeSignatoryRecord
)

var accountTypeNames = map[AccountType]string{
	AccountTypeUninitialized:          "Uninitialized",
	AccountTypeGovernance:             "Governance",
	AccountTypeScope:                  "Scope",
	AccountTypeTokenOwnerRecord:       "TokenOwnerRecord",
	AccountTypeTokenOwnerBudgetRecord: "TokenOwnerBudgetRecord",
	AccountTypeDelegationRecord:       "DelegationRecord",
	AccountTypeProposal:               "Proposal",
	AccountTypeProposalOption:         "ProposalOption",
	AccountTypeProposalTransaction:    "ProposalTransaction",
	AccountTypeVoteRecord:             "VoteRecord",
	AccountTypeSignatoryRecord:        "SignatoryRecord",
}

func (t AccountType) String() string {
	if name, ok := accountTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("AccountType(%d)", uint8(t))
}
