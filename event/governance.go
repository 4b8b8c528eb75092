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

package event

import (
	"github.com/gagliardetto/solana-go"
)

const (
	ProposalStateEventType EventType = "governance.proposal.state"
	VoteEventType          EventType = "governance.vote"
	DelegationEventType    EventType = "governance.delegation"
	TransactionEventType   EventType = "governance.transaction"
)

// ProposalStateEvent is published when a proposal changes state
type ProposalStateEvent struct {
	Proposal   solana.PublicKey
	Governance solana.PublicKey
	From       string
	To         string
}

// VoteEvent is published when a vote is cast or relinquished
type VoteEvent struct {
	Proposal     solana.PublicKey
	VoteRecord   solana.PublicKey
	OwnerRecord  solana.PublicKey
	Scope        solana.PublicKey
	Options      []uint16
	Weight       uint64
	Relinquished bool
}

// DelegationEvent is published when delegated weight moves or a history
// replay completes
type DelegationEvent struct {
	Delegation solana.PublicKey
	Delegator  solana.PublicKey
	Delegatee  solana.PublicKey
	Scope      solana.PublicKey
	Amount     uint64
	Undelegate bool
	// Replayed is set once the delegator's vote history has been applied
	Replayed bool
}

// TransactionEvent is published when a proposal transaction is executed or
// flagged with an error
type TransactionEvent struct {
	Proposal         solana.PublicKey
	Transaction      solana.PublicKey
	OptionIndex      uint16
	InstructionIndex uint16
	Status           string
}
