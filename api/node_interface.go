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

package api

import (
	"context"
	"errors"

	"github.com/blinklabs-io/agora/database/models"
	"github.com/gagliardetto/solana-go"
)

var (
	// ErrNotFound is returned by a Node when the requested object does
	// not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransaction is returned by a Node when a submitted
	// transaction cannot be decoded or verified
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// Node is the interface the API server uses to reach the ledger and its
// query index. It decouples the HTTP server from the concrete node and
// enables testing with mock implementations.
type Node interface {
	// SubmitTransaction verifies and executes a signed transaction and
	// returns its first signature
	SubmitTransaction(
		ctx context.Context,
		tx *solana.Transaction,
	) (solana.Signature, error)

	// Proposals returns the indexed proposals of a governance, optionally
	// filtered by state, ordered by proposal index
	Proposals(
		governance solana.PublicKey,
		state *uint8,
		descending bool,
	) ([]models.Proposal, error)

	// Proposal returns a proposal with its options
	Proposal(
		address solana.PublicKey,
	) (*models.Proposal, []models.ProposalOption, error)

	// VoteRecords returns the vote records cast on a proposal
	VoteRecords(proposal solana.PublicKey) ([]models.VoteRecord, error)

	// Delegations returns the delegations received by a delegatee record
	Delegations(delegatee solana.PublicKey) ([]models.Delegation, error)

	// Account returns the raw account stored at address
	Account(address solana.PublicKey) (AccountInfo, error)
}

// AccountInfo holds account data needed by the API
type AccountInfo struct {
	Owner solana.PublicKey
	// Type names the governance account type, empty for accounts of
	// other programs
	Type string
	Data []byte
}
