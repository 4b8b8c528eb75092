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
	"fmt"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/ledger"
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
)

// NodeAdapter wraps a ledger State to implement the Node interface
type NodeAdapter struct {
	ledgerState *ledger.State
	programID   solana.PublicKey
}

// NewNodeAdapter creates a NodeAdapter backed by ls. Accounts owned by
// programID are reported with their governance account type. Panics if ls
// is nil.
func NewNodeAdapter(
	ls *ledger.State,
	programID solana.PublicKey,
) *NodeAdapter {
	if ls == nil {
		panic("NewNodeAdapter: State must not be nil")
	}
	return &NodeAdapter{ledgerState: ls, programID: programID}
}

func (a *NodeAdapter) SubmitTransaction(
	ctx context.Context,
	tx *solana.Transaction,
) (solana.Signature, error) {
	ltx, err := ledger.TransactionFromSolana(tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	if err := a.ledgerState.ProcessTransaction(ctx, ltx); err != nil {
		return solana.Signature{}, err
	}
	return tx.Signatures[0], nil
}

func (a *NodeAdapter) Proposals(
	governance solana.PublicKey,
	proposalState *uint8,
	descending bool,
) ([]models.Proposal, error) {
	var gov []byte
	if !governance.IsZero() {
		gov = governance.Bytes()
	}
	return a.ledgerState.Database().GetProposals(
		models.ProposalQuery{
			Governance: gov,
			State:      proposalState,
			Descending: descending,
		},
		nil,
	)
}

func (a *NodeAdapter) Proposal(
	address solana.PublicKey,
) (*models.Proposal, []models.ProposalOption, error) {
	db := a.ledgerState.Database()
	proposal, err := db.GetProposal(address.Bytes(), nil)
	if err != nil {
		return nil, nil, err
	}
	if proposal == nil {
		return nil, nil, fmt.Errorf("%w: proposal %s", ErrNotFound, address)
	}
	options, err := db.GetProposalOptions(address.Bytes(), nil)
	if err != nil {
		return nil, nil, err
	}
	return proposal, options, nil
}

func (a *NodeAdapter) VoteRecords(
	proposal solana.PublicKey,
) ([]models.VoteRecord, error) {
	return a.ledgerState.Database().GetVoteRecords(proposal.Bytes(), nil)
}

func (a *NodeAdapter) Delegations(
	delegatee solana.PublicKey,
) ([]models.Delegation, error) {
	return a.ledgerState.Database().GetDelegationsByDelegatee(
		delegatee.Bytes(),
		nil,
	)
}

func (a *NodeAdapter) Account(
	address solana.PublicKey,
) (AccountInfo, error) {
	acct, err := a.ledgerState.GetAccount(address)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			return AccountInfo{}, fmt.Errorf("%w: account %s", ErrNotFound, address)
		}
		return AccountInfo{}, err
	}
	info := AccountInfo{Owner: acct.Owner, Data: acct.Data}
	if acct.Owner.Equals(a.programID) {
		info.Type = state.PeekAccountType(acct.Data).String()
	}
	return info, nil
}
