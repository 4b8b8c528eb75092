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
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/database/types"
)

// metadataTxn returns the metadata handle of txn, or nil to use the store
// outside of a transaction
func metadataTxn(txn *Txn) types.Txn {
	if txn == nil {
		return nil
	}
	return txn.Metadata()
}

func (d *Database) GetProposal(address []byte, txn *Txn) (*models.Proposal, error) {
	return d.metadata.GetProposal(address, metadataTxn(txn))
}

func (d *Database) GetProposals(
	query models.ProposalQuery,
	txn *Txn,
) ([]models.Proposal, error) {
	return d.metadata.GetProposals(query, metadataTxn(txn))
}

func (d *Database) GetProposalOptions(
	proposal []byte,
	txn *Txn,
) ([]models.ProposalOption, error) {
	return d.metadata.GetProposalOptions(proposal, metadataTxn(txn))
}

func (d *Database) GetVoteRecords(
	proposal []byte,
	txn *Txn,
) ([]models.VoteRecord, error) {
	return d.metadata.GetVoteRecords(proposal, metadataTxn(txn))
}

func (d *Database) GetOwnerRecordsByOwner(
	owner []byte,
	txn *Txn,
) ([]models.OwnerRecord, error) {
	return d.metadata.GetOwnerRecordsByOwner(owner, metadataTxn(txn))
}

func (d *Database) GetDelegationsByDelegatee(
	delegatee []byte,
	txn *Txn,
) ([]models.Delegation, error) {
	return d.metadata.GetDelegationsByDelegatee(delegatee, metadataTxn(txn))
}

func (d *Database) GetScope(address []byte, txn *Txn) (*models.Scope, error) {
	return d.metadata.GetScope(address, metadataTxn(txn))
}
