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

	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func upsertOnAddress(columns ...string) clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns(append(columns, "updated_at")),
	}
}

// SetScope creates or updates a scope index row
func (d *Store) SetScope(
	scope *models.Scope,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := upsertOnAddress(
		"threshold_numerator",
		"threshold_denominator",
		"max_voting_time",
		"hold_up_time",
		"cool_off_time",
		"deleted",
	)
	return db.Clauses(onConflict).Create(scope).Error
}

// GetScope returns the scope indexed at address, or nil if unknown
func (d *Store) GetScope(
	address []byte,
	txn types.Txn,
) (*models.Scope, error) {
	var ret models.Scope
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("address = ?", address).First(&ret); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// SetProposal creates or updates a proposal index row
func (d *Store) SetProposal(
	proposal *models.Proposal,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	// draft_at, proposal_index and creator never change after creation
	onConflict := upsertOnAddress(
		"state",
		"options_count",
		"scopes_count",
		"voting_at",
		"voting_completed_at",
		"closed_at",
	)
	return db.Clauses(onConflict).Create(proposal).Error
}

// GetProposal returns the proposal indexed at address, or nil if unknown
func (d *Store) GetProposal(
	address []byte,
	txn types.Txn,
) (*models.Proposal, error) {
	var ret models.Proposal
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("address = ?", address).First(&ret); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// GetProposals returns proposals matching the query ordered by proposal index
func (d *Store) GetProposals(
	query models.ProposalQuery,
	txn types.Txn,
) ([]models.Proposal, error) {
	var ret []models.Proposal
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	q := db.Model(&models.Proposal{})
	if len(query.Governance) > 0 {
		q = q.Where("governance = ?", query.Governance)
	}
	if query.State != nil {
		q = q.Where("state = ?", *query.State)
	}
	order := "proposal_index ASC, id ASC"
	if query.Descending {
		order = "proposal_index DESC, id DESC"
	}
	q = q.Order(order)
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}
	if query.Offset > 0 {
		q = q.Offset(query.Offset)
	}
	if result := q.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetProposalOption creates or updates a proposal option index row
func (d *Store) SetProposalOption(
	option *models.ProposalOption,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := upsertOnAddress(
		"vote_result",
		"weight",
		"transactions_count",
		"transactions_executed",
	)
	return db.Clauses(onConflict).Create(option).Error
}

// GetProposalOptions returns the options of a proposal in index order
func (d *Store) GetProposalOptions(
	proposal []byte,
	txn types.Txn,
) ([]models.ProposalOption, error) {
	var ret []models.ProposalOption
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	result := db.Where("proposal = ?", proposal).
		Order("option_index ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetVoteRecord creates or updates a vote record index row
func (d *Store) SetVoteRecord(
	vote *models.VoteRecord,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := upsertOnAddress("options", "weight", "relinquished")
	return db.Clauses(onConflict).Create(vote).Error
}

// GetVoteRecords returns the vote records cast on a proposal
func (d *Store) GetVoteRecords(
	proposal []byte,
	txn types.Txn,
) ([]models.VoteRecord, error) {
	var ret []models.VoteRecord
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	result := db.Where("proposal = ?", proposal).Order("id ASC").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetOwnerRecord creates or updates a vote power owner record index row
func (d *Store) SetOwnerRecord(
	record *models.OwnerRecord,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := upsertOnAddress(
		"amount",
		"unrelinquished_votes",
		"total_votes",
		"outstanding_proposals",
		"outstanding_delegations",
	)
	return db.Clauses(onConflict).Create(record).Error
}

// GetOwnerRecordsByOwner returns every record held by the governing owner
func (d *Store) GetOwnerRecordsByOwner(
	owner []byte,
	txn types.Txn,
) ([]models.OwnerRecord, error) {
	var ret []models.OwnerRecord
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	result := db.Where("owner = ?", owner).Order("id ASC").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetDelegation creates or updates a delegation index row
func (d *Store) SetDelegation(
	delegation *models.Delegation,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := upsertOnAddress("amount", "pending")
	return db.Clauses(onConflict).Create(delegation).Error
}

// DeleteDelegation removes the index row of a closed delegation record
func (d *Store) DeleteDelegation(
	address []byte,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Where("address = ?", address).Delete(&models.Delegation{}).Error
}

// GetDelegationsByDelegatee returns the delegations received by a delegatee record
func (d *Store) GetDelegationsByDelegatee(
	delegatee []byte,
	txn types.Txn,
) ([]models.Delegation, error) {
	var ret []models.Delegation
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	result := db.Where("delegatee = ?", delegatee).Order("id ASC").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
