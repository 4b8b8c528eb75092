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

package governance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/database/types"
	"github.com/blinklabs-io/agora/ledger"
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
)

// Indexer mirrors governance accounts into the metadata store so proposals,
// votes and delegations can be queried without decoding raw accounts
type Indexer struct {
	programID solana.PublicKey
	clock     func() time.Time
}

func NewIndexer(programID solana.PublicKey, clock func() time.Time) *Indexer {
	if clock == nil {
		clock = time.Now
	}
	return &Indexer{programID: programID, clock: clock}
}

// IndexAccounts implements ledger.AccountIndexer
func (i *Indexer) IndexAccounts(txn *database.Txn, changes []ledger.AccountChange) error {
	store := txn.DB().Metadata()
	mtxn := txn.Metadata()
	now := i.clock().Unix()
	for _, change := range changes {
		addr := change.Address.Bytes()
		if change.Closed() {
			// Delegation records are the only indexed accounts that close
			if err := store.DeleteDelegation(addr, mtxn); err != nil {
				return err
			}
			continue
		}
		if !change.Account.Owner.Equals(i.programID) || len(change.Account.Data) == 0 {
			continue
		}
		var err error
		switch state.AccountType(change.Account.Data[0]) {
		case state.AccountTypeScope:
			var v state.Scope
			if err = state.Unmarshal(change.Account.Data, &v); err == nil {
				err = store.SetScope(scopeModel(addr, &v, now), mtxn)
			}
		case state.AccountTypeProposal:
			var v state.ProposalV2
			if err = state.Unmarshal(change.Account.Data, &v); err == nil {
				err = store.SetProposal(proposalModel(addr, &v, now), mtxn)
			}
		case state.AccountTypeProposalOption:
			var v state.ProposalOption
			if err = state.Unmarshal(change.Account.Data, &v); err == nil {
				err = store.SetProposalOption(optionModel(addr, &v, now), mtxn)
			}
		case state.AccountTypeVoteRecord:
			var v state.VoteRecordV2
			if err = state.Unmarshal(change.Account.Data, &v); err == nil {
				err = store.SetVoteRecord(voteModel(addr, &v, now), mtxn)
			}
		case state.AccountTypeTokenOwnerRecord:
			var v state.VotePowerOwnerRecord
			if err = state.Unmarshal(change.Account.Data, &v); err == nil {
				err = store.SetOwnerRecord(ownerRecordModel(addr, &v, now), mtxn)
			}
		case state.AccountTypeDelegationRecord:
			var v state.DelegationRecord
			if err = state.Unmarshal(change.Account.Data, &v); err == nil {
				err = store.SetDelegation(delegationModel(addr, &v, now), mtxn)
			}
		default:
			continue
		}
		if err != nil {
			return fmt.Errorf("index %s: %w", change.Address, err)
		}
	}
	return nil
}

func optionalTime(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func scopeModel(addr []byte, v *state.Scope, now int64) *models.Scope {
	return &models.Scope{
		Address:              addr,
		Governance:           v.Governance.Bytes(),
		ScopeID:              v.ID.Bytes(),
		ThresholdNumerator:   v.Config.Vote.Threshold.Numerator,
		ThresholdDenominator: v.Config.Vote.Threshold.Denominator,
		MaxVotingTime:        int64(v.Config.Time.MaxVotingTime),
		HoldUpTime:           int64(v.Config.Time.MinTransactionHoldUpTime),
		CoolOffTime:          int64(v.Config.Time.ProposalCoolOffTime),
		Deleted:              v.Deleted,
		UpdatedAt:            now,
	}
}

func proposalModel(addr []byte, v *state.ProposalV2, now int64) *models.Proposal {
	return &models.Proposal{
		Address:           addr,
		Governance:        v.Governance.Bytes(),
		State:             uint8(v.State),
		ProposalIndex:     v.Index,
		Creator:           v.Creator.Bytes(),
		OwnerRecord:       v.TokenOwnerRecord.Bytes(),
		VoteType:          uint8(v.VoteType.Kind),
		OptionsCount:      v.OptionsCount,
		ScopesCount:       v.ScopesCount,
		DraftAt:           v.DraftAt,
		VotingAt:          optionalTime(v.VotingAt),
		VotingCompletedAt: optionalTime(v.VotingCompletedAt),
		ClosedAt:          optionalTime(v.ClosedAt),
		UpdatedAt:         now,
	}
}

func optionModel(addr []byte, v *state.ProposalOption, now int64) *models.ProposalOption {
	var weight uint64
	for _, vw := range v.VoteWeights {
		// Saturate rather than fail the index
		if sum := weight + vw.Weight; sum >= weight {
			weight = sum
		} else {
			weight = ^uint64(0)
		}
	}
	return &models.ProposalOption{
		Address:              addr,
		Proposal:             v.Proposal.Bytes(),
		OptionIndex:          v.Index,
		Label:                v.OptionType.Label,
		Deny:                 v.IsDeny(),
		VoteResult:           uint8(v.VoteResult),
		Weight:               types.Uint64(weight),
		TransactionsCount:    v.TransactionsCount,
		TransactionsExecuted: v.TransactionsExecutedCount,
		UpdatedAt:            now,
	}
}

func voteModel(addr []byte, v *state.VoteRecordV2, now int64) *models.VoteRecord {
	options := make([]string, 0, len(v.Vote))
	for _, idx := range v.Vote {
		options = append(options, strconv.FormatUint(uint64(idx), 10))
	}
	return &models.VoteRecord{
		Address:      addr,
		Proposal:     v.Proposal.Bytes(),
		OwnerRecord:  v.TokenOwnerRecord.Bytes(),
		Scope:        v.Scope.Bytes(),
		Options:      strings.Join(options, ","),
		Weight:       types.Uint64(v.Weight),
		Relinquished: v.IsRelinquished,
		UpdatedAt:    now,
	}
}

func ownerRecordModel(addr []byte, v *state.VotePowerOwnerRecord, now int64) *models.OwnerRecord {
	ret := &models.OwnerRecord{
		Address:                addr,
		Governance:             v.Governance.Bytes(),
		Owner:                  v.GoverningOwner.Bytes(),
		SourceKind:             uint8(v.Source.Kind),
		Source:                 v.Source.Key.Bytes(),
		Amount:                 types.Uint64(v.Amount),
		UnrelinquishedVotes:    v.UnrelinquishedVotesCount,
		TotalVotes:             v.TotalVotesCount,
		OutstandingProposals:   uint64(v.OutstandingProposalCount),
		OutstandingDelegations: uint64(v.OutstandingDelegationCount),
		UpdatedAt:              now,
	}
	if v.DelegatedByScope != nil {
		ret.DelegateeScope = v.DelegatedByScope.Bytes()
	}
	return ret
}

func delegationModel(addr []byte, v *state.DelegationRecord, now int64) *models.Delegation {
	return &models.Delegation{
		Address:   addr,
		Delegator: v.Delegator.Bytes(),
		Delegatee: v.Delegatee.Bytes(),
		Scope:     v.Scope.Bytes(),
		Amount:    types.Uint64(v.Amount),
		Pending:   v.Pending != nil,
		UpdatedAt: now,
	}
}
