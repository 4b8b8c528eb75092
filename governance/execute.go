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

	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/instruction"
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
)

// executable checks the gates shared by executing and flagging a
// transaction, in order: proposal state, option, option result, hold-up
// time, and prior execution
func (h *handler) executable(
	proposal *state.ProposalV2,
	proposalKey solana.PublicKey,
	tx *state.ProposalTransactionV2,
	txKey, optionKey solana.PublicKey,
) (*state.ProposalOption, error) {
	if !tx.Proposal.Equals(proposalKey) {
		return nil, fmt.Errorf("%w: transaction %s", ErrInvalidProposalTransaction, txKey)
	}
	switch proposal.State {
	case state.ProposalStateSucceeded, state.ProposalStateExecuting, state.ProposalStateExecutingWithErrors:
	default:
		return nil, ErrInvalidStateCannotExecute
	}
	option, err := h.loadOption(optionKey, proposalKey)
	if err != nil {
		return nil, err
	}
	if option.Index != tx.OptionIndex {
		return nil, fmt.Errorf("%w: option %d", ErrInvalidOptionForTransaction, option.Index)
	}
	if option.VoteResult != state.OptionVoteResultSucceeded {
		return nil, ErrCannotExecuteDefeatedOption
	}
	if proposal.VotingCompletedAt == nil ||
		h.now() < *proposal.VotingCompletedAt+int64(tx.HoldUpTime) {
		return nil, ErrCannotExecuteTransactionWithinHoldUpTime
	}
	if tx.ExecutionStatus == state.TransactionExecutionStatusSuccess {
		return nil, ErrTransactionAlreadyExecuted
	}
	return option, nil
}

// executeProposal runs a transaction of a succeeded option with the
// governance and its native treasury as signers. Accounts: governance,
// proposal (w), transaction (w), option (w), native treasury (w), then every
// account the instructions reference
func (h *handler) executeProposal(ix *instruction.ExecuteProposal) error {
	if err := h.need(5); err != nil {
		return err
	}
	govKey, proposalKey, txKey, optionKey, treasuryKey := h.key(0), h.key(1), h.key(2), h.key(3), h.key(4)
	gov, err := h.loadGovernance(govKey)
	if err != nil {
		return err
	}
	govSeeds := state.GovernanceSeeds(gov.Seed)
	if err := state.VerifyAddress(h.programID(), govSeeds, ix.GovernanceBumpSeed, govKey); err != nil {
		return fmt.Errorf("%w: governance %s", ErrInvalidSeeds, govKey)
	}
	proposal, err := h.loadProposal(proposalKey)
	if err != nil {
		return err
	}
	if !proposal.Governance.Equals(govKey) {
		return fmt.Errorf("%w: proposal %s", ErrInvalidGovernance, proposalKey)
	}
	var tx state.ProposalTransactionV2
	if err := h.load(txKey, &tx); err != nil {
		return err
	}
	option, err := h.executable(proposal, proposalKey, &tx, txKey, optionKey)
	if err != nil {
		return err
	}
	if proposal.ExecutionFlags == state.ExecutionFlagsOrdered &&
		tx.InstructionIndex != option.TransactionsExecutedCount {
		return fmt.Errorf("%w: next is %d", ErrCannotExecuteTransactionOutOfOrder, option.TransactionsExecutedCount)
	}
	treasurySeeds := state.NativeTreasurySeeds(govKey)
	treasuryBump, err := h.derive(treasuryKey, treasurySeeds)
	if err != nil {
		return err
	}
	for i := range tx.Instructions {
		err := h.ctx.InvokeSigned(
			tx.Instructions[i].Instruction(),
			state.SignerSeeds(govSeeds, ix.GovernanceBumpSeed),
			state.SignerSeeds(treasurySeeds, treasuryBump),
		)
		if err != nil {
			return err
		}
	}

	// Instructions may have touched governance accounts, so reload before
	// recording the outcome
	if proposal, err = h.loadProposal(proposalKey); err != nil {
		return err
	}
	if option, err = h.loadOption(optionKey, proposalKey); err != nil {
		return err
	}
	now := h.now()
	tx.ExecutedAt = timestamp(now)
	tx.ExecutionStatus = state.TransactionExecutionStatusSuccess
	option.TransactionsExecutedCount++
	if option.TransactionsExecutedCount == option.TransactionsCount {
		proposal.OptionsExecutedCount++
	}
	if proposal.State == state.ProposalStateSucceeded {
		proposal.ExecutingAt = timestamp(now)
		h.transition(proposalKey, proposal, state.ProposalStateExecuting)
	}
	if proposal.OptionsExecutedCount == proposal.WinningOptionsCount {
		proposal.ClosedAt = timestamp(now)
		h.transition(proposalKey, proposal, state.ProposalStateCompleted)
	}
	if err := h.store(txKey, &tx); err != nil {
		return err
	}
	if err := h.store(optionKey, option); err != nil {
		return err
	}
	if err := h.store(proposalKey, proposal); err != nil {
		return err
	}
	h.emitTransaction(proposalKey, txKey, &tx)
	return nil
}

// flagTransactionError lets the creator mark a transaction that cannot
// execute. Accounts: proposal (w), creator record, creator (s),
// transaction (w), option
func (h *handler) flagTransactionError() error {
	if err := h.need(5); err != nil {
		return err
	}
	proposalKey, txKey, optionKey := h.key(0), h.key(3), h.key(4)
	proposal, err := h.loadCreatorProposal(proposalKey, h.key(1), h.key(2))
	if err != nil {
		return err
	}
	var tx state.ProposalTransactionV2
	if err := h.load(txKey, &tx); err != nil {
		return err
	}
	if _, err := h.executable(proposal, proposalKey, &tx, txKey, optionKey); err != nil {
		return err
	}
	if tx.ExecutionStatus == state.TransactionExecutionStatusError {
		return ErrTransactionAlreadyFlaggedWithError
	}
	tx.ExecutionStatus = state.TransactionExecutionStatusError
	if proposal.ExecutingAt == nil {
		proposal.ExecutingAt = timestamp(h.now())
	}
	if proposal.State != state.ProposalStateExecutingWithErrors {
		h.transition(proposalKey, proposal, state.ProposalStateExecutingWithErrors)
	}
	if err := h.store(txKey, &tx); err != nil {
		return err
	}
	if err := h.store(proposalKey, proposal); err != nil {
		return err
	}
	h.emitTransaction(proposalKey, txKey, &tx)
	return nil
}

func (h *handler) emitTransaction(proposalKey, txKey solana.PublicKey, tx *state.ProposalTransactionV2) {
	h.ctx.Emit(event.TransactionEventType, event.TransactionEvent{
		Proposal:         proposalKey,
		Transaction:      txKey,
		OptionIndex:      tx.OptionIndex,
		InstructionIndex: tx.InstructionIndex,
		Status:           tx.ExecutionStatus.String(),
	})
}
