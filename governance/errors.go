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
	"errors"
	"fmt"
)

// ErrorCode is the stable numeric identifier of a governance program error
type ErrorCode uint32

// ProgramError is a governance program failure. Errors compare equal by code,
// so wrapped errors match the exported values with errors.Is
type ProgramError struct {
	code ErrorCode
	name string
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("governance error %d: %s", e.code, e.name)
}

func (e *ProgramError) Code() ErrorCode {
	return e.code
}

func (e *ProgramError) Name() string {
	return e.name
}

func (e *ProgramError) Is(target error) bool {
	t, ok := target.(*ProgramError)
	return ok && t.code == e.code
}

var errorsByCode = make(map[ErrorCode]*ProgramError)

func newError(code ErrorCode, name string) *ProgramError {
	if _, ok := errorsByCode[code]; ok {
		panic(fmt.Sprintf("duplicate governance error code %d", code))
	}
	e := &ProgramError{code: code, name: name}
	errorsByCode[code] = e
	return e
}

// ErrorFromCode returns the error registered for code
func ErrorFromCode(code ErrorCode) (*ProgramError, bool) {
	e, ok := errorsByCode[code]
	return e, ok
}

// CodeOf extracts the program error code from err, if it carries one
func CodeOf(err error) (ErrorCode, bool) {
	var pe *ProgramError
	if errors.As(err, &pe) {
		return pe.code, true
	}
	return 0, false
}

var (
	ErrInvalidInstruction      = newError(500, "InvalidInstruction")
	ErrNotEnoughAccountKeys    = newError(501, "NotEnoughAccountKeys")
	ErrInvalidAccountOwner     = newError(502, "InvalidAccountOwner")
	ErrInvalidAccountData      = newError(503, "InvalidAccountData")
	ErrInvalidSeeds            = newError(504, "InvalidSeeds")
	ErrAccountAlreadyInUse     = newError(505, "AccountAlreadyInUse")
	ErrAccountNotInitialized   = newError(506, "AccountNotInitialized")
	ErrGoverningOwnerMustSign  = newError(507, "GoverningTokenOwnerMustSign")
	ErrInvalidAuthority        = newError(508, "InvalidGovernanceAuthority")
	ErrInvalidGovernance       = newError(509, "InvalidGovernanceForAccount")
	ErrInvalidThreshold        = newError(510, "InvalidVoteThreshold")
	ErrInvalidVotePowerSource  = newError(511, "InvalidVotePowerSource")
	ErrScopeDeleted            = newError(512, "ScopeDeleted")
	ErrInvalidTokenProgram     = newError(513, "InvalidTokenProgram")
	ErrInvalidHoldingAccount   = newError(514, "InvalidGoverningTokenHoldingAccount")
	ErrInvalidTagRecord        = newError(515, "InvalidTagRecord")
	ErrInvalidDepositAmount    = newError(516, "InvalidDepositAmount")
	ErrInvalidTokenOwnerRecord = newError(517, "InvalidTokenOwnerRecord")
	ErrArithmeticOverflow      = newError(518, "ArithmeticOverflow")

	ErrTokenOwnerRecordAlreadyExists                            = newError(520, "TokenOwnerRecordAlreadyExists")
	ErrAllVotesMustBeRelinquishedToWithdrawGoverningTokens      = newError(521, "AllVotesMustBeRelinquishedToWithdrawGoverningTokens")
	ErrAllProposalsMustBeFinalisedToWithdrawGoverningTokens     = newError(522, "AllProposalsMustBeFinalisedToWithdrawGoverningTokens")
	ErrAllDelegationsMustBeUndelegatedToWithdrawGoverningTokens = newError(523, "AllDelegationsMustBeUndelegatedToWithdrawGoverningTokens")

	ErrDelegatingDelegateNotAllowed      = newError(530, "DelegatingDelegateNotAllowed")
	ErrInvalidDelegatee                  = newError(531, "InvalidDelegatee")
	ErrInvalidBudgetRecord               = newError(532, "InvalidTokenOwnerBudgetRecord")
	ErrInsufficientDelegationBudget      = newError(533, "InsufficientDelegationBudget")
	ErrInvalidDelegationAmount           = newError(534, "InvalidDelegationAmount")
	ErrVotesMustBeRelinquishedToDelegate = newError(535, "VotesMustBeRelinquishedToDelegate")
	ErrDelegationHistoryPending          = newError(536, "DelegationHistoryPending")
	ErrNoPendingDelegationHistory        = newError(537, "NoPendingDelegationHistory")
	ErrInvalidDelegationHistory          = newError(538, "InvalidDelegationHistory")
	ErrUndelegateInCoolOffTime           = newError(539, "UndelegateNotAllowedInCoolOffTime")

	ErrInvalidProposalState               = newError(540, "InvalidProposalState")
	ErrInvalidStateCannotEditScopes       = newError(541, "InvalidStateCannotEditScopes")
	ErrInvalidStateCannotEditOptions      = newError(542, "InvalidStateCannotEditOptions")
	ErrInvalidStateCannotEditTransactions = newError(543, "InvalidStateCannotEditTransactions")
	ErrInvalidStateCannotEditSignatories  = newError(544, "InvalidStateCannotEditSignatories")
	ErrInvalidStateCannotSignOff          = newError(545, "InvalidStateCannotSignOff")
	ErrInvalidStateCannotFinalizeDraft    = newError(546, "InvalidStateCannotFinalizeDraft")
	ErrInvalidStateCannotVote             = newError(547, "InvalidStateCannotVote")
	ErrInvalidStateCannotCancelProposal   = newError(548, "InvalidStateCannotCancelProposal")
	ErrInvalidStateCannotCountVotes       = newError(549, "InvalidStateCannotCountVotes")
	ErrInvalidStateCannotExecute          = newError(550, "InvalidStateCannotExecuteTransaction")
	ErrInvalidProposalCreator             = newError(551, "InvalidProposalCreator")
	ErrInvalidProposalIndex               = newError(552, "InvalidProposalIndex")
	ErrInvalidProposalScopes              = newError(553, "InvalidProposalScopes")
	ErrScopeAlreadyInserted               = newError(554, "ScopeAlreadyInserted")
	ErrTooManyScopes                      = newError(555, "TooManyScopes")
	ErrInvalidProposalOptions             = newError(556, "InvalidProposalOptions")
	ErrDenyOptionAlreadyExists            = newError(557, "DenyOptionAlreadyExists")
	ErrInvalidTransactionIndex            = newError(558, "InvalidTransactionIndex")
	ErrInvalidProposalTransaction         = newError(559, "InvalidProposalTransaction")
	ErrInvalidTransactionScope            = newError(560, "InvalidTransactionScope")
	ErrHoldUpTimeBelowRequiredMin         = newError(561, "TransactionHoldUpTimeBelowRequiredMin")
	ErrInvalidExecutionFlags              = newError(562, "InvalidExecutionFlags")
	ErrInvalidSignatory                   = newError(563, "InvalidSignatory")
	ErrSignatoryAlreadySignedOff          = newError(564, "SignatoryAlreadySignedOff")
	ErrNotAllSignatoriesSignedOff         = newError(565, "NotAllSignatoriesSignedOff")
	ErrCreateProposalCriteriaNotMet       = newError(566, "CreateProposalCriteriaNotMet")
	ErrCannotCancelAfterVotingTime        = newError(567, "CannotCancelProposalAfterVotingTime")

	ErrInvalidVote                       = newError(570, "InvalidVote")
	ErrInvalidVoteScope                  = newError(571, "InvalidVoteScope")
	ErrVoteAlreadyExists                 = newError(572, "VoteAlreadyExists")
	ErrVoteAlreadyRelinquished           = newError(573, "VoteAlreadyRelinquished")
	ErrVoteConditionNotMet               = newError(574, "VoteConditionNotMet")
	ErrProposalVotingTimeExpired         = newError(575, "ProposalVotingTimeExpired")
	ErrVoteNotAllowedInCoolOffTime       = newError(576, "VoteNotAllowedInCoolOffTime")
	ErrCannotRelinquishInFinalizingState = newError(577, "CannotRelinquishInFinalizingState")
	ErrCannotFinalizeVotingInProgress    = newError(578, "CannotFinalizeVotingInProgress")
	ErrMaxVoteWeightNotCalculated        = newError(579, "MaxVoteWeightNotCalculated")
	ErrMaxVoteWeightAlreadyCalculated    = newError(580, "MaxVoteWeightAlreadyCalculated")

	ErrCannotExecuteDefeatedOption              = newError(590, "CannotExecuteDefeatedOption")
	ErrCannotExecuteTransactionWithinHoldUpTime = newError(591, "CannotExecuteTransactionWithinHoldUpTime")
	ErrTransactionAlreadyExecuted               = newError(592, "TransactionAlreadyExecuted")
	ErrTransactionAlreadyFlaggedWithError       = newError(593, "TransactionAlreadyFlaggedWithError")
	ErrCannotExecuteTransactionOutOfOrder       = newError(594, "CannotExecuteTransactionOutOfOrder")
	ErrInvalidOptionForTransaction              = newError(595, "InvalidOptionForTransaction")
)
