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

import (
	"encoding/binary"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// ProgramID is the default address of the governance program
var ProgramID = solana.MustPublicKeyFromBase58("BHY5eHaz68hkYnU4pGmdkasRreu4C54a5u3uXk3FFKy8")

var ErrInvalidSeeds = errors.New("address does not match seeds and bump")

const (
	SeedGovernance             = "governance"
	SeedNativeTreasury         = "native-treasury"
	SeedGoverningTokenHolding  = "governing-token-holding"
	SeedScope                  = "scope"
	SeedTokenOwnerRecord       = "token-owner-record"
	SeedTokenOwnerBudgetRecord = "token-owner-budget-record"
	SeedDelegationRecord       = "delegation-record"
	SeedProposal               = "proposal"
	SeedProposalOption         = "proposal-option"
	SeedProposalTransaction    = "proposal-transaction"
	SeedVoteRecord             = "vote-record"
	SeedSignatoryRecord        = "signatory-record"
)

func u16Seed(v uint16) []byte {
	return binary.LittleEndian.AppendUint16(nil, v)
}

func u32Seed(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func GovernanceSeeds(seed solana.PublicKey) [][]byte {
	return [][]byte{[]byte(SeedGovernance), seed[:]}
}

func NativeTreasurySeeds(governance solana.PublicKey) [][]byte {
	return [][]byte{[]byte(SeedNativeTreasury), governance[:]}
}

func GoverningTokenHoldingSeeds(governance, mint solana.PublicKey) [][]byte {
	return [][]byte{[]byte(SeedGoverningTokenHolding), governance[:], mint[:]}
}

func ScopeSeeds(governance, id solana.PublicKey) [][]byte {
	return [][]byte{[]byte(SeedScope), governance[:], id[:]}
}

func TokenOwnerRecordSeeds(governance, sourceKey, owner solana.PublicKey) [][]byte {
	return [][]byte{[]byte(SeedTokenOwnerRecord), governance[:], sourceKey[:], owner[:]}
}

// DelegateeRecordSeeds extend the owner record seeds with the scope the
// delegatee receives weight for
func DelegateeRecordSeeds(governance, sourceKey, owner, scope solana.PublicKey) [][]byte {
	return append(TokenOwnerRecordSeeds(governance, sourceKey, owner), scope[:])
}

func TokenOwnerBudgetRecordSeeds(ownerRecord, scope solana.PublicKey) [][]byte {
	return [][]byte{[]byte(SeedTokenOwnerBudgetRecord), ownerRecord[:], scope[:]}
}

func DelegationRecordSeeds(delegator, delegatee, scope solana.PublicKey) [][]byte {
	return [][]byte{[]byte(SeedDelegationRecord), delegator[:], delegatee[:], scope[:]}
}

func ProposalSeeds(governance solana.PublicKey, index uint32) [][]byte {
	return [][]byte{[]byte(SeedProposal), governance[:], u32Seed(index)}
}

func ProposalOptionSeeds(proposal solana.PublicKey, index uint16) [][]byte {
	return [][]byte{[]byte(SeedProposalOption), proposal[:], u16Seed(index)}
}

func ProposalTransactionSeeds(proposal solana.PublicKey, optionIndex, instructionIndex uint16) [][]byte {
	return [][]byte{
		[]byte(SeedProposalTransaction),
		proposal[:],
		u16Seed(optionIndex),
		u16Seed(instructionIndex),
	}
}

func VoteRecordSeeds(proposal, ownerRecord, scope solana.PublicKey) [][]byte {
	return [][]byte{[]byte(SeedVoteRecord), proposal[:], ownerRecord[:], scope[:]}
}

func SignatoryRecordSeeds(proposal, signatory solana.PublicKey) [][]byte {
	return [][]byte{[]byte(SeedSignatoryRecord), proposal[:], signatory[:]}
}

// FindAddress derives the canonical program address and bump for seeds
func FindAddress(programID solana.PublicKey, seeds [][]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(seeds, programID)
}

// VerifyAddress checks that address is the canonical derivation of seeds
// and that bump is the canonical bump
func VerifyAddress(programID solana.PublicKey, seeds [][]byte, bump uint8, address solana.PublicKey) error {
	expected, canonical, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return err
	}
	if canonical != bump || !expected.Equals(address) {
		return ErrInvalidSeeds
	}
	return nil
}

// SignerSeeds appends the bump to seeds for signing as a program address
func SignerSeeds(seeds [][]byte, bump uint8) [][]byte {
	ret := make([][]byte, 0, len(seeds)+1)
	ret = append(ret, seeds...)
	return append(ret, []byte{bump})
}
