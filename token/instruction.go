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

package token

import (
	"bytes"
	"fmt"

	"github.com/blinklabs-io/agora/state"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

type Kind uint8

const (
	KindInitializeMint Kind = iota
	KindInitializeAccount
	KindMintTo
	KindTransfer
	KindBurn
)

// Instruction is the decoded form of token instruction data. Fields not
// used by Kind are zero.
type Instruction struct {
	Kind      Kind
	Amount    uint64
	Decimals  uint8
	Authority *solana.PublicKey
	Owner     solana.PublicKey
}

func (i Instruction) MarshalWithEncoder(enc *bin.Encoder) error {
	w := state.NewWriter(enc)
	w.U8(uint8(i.Kind))
	switch i.Kind {
	case KindInitializeMint:
		w.U8(i.Decimals)
		w.OptionPubkey(i.Authority)
	case KindInitializeAccount:
		w.Pubkey(i.Owner)
	case KindMintTo, KindTransfer, KindBurn:
		w.U64(i.Amount)
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidInstruction, i.Kind)
	}
	return w.Err()
}

func (i *Instruction) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := state.NewReader(dec)
	i.Kind = Kind(r.U8())
	switch i.Kind {
	case KindInitializeMint:
		i.Decimals = r.U8()
		i.Authority = r.OptionPubkey()
	case KindInitializeAccount:
		i.Owner = r.Pubkey()
	case KindMintTo, KindTransfer, KindBurn:
		i.Amount = r.U64()
	default:
		if r.Err() == nil {
			return fmt.Errorf("%w: kind %d", ErrInvalidInstruction, i.Kind)
		}
	}
	return r.Err()
}

func newInstruction(ix Instruction, metas ...*solana.AccountMeta) solana.Instruction {
	var buf bytes.Buffer
	// Encoding into a buffer only fails for unknown kinds
	_ = ix.MarshalWithEncoder(bin.NewBorshEncoder(&buf))
	return solana.NewInstruction(ProgramID, metas, buf.Bytes())
}

// InitializeMint accounts: mint (w, s)
func InitializeMint(mint solana.PublicKey, authority *solana.PublicKey, decimals uint8) solana.Instruction {
	return newInstruction(
		Instruction{Kind: KindInitializeMint, Decimals: decimals, Authority: authority},
		solana.Meta(mint).WRITE().SIGNER(),
	)
}

// InitializeAccount accounts: account (w, s), mint
func InitializeAccount(account, mint, owner solana.PublicKey) solana.Instruction {
	return newInstruction(
		Instruction{Kind: KindInitializeAccount, Owner: owner},
		solana.Meta(account).WRITE().SIGNER(),
		solana.Meta(mint),
	)
}

// MintTo accounts: mint (w), destination (w), mint authority (s)
func MintTo(mint, destination, authority solana.PublicKey, amount uint64) solana.Instruction {
	return newInstruction(
		Instruction{Kind: KindMintTo, Amount: amount},
		solana.Meta(mint).WRITE(),
		solana.Meta(destination).WRITE(),
		solana.Meta(authority).SIGNER(),
	)
}

// Transfer accounts: source (w), destination (w), source owner (s)
func Transfer(source, destination, owner solana.PublicKey, amount uint64) solana.Instruction {
	return newInstruction(
		Instruction{Kind: KindTransfer, Amount: amount},
		solana.Meta(source).WRITE(),
		solana.Meta(destination).WRITE(),
		solana.Meta(owner).SIGNER(),
	)
}

// Burn accounts: source (w), mint (w), source owner (s)
func Burn(source, mint, owner solana.PublicKey, amount uint64) solana.Instruction {
	return newInstruction(
		Instruction{Kind: KindBurn, Amount: amount},
		solana.Meta(source).WRITE(),
		solana.Meta(mint).WRITE(),
		solana.Meta(owner).SIGNER(),
	)
}
