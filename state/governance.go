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
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Governance is the root account that scopes and proposals hang off
type Governance struct {
	Authority      *solana.PublicKey
	Seed           solana.PublicKey
	BumpSeed       uint8
	ProposalsCount uint32
}

func (g Governance) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.U8(uint8(AccountTypeGovernance))
	w.OptionPubkey(g.Authority)
	w.Pubkey(g.Seed)
	w.U8(g.BumpSeed)
	w.U32(g.ProposalsCount)
	return w.Err()
}

func (g *Governance) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	r.AccountTypeTag(AccountTypeGovernance)
	g.Authority = r.OptionPubkey()
	g.Seed = r.Pubkey()
	g.BumpSeed = r.U8()
	g.ProposalsCount = r.U32()
	return r.Err()
}
