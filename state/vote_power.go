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
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// VotePowerUnitKind selects where voting weight comes from
type VotePowerUnitKind uint8

const (
	VotePowerUnitMint VotePowerUnitKind = iota
	VotePowerUnitTag
)

func (k VotePowerUnitKind) String() string {
	switch k {
	case VotePowerUnitMint:
		return "mint"
	case VotePowerUnitTag:
		return "tag"
	default:
		return fmt.Sprintf("VotePowerUnitKind(%d)", uint8(k))
	}
}

// VotePowerUnit is a source of voting weight: a fungible mint or a tag
// record factory
type VotePowerUnit struct {
	Kind VotePowerUnitKind
	Key  solana.PublicKey
}

func MintSource(mint solana.PublicKey) VotePowerUnit {
	return VotePowerUnit{Kind: VotePowerUnitMint, Key: mint}
}

func TagSource(factory solana.PublicKey) VotePowerUnit {
	return VotePowerUnit{Kind: VotePowerUnitTag, Key: factory}
}

func (u VotePowerUnit) String() string {
	return u.Kind.String() + ":" + u.Key.String()
}

func (u VotePowerUnit) MarshalWithEncoder(enc *bin.Encoder) error {
	w := NewWriter(enc)
	w.U8(uint8(u.Kind))
	w.Pubkey(u.Key)
	return w.Err()
}

func (u *VotePowerUnit) UnmarshalWithDecoder(dec *bin.Decoder) error {
	r := NewReader(dec)
	u.Kind = VotePowerUnitKind(r.U8())
	u.Key = r.Pubkey()
	if r.Err() == nil && u.Kind > VotePowerUnitTag {
		return fmt.Errorf("unknown vote power unit kind %d", u.Kind)
	}
	return r.Err()
}
