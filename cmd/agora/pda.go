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

package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/blinklabs-io/agora/instruction"
	"github.com/blinklabs-io/agora/internal/config"
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var errUnknownPDAKind = errors.New("unknown address kind")

type pdaArgs []string

func (a pdaArgs) key(i int) (solana.PublicKey, error) {
	return solana.PublicKeyFromBase58(a[i])
}

func (a pdaArgs) keys(n int) ([]solana.PublicKey, error) {
	ret := make([]solana.PublicKey, n)
	for i := range n {
		k, err := a.key(i)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		ret[i] = k
	}
	return ret, nil
}

// source parses a "mint:<key>" or "tag:<factory>" vote power unit
func (a pdaArgs) source(i int) (state.VotePowerUnit, error) {
	kind, key, ok := strings.Cut(a[i], ":")
	if !ok {
		return state.VotePowerUnit{}, fmt.Errorf("invalid source %q, expected mint:<key> or tag:<key>", a[i])
	}
	pk, err := solana.PublicKeyFromBase58(key)
	if err != nil {
		return state.VotePowerUnit{}, fmt.Errorf("invalid source key: %w", err)
	}
	switch kind {
	case "mint":
		return state.MintSource(pk), nil
	case "tag":
		return state.TagSource(pk), nil
	}
	return state.VotePowerUnit{}, fmt.Errorf("invalid source kind %q", kind)
}

func (a pdaArgs) uint16(i int) (uint16, error) {
	v, err := strconv.ParseUint(a[i], 10, 16)
	return uint16(v), err
}

type pdaKind struct {
	usage  string
	nargs  int
	derive func(b *instruction.Builder, args pdaArgs) (solana.PublicKey, uint8, error)
}

var pdaKinds = map[string]pdaKind{
	"governance": {
		usage: "<seed>",
		nargs: 1,
		derive: func(b *instruction.Builder, args pdaArgs) (solana.PublicKey, uint8, error) {
			k, err := args.key(0)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			return b.GovernanceAddress(k)
		},
	},
	"treasury": {
		usage: "<governance>",
		nargs: 1,
		derive: func(b *instruction.Builder, args pdaArgs) (solana.PublicKey, uint8, error) {
			k, err := args.key(0)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			return b.NativeTreasuryAddress(k)
		},
	},
	"holding": {
		usage: "<governance> <mint>",
		nargs: 2,
		derive: func(b *instruction.Builder, args pdaArgs) (solana.PublicKey, uint8, error) {
			k, err := args.keys(2)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			return b.HoldingAddress(k[0], k[1])
		},
	},
	"scope": {
		usage: "<governance> <id>",
		nargs: 2,
		derive: func(b *instruction.Builder, args pdaArgs) (solana.PublicKey, uint8, error) {
			k, err := args.keys(2)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			return b.ScopeAddress(k[0], k[1])
		},
	},
	"owner-record": {
		usage: "<governance> <mint:key|tag:key> <owner>",
		nargs: 3,
		derive: func(b *instruction.Builder, args pdaArgs) (solana.PublicKey, uint8, error) {
			gov, err := args.key(0)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			src, err := args.source(1)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			owner, err := args.key(2)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			return b.TokenOwnerRecordAddress(gov, src, owner)
		},
	},
	"delegatee-record": {
		usage: "<governance> <mint:key|tag:key> <owner> <scope>",
		nargs: 4,
		derive: func(b *instruction.Builder, args pdaArgs) (solana.PublicKey, uint8, error) {
			gov, err := args.key(0)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			src, err := args.source(1)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			owner, err := args.key(2)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			scope, err := args.key(3)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			return b.DelegateeRecordAddress(gov, src, owner, scope)
		},
	},
	"budget": {
		usage: "<owner-record> <scope>",
		nargs: 2,
		derive: func(b *instruction.Builder, args pdaArgs) (solana.PublicKey, uint8, error) {
			k, err := args.keys(2)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			return b.BudgetRecordAddress(k[0], k[1])
		},
	},
	"delegation": {
		usage: "<delegator-record> <delegatee-record> <scope>",
		nargs: 3,
		derive: func(b *instruction.Builder, args pdaArgs) (solana.PublicKey, uint8, error) {
			k, err := args.keys(3)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			return b.DelegationRecordAddress(k[0], k[1], k[2])
		},
	},
	"proposal": {
		usage: "<governance> <index>",
		nargs: 2,
		derive: func(b *instruction.Builder, args pdaArgs) (solana.PublicKey, uint8, error) {
			gov, err := args.key(0)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			index, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return solana.PublicKey{}, 0, fmt.Errorf("invalid index: %w", err)
			}
			return b.ProposalAddress(gov, uint32(index))
		},
	},
	"option": {
		usage: "<proposal> <index>",
		nargs: 2,
		derive: func(b *instruction.Builder, args pdaArgs) (solana.PublicKey, uint8, error) {
			proposal, err := args.key(0)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			index, err := args.uint16(1)
			if err != nil {
				return solana.PublicKey{}, 0, fmt.Errorf("invalid index: %w", err)
			}
			return b.ProposalOptionAddress(proposal, index)
		},
	},
	"transaction": {
		usage: "<proposal> <option-index> <instruction-index>",
		nargs: 3,
		derive: func(b *instruction.Builder, args pdaArgs) (solana.PublicKey, uint8, error) {
			proposal, err := args.key(0)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			option, err := args.uint16(1)
			if err != nil {
				return solana.PublicKey{}, 0, fmt.Errorf("invalid option index: %w", err)
			}
			ix, err := args.uint16(2)
			if err != nil {
				return solana.PublicKey{}, 0, fmt.Errorf("invalid instruction index: %w", err)
			}
			return b.ProposalTransactionAddress(proposal, option, ix)
		},
	},
	"vote-record": {
		usage: "<proposal> <owner-record> <scope>",
		nargs: 3,
		derive: func(b *instruction.Builder, args pdaArgs) (solana.PublicKey, uint8, error) {
			k, err := args.keys(3)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			return b.VoteRecordAddress(k[0], k[1], k[2])
		},
	},
	"signatory": {
		usage: "<proposal> <signatory>",
		nargs: 2,
		derive: func(b *instruction.Builder, args pdaArgs) (solana.PublicKey, uint8, error) {
			k, err := args.keys(2)
			if err != nil {
				return solana.PublicKey{}, 0, err
			}
			return b.SignatoryRecordAddress(k[0], k[1])
		},
	},
}

func derivePDA(
	programID solana.PublicKey,
	kind string,
	args []string,
) (solana.PublicKey, uint8, error) {
	k, ok := pdaKinds[kind]
	if !ok {
		return solana.PublicKey{}, 0, fmt.Errorf("%w: %s", errUnknownPDAKind, kind)
	}
	if len(args) != k.nargs {
		return solana.PublicKey{}, 0, fmt.Errorf(
			"usage: pda %s %s",
			kind,
			k.usage,
		)
	}
	return k.derive(instruction.NewBuilder(programID), pdaArgs(args))
}

func pdaUsage() string {
	var buf strings.Builder
	buf.WriteString("Address kinds:\n")
	for _, name := range slices.Sorted(maps.Keys(pdaKinds)) {
		fmt.Fprintf(&buf, "  %s %s\n", name, pdaKinds[name].usage)
	}
	return buf.String()
}

func pdaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pda <kind> [args...]",
		Short: "Derive a governance program address",
		Long:  pdaUsage(),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errNoConfig
			}
			programID, err := cfg.ProgramKey()
			if err != nil {
				return err
			}
			address, bump, err := derivePDA(programID, args[0], args[1:])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", address, bump)
			return nil
		},
	}
	return cmd
}
