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
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/blinklabs-io/agora/api"
	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/internal/config"
	"github.com/blinklabs-io/agora/state"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var proposalsFlags = struct {
	governance string
	state      string
	limit      int
	descending bool
}{}

func proposalQuery(
	governance, proposalState string,
	limit int,
	descending bool,
) (models.ProposalQuery, error) {
	query := models.ProposalQuery{
		Limit:      limit,
		Descending: descending,
	}
	if governance != "" {
		key, err := solana.PublicKeyFromBase58(governance)
		if err != nil {
			return query, fmt.Errorf("invalid governance: %w", err)
		}
		query.Governance = key.Bytes()
	}
	if proposalState != "" {
		var v uint8
		if n, err := strconv.ParseUint(proposalState, 10, 8); err == nil {
			v = uint8(n)
		} else {
			s, err := state.ParseProposalState(proposalState)
			if err != nil {
				return query, err
			}
			v = uint8(s)
		}
		query.State = &v
	}
	return query, nil
}

func writeProposals(
	w io.Writer,
	db *database.Database,
	query models.ProposalQuery,
) error {
	proposals, err := db.GetProposals(query, nil)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for i := range proposals {
		options, err := db.GetProposalOptions(proposals[i].Address, nil)
		if err != nil {
			return err
		}
		if err := enc.Encode(api.NewProposalResponse(&proposals[i], options)); err != nil {
			return err
		}
	}
	return nil
}

func proposalsRun(cmd *cobra.Command, cfg *config.Config) error {
	query, err := proposalQuery(
		proposalsFlags.governance,
		proposalsFlags.state,
		proposalsFlags.limit,
		proposalsFlags.descending,
	)
	if err != nil {
		return err
	}
	db, err := database.New(&database.Config{
		DataDir:        cfg.DatabasePath,
		BlobPlugin:     cfg.BlobPlugin,
		MetadataPlugin: cfg.MetadataPlugin,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	return writeProposals(cmd.OutOrStdout(), db, query)
}

func proposalsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "Query indexed proposals",
		RunE:  withConfig(proposalsRun),
	}
	cmd.Flags().
		StringVarP(&proposalsFlags.governance, "governance", "g", "", "only show proposals of this governance")
	cmd.Flags().
		StringVarP(&proposalsFlags.state, "state", "s", "", "only show proposals in this state (name or number)")
	cmd.Flags().
		IntVarP(&proposalsFlags.limit, "limit", "n", 0, "maximum number of proposals, 0 for all")
	cmd.Flags().
		BoolVar(&proposalsFlags.descending, "desc", false, "newest proposals first")
	return cmd
}
