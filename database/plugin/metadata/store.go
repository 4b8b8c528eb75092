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

package metadata

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/database/plugin"
	"github.com/blinklabs-io/agora/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/agora/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	// Register the network-backed metadata plugins
	_ "github.com/blinklabs-io/agora/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/agora/database/plugin/metadata/postgres"
)

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Governance index
	SetScope(*models.Scope, types.Txn) error
	GetScope([]byte, types.Txn) (*models.Scope, error)
	SetProposal(*models.Proposal, types.Txn) error
	GetProposal([]byte, types.Txn) (*models.Proposal, error)
	GetProposals(models.ProposalQuery, types.Txn) ([]models.Proposal, error)
	SetProposalOption(*models.ProposalOption, types.Txn) error
	GetProposalOptions([]byte, types.Txn) ([]models.ProposalOption, error)
	SetVoteRecord(*models.VoteRecord, types.Txn) error
	GetVoteRecords([]byte, types.Txn) ([]models.VoteRecord, error)
	SetOwnerRecord(*models.OwnerRecord, types.Txn) error
	GetOwnerRecordsByOwner([]byte, types.Txn) ([]models.OwnerRecord, error)
	SetDelegation(*models.Delegation, types.Txn) error
	DeleteDelegation([]byte, types.Txn) error
	GetDelegationsByDelegatee([]byte, types.Txn) ([]models.Delegation, error)
}

// New returns the started metadata store selected by name. The built-in
// sqlite store uses the provided data directory; other registered plugins
// are configured through their own plugin options
func New(
	pluginName, dataDir string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	if pluginName == "sqlite" {
		return sqlite.New(dataDir, logger, promRegistry)
	}
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
