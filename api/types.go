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

package api

// RootResponse is returned by GET /
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is the body of every failed request. Code and Instruction
// are set when a submitted transaction is rejected by a program.
type ErrorResponse struct {
	StatusCode  int     `json:"status_code"`
	Error       string  `json:"error"`
	Message     string  `json:"message"`
	Code        *uint32 `json:"code,omitempty"`
	Instruction *int    `json:"instruction,omitempty"`
}

// SubmitTransactionRequest carries a base64 encoded signed transaction
type SubmitTransactionRequest struct {
	Transaction string `json:"transaction"`
}

type SubmitTransactionResponse struct {
	Signature string `json:"signature"`
}

type ProposalResponse struct {
	Address           string           `json:"address"`
	Governance        string           `json:"governance"`
	State             string           `json:"state"`
	ProposalIndex     uint32           `json:"proposal_index"`
	Creator           string           `json:"creator"`
	OwnerRecord       string           `json:"owner_record"`
	VoteType          uint8            `json:"vote_type"`
	OptionsCount      uint16           `json:"options_count"`
	ScopesCount       uint16           `json:"scopes_count"`
	DraftAt           int64            `json:"draft_at"`
	VotingAt          int64            `json:"voting_at,omitempty"`
	VotingCompletedAt int64            `json:"voting_completed_at,omitempty"`
	ClosedAt          int64            `json:"closed_at,omitempty"`
	Options           []OptionResponse `json:"options,omitempty"`
}

type OptionResponse struct {
	Address              string `json:"address"`
	Index                uint16 `json:"index"`
	Label                string `json:"label"`
	Deny                 bool   `json:"deny"`
	VoteResult           string `json:"vote_result"`
	Weight               uint64 `json:"weight"`
	TransactionsCount    uint16 `json:"transactions_count"`
	TransactionsExecuted uint16 `json:"transactions_executed"`
}

type VoteRecordResponse struct {
	Address      string   `json:"address"`
	OwnerRecord  string   `json:"owner_record"`
	Scope        string   `json:"scope"`
	Options      []uint16 `json:"options"`
	Weight       uint64   `json:"weight"`
	Relinquished bool     `json:"relinquished"`
}

type DelegationResponse struct {
	Address   string `json:"address"`
	Delegator string `json:"delegator"`
	Delegatee string `json:"delegatee"`
	Scope     string `json:"scope"`
	Amount    uint64 `json:"amount"`
	Pending   bool   `json:"pending"`
}

type AccountResponse struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
	Type    string `json:"type"`
	Data    string `json:"data"`
}
