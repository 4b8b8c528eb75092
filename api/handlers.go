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

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/governance"
	"github.com/blinklabs-io/agora/ledger"
	"github.com/blinklabs-io/agora/state"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// maxTransactionBody bounds the request body of a transaction submission
const maxTransactionBody = 64 << 10

func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// writeTransactionError reports a rejected transaction, including the
// failing instruction and governance error code when known
func writeTransactionError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Error:      http.StatusText(http.StatusBadRequest),
		Message:    err.Error(),
	}
	var ixErr *ledger.InstructionError
	if errors.As(err, &ixErr) {
		idx := ixErr.Index
		resp.Instruction = &idx
	}
	if code, ok := governance.CodeOf(err); ok {
		c := uint32(code)
		resp.Code = &c
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// isRejection reports whether a submission failed because of the
// transaction itself rather than the node
func isRejection(err error) bool {
	var ixErr *ledger.InstructionError
	return errors.As(err, &ixErr) ||
		errors.Is(err, ErrInvalidTransaction) ||
		errors.Is(err, ledger.ErrEmptyTransaction) ||
		errors.Is(err, ledger.ErrUnsupportedTransaction)
}

func encodeKey(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return solana.PublicKeyFromBytes(b).String()
}

// pathKey parses the {address} path value, writing a 400 response when it
// is not a base58 public key
func pathKey(w http.ResponseWriter, r *http.Request) (solana.PublicKey, bool) {
	key, err := solana.PublicKeyFromBase58(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address")
		return solana.PublicKey{}, false
	}
	return key, true
}

func (a *API) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "agora",
		Version: apiVersion,
	})
}

func (a *API) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleSubmitTransaction handles POST /api/v0/transactions
func (a *API) handleSubmitTransaction(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req SubmitTransactionRequest
	body := http.MaxBytesReader(w, r.Body, maxTransactionBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Transaction)
	if err != nil {
		writeError(w, http.StatusBadRequest, "transaction is not valid base64")
		return
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to decode transaction")
		return
	}
	sig, err := a.node.SubmitTransaction(r.Context(), tx)
	if err != nil {
		if isRejection(err) {
			a.logger.Debug(
				"transaction rejected",
				"error", err,
			)
			writeTransactionError(w, err)
			return
		}
		a.logger.Error(
			"failed to process transaction",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"failed to process transaction",
		)
		return
	}
	writeJSON(w, http.StatusOK, SubmitTransactionResponse{
		Signature: sig.String(),
	})
}

// handleProposals handles GET /api/v0/proposals?governance=&state=
func (a *API) handleProposals(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var governanceKey solana.PublicKey
	if v := r.URL.Query().Get("governance"); v != "" {
		governanceKey, err = solana.PublicKeyFromBase58(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid governance")
			return
		}
	}
	var proposalState *uint8
	if v := r.URL.Query().Get("state"); v != "" {
		s, err := parseProposalState(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		proposalState = &s
	}
	proposals, err := a.node.Proposals(
		governanceKey,
		proposalState,
		params.Descending(),
	)
	if err != nil {
		a.logger.Error(
			"failed to query proposals",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"failed to retrieve proposals",
		)
		return
	}
	SetPaginationHeaders(w, len(proposals), params)
	page := Paginate(proposals, params)
	resp := make([]ProposalResponse, 0, len(page))
	for i := range page {
		resp = append(resp, NewProposalResponse(&page[i], nil))
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseProposalState accepts a state name or its numeric value
func parseProposalState(v string) (uint8, error) {
	if n, err := strconv.ParseUint(v, 10, 8); err == nil {
		return uint8(n), nil
	}
	s, err := state.ParseProposalState(v)
	if err != nil {
		return 0, err
	}
	return uint8(s), nil
}

// handleProposal handles GET /api/v0/proposals/{address}
func (a *API) handleProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	address, ok := pathKey(w, r)
	if !ok {
		return
	}
	proposal, options, err := a.node.Proposal(address)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "proposal not found")
			return
		}
		a.logger.Error(
			"failed to query proposal",
			"proposal", address.String(),
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"failed to retrieve proposal",
		)
		return
	}
	writeJSON(w, http.StatusOK, NewProposalResponse(proposal, options))
}

// NewProposalResponse converts an indexed proposal and its options
func NewProposalResponse(
	p *models.Proposal,
	options []models.ProposalOption,
) ProposalResponse {
	ret := ProposalResponse{
		Address:           encodeKey(p.Address),
		Governance:        encodeKey(p.Governance),
		State:             state.ProposalState(p.State).String(),
		ProposalIndex:     p.ProposalIndex,
		Creator:           encodeKey(p.Creator),
		OwnerRecord:       encodeKey(p.OwnerRecord),
		VoteType:          p.VoteType,
		OptionsCount:      p.OptionsCount,
		ScopesCount:       p.ScopesCount,
		DraftAt:           p.DraftAt,
		VotingAt:          p.VotingAt,
		VotingCompletedAt: p.VotingCompletedAt,
		ClosedAt:          p.ClosedAt,
	}
	for _, o := range options {
		ret.Options = append(ret.Options, OptionResponse{
			Address:              encodeKey(o.Address),
			Index:                o.OptionIndex,
			Label:                o.Label,
			Deny:                 o.Deny,
			VoteResult:           state.OptionVoteResult(o.VoteResult).String(),
			Weight:               uint64(o.Weight),
			TransactionsCount:    o.TransactionsCount,
			TransactionsExecuted: o.TransactionsExecuted,
		})
	}
	return ret
}

// handleProposalVotes handles GET /api/v0/proposals/{address}/votes
func (a *API) handleProposalVotes(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	address, ok := pathKey(w, r)
	if !ok {
		return
	}
	votes, err := a.node.VoteRecords(address)
	if err != nil {
		a.logger.Error(
			"failed to query vote records",
			"proposal", address.String(),
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"failed to retrieve votes",
		)
		return
	}
	SetPaginationHeaders(w, len(votes), params)
	page := Paginate(votes, params)
	resp := make([]VoteRecordResponse, 0, len(page))
	for _, v := range page {
		resp = append(resp, VoteRecordResponse{
			Address:      encodeKey(v.Address),
			OwnerRecord:  encodeKey(v.OwnerRecord),
			Scope:        encodeKey(v.Scope),
			Options:      parseOptionIndexes(v.Options),
			Weight:       uint64(v.Weight),
			Relinquished: v.Relinquished,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseOptionIndexes(s string) []uint16 {
	ret := []uint16{}
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.ParseUint(part, 10, 16)
		if err != nil {
			continue
		}
		ret = append(ret, uint16(n))
	}
	return ret
}

// handleDelegations handles GET /api/v0/delegatees/{address}/delegations
func (a *API) handleDelegations(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	address, ok := pathKey(w, r)
	if !ok {
		return
	}
	delegations, err := a.node.Delegations(address)
	if err != nil {
		a.logger.Error(
			"failed to query delegations",
			"delegatee", address.String(),
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"failed to retrieve delegations",
		)
		return
	}
	SetPaginationHeaders(w, len(delegations), params)
	page := Paginate(delegations, params)
	resp := make([]DelegationResponse, 0, len(page))
	for _, d := range page {
		resp = append(resp, DelegationResponse{
			Address:   encodeKey(d.Address),
			Delegator: encodeKey(d.Delegator),
			Delegatee: encodeKey(d.Delegatee),
			Scope:     encodeKey(d.Scope),
			Amount:    uint64(d.Amount),
			Pending:   d.Pending,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAccount handles GET /api/v0/accounts/{address}
func (a *API) handleAccount(
	w http.ResponseWriter,
	r *http.Request,
) {
	address, ok := pathKey(w, r)
	if !ok {
		return
	}
	acct, err := a.node.Account(address)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		a.logger.Error(
			"failed to get account",
			"account", address.String(),
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"failed to retrieve account",
		)
		return
	}
	writeJSON(w, http.StatusOK, AccountResponse{
		Address: address.String(),
		Owner:   acct.Owner.String(),
		Type:    acct.Type,
		Data:    base64.StdEncoding.EncodeToString(acct.Data),
	})
}
