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

package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type stateMetrics struct {
	transactionsTotal   *prometheus.CounterVec
	instructionsTotal   *prometheus.CounterVec
	accountsWritten     prometheus.Counter
	transactionDuration prometheus.Histogram
}

func (m *stateMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.transactionsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_ledger_transactions_total",
			Help: "transactions processed by result",
		},
		[]string{"result"},
	)
	m.instructionsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_ledger_instructions_total",
			Help: "top level instructions processed by program and result",
		},
		[]string{"program", "result"},
	)
	m.accountsWritten = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "agora_ledger_accounts_written_total",
		Help: "accounts written by committed transactions",
	})
	m.transactionDuration = promautoFactory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agora_ledger_transaction_duration_seconds",
			Help:    "time to execute and commit a transaction",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
	)
}
