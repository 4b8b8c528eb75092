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

package governance

import (
	"github.com/blinklabs-io/agora/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts committed governance activity from the event bus
type Metrics struct {
	proposalsCreated    prometheus.Counter
	proposalTransitions *prometheus.CounterVec
	votesTotal          *prometheus.CounterVec
	delegationsTotal    *prometheus.CounterVec
	transactionsTotal   *prometheus.CounterVec
	subscriptions       map[event.EventType]event.EventSubscriberId
}

func NewMetrics(promRegistry prometheus.Registerer) *Metrics {
	promautoFactory := promauto.With(promRegistry)
	return &Metrics{
		proposalsCreated: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: "agora_governance_proposals_created_total",
			Help: "proposals created",
		}),
		proposalTransitions: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agora_governance_proposal_transitions_total",
				Help: "proposal state transitions by target state",
			},
			[]string{"state"},
		),
		votesTotal: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agora_governance_votes_total",
				Help: "votes cast and relinquished",
			},
			[]string{"action"},
		),
		delegationsTotal: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agora_governance_delegations_total",
				Help: "delegation changes by direction",
			},
			[]string{"direction"},
		),
		transactionsTotal: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agora_governance_transactions_total",
				Help: "proposal transactions by execution status",
			},
			[]string{"status"},
		),
		subscriptions: make(map[event.EventType]event.EventSubscriberId),
	}
}

// Subscribe starts counting events published on bus
func (m *Metrics) Subscribe(bus *event.EventBus) {
	m.subscriptions[event.ProposalStateEventType] = bus.SubscribeFunc(event.ProposalStateEventType, m.handleEvent)
	m.subscriptions[event.VoteEventType] = bus.SubscribeFunc(event.VoteEventType, m.handleEvent)
	m.subscriptions[event.DelegationEventType] = bus.SubscribeFunc(event.DelegationEventType, m.handleEvent)
	m.subscriptions[event.TransactionEventType] = bus.SubscribeFunc(event.TransactionEventType, m.handleEvent)
}

// Unsubscribe stops counting
func (m *Metrics) Unsubscribe(bus *event.EventBus) {
	for eventType, id := range m.subscriptions {
		bus.Unsubscribe(eventType, id)
		delete(m.subscriptions, eventType)
	}
}

func (m *Metrics) handleEvent(evt event.Event) {
	switch data := evt.Data.(type) {
	case event.ProposalStateEvent:
		if data.From == "" {
			m.proposalsCreated.Inc()
		}
		m.proposalTransitions.WithLabelValues(data.To).Inc()
	case event.VoteEvent:
		action := "cast"
		if data.Relinquished {
			action = "relinquished"
		}
		m.votesTotal.WithLabelValues(action).Inc()
	case event.DelegationEvent:
		direction := "delegate"
		if data.Undelegate {
			direction = "undelegate"
		}
		m.delegationsTotal.WithLabelValues(direction).Inc()
	case event.TransactionEvent:
		m.transactionsTotal.WithLabelValues(data.Status).Inc()
	}
}
