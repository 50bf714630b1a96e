package diplomacy

import (
	"sort"
	"sync"

	"supremacy.ai/internal/sim/galaxy"
)

// Agreement is an accepted proposal that stays in force across turns.
type Agreement struct {
	Proposal  *Proposal
	StartTurn int
	// EndTurn is the last turn the agreement is in force; 0 means open-ended.
	EndTurn int
}

func (a *Agreement) SenderID() int    { return a.Proposal.SenderID }
func (a *Agreement) RecipientID() int { return a.Proposal.RecipientID }

func (a *Agreement) IsActive(turn int) bool { return a.EndTurn == 0 || turn <= a.EndTurn }

type AgreementMatrix struct {
	mu     sync.RWMutex
	byPair map[pairKey][]*Agreement
}

func NewAgreementMatrix() *AgreementMatrix {
	return &AgreementMatrix{byPair: map[pairKey][]*Agreement{}}
}

func orderedPair(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

func (m *AgreementMatrix) Add(a *Agreement) {
	k := orderedPair(a.SenderID(), a.RecipientID())
	m.mu.Lock()
	m.byPair[k] = append(m.byPair[k], a)
	m.mu.Unlock()
}

// Between returns agreements for the pair in the order they were made.
func (m *AgreementMatrix) Between(a, b int) []*Agreement {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Agreement(nil), m.byPair[orderedPair(a, b)]...)
}

func (m *AgreementMatrix) HasTreaty(a, b int, t galaxy.Treaty) bool {
	for _, ag := range m.Between(a, b) {
		for _, c := range ag.Proposal.Clauses {
			if ct, ok := c.Type.Treaty(); ok && ct == t {
				return true
			}
		}
	}
	return false
}

func (m *AgreementMatrix) CancelAll(a, b int) {
	m.mu.Lock()
	delete(m.byPair, orderedPair(a, b))
	m.mu.Unlock()
}

// All returns every agreement ordered by pair, then insertion.
func (m *AgreementMatrix) All() []*Agreement {
	m.mu.RLock()
	keys := make([]pairKey, 0, len(m.byPair))
	for k := range m.byPair {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].owner != keys[j].owner {
			return keys[i].owner < keys[j].owner
		}
		return keys[i].counterparty < keys[j].counterparty
	})
	var out []*Agreement
	for _, k := range keys {
		out = append(out, m.byPair[k]...)
	}
	m.mu.RUnlock()
	return out
}

// Expire drops agreements whose end turn has passed.
func (m *AgreementMatrix) Expire(turn int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for k, list := range m.byPair {
		kept := list[:0]
		for _, a := range list {
			if a.IsActive(turn) {
				kept = append(kept, a)
			} else {
				dropped++
			}
		}
		if len(kept) == 0 {
			delete(m.byPair, k)
		} else {
			m.byPair[k] = kept
		}
	}
	return dropped
}
