package diplomacy

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"supremacy.ai/internal/sim/galaxy"
	"supremacy.ai/internal/sim/meter"
)

const (
	MinRegard = -1000
	MaxRegard = 1000
)

var ErrUnknownPair = errors.New("diplomacy: unknown civilization pair")

// ForeignPower is one civ's view of another. Records come in pairs; each
// side owns its outgoing mailboxes and receives into the counterparty's.
type ForeignPower struct {
	OwnerID        int
	CounterpartyID int
	Status         galaxy.DiplomacyStatus
	Regard         meter.Meter
	Trust          meter.Meter
	ContactTurn    int
	SpyNetwork     bool

	ProposalSent         *Proposal
	ProposalReceived     *Proposal
	LastProposalSent     *Proposal
	LastProposalReceived *Proposal

	StatementSent         *Statement
	StatementReceived     *Statement
	LastStatementSent     *Statement
	LastStatementReceived *Statement

	ResponseSent         *Response
	ResponseReceived     *Response
	LastResponseSent     *Response
	LastResponseReceived *Response

	PendingAction PendingAction

	counterparty *ForeignPower
}

func (fp *ForeignPower) Counterparty() *ForeignPower { return fp.counterparty }

func (fp *ForeignPower) IsContactMade() bool { return fp.Status != galaxy.StatusNoContact }

// SendProposal places p in the outbox; it is delivered during the next
// diplomacy resolution.
func (fp *ForeignPower) SendProposal(p *Proposal) { fp.ProposalSent = p }

func (fp *ForeignPower) SendStatement(s *Statement) { fp.StatementSent = s }

func (fp *ForeignPower) SendResponse(r *Response) { fp.ResponseSent = r }

// Settings carries the tuning the registry needs.
type Settings struct {
	WarPenalty          int
	HostileFactionKey   string
	AcceptRegardBonus   int
	RejectRegardPenalty int
}

func DefaultSettings() Settings {
	return Settings{WarPenalty: -1000, HostileFactionKey: "BORG", AcceptRegardBonus: 25, RejectRegardPenalty: -10}
}

type pairKey struct{ owner, counterparty int }

// Registry holds every ForeignPower record and the agreement matrix. It
// implements galaxy.Relations.
type Registry struct {
	Settings   Settings
	Agreements *AgreementMatrix

	mu     sync.Mutex
	civs   map[int]*galaxy.Civilization
	powers map[pairKey]*ForeignPower
	civIDs []int
}

func NewRegistry(civs []*galaxy.Civilization, s Settings) *Registry {
	r := &Registry{
		Settings:   s,
		Agreements: NewAgreementMatrix(),
		civs:       map[int]*galaxy.Civilization{},
		powers:     map[pairKey]*ForeignPower{},
	}
	for _, c := range civs {
		r.civs[c.ID] = c
		r.civIDs = append(r.civIDs, c.ID)
	}
	sort.Ints(r.civIDs)
	for i, a := range r.civIDs {
		for _, b := range r.civIDs[i+1:] {
			ab := newForeignPower(a, b)
			ba := newForeignPower(b, a)
			ab.counterparty, ba.counterparty = ba, ab
			r.powers[pairKey{a, b}] = ab
			r.powers[pairKey{b, a}] = ba
		}
	}
	return r
}

func newForeignPower(owner, counterparty int) *ForeignPower {
	return &ForeignPower{
		OwnerID:        owner,
		CounterpartyID: counterparty,
		Status:         galaxy.StatusNoContact,
		Regard:         meter.New(0, MinRegard, MaxRegard),
		Trust:          meter.New(0, MinRegard, MaxRegard),
	}
}

// ForeignPower returns owner's record about counterparty, or nil.
func (r *Registry) ForeignPower(owner, counterparty int) *ForeignPower {
	return r.powers[pairKey{owner, counterparty}]
}

// Pairs lists unordered civ pairs (a < b) in id order.
func (r *Registry) Pairs() [][2]int {
	out := make([][2]int, 0, len(r.civIDs)*len(r.civIDs)/2)
	for i, a := range r.civIDs {
		for _, b := range r.civIDs[i+1:] {
			out = append(out, [2]int{a, b})
		}
	}
	return out
}

func (r *Registry) Civ(id int) *galaxy.Civilization { return r.civs[id] }

func (r *Registry) IsHostileFaction(civID int) bool {
	c := r.civs[civID]
	return c != nil && r.Settings.HostileFactionKey != "" && c.Key == r.Settings.HostileFactionKey
}

func (r *Registry) Status(owner, counterparty int) galaxy.DiplomacyStatus {
	if fp := r.ForeignPower(owner, counterparty); fp != nil {
		return fp.Status
	}
	return galaxy.StatusNoContact
}

func (r *Registry) IsContactMade(a, b int) bool {
	return a != b && r.Status(a, b) != galaxy.StatusNoContact
}

// MakeContact moves a pair out of NoContact into Neutral.
func (r *Registry) MakeContact(a, b, turn int) {
	ab, ba := r.ForeignPower(a, b), r.ForeignPower(b, a)
	if ab == nil || ba == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if ab.Status != galaxy.StatusNoContact {
		return
	}
	status := galaxy.StatusNeutral
	if r.IsHostileFaction(a) || r.IsHostileFaction(b) {
		status = galaxy.StatusAtWar
	}
	ab.Status, ba.Status = status, status
	ab.ContactTurn, ba.ContactTurn = turn, turn
}

func (r *Registry) AreAtWar(a, b int) bool { return a != b && r.Status(a, b) == galaxy.StatusAtWar }

func (r *Registry) AreAllied(a, b int) bool {
	s := r.Status(a, b)
	return s == galaxy.StatusAllied || s == galaxy.StatusAffiliated
}

func (r *Registry) AreFriendly(a, b int) bool {
	s := r.Status(a, b)
	return s == galaxy.StatusFriendly || s == galaxy.StatusPeace
}

func (r *Registry) AreNeutral(a, b int) bool {
	s := r.Status(a, b)
	return s == galaxy.StatusNeutral || s == galaxy.StatusCold
}

func (r *Registry) IsMember(a, b int) bool { return r.Status(a, b).IsMembership() }

// ArePotentialEnemies is true for civs at war, on cold terms, or either
// being the hostile faction.
func (r *Registry) ArePotentialEnemies(a, b int) bool {
	if a == b {
		return false
	}
	if r.IsHostileFaction(a) || r.IsHostileFaction(b) {
		return true
	}
	s := r.Status(a, b)
	return s == galaxy.StatusAtWar || s == galaxy.StatusCold
}

func (r *Registry) WillEngage(a, b int) bool {
	if a == b || a == galaxy.NoOwner || b == galaxy.NoOwner {
		return false
	}
	if r.IsHostileFaction(a) || r.IsHostileFaction(b) {
		return true
	}
	return r.AreAtWar(a, b)
}

func (r *Registry) WillFightAlongside(a, b int) bool {
	if a == b {
		return true
	}
	return r.AreAllied(a, b) || r.IsMember(a, b)
}

func (r *Registry) IsTradeEstablished(a, b int) bool {
	s := r.Status(a, b)
	if s >= galaxy.StatusPeace {
		return true
	}
	return r.HasTreaty(a, b, galaxy.TreatyTradePact)
}

func (r *Registry) HasTreaty(a, b int, t galaxy.Treaty) bool {
	return r.Agreements.HasTreaty(a, b, t)
}

func (r *Registry) HasSpyNetwork(spy, target int) bool {
	fp := r.ForeignPower(spy, target)
	if fp == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fp.SpyNetwork
}

func (r *Registry) EstablishSpyNetwork(spy, target int) {
	fp := r.ForeignPower(spy, target)
	if fp == nil {
		return
	}
	r.mu.Lock()
	fp.SpyNetwork = true
	r.mu.Unlock()
}

func (r *Registry) Regard(owner, counterparty int) int {
	fp := r.ForeignPower(owner, counterparty)
	if fp == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fp.Regard.Current()
}

func (r *Registry) Trust(owner, counterparty int) int {
	fp := r.ForeignPower(owner, counterparty)
	if fp == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fp.Trust.Current()
}

// ApplyRegardChange shifts owner's regard for counterparty. Safe to call
// from parallel phases.
func (r *Registry) ApplyRegardChange(owner, counterparty, delta int) {
	fp := r.ForeignPower(owner, counterparty)
	if fp == nil {
		return
	}
	r.mu.Lock()
	fp.Regard.AdjustCurrent(delta)
	fp.Regard.UpdateAndReset()
	r.mu.Unlock()
}

func (r *Registry) ApplyTrustChange(owner, counterparty, delta int) {
	fp := r.ForeignPower(owner, counterparty)
	if fp == nil {
		return
	}
	r.mu.Lock()
	fp.Trust.AdjustCurrent(delta)
	fp.Trust.UpdateAndReset()
	r.mu.Unlock()
}

// SetPendingAction records a human player's decision on the proposal they
// received from counterparty.
func (r *Registry) SetPendingAction(owner, counterparty int, a PendingAction) error {
	fp := r.ForeignPower(owner, counterparty)
	if fp == nil {
		return fmt.Errorf("%w: %d/%d", ErrUnknownPair, owner, counterparty)
	}
	if fp.ProposalReceived == nil && a != PendingNone {
		return fmt.Errorf("diplomacy: civ %d has no proposal from %d", owner, counterparty)
	}
	r.mu.Lock()
	fp.PendingAction = a
	r.mu.Unlock()
	return nil
}

// DeclareWar puts both records at war. Agreements between the pair are
// cancelled and the war penalty applied only on the transition; it
// reports whether the status changed.
func (r *Registry) DeclareWar(a, b int) bool {
	ab, ba := r.ForeignPower(a, b), r.ForeignPower(b, a)
	if ab == nil || ba == nil || ab.Status == galaxy.StatusAtWar {
		return false
	}
	r.mu.Lock()
	ab.Status, ba.Status = galaxy.StatusAtWar, galaxy.StatusAtWar
	for _, fp := range []*ForeignPower{ab, ba} {
		fp.Regard.AdjustCurrent(r.Settings.WarPenalty)
		fp.Regard.UpdateAndReset()
		fp.Trust.AdjustCurrent(r.Settings.WarPenalty)
		fp.Trust.UpdateAndReset()
	}
	r.mu.Unlock()
	r.Agreements.CancelAll(a, b)
	return true
}

// SetStatus forces both records of a pair to a status (scenario setup, treaties).
func (r *Registry) SetStatus(a, b int, s galaxy.DiplomacyStatus) {
	ab, ba := r.ForeignPower(a, b), r.ForeignPower(b, a)
	if ab == nil || ba == nil {
		return
	}
	r.mu.Lock()
	ab.Status, ba.Status = s, s
	if s == galaxy.StatusOwnerIsMember {
		ba.Status = galaxy.StatusCounterpartyIsMember
	} else if s == galaxy.StatusCounterpartyIsMember {
		ba.Status = galaxy.StatusOwnerIsMember
	}
	r.mu.Unlock()
}
