package diplomacy

import (
	"github.com/google/uuid"

	"supremacy.ai/internal/sim/galaxy"
)

type PendingAction int

const (
	PendingNone PendingAction = iota
	PendingAcceptProposal
	PendingRejectProposal
)

type ClauseType int

const (
	ClauseNone ClauseType = iota
	ClauseOfferGiveCredits
	ClauseRequestGiveCredits
	ClauseOfferGiveResources
	ClauseRequestGiveResources
	ClauseOfferMapData
	ClauseRequestMapData
	ClauseTreatyWarPact
	ClauseTreatyCeaseFire
	ClauseTreatyNonAggression
	ClauseTreatyOpenBorders
	ClauseTreatyAffiliation
	ClauseTreatyDefensiveAlliance
	ClauseTreatyFullAlliance
	ClauseTreatyMembership
	ClauseTreatyResearchPact
	ClauseTreatyTradePact
)

var clauseNames = []string{
	"NoClause", "OfferGiveCredits", "RequestGiveCredits", "OfferGiveResources", "RequestGiveResources",
	"OfferMapData", "RequestMapData", "TreatyWarPact", "TreatyCeaseFire", "TreatyNonAggression",
	"TreatyOpenBorders", "TreatyAffiliation", "TreatyDefensiveAlliance", "TreatyFullAlliance",
	"TreatyMembership", "TreatyResearchPact", "TreatyTradePact",
}

func (c ClauseType) String() string {
	if int(c) >= 0 && int(c) < len(clauseNames) {
		return clauseNames[c]
	}
	return "Unknown"
}

// ParseClauseType maps wire names back to clause types.
func ParseClauseType(s string) (ClauseType, bool) {
	for i, n := range clauseNames {
		if n == s {
			return ClauseType(i), true
		}
	}
	return ClauseNone, false
}

func (c ClauseType) IsTreaty() bool { return c >= ClauseTreatyWarPact }

func (c ClauseType) IsOffer() bool {
	return c == ClauseOfferGiveCredits || c == ClauseOfferGiveResources || c == ClauseOfferMapData
}

// Treaty maps a treaty clause onto the shared treaty kind.
func (c ClauseType) Treaty() (galaxy.Treaty, bool) {
	switch c {
	case ClauseTreatyWarPact:
		return galaxy.TreatyWarPact, true
	case ClauseTreatyCeaseFire:
		return galaxy.TreatyCeaseFire, true
	case ClauseTreatyNonAggression:
		return galaxy.TreatyNonAggression, true
	case ClauseTreatyOpenBorders:
		return galaxy.TreatyOpenBorders, true
	case ClauseTreatyAffiliation:
		return galaxy.TreatyAffiliation, true
	case ClauseTreatyDefensiveAlliance:
		return galaxy.TreatyDefensiveAlliance, true
	case ClauseTreatyFullAlliance:
		return galaxy.TreatyFullAlliance, true
	case ClauseTreatyMembership:
		return galaxy.TreatyMembership, true
	case ClauseTreatyResearchPact:
		return galaxy.TreatyResearchPact, true
	case ClauseTreatyTradePact:
		return galaxy.TreatyTradePact, true
	}
	return 0, false
}

type Clause struct {
	Type      ClauseType       `json:"type"`
	Credits   int              `json:"credits,omitempty"`
	Resources galaxy.Resources `json:"resources,omitempty"`
	// Duration in turns; 0 means open-ended for treaties and one-shot for transfers.
	Duration  int              `json:"duration,omitempty"`
	Recurring bool             `json:"recurring,omitempty"`
	TargetID  int              `json:"target_id,omitempty"`
}

type Proposal struct {
	ID          string   `json:"id"`
	SenderID    int      `json:"sender_id"`
	RecipientID int      `json:"recipient_id"`
	TurnSent    int      `json:"turn_sent"`
	Clauses     []Clause `json:"clauses"`
}

func NewProposal(sender, recipient, turn int, clauses ...Clause) *Proposal {
	return &Proposal{ID: uuid.New().String(), SenderID: sender, RecipientID: recipient, TurnSent: turn, Clauses: clauses}
}

// IsGift reports a proposal that only offers things to the recipient.
func (p *Proposal) IsGift() bool {
	if p == nil || len(p.Clauses) == 0 {
		return false
	}
	for _, c := range p.Clauses {
		if !c.Type.IsOffer() {
			return false
		}
	}
	return true
}

func (p *Proposal) HasClause(t ClauseType) bool {
	if p == nil {
		return false
	}
	for _, c := range p.Clauses {
		if c.Type == t {
			return true
		}
	}
	return false
}

type StatementType int

const (
	StatementNone StatementType = iota
	StatementCommendRelationship
	StatementDenounceRelationship
	StatementCommendWar
	StatementDenounceWar
	StatementWarPact
	StatementWarDeclaration
)

var statementNames = []string{
	"NoStatement", "CommendRelationship", "DenounceRelationship", "CommendWar",
	"DenounceWar", "WarPact", "WarDeclaration",
}

func (s StatementType) String() string {
	if int(s) >= 0 && int(s) < len(statementNames) {
		return statementNames[s]
	}
	return "Unknown"
}

func ParseStatementType(s string) (StatementType, bool) {
	for i, n := range statementNames {
		if n == s {
			return StatementType(i), true
		}
	}
	return StatementNone, false
}

type Statement struct {
	SenderID    int           `json:"sender_id"`
	RecipientID int           `json:"recipient_id"`
	Type        StatementType `json:"type"`
	TurnSent    int           `json:"turn_sent"`
}

type ResponseType int

const (
	ResponseNone ResponseType = iota
	ResponseAccept
	ResponseReject
)

var responseNames = []string{"NoResponse", "Accept", "Reject"}

func (r ResponseType) String() string {
	if int(r) >= 0 && int(r) < len(responseNames) {
		return responseNames[r]
	}
	return "Unknown"
}

type Response struct {
	SenderID    int          `json:"sender_id"`
	RecipientID int          `json:"recipient_id"`
	Type        ResponseType `json:"type"`
	Proposal    *Proposal    `json:"proposal,omitempty"`
	TurnSent    int          `json:"turn_sent"`
}
