package diplomacy

import "supremacy.ai/internal/sim/galaxy"

func transferCredits(g *galaxy.Game, from, to, amount int) {
	src, dst := g.Manager(from), g.Manager(to)
	if src == nil || dst == nil || amount <= 0 {
		return
	}
	moved := -src.Credits.AdjustCurrent(-amount)
	dst.Credits.AdjustCurrent(moved)
}

func transferResources(g *galaxy.Game, from, to int, r galaxy.Resources) {
	src, dst := g.Manager(from), g.Manager(to)
	if src == nil || dst == nil || r.IsZero() {
		return
	}
	moved := galaxy.Resources{
		Deuterium:    -src.Resources.Deuterium.AdjustCurrent(-r.Deuterium),
		Dilithium:    -src.Resources.Dilithium.AdjustCurrent(-r.Dilithium),
		RawMaterials: -src.Resources.RawMaterials.AdjustCurrent(-r.RawMaterials),
	}
	dst.Resources.Credit(moved)
}

// shareMapData copies from's scanned/explored sectors into to's map.
func shareMapData(g *galaxy.Game, from, to int) {
	src, dst := g.Manager(from), g.Manager(to)
	if src == nil || dst == nil {
		return
	}
	g.Map().Each(func(l galaxy.MapLocation) {
		if src.MapData.IsScanned(l) {
			dst.MapData.SetScanned(l, true)
		}
		if src.MapData.IsExplored(l) {
			dst.MapData.SetExplored(l, true)
		}
	})
}

func raiseStatus(reg *Registry, a, b int, s galaxy.DiplomacyStatus) {
	cur := reg.Status(a, b)
	if cur == galaxy.StatusAtWar || cur.IsMembership() || cur >= s {
		return
	}
	reg.SetStatus(a, b, s)
}

// acceptProposal applies every clause of an accepted proposal. Treaties and
// recurring transfers are recorded in the agreement matrix.
func acceptProposal(g *galaxy.Game, reg *Registry, p *Proposal) {
	sender, recipient := p.SenderID, p.RecipientID
	lasting := false
	openEnded := false
	endTurn := 0
	for _, c := range p.Clauses {
		switch c.Type {
		case ClauseOfferGiveCredits:
			if !c.Recurring {
				transferCredits(g, sender, recipient, c.Credits)
			}
		case ClauseRequestGiveCredits:
			if !c.Recurring {
				transferCredits(g, recipient, sender, c.Credits)
			}
		case ClauseOfferGiveResources:
			if !c.Recurring {
				transferResources(g, sender, recipient, c.Resources)
			}
		case ClauseRequestGiveResources:
			if !c.Recurring {
				transferResources(g, recipient, sender, c.Resources)
			}
		case ClauseOfferMapData:
			shareMapData(g, sender, recipient)
		case ClauseRequestMapData:
			shareMapData(g, recipient, sender)
		case ClauseTreatyCeaseFire:
			if reg.AreAtWar(sender, recipient) {
				reg.SetStatus(sender, recipient, galaxy.StatusCold)
			}
		case ClauseTreatyNonAggression, ClauseTreatyOpenBorders, ClauseTreatyTradePact, ClauseTreatyResearchPact:
			raiseStatus(reg, sender, recipient, galaxy.StatusPeace)
		case ClauseTreatyAffiliation:
			raiseStatus(reg, sender, recipient, galaxy.StatusAffiliated)
		case ClauseTreatyDefensiveAlliance, ClauseTreatyFullAlliance:
			raiseStatus(reg, sender, recipient, galaxy.StatusAllied)
		case ClauseTreatyMembership:
			empire, minor := sender, recipient
			if civ := reg.Civ(sender); civ != nil && !civ.IsEmpire() {
				empire, minor = recipient, sender
			}
			reg.SetStatus(empire, minor, galaxy.StatusCounterpartyIsMember)
		case ClauseTreatyWarPact:
			if c.TargetID != sender && c.TargetID != recipient {
				reg.DeclareWar(sender, c.TargetID)
				reg.DeclareWar(recipient, c.TargetID)
			}
		}
		if c.Type.IsTreaty() || c.Recurring {
			lasting = true
			if c.Duration == 0 {
				openEnded = true
			} else if e := g.TurnNumber + c.Duration; e > endTurn {
				endTurn = e
			}
		}
	}
	if lasting {
		if openEnded {
			endTurn = 0
		}
		reg.Agreements.Add(&Agreement{Proposal: p, StartTurn: g.TurnNumber, EndTurn: endTurn})
	}
	reg.ApplyRegardChange(sender, recipient, reg.Settings.AcceptRegardBonus)
	reg.ApplyRegardChange(recipient, sender, reg.Settings.AcceptRegardBonus)
	reg.ApplyTrustChange(sender, recipient, reg.Settings.AcceptRegardBonus)
}

func rejectProposal(_ *galaxy.Game, reg *Registry, p *Proposal) {
	reg.ApplyRegardChange(p.SenderID, p.RecipientID, reg.Settings.RejectRegardPenalty)
}

// fulfilAgreement executes the recurring clauses of an agreement in force.
func fulfilAgreement(g *galaxy.Game, a *Agreement) bool {
	did := false
	for _, c := range a.Proposal.Clauses {
		if !c.Recurring {
			continue
		}
		switch c.Type {
		case ClauseOfferGiveCredits:
			transferCredits(g, a.SenderID(), a.RecipientID(), c.Credits)
			did = true
		case ClauseRequestGiveCredits:
			transferCredits(g, a.RecipientID(), a.SenderID(), c.Credits)
			did = true
		case ClauseOfferGiveResources:
			transferResources(g, a.SenderID(), a.RecipientID(), c.Resources)
			did = true
		case ClauseRequestGiveResources:
			transferResources(g, a.RecipientID(), a.SenderID(), c.Resources)
			did = true
		}
	}
	return did
}
