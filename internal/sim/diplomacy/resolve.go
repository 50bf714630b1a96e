package diplomacy

import "supremacy.ai/internal/sim/galaxy"

// Report summarizes one resolution pass for logging.
type Report struct {
	Accepted            int
	Rejected            int
	ProposalsDelivered  int
	StatementsDelivered int
	ResponsesDelivered  int
	WarsDeclared        int
	AgreementsFulfilled int
	AgreementsExpired   int
	ShipsAbsorbed       int
}

// Resolve runs the diplomacy phase in three ordered passes over civ pairs:
// pending decisions and standing effects, mailbox delivery, and agreement
// fulfilment. It runs single-threaded.
func Resolve(g *galaxy.Game, reg *Registry) Report {
	var rep Report
	pairs := reg.Pairs()

	for _, p := range pairs {
		resolvePending(g, reg, p[0], p[1], &rep)
	}
	for _, p := range pairs {
		deliver(g, reg, p[0], p[1], &rep)
		deliver(g, reg, p[1], p[0], &rep)
	}
	for _, a := range reg.Agreements.All() {
		if a.IsActive(g.TurnNumber) && fulfilAgreement(g, a) {
			rep.AgreementsFulfilled++
		}
	}
	rep.AgreementsExpired = reg.Agreements.Expire(g.TurnNumber)
	return rep
}

func resolvePending(g *galaxy.Game, reg *Registry, a, b int, rep *Report) {
	ab, ba := reg.ForeignPower(a, b), reg.ForeignPower(b, a)
	if !ab.IsContactMade() || !ba.IsContactMade() {
		return
	}
	if reg.IsHostileFaction(a) || reg.IsHostileFaction(b) {
		for _, fp := range []*ForeignPower{ab, ba} {
			fp.Regard.Drain()
			fp.Trust.Drain()
		}
		return
	}
	if ab.Status == galaxy.StatusAtWar {
		reg.ApplyRegardChange(b, a, reg.Settings.WarPenalty)
		reg.ApplyTrustChange(b, a, reg.Settings.WarPenalty)
		reg.ApplyRegardChange(a, b, reg.Settings.WarPenalty)
		reg.ApplyTrustChange(a, b, reg.Settings.WarPenalty)
	}

	for _, fp := range []*ForeignPower{ab, ba} {
		if fp.ProposalReceived != nil {
			switch fp.PendingAction {
			case PendingAcceptProposal:
				acceptProposal(g, reg, fp.ProposalReceived)
				rep.Accepted++
			case PendingRejectProposal:
				rejectProposal(g, reg, fp.ProposalReceived)
				rep.Rejected++
			}
			fp.LastProposalReceived = fp.ProposalReceived
			fp.ProposalReceived = nil
		}
		fp.PendingAction = PendingNone
	}

	absorbMember(g, reg, a, b, rep)
	absorbMember(g, reg, b, a, rep)
}

// absorbMember folds a member minor's ships into the empire and credits
// the empire with the minor home colony's research.
func absorbMember(g *galaxy.Game, reg *Registry, empireID, minorID int, rep *Report) {
	empire, minor := reg.Civ(empireID), reg.Civ(minorID)
	if empire == nil || minor == nil || !empire.IsEmpire() || minor.IsEmpire() {
		return
	}
	if reg.Status(empireID, minorID) != galaxy.StatusCounterpartyIsMember {
		return
	}
	moved := 0
	for _, s := range galaxy.FindOwned[*galaxy.Ship](g.Universe, minorID) {
		f := g.TransferShip(s, empireID)
		s.Scrap = false
		f.Order = galaxy.GetDefaultOrder(f)
		moved++
	}
	if oldFleets := galaxy.FindOwned[*galaxy.Fleet](g.Universe, minorID); moved > 0 {
		for _, f := range oldFleets {
			if !f.HasShips() {
				g.Universe.Remove(f.ID)
			}
		}
		g.PostSitRep(empireID, galaxy.SitRepAbsorbed, nil, "%d ships of %s joined our fleet", moved, minor.Name)
	}
	rep.ShipsAbsorbed += moved
	if home := g.HomeColony(minorID); home != nil {
		if m := g.Manager(empireID); m != nil {
			m.Research.UpdateResearch(home.NetResearch())
		}
	}
}

func postToEmpire(g *galaxy.Game, reg *Registry, civID int, cat galaxy.SitRepCategory, format string, args ...any) {
	if c := reg.Civ(civID); c != nil && c.IsEmpire() {
		g.PostSitRep(civID, cat, nil, format, args...)
	}
}

// deliver moves from's outgoing artifacts into to's inbox.
func deliver(g *galaxy.Game, reg *Registry, from, to int, rep *Report) {
	out, in := reg.ForeignPower(from, to), reg.ForeignPower(to, from)
	sender, recipient := reg.Civ(from), reg.Civ(to)

	if p := out.ProposalSent; p != nil {
		in.ProposalReceived = p
		out.LastProposalSent = p
		out.ProposalSent = nil
		rep.ProposalsDelivered++
		postToEmpire(g, reg, from, galaxy.SitRepDiplomatic, "Proposal sent to %s", recipient.Name)
		postToEmpire(g, reg, to, galaxy.SitRepDiplomatic, "Proposal received from %s", sender.Name)
	} else {
		in.ProposalReceived = nil
	}

	if s := out.StatementSent; s != nil {
		in.StatementReceived = s
		in.LastStatementReceived = s
		out.LastStatementSent = s
		out.StatementSent = nil
		rep.StatementsDelivered++
		if s.Type == StatementWarDeclaration {
			if reg.DeclareWar(from, to) {
				rep.WarsDeclared++
				postToEmpire(g, reg, from, galaxy.SitRepWarDeclared, "We declared war on %s", recipient.Name)
				postToEmpire(g, reg, to, galaxy.SitRepWarDeclared, "%s declared war on us", sender.Name)
			}
		} else {
			postToEmpire(g, reg, to, galaxy.SitRepDiplomatic, "%s: %s", sender.Name, s.Type)
		}
	} else {
		in.StatementReceived = nil
	}

	if r := out.ResponseSent; r != nil {
		in.ResponseReceived = r
		in.LastResponseReceived = r
		out.LastResponseSent = r
		out.ResponseSent = nil
		rep.ResponsesDelivered++
		if r.Type != ResponseNone && !(r.Type == ResponseAccept && r.Proposal.IsGift()) {
			postToEmpire(g, reg, to, galaxy.SitRepDiplomatic, "%s answered our proposal: %s", sender.Name, r.Type)
			postToEmpire(g, reg, from, galaxy.SitRepDiplomatic, "We answered %s: %s", recipient.Name, r.Type)
		}
	} else {
		in.ResponseReceived = nil
	}
}
