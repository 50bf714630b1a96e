package ai

import (
	"go.uber.org/zap"

	"supremacy.ai/internal/sim/diplomacy"
	"supremacy.ai/internal/sim/galaxy"
)

// DoDiplomacy answers every proposal the civ has received and declares
// war on civs it has come to despise. Answers take effect during the next
// diplomacy phase.
func (p *Players) DoDiplomacy(g *galaxy.Game, reg *diplomacy.Registry, civ *galaxy.Civilization) {
	d := p.tun.Diplomacy
	for _, other := range g.Civilizations {
		if other.ID == civ.ID {
			continue
		}
		fp := reg.ForeignPower(civ.ID, other.ID)
		if fp == nil || !fp.IsContactMade() {
			continue
		}
		regard := reg.Regard(civ.ID, other.ID)

		if in := fp.ProposalReceived; in != nil && fp.PendingAction == diplomacy.PendingNone {
			action, answer := diplomacy.PendingRejectProposal, diplomacy.ResponseReject
			if regard >= d.AIAcceptRegardThreshold || in.IsGift() {
				action, answer = diplomacy.PendingAcceptProposal, diplomacy.ResponseAccept
			}
			if err := reg.SetPendingAction(civ.ID, other.ID, action); err != nil {
				p.log.Warn("pending action rejected", zap.String("civ", civ.Key), zap.Error(err))
				continue
			}
			fp.SendResponse(&diplomacy.Response{
				SenderID:    civ.ID,
				RecipientID: other.ID,
				Type:        answer,
				Proposal:    in,
				TurnSent:    g.TurnNumber,
			})
		}

		if regard <= d.AIWarDeclareRegardCutoff && !reg.AreAtWar(civ.ID, other.ID) && fp.StatementSent == nil {
			fp.SendStatement(&diplomacy.Statement{
				SenderID:    civ.ID,
				RecipientID: other.ID,
				Type:        diplomacy.StatementWarDeclaration,
				TurnSent:    g.TurnNumber,
			})
			p.log.Info("war declaration sent", zap.String("civ", civ.Key), zap.String("target", other.Key), zap.Int("regard", regard))
		}
	}
}
