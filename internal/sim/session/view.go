package session

import (
	"sort"

	"supremacy.ai/internal/protocol"
	"supremacy.ai/internal/sim/catalogs"
	"supremacy.ai/internal/sim/encoding"
	"supremacy.ai/internal/sim/engine"
	"supremacy.ai/internal/sim/galaxy"
)

func pos(l galaxy.MapLocation) [2]int { return [2]int{l.X, l.Y} }

func (s *Session) buildWelcome(p *player) protocol.WelcomeMsg {
	g := s.game
	civ := g.Civ(p.CivID)
	refs := make([]protocol.CivRef, 0, len(g.Civilizations))
	for _, c := range g.Civilizations {
		ref := protocol.CivRef{ID: c.ID, Key: c.Key, Name: c.Name, Type: c.Type.String(), Human: c.IsHuman}
		if pp := s.playerForCiv(c.ID); pp != nil && pp.Out != nil {
			ref.Player = pp.Name
		}
		refs = append(refs, ref)
	}
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       s.id,
		PlayerID:        p.ID,
		ResumeToken:     p.Token,
		CivID:           civ.ID,
		CivKey:          civ.Key,
		GameParams: protocol.GameParams{
			MapWidth:     g.Map().Width,
			MapHeight:    g.Map().Height,
			Seed:         g.Seed,
			Turn:         g.TurnNumber,
			TurnTimerSec: s.tun.TurnTimerSec,
		},
		Catalogs: s.welcomeCatalogs,
		Civs:     refs,
	}
}

func catalogMsg(name, digest string, data any) protocol.CatalogMsg {
	return protocol.CatalogMsg{
		Type:            protocol.TypeCatalog,
		ProtocolVersion: protocol.Version,
		Name:            name,
		Digest:          digest,
		Part:            1,
		TotalParts:      1,
		Data:            data,
	}
}

func sortedValues[T any](m map[string]*T) []*T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func buildCatalogMsgs(cats *catalogs.Catalogs) (protocol.CatalogDigests, []protocol.CatalogMsg) {
	if cats == nil || cats.Designs == nil {
		return protocol.CatalogDigests{}, nil
	}
	d := cats.Designs
	digests := protocol.CatalogDigests{
		Ships:      cats.Digests["ships.json"],
		Stations:   cats.Digests["stations.json"],
		Buildings:  cats.Digests["buildings.json"],
		Shipyards:  cats.Digests["shipyards.json"],
		Facilities: cats.Digests["facilities.json"],
		Digest:     cats.Digest,
	}
	facilities := make([]*galaxy.FacilityDesign, 0, len(d.Facilities))
	for _, fd := range d.Facilities {
		facilities = append(facilities, fd)
	}
	sort.Slice(facilities, func(i, j int) bool { return facilities[i].Category < facilities[j].Category })

	msgs := []protocol.CatalogMsg{
		catalogMsg("ships", digests.Ships, sortedValues(d.Ships)),
		catalogMsg("stations", digests.Stations, sortedValues(d.Stations)),
		catalogMsg("buildings", digests.Buildings, sortedValues(d.Buildings)),
		catalogMsg("shipyards", digests.Shipyards, sortedValues(d.Shipyards)),
		catalogMsg("facilities", digests.Facilities, facilities),
	}
	return digests, msgs
}

// buildTurnMsg is civID's view of the game after the turn rep describes.
// Sector owners are hidden where the civ has no scan data.
func (s *Session) buildTurnMsg(civID int, rep engine.TurnReport) protocol.TurnMsg {
	g := s.game
	msg := protocol.TurnMsg{
		Type:            protocol.TypeTurn,
		ProtocolVersion: protocol.Version,
		Turn:            g.TurnNumber,
		Digest:          rep.Digest,
		CivID:           civID,
		Colonies:        []protocol.ColonyObs{},
		Fleets:          []protocol.FleetObs{},
		SitReps:         []protocol.SitRepObs{},
		Summary: protocol.TurnSummary{
			Combats:      rep.Combats,
			Invasions:    rep.Invasions,
			FleetsMoved:  rep.FleetsMoved,
			ShipsLost:    rep.ShipsLost,
			ColoniesLost: rep.ColoniesLost,
			ElapsedMs:    rep.Elapsed.Milliseconds(),
		},
	}
	if !s.deadline.IsZero() {
		msg.TurnDeadlineMs = s.deadline.UnixMilli()
	}
	m := g.Manager(civID)
	if m == nil {
		return msg
	}

	res := m.Resources.Snapshot()
	msg.Civ = protocol.CivObs{
		Key:         m.Civ.Key,
		Credits:     m.Credits.Current(),
		Deuterium:   res.Deuterium,
		Dilithium:   res.Dilithium,
		Raw:         res.RawMaterials,
		Population:  m.TotalPopulation.Current(),
		Research:    m.Research.CumulativePoints.Current(),
		Maintenance: m.MaintenanceCostLastTurn,
	}
	if g.Relations != nil {
		for _, other := range g.Civilizations {
			if other.ID != civID && g.Relations.AreAtWar(civID, other.ID) {
				msg.Civ.AtWarWith = append(msg.Civ.AtWarWith, other.Key)
			}
		}
	}

	vis := m.MapData.VisibilityLayer()
	owners := g.Claims.OwnerLayer()
	for i := range owners {
		if i < len(vis) && vis[i] == galaxy.VisUnknown {
			owners[i] = 0
		}
	}
	msg.Map = protocol.MapObs{
		Width:      g.Map().Width,
		Height:     g.Map().Height,
		Encoding:   "RLE",
		Visibility: encoding.EncodeRLE(vis),
		Owners:     encoding.EncodeRLE(owners),
	}

	for _, c := range g.ColoniesOf(civID) {
		co := protocol.ColonyObs{
			ID:         c.ID,
			Name:       c.Name,
			Pos:        pos(c.Location),
			Population: c.Population.Current(),
			Morale:     c.Morale.Current(),
			Health:     c.Health.Current(),
		}
		if c.BuildSlot.HasProject() {
			co.Building = c.BuildSlot.Project.Name
		}
		msg.Colonies = append(msg.Colonies, co)
	}
	for _, f := range g.FleetsOf(civID) {
		fo := protocol.FleetObs{
			ID:       f.ID,
			Name:     f.Name,
			Pos:      pos(f.Location),
			Ships:    len(f.Ships),
			UnitAI:   f.UnitAIType.String(),
			Activity: f.Activity.String(),
		}
		if f.Order != nil {
			fo.Order = f.Order.Name()
		}
		for _, step := range f.Route.Steps {
			fo.Route = append(fo.Route, pos(step))
		}
		msg.Fleets = append(msg.Fleets, fo)
	}
	for _, sr := range m.SitReps() {
		so := protocol.SitRepObs{ID: sr.ID, Category: string(sr.Category), Summary: sr.Summary}
		if sr.Location != nil {
			p := pos(*sr.Location)
			so.Pos = &p
		}
		msg.SitReps = append(msg.SitReps, so)
	}
	return msg
}
