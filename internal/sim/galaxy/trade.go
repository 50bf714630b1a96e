package galaxy

// TradeMultipliers weight source and target population in route income.
type TradeMultipliers struct {
	Source float64 `yaml:"source"`
	Target float64 `yaml:"target"`
}

var DefaultTradeMultipliers = TradeMultipliers{Source: 0.025, Target: 0.05}

// TradeRoute links a source colony to at most one foreign target colony.
type TradeRoute struct {
	source  *Colony
	target  *Colony
	Credits int
}

func NewTradeRoute(source *Colony) *TradeRoute { return &TradeRoute{source: source} }

func (r *TradeRoute) Source() *Colony  { return r.source }
func (r *TradeRoute) Target() *Colony  { return r.target }
func (r *TradeRoute) IsAssigned() bool { return r.target != nil }

// SetTargetColony assigns (or with nil, clears) the target. A target may
// only be served by one route of the source colony, so any sibling route
// already pointing at it is cleared.
func (r *TradeRoute) SetTargetColony(target *Colony, mods TradeMultipliers) {
	r.target = target
	if target != nil && r.source != nil {
		for _, sibling := range r.source.TradeRoutes {
			if sibling != r && sibling.IsAssigned() && sibling.target == target {
				sibling.SetTargetColony(nil, mods)
			}
		}
	}
	if target == nil {
		r.Credits = 0
		return
	}
	r.Credits = int(mods.Source*float64(r.source.Population.Current()) + mods.Target*float64(target.Population.Current()))
}

// IsValidTargetColony: nil is always valid (it clears), otherwise the
// target must be owned by another civ that trades with the source owner.
func (r *TradeRoute) IsValidTargetColony(rel Relations, c *Colony) bool {
	if c == nil {
		return true
	}
	if !c.IsOwned() {
		return false
	}
	if r.source == nil || c.OwnerID == r.source.OwnerID {
		return false
	}
	return rel != nil && rel.IsTradeEstablished(r.source.OwnerID, c.OwnerID)
}
