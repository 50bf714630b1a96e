package protocol

// TURN (server -> client): one civ's view after a turn is processed.
type TurnMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Turn            int    `json:"turn"`
	Digest          string `json:"digest"`
	CivID           int    `json:"civ_id"`

	Civ      CivObs      `json:"civ"`
	Map      MapObs      `json:"map"`
	Colonies []ColonyObs `json:"colonies"`
	Fleets   []FleetObs  `json:"fleets"`
	SitReps  []SitRepObs `json:"sitreps"`
	Summary  TurnSummary `json:"summary"`
	// TurnDeadlineMs is the unix time the next turn runs without waiting.
	TurnDeadlineMs int64 `json:"turn_deadline_ms,omitempty"`
}

type CivObs struct {
	Key         string   `json:"key"`
	Credits     int      `json:"credits"`
	Deuterium   int      `json:"deuterium"`
	Dilithium   int      `json:"dilithium"`
	Raw         int      `json:"raw_materials"`
	Population  int      `json:"population"`
	Research    int      `json:"research"`
	Maintenance int      `json:"maintenance"`
	AtWarWith   []string `json:"at_war_with,omitempty"`
}

// MapObs carries row-major per-sector layers, RLE encoded.
type MapObs struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Encoding   string `json:"encoding"` // "RLE"
	Visibility string `json:"visibility"`
	Owners     string `json:"owners"`
}

type ColonyObs struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Pos        [2]int `json:"pos"`
	Population int    `json:"population"`
	Morale     int    `json:"morale"`
	Health     int    `json:"health"`
	Building   string `json:"building,omitempty"`
}

type FleetObs struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Pos      [2]int   `json:"pos"`
	Ships    int      `json:"ships"`
	Order    string   `json:"order,omitempty"`
	UnitAI   string   `json:"unit_ai,omitempty"`
	Activity string   `json:"activity,omitempty"`
	Route    [][2]int `json:"route,omitempty"`
}

type SitRepObs struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Summary  string  `json:"summary"`
	Pos      *[2]int `json:"pos,omitempty"`
}

type TurnSummary struct {
	Combats      int   `json:"combats"`
	Invasions    int   `json:"invasions"`
	FleetsMoved  int   `json:"fleets_moved"`
	ShipsLost    int   `json:"ships_lost"`
	ColoniesLost int   `json:"colonies_lost"`
	ElapsedMs    int64 `json:"elapsed_ms"`
}

// Event is a loosely typed turn event: PHASE, COMBAT, INVASION,
// FLEET_MOVED or TURN_ENDED_BY.
type Event map[string]any

// EVENT (server -> client)
type EventMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Cursor          uint64 `json:"cursor"`
	Event           Event  `json:"event"`
}

// END_TURN (client -> server)
type EndTurnMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Turn            int    `json:"turn"`
}

// COMBAT_FINISHED (client -> server): the player has seen the combat and
// lets it resolve.
type CombatFinishedMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	CombatID        string `json:"combat_id"`
}
