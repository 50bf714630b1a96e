package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	PlayerName      string     `json:"player_name"`
	CivKey          string     `json:"civ_key,omitempty"` // empty takes the first free human civ
	MaxQueue        int        `json:"max_queue,omitempty"`
	Auth            *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	PlayerID        string         `json:"player_id"`
	ResumeToken     string         `json:"resume_token"`
	CivID           int            `json:"civ_id"`
	CivKey          string         `json:"civ_key"`
	GameParams      GameParams     `json:"game_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
	Civs            []CivRef       `json:"civs"`
}

type GameParams struct {
	MapWidth     int   `json:"map_width"`
	MapHeight    int   `json:"map_height"`
	Seed         int64 `json:"seed"`
	Turn         int   `json:"turn"`
	TurnTimerSec int   `json:"turn_timer_sec,omitempty"`
}

type CivRef struct {
	ID     int    `json:"id"`
	Key    string `json:"key"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Human  bool   `json:"human"`
	Player string `json:"player,omitempty"`
}

type CatalogDigests struct {
	Ships        string `json:"ships"`
	Stations     string `json:"stations"`
	Buildings    string `json:"buildings"`
	Shipyards    string `json:"shipyards"`
	Facilities   string `json:"facilities"`
	Digest       string `json:"digest"`
	TuningDigest string `json:"tuning_digest,omitempty"`
	EventsDigest string `json:"events_digest,omitempty"`
}

// CATALOG (server -> client): one catalog, sent whole.
type CatalogMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Name            string `json:"name"`   // e.g. "ships"
	Digest          string `json:"digest"` // sha256 hex
	Part            int    `json:"part"`
	TotalParts      int    `json:"total_parts"`
	Data            any    `json:"data"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	Turn            int    `json:"turn,omitempty"`
}
