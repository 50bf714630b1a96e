package protocol

// EVENT_BATCH_REQ (client -> server): replay buffered turn events after a
// cursor, e.g. after a reconnect.
type EventBatchReqMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	ReqID           string   `json:"req_id"`
	SinceCursor     uint64   `json:"since_cursor"`
	Limit           int      `json:"limit"`
	Types           []string `json:"types,omitempty"` // empty: every event type
}

type EventBatchItem struct {
	Cursor uint64 `json:"cursor"`
	Event  Event  `json:"event"`
}

// EVENT_BATCH (server -> client)
type EventBatchMsg struct {
	Type            string           `json:"type"`
	ProtocolVersion string           `json:"protocol_version"`
	ReqID           string           `json:"req_id"`
	Turn            int              `json:"turn"`
	Events          []EventBatchItem `json:"events"`
	NextCursor      uint64           `json:"next_cursor"`
	// Gap is set when events after since_cursor already left the buffer.
	Gap bool `json:"gap,omitempty"`
}
