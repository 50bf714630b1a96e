package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello          = "HELLO"
	TypeWelcome        = "WELCOME"
	TypeCatalog        = "CATALOG"
	TypeTurn           = "TURN"
	TypeEvent          = "EVENT"
	TypeEndTurn        = "END_TURN"
	TypeCombatFinished = "COMBAT_FINISHED"
	TypeEventBatchReq  = "EVENT_BATCH_REQ"
	TypeEventBatch     = "EVENT_BATCH"
	TypeAck            = "ACK"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
