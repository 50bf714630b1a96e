package main

import (
	"encoding/json"
	"flag"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"supremacy.ai/internal/protocol"
)

// bot seats itself on a human civ, acknowledges every combat it is shown
// and ends each turn as soon as it arrives.
func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name   = flag.String("name", "bot", "player name")
		civ    = flag.String("civ", "", "civ key (default: first free human civ)")
		resume = flag.String("resume", "", "resume token from an earlier WELCOME")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		logger = zap.NewExample()
	}
	defer func() { _ = logger.Sync() }()

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatal("dial", zap.Error(err))
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      *name,
		CivKey:          *civ,
		MaxQueue:        128,
	}
	if *resume != "" {
		hello.Auth = &protocol.HelloAuth{Token: *resume}
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatal("send HELLO", zap.Error(err))
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Info("WELCOME", zap.String("player", w.PlayerID), zap.String("civ", w.CivKey), zap.Int("turn", w.GameParams.Turn), zap.String("resume_token", w.ResumeToken))
			endTurn(conn, w.GameParams.Turn)

		case protocol.TypeTurn:
			var t protocol.TurnMsg
			if err := json.Unmarshal(msg, &t); err != nil {
				continue
			}
			logger.Info("TURN",
				zap.Int("turn", t.Turn),
				zap.String("digest", t.Digest),
				zap.Int("credits", t.Civ.Credits),
				zap.Int("colonies", len(t.Colonies)),
				zap.Int("fleets", len(t.Fleets)),
				zap.Int("combats", t.Summary.Combats),
			)
			endTurn(conn, t.Turn)

		case protocol.TypeEvent:
			var ev protocol.EventMsg
			if err := json.Unmarshal(msg, &ev); err != nil {
				continue
			}
			typ, _ := ev.Event["type"].(string)
			if typ != "COMBAT" && typ != "INVASION" {
				continue
			}
			id, _ := ev.Event["combat_id"].(string)
			logger.Info(typ, zap.String("combat", id), zap.Any("pos", ev.Event["pos"]))
			_ = conn.WriteJSON(protocol.CombatFinishedMsg{
				Type:            protocol.TypeCombatFinished,
				ProtocolVersion: protocol.Version,
				CombatID:        id,
			})

		case protocol.TypeAck:
			var ack protocol.AckMsg
			if err := json.Unmarshal(msg, &ack); err != nil {
				continue
			}
			if !ack.Accepted {
				logger.Warn("rejected", zap.String("for", ack.AckFor), zap.String("code", ack.Code), zap.String("message", ack.Message))
				if ack.AckFor == protocol.TypeHello {
					return
				}
			}
		}
	}
}

func endTurn(conn *websocket.Conn, turn int) {
	_ = conn.WriteJSON(protocol.EndTurnMsg{
		Type:            protocol.TypeEndTurn,
		ProtocolVersion: protocol.Version,
		Turn:            turn,
	})
}
