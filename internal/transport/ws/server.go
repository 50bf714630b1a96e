package ws

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"supremacy.ai/internal/protocol"
	"supremacy.ai/internal/sim/session"
)

type Server struct {
	sess *session.Session
	log  *zap.Logger

	upgrader websocket.Upgrader
	perSec   rate.Limit
	burst    int
}

func NewServer(sess *session.Session, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	tun := sess.TurnSettings()
	s := &Server{
		sess: sess,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		perSec: rate.Inf,
		burst:  tun.InboundBurst,
	}
	if tun.InboundRatePerSec > 0 {
		s.perSec = rate.Limit(tun.InboundRatePerSec)
	}
	if s.burst <= 0 {
		s.burst = 1
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		playerID, out := s.handshake(conn)
		if playerID == "" {
			return
		}
		log := s.log.With(zap.String("player", playerID), zap.String("remote", r.RemoteAddr))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		limiter := rate.NewLimiter(s.perSec, s.burst)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.ProtocolVersion != protocol.Version {
				reject(out, base.Type, protocol.ErrProtoBadRequest, "bad message or protocol_version")
				continue
			}
			if !limiter.Allow() {
				reject(out, base.Type, protocol.ErrRateLimit, "too many messages")
				continue
			}
			if !s.route(playerID, base.Type, msg, out) {
				log.Debug("dropped message", zap.String("type", base.Type))
			}
		}

		// Cleanup.
		select {
		case s.sess.Leave() <- playerID:
		case <-s.sess.Done():
		}
	}
}

// route forwards one decoded client message. It reports false when the
// message was rejected.
func (s *Server) route(playerID, typ string, msg []byte, out chan []byte) bool {
	var env session.Envelope
	switch typ {
	case protocol.TypeEndTurn:
		var m protocol.EndTurnMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			reject(out, typ, protocol.ErrBadRequest, err.Error())
			return false
		}
		env = session.Envelope{PlayerID: playerID, EndTurn: &m}
	case protocol.TypeEventBatchReq:
		var m protocol.EventBatchReqMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			reject(out, typ, protocol.ErrBadRequest, err.Error())
			return false
		}
		env = session.Envelope{PlayerID: playerID, EventReq: &m}
	case protocol.TypeCombatFinished:
		var m protocol.CombatFinishedMsg
		if err := json.Unmarshal(msg, &m); err != nil || m.CombatID == "" {
			reject(out, typ, protocol.ErrBadRequest, "combat_id required")
			return false
		}
		s.sess.CombatFinished(playerID, m.CombatID)
		return true
	default:
		reject(out, typ, protocol.ErrProtoBadRequest, "unexpected message type")
		return false
	}
	if s.stopped() {
		reject(out, typ, protocol.ErrInternal, "game session has stopped")
		return false
	}
	select {
	case s.sess.Inbox() <- env:
		return true
	case <-s.sess.Done():
		reject(out, typ, protocol.ErrInternal, "game session has stopped")
		return false
	}
}

func (s *Server) handshake(conn *websocket.Conn) (playerID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 64
	}
	if maxQ > 512 {
		maxQ = 512
	}
	out = make(chan []byte, maxQ)
	if s.stopped() {
		refuseHello(conn, protocol.ErrInternal, "game session has stopped")
		return "", nil
	}

	var resp session.JoinResponse
	respCh := make(chan session.JoinResponse, 1)
	if hello.Auth != nil && strings.TrimSpace(hello.Auth.Token) != "" {
		req := session.AttachRequest{ResumeToken: hello.Auth.Token, Out: out, Resp: respCh}
		select {
		case s.sess.Attach() <- req:
		case <-s.sess.Done():
			refuseHello(conn, protocol.ErrInternal, "game session has stopped")
			return "", nil
		}
	} else {
		req := session.JoinRequest{Name: hello.PlayerName, CivKey: hello.CivKey, Out: out, Resp: respCh}
		select {
		case s.sess.Join() <- req:
		case <-s.sess.Done():
			refuseHello(conn, protocol.ErrInternal, "game session has stopped")
			return "", nil
		}
	}
	select {
	case resp = <-respCh:
	case <-s.sess.Done():
		refuseHello(conn, protocol.ErrInternal, "game session has stopped")
		return "", nil
	}

	if resp.Code != "" {
		refuseHello(conn, resp.Code, resp.Message)
		return "", nil
	}

	// Send welcome + catalogs before anything queued on out.
	if err := writeJSON(conn, resp.Welcome); err != nil {
		return "", nil
	}
	for _, c := range resp.Catalogs {
		if err := writeJSON(conn, c); err != nil {
			return "", nil
		}
	}
	return resp.Welcome.PlayerID, out
}

func (s *Server) stopped() bool {
	select {
	case <-s.sess.Done():
		return true
	default:
		return false
	}
}

// refuseHello answers HELLO with a rejection and closes the connection.
func refuseHello(conn *websocket.Conn, code, message string) {
	_ = writeJSON(conn, protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          protocol.TypeHello,
		Code:            code,
		Message:         message,
	})
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, code), time.Now().Add(time.Second))
}

// reject queues an ACK for a message the server will not act on. A full
// queue drops it.
func reject(out chan []byte, ackFor, code, message string) {
	b, err := json.Marshal(protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          ackFor,
		Code:            code,
		Message:         message,
	})
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// StatusHandler serves the session status to loopback clients only.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(s.sess.Status())
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
