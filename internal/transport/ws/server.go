package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"gridforge.dev/internal/protocol"
	"gridforge.dev/internal/sim/world"
)

type Server struct {
	world *world.World
	log   *log.Logger

	queueDepth int

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger, queueDepth int) *Server {
	if queueDepth <= 0 {
		queueDepth = 16
	}
	s := &Server{
		world:      w,
		log:        logger,
		queueDepth: queueDepth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
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

		clientID, out := s.handshake(conn)
		if clientID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine. The world pushes at most one STATE per tick;
		// slow readers get old frames dropped by the world side.
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

		// Reader loop. Observers never send; the deadline only bounds how
		// long a dead connection lingers, pings reset it.
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			return nil
		})
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			if base.Type != protocol.TypeAct {
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				continue
			}
			if act.ProtocolVersion != protocol.Version {
				continue
			}
			s.world.Inbox() <- world.CommandEnvelope{ClientID: clientID, Act: act}
		}

		// Cleanup.
		s.world.Leave() <- clientID
	}
}

func (s *Server) handshake(conn *websocket.Conn) (clientID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		s.reject(conn, protocol.ErrProtoBadRequest, "expected HELLO")
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		s.reject(conn, protocol.ErrProtoBadRequest, "bad protocol_version")
		return "", nil
	}

	out = make(chan []byte, s.queueDepth)

	respCh := make(chan world.JoinResponse, 1)
	s.world.Join() <- world.JoinRequest{
		Name: hello.Name,
		Out:  out,
		Resp: respCh,
	}
	resp := <-respCh
	if resp.ClientID == "" {
		return "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		// The client is already registered; undo the join or the entry
		// leaks for the life of the world.
		s.world.Leave() <- resp.ClientID
		return "", nil
	}
	return resp.ClientID, out
}

func (s *Server) reject(conn *websocket.Conn, code, detail string) {
	_ = writeJSON(conn, protocol.ErrorMsg{Type: protocol.TypeError, Code: code, Detail: detail})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, detail), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
