package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"fourinarow/internal/game"
	"fourinarow/internal/logger"
	"fourinarow/internal/metrics"
	"fourinarow/internal/session"
)

// WSMessage is the JSON envelope for WebSocket messages.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	Player playerRequest `json:"player"`
}

type readyPayload struct {
	ReadyState bool `json:"ready_state"`
}

type startPayload struct {
	HostDecision bool `json:"host_decision"`
}

// placePayload places at (x, y), or drops into column x when y is omitted.
type placePayload struct {
	X int  `json:"x" validate:"min=0"`
	Y *int `json:"y" validate:"omitempty,min=0"`
}

type cardPayload struct {
	Card string `json:"card" validate:"required"`
}

type chatPayload struct {
	Message string `json:"message" validate:"required,max=199"`
}

type chatBroadcast struct {
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	sess, ok := s.manager.Get(slug)
	if !ok {
		http.Error(w, session.ErrNotFound.Error(), http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for dev
	})
	if err != nil {
		logger.Requests().Warn("websocket accept", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()

	// First message must be a join
	_, data, err := conn.Read(ctx)
	if err != nil {
		return
	}
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "join" {
		sendWSError(ctx, conn, "first message must be a join")
		return
	}
	var join joinPayload
	if err := json.Unmarshal(msg.Payload, &join); err != nil {
		sendWSError(ctx, conn, "invalid join payload")
		return
	}
	if err := s.validate.Struct(join); err != nil {
		sendWSError(ctx, conn, err.Error())
		return
	}
	p, err := join.Player.player(sess.Game.Participants())
	if err != nil {
		sendWSError(ctx, conn, err.Error())
		return
	}
	c, err := sess.Join(p)
	if err != nil {
		sendWSError(ctx, conn, err.Error())
		return
	}
	log := logger.Games().With("slug", slug, "player", c.Name, "conn", c.ID)
	log.Info("player joined")

	// Notify all players about the roster change
	s.broadcastState(sess)

	// Writer goroutine: send messages from the channel to the websocket
	go func() {
		for msg := range c.Send {
			if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}()

	// Reader loop: handle incoming messages until the player leaves
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sendWSMsg(c.Send, "error", errorPayload{Message: "invalid message"})
			continue
		}
		if msg.Type == "leave" {
			break
		}
		if err := s.handleMessage(sess, c, msg); err != nil {
			sendWSMsg(c.Send, "error", errorPayload{Message: err.Error()})
		}
	}

	// Disconnecting counts as leaving
	if err := sess.Leave(c); err != nil && !errors.Is(err, game.ErrInvalidPlayer) {
		log.Warn("leave failed", "error", err)
	}
	log.Info("player left", "game_state", sess.Game.State())
	if sess.Game.State().Terminal() {
		s.manager.Archive(sess)
	}
	s.broadcastState(sess)
}

var errUnknownMessage = errors.New("unknown message type")

func (s *Server) handleMessage(sess *session.Session, c *session.Conn, msg WSMessage) error {
	me, ok := sess.Game.Participant(c.Name)
	if !ok {
		return game.ErrInvalidPlayer
	}

	switch msg.Type {
	case "ready":
		var rp readyPayload
		if err := json.Unmarshal(msg.Payload, &rp); err != nil {
			return errors.New("invalid ready payload")
		}
		if err := sess.Game.SetReady(c.Name, rp.ReadyState); err != nil {
			return err
		}
		if rp.ReadyState && sess.Game.Rules().StartGameIfAllReady && sess.Game.State() == game.StateLobby {
			// a failed attempt just leaves the game waiting in the lobby
			if err := sess.Game.StartGame(false); err == nil {
				s.onStarted(sess)
			}
		}
		s.broadcastState(sess)

	case "start":
		var sp startPayload
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &sp); err != nil {
				return errors.New("invalid start payload")
			}
		}
		if host, ok := sess.Game.Host(); !ok || host.Name != c.Name {
			return errors.New("only the host can start")
		}
		if err := sess.Game.StartGame(sp.HostDecision); err != nil {
			return err
		}
		s.onStarted(sess)
		s.broadcastState(sess)

	case "place":
		var pp placePayload
		if err := s.decode(msg.Payload, &pp); err != nil {
			return err
		}
		var at game.Point
		var err error
		if pp.Y == nil {
			at, err = sess.Game.DropToken(me, pp.X)
		} else {
			at = game.Point{X: pp.X, Y: *pp.Y}
			err = sess.Game.PlaceToken(me, at.X, at.Y)
		}
		if err != nil {
			return err
		}
		s.manager.RecordMove(sess, c.Name, at)
		out := sess.Game.ResolveAfterPlacement(me)
		if out.Finished {
			s.manager.Archive(sess)
		}
		if out.Winner != "" || out.Finished {
			broadcastMsg(sess, "game_over", out)
		}
		s.broadcastState(sess)

	case "card":
		var cp cardPayload
		if err := s.decode(msg.Payload, &cp); err != nil {
			return err
		}
		kind, err := game.ParseCardKind(cp.Card)
		if err != nil {
			return err
		}
		if err := sess.Game.PlayCard(me, kind); err != nil {
			return err
		}
		metrics.CardsPlayed.WithLabelValues(string(kind)).Inc()
		s.broadcastState(sess)

	case "remove":
		var pp placePayload
		if err := s.decode(msg.Payload, &pp); err != nil {
			return err
		}
		if pp.Y == nil {
			return errors.New("remove needs x and y")
		}
		if err := sess.Game.RemoveToken(pp.X, *pp.Y); err != nil {
			return err
		}
		s.broadcastState(sess)

	case "quit":
		if host, ok := sess.Game.Host(); !ok || host.Name != c.Name {
			return errors.New("only the host can quit the game")
		}
		sess.Game.QuitGame()
		s.manager.Archive(sess)
		logger.Games().Info("game quit by host", "slug", sess.Slug(), "host", c.Name)
		s.broadcastState(sess)

	case "chat":
		if !sess.Game.Rules().EnableChat {
			return errors.New("chat is disabled")
		}
		var cp chatPayload
		if err := s.decode(msg.Payload, &cp); err != nil {
			return err
		}
		if strings.TrimSpace(cp.Message) == "" {
			return errors.New("empty chat message")
		}
		broadcastMsg(sess, "chat", chatBroadcast{
			Sender:    c.Name,
			Message:   cp.Message,
			Timestamp: time.Now(),
		})

	default:
		return fmt.Errorf("%w: %s", errUnknownMessage, msg.Type)
	}
	return nil
}

// decode unmarshals and validates a message payload.
func (s *Server) decode(payload json.RawMessage, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return errors.New("invalid payload")
	}
	return s.validate.Struct(v)
}

func (s *Server) onStarted(sess *session.Session) {
	s.manager.Archive(sess)
	logger.Games().Info("game started", "slug", sess.Slug(), "players", sess.Game.ParticipantCount())
}

func (s *Server) broadcastState(sess *session.Session) {
	broadcastMsg(sess, "state", sess.Game.Snapshot())
}

func broadcastMsg(sess *session.Session, msgType string, payload any) {
	p, _ := json.Marshal(payload)
	msg, _ := json.Marshal(WSMessage{Type: msgType, Payload: p})
	sess.Broadcast(msg)
}

func sendWSMsg(send chan []byte, msgType string, payload any) {
	p, _ := json.Marshal(payload)
	msg, _ := json.Marshal(WSMessage{Type: msgType, Payload: p})
	select {
	case send <- msg:
	default:
	}
}

func sendWSError(ctx context.Context, conn *websocket.Conn, message string) {
	p, _ := json.Marshal(errorPayload{Message: message})
	msg, _ := json.Marshal(WSMessage{Type: "error", Payload: p})
	conn.Write(ctx, websocket.MessageText, msg)
}
