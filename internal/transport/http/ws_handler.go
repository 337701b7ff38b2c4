package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"trivia-game-service/internal/domain"
	"trivia-game-service/internal/game"
)

// RoomRoster is the slice of roster behavior the transport needs.
type RoomRoster interface {
	Join(ctx context.Context, roomID, playerID, username string) (domain.Player, error)
	Leave(ctx context.Context, playerID string) (domain.Player, error)
	SetReady(ctx context.Context, playerID string, ready bool) (domain.Player, error)
	Players(ctx context.Context, roomID string) ([]domain.Player, error)
}

// WSHandler upgrades HTTP requests to websockets and wires them into the
// game commands. Game events reach clients through the hub; direct replies
// (answer results, errors) go only to the submitting connection.
type WSHandler struct {
	service  *game.Service
	roster   RoomRoster
	hub      *Hub
	gateway  game.Broadcaster
	upgrader websocket.Upgrader
}

func NewWSHandler(service *game.Service, roster RoomRoster, hub *Hub, gateway game.Broadcaster) *WSHandler {
	return &WSHandler{
		service: service,
		roster:  roster,
		hub:     hub,
		gateway: gateway,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createGamePayload struct {
	QuizID string `json:"quizId"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type answerPayload struct {
	SessionID  string  `json:"sessionId"`
	QuestionID string  `json:"questionId"`
	ChoiceID   string  `json:"choiceId"`
	TimeTaken  float64 `json:"timeTaken"`
}

type readyPayload struct {
	Ready bool `json:"ready"`
}

type gameCreated struct {
	SessionID string `json:"sessionId"`
	RoomID    string `json:"roomId"`
	QuizID    string `json:"quizId"`
}

type answerResult struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
	Points     int    `json:"points"`
}

type roomState struct {
	RoomID  string          `json:"roomId"`
	Players []domain.Player `json:"players"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// trySend queues a message without blocking; when the buffer is full the
// oldest queued message is dropped so slow clients cannot stall fan-out.
func (c *client) trySend(raw []byte) {
	select {
	case c.send <- raw:
	default:
		select {
		case <-c.send:
		default:
		}
		select {
		case c.send <- raw:
		default:
		}
	}
}

// ServeWS handles one player connection for the lifetime of the socket.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")
	playerID := r.URL.Query().Get("playerId")
	username := r.URL.Query().Get("name")
	if roomID == "" || playerID == "" || username == "" {
		http.Error(w, "missing roomId, playerId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	player, err := h.roster.Join(ctx, roomID, playerID, username)
	if err != nil {
		h.writeError(conn, err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}
	h.hub.add(roomID, c)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	h.gateway.Broadcast(ctx, roomID, domain.PlayerJoined{
		PlayerID: player.ID,
		Username: player.Username,
		Ready:    player.Ready,
	})
	h.sendRoomState(ctx, c, roomID)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(ctx, c, roomID, playerID, username, inbound)
	}

	h.hub.remove(roomID, c)
	close(c.send)
	<-writerDone

	if left, err := h.roster.Leave(context.Background(), playerID); err == nil {
		h.gateway.Broadcast(context.Background(), roomID, domain.PlayerLeft{
			PlayerID: left.ID,
			Username: left.Username,
		})
	}
}

func (h *WSHandler) dispatch(ctx context.Context, c *client, roomID, playerID, username string, inbound inboundMessage) {
	switch inbound.Type {
	case "createGame":
		var payload createGamePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(c, "invalid createGame payload")
			return
		}
		session, err := h.service.CreateSession(ctx, roomID, payload.QuizID)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.sendTo(c, "gameCreated", gameCreated{
			SessionID: session.ID(),
			RoomID:    session.RoomID(),
			QuizID:    session.QuizID(),
		})

	case "startGame":
		var payload sessionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(c, "invalid startGame payload")
			return
		}
		if err := h.service.Start(ctx, payload.SessionID); err != nil {
			h.sendError(c, err.Error())
		}

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(c, "invalid answer payload")
			return
		}
		answer, err := h.service.SubmitAnswer(ctx, playerID, payload.SessionID, payload.QuestionID, payload.ChoiceID, payload.TimeTaken)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.sendTo(c, "answerResult", answerResult{
			QuestionID: answer.QuestionID,
			Correct:    answer.Correct,
			Points:     answer.Points,
		})

	case "nextQuestion":
		var payload sessionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(c, "invalid nextQuestion payload")
			return
		}
		if err := h.service.AdvanceQuestion(ctx, payload.SessionID); err != nil {
			h.sendError(c, err.Error())
		}

	case "endGame":
		var payload sessionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(c, "invalid endGame payload")
			return
		}
		if _, err := h.service.End(ctx, payload.SessionID); err != nil {
			h.sendError(c, err.Error())
		}

	case "setReady":
		var payload readyPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.sendError(c, "invalid setReady payload")
			return
		}
		player, err := h.roster.SetReady(ctx, playerID, payload.Ready)
		if err != nil {
			h.sendError(c, err.Error())
			return
		}
		h.gateway.Broadcast(ctx, roomID, domain.PlayerReadyChanged{
			PlayerID: player.ID,
			Username: player.Username,
			Ready:    player.Ready,
		})

	default:
		h.sendError(c, "unsupported message type")
	}
}

func (h *WSHandler) sendRoomState(ctx context.Context, c *client, roomID string) {
	players, err := h.roster.Players(ctx, roomID)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}
	h.sendTo(c, "roomState", roomState{RoomID: roomID, Players: players})
}

func (h *WSHandler) sendTo(c *client, msgType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws marshal %s: %v", msgType, err)
		return
	}
	msg, err := json.Marshal(outboundMessage{Type: msgType, Payload: raw})
	if err != nil {
		log.Printf("ws marshal outbound: %v", err)
		return
	}
	c.trySend(msg)
}

func (h *WSHandler) sendError(c *client, message string) {
	h.sendTo(c, "error", errorPayload{Message: message})
}

func (h *WSHandler) writeError(conn *websocket.Conn, err error) {
	raw, _ := json.Marshal(errorPayload{Message: err.Error()})
	_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: raw})
}
