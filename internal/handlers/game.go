package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/Krishna-Gupta17/OneFocus-B/internal/game"
	"github.com/Krishna-Gupta17/OneFocus-B/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// GameHandler is the connection-level front of the race subsystem: it owns
// the websocket upgrade and translates inbound events into coordinator
// calls. All outbound traffic goes through the hub.
type GameHandler struct {
	coordinator *game.Coordinator
	hub         *ws.Hub
}

func NewGameHandler(coordinator *game.Coordinator, hub *ws.Hub) *GameHandler {
	return &GameHandler{coordinator: coordinator, hub: hub}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type joinRoomPayload struct {
	RoomID string `json:"roomId"`
	UID    string `json:"uid"`
}

type inviteFriendPayload struct {
	FriendID string `json:"friendId"`
	RoomID   string `json:"roomId"`
}

type startGamePayload struct {
	RoomID     string  `json:"roomId"`
	TargetTime float64 `json:"targetTime"`
}

type progressUpdatePayload struct {
	RoomID string  `json:"roomId"`
	UID    string  `json:"uid"`
	Time   float64 `json:"time"`
}

type declareWinnerPayload struct {
	RoomID     string `json:"roomId"`
	WinnerUID  string `json:"winnerUid"`
	WinnerName string `json:"winnerName"`
}

type matchHistoryPayload struct {
	RoomID string `json:"roomId"`
}

// HandleWebSocket godoc
// @Summary      Game websocket
// @Description  Persistent connection for room events: joinRoom, inviteFriend, startGame, progressUpdate, declareWinner, getMatchHistory
// @Tags         websocket
// @Router       /ws/game [get]
func (h *GameHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	h.hub.Attach(conn)
	defer h.coordinator.Disconnect(conn)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		h.dispatch(conn, msg)
	}
}

func (h *GameHandler) dispatch(conn ws.Conn, msg inboundMessage) {
	switch msg.Type {
	case "joinRoom":
		var p joinRoomPayload
		if !decode(msg, &p) || p.RoomID == "" || p.UID == "" {
			return
		}
		h.coordinator.Join(conn, p.RoomID, p.UID)

	case "inviteFriend":
		var p inviteFriendPayload
		if !decode(msg, &p) || p.FriendID == "" {
			return
		}
		h.coordinator.Invite(p.FriendID, p.RoomID)

	case "startGame":
		var p startGamePayload
		if !decode(msg, &p) || p.RoomID == "" {
			return
		}
		h.coordinator.Start(p.RoomID, p.TargetTime)

	case "progressUpdate":
		var p progressUpdatePayload
		if !decode(msg, &p) || p.RoomID == "" || p.UID == "" {
			return
		}
		h.coordinator.ReportProgress(p.RoomID, p.UID, p.Time)

	case "declareWinner":
		var p declareWinnerPayload
		if !decode(msg, &p) || p.RoomID == "" || p.WinnerUID == "" {
			return
		}
		h.coordinator.DeclareWinner(p.RoomID, p.WinnerUID, p.WinnerName)

	case "getMatchHistory":
		var p matchHistoryPayload
		if !decode(msg, &p) || p.RoomID == "" {
			return
		}
		h.coordinator.MatchHistory(conn, p.RoomID)

	default:
		log.Printf("ws: unknown event %q", msg.Type)
	}
}

func decode(msg inboundMessage, out interface{}) bool {
	if err := json.Unmarshal(msg.Data, out); err != nil {
		log.Printf("ws: bad %s payload: %v", msg.Type, err)
		return false
	}
	return true
}
