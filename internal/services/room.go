package services

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/Krishna-Gupta17/OneFocus-B/internal/game"
	"github.com/Krishna-Gupta17/OneFocus-B/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomService is the durable side of game rooms: the cross-race record of
// who ever joined a room and every match concluded in it. It implements
// game.RoomStore for the coordinator.
type RoomService struct {
	db *gorm.DB
}

func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{db: db}
}

const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CreateRoom allocates a shareable room code and the durable record behind it.
func (s *RoomService) CreateRoom(hostUID string) (*models.GameRoom, error) {
	room := models.GameRoom{
		RoomID:  s.generateUniqueCode(),
		HostUID: hostUID,
	}
	if err := s.db.Create(&room).Error; err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return &room, nil
}

func (s *RoomService) GetRoom(roomID string) (*models.GameRoom, error) {
	var room models.GameRoom
	if err := s.db.Where("room_id = ?", roomID).
		Preload("Participants").
		Preload("Matches", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&room).Error; err != nil {
		return nil, errors.New("room not found")
	}
	return &room, nil
}

// EnsureRoom creates the durable record if none exists for roomID, naming
// uid host. The insert-if-absent rides on the unique index over room_id as a
// single statement, so two concurrent first joins cannot produce two records.
func (s *RoomService) EnsureRoom(roomID, hostUID string) error {
	room := models.GameRoom{RoomID: roomID, HostUID: hostUID}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}},
		DoNothing: true,
	}).Create(&room).Error
}

// AddParticipant appends uid to the durable participant list. Idempotent via
// the unique (room, uid) index; the list only ever grows.
func (s *RoomService) AddParticipant(roomID, uid string) error {
	var room models.GameRoom
	if err := s.db.Select("id").Where("room_id = ?", roomID).First(&room).Error; err != nil {
		return fmt.Errorf("room %s not found: %w", roomID, err)
	}
	p := models.RoomParticipant{
		GameRoomID: room.ID,
		UID:        uid,
		JoinedAt:   time.Now(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_room_id"}, {Name: "uid"}},
		DoNothing: true,
	}).Create(&p).Error
}

// Participants returns the room's durable participant uids in join order.
func (s *RoomService) Participants(roomID string) ([]string, error) {
	var uids []string
	err := s.db.Model(&models.RoomParticipant{}).
		Joins("JOIN game_rooms ON game_rooms.id = room_participants.game_room_id").
		Where("game_rooms.room_id = ?", roomID).
		Order("room_participants.joined_at ASC, room_participants.id ASC").
		Pluck("room_participants.uid", &uids).Error
	if err != nil {
		return nil, err
	}
	return uids, nil
}

// AppendMatch records one concluded race against the durable room.
func (s *RoomService) AppendMatch(roomID string, entry game.MatchEntry) error {
	var room models.GameRoom
	if err := s.db.Select("id").Where("room_id = ?", roomID).First(&room).Error; err != nil {
		return fmt.Errorf("room %s not found: %w", roomID, err)
	}
	match := models.Match{
		GameRoomID: room.ID,
		WinnerUID:  entry.WinnerUID,
		WinnerName: entry.WinnerName,
		TargetTime: entry.TargetTime,
		CreatedAt:  entry.Timestamp,
	}
	return s.db.Create(&match).Error
}

// MatchHistory returns the room's matches, newest first.
func (s *RoomService) MatchHistory(roomID string) ([]game.MatchEntry, error) {
	var matches []models.Match
	err := s.db.Model(&models.Match{}).
		Joins("JOIN game_rooms ON game_rooms.id = matches.game_room_id").
		Where("game_rooms.room_id = ?", roomID).
		Order("matches.created_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	entries := make([]game.MatchEntry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, game.MatchEntry{
			WinnerUID:  m.WinnerUID,
			WinnerName: m.WinnerName,
			TargetTime: m.TargetTime,
			Timestamp:  m.CreatedAt,
		})
	}
	return entries, nil
}

type MatchPlayer struct {
	UID  string  `json:"uid"`
	Name string  `json:"name"`
	Time float64 `json:"time"`
}

type MatchSummary struct {
	ID         string        `json:"id"`
	CreatedAt  time.Time     `json:"createdAt"`
	WinnerUID  string        `json:"winnerUid"`
	WinnerName string        `json:"winnerName"`
	TargetTime float64       `json:"targetTime"`
	Players    []MatchPlayer `json:"players"`
}

// MatchHistoryForUser flattens the match history of every room the user ever
// joined, with player names resolved, newest first.
func (s *RoomService) MatchHistoryForUser(uid string) ([]MatchSummary, error) {
	var rooms []models.GameRoom
	err := s.db.
		Joins("JOIN room_participants ON room_participants.game_room_id = game_rooms.id").
		Where("room_participants.uid = ?", uid).
		Preload("Participants").
		Preload("Matches").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}

	nameByUID := make(map[string]string)
	for _, room := range rooms {
		for _, p := range room.Participants {
			nameByUID[p.UID] = ""
		}
	}
	if len(nameByUID) > 0 {
		uids := make([]string, 0, len(nameByUID))
		for u := range nameByUID {
			uids = append(uids, u)
		}
		var users []models.User
		if err := s.db.Where("uid IN ?", uids).Find(&users).Error; err == nil {
			for _, u := range users {
				nameByUID[u.UID] = u.DisplayName
			}
		}
	}

	summaries := make([]MatchSummary, 0)
	for _, room := range rooms {
		players := make([]MatchPlayer, 0, len(room.Participants))
		for _, p := range room.Participants {
			name := nameByUID[p.UID]
			if name == "" {
				name = "Unknown"
			}
			players = append(players, MatchPlayer{UID: p.UID, Name: name})
		}
		for _, m := range room.Matches {
			summaries = append(summaries, MatchSummary{
				ID:         fmt.Sprintf("%s-%s", room.RoomID, m.CreatedAt.Format(time.RFC3339)),
				CreatedAt:  m.CreatedAt,
				WinnerUID:  m.WinnerUID,
				WinnerName: m.WinnerName,
				TargetTime: m.TargetTime,
				Players:    players,
			})
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (s *RoomService) generateUniqueCode() string {
	for {
		code := make([]byte, 8)
		for i := range code {
			code[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
		}
		var count int64
		s.db.Model(&models.GameRoom{}).Where("room_id = ?", string(code)).Count(&count)
		if count == 0 {
			return string(code)
		}
	}
}
