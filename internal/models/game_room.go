package models

import "time"

// GameRoom is the durable room record. It is created once per room id,
// outlives the in-memory race state, and accumulates match history across
// repeated races in the same room.
type GameRoom struct {
	ID           uint              `gorm:"primaryKey" json:"-"`
	RoomID       string            `gorm:"size:64;uniqueIndex;not null" json:"roomId"`
	HostUID      string            `gorm:"size:128;not null" json:"hostUid"`
	Participants []RoomParticipant `gorm:"foreignKey:GameRoomID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	Matches      []Match           `gorm:"foreignKey:GameRoomID;constraint:OnDelete:CASCADE" json:"matchHistory,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

type RoomParticipant struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	GameRoomID uint      `gorm:"not null;uniqueIndex:idx_room_participant" json:"-"`
	UID        string    `gorm:"size:128;not null;uniqueIndex:idx_room_participant" json:"uid"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// Match rows are append-only; one is written per concluded race.
type Match struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	GameRoomID uint      `gorm:"not null;index" json:"-"`
	WinnerUID  string    `gorm:"size:128;not null" json:"winnerUid"`
	WinnerName string    `gorm:"size:255" json:"winnerName"`
	TargetTime float64   `gorm:"not null" json:"targetTime"`
	CreatedAt  time.Time `json:"timestamp"`
}
