package models

import "time"

type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UID            string     `gorm:"size:128;uniqueIndex;not null" json:"uid"`
	Email          string     `gorm:"size:255;not null" json:"email"`
	DisplayName    string     `gorm:"size:255;default:''" json:"displayName"`
	ProfilePicture string     `gorm:"size:500;default:''" json:"profilePicture"`
	Bio            string     `gorm:"type:text" json:"bio"`
	InvitedRoomID  string     `gorm:"size:64;default:''" json:"invitedToRoomId"`
	StudyStats     StudyStats `gorm:"embedded;embeddedPrefix:stats_" json:"studyStats"`
	Settings       Settings   `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`

	Friends        []Friend        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"friends,omitempty"`
	FriendRequests []FriendRequest `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"friendRequests,omitempty"`
	Tasks          []Task          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
	FocusSessions  []FocusSession  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"focusSessions,omitempty"`
	Videos         []Video         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"videoGallery,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StudyStats struct {
	TotalStudyTime    int       `gorm:"not null;default:0" json:"totalStudyTime"`
	SessionsCompleted int       `gorm:"not null;default:0" json:"sessionsCompleted"`
	Streak            int       `gorm:"not null;default:0" json:"streak"`
	Points            int       `gorm:"not null;default:0" json:"points"`
	LastStudyDate     time.Time `json:"lastStudyDate"`
}

type Settings struct {
	FocusThreshold int  `gorm:"not null;default:75" json:"focusThreshold"`
	StudyReminders bool `gorm:"not null;default:true" json:"studyReminders"`
	SoundEnabled   bool `gorm:"not null;default:true" json:"soundEnabled"`
}

type Friend struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	UserID      uint      `gorm:"not null;index" json:"-"`
	UID         string    `gorm:"size:128;not null" json:"uid"`
	DisplayName string    `gorm:"size:255" json:"displayName"`
	Email       string    `gorm:"size:255" json:"email"`
	AddedAt     time.Time `json:"addedAt"`
}

type FriendRequest struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	From      string    `gorm:"column:from_uid;size:128;not null" json:"from"`
	FromName  string    `gorm:"size:255" json:"fromName"`
	FromEmail string    `gorm:"size:255" json:"fromEmail"`
	SentAt    time.Time `json:"sentAt"`
}

type Task struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	UserID    uint       `gorm:"not null;index" json:"-"`
	ClientID  string     `gorm:"size:64" json:"id"`
	Title     string     `gorm:"size:500;not null" json:"title"`
	Completed bool       `gorm:"not null;default:false" json:"completed"`
	Priority  string     `gorm:"size:20" json:"priority"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type FocusSession struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	UserID          uint      `gorm:"not null;index" json:"-"`
	Date            time.Time `json:"date"`
	Duration        int       `gorm:"not null" json:"duration"`
	FocusPercentage int       `gorm:"not null;default:0" json:"focusPercentage"`
	TasksCompleted  int       `gorm:"not null;default:0" json:"tasksCompleted"`
	SessionType     string    `gorm:"size:50" json:"sessionType"`
}

type Video struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	ClientID  string    `gorm:"size:64" json:"id"`
	URL       string    `gorm:"size:500;not null" json:"url"`
	Title     string    `gorm:"size:255" json:"title"`
	Thumbnail string    `gorm:"size:500" json:"thumbnail"`
	AddedAt   time.Time `json:"addedAt"`
}
