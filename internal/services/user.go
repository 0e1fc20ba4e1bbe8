package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/Krishna-Gupta17/OneFocus-B/internal/models"

	"gorm.io/gorm"
)

// UserService covers the profile/CRUD side of the product: profiles, focus
// sessions, leaderboards, friends and the invited-room field the invite
// relay persists. It implements game.UserDirectory for the coordinator.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

var ErrUserNotFound = errors.New("user not found")

// GetOrCreate returns the existing record for the uid or creates one from
// the supplied fields.
func (s *UserService) GetOrCreate(in *models.User) (*models.User, bool, error) {
	var existing models.User
	if err := s.preloaded().Where("uid = ?", in.UID).First(&existing).Error; err == nil {
		return &existing, false, nil
	}
	in.StudyStats.LastStudyDate = time.Now()
	if err := s.db.Create(in).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	return in, true, nil
}

func (s *UserService) GetByUID(uid string) (*models.User, error) {
	var user models.User
	if err := s.preloaded().Where("uid = ?", uid).First(&user).Error; err != nil {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

type ProfileUpdate struct {
	DisplayName    *string          `json:"displayName"`
	ProfilePicture *string          `json:"profilePicture"`
	Bio            *string          `json:"bio"`
	Settings       *models.Settings `json:"settings"`
}

// UpdateProfile applies the supplied fields, creating the record if the uid
// was never seen (upsert, matching the old PUT semantics).
func (s *UserService) UpdateProfile(uid, email string, in ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := s.db.Where("uid = ?", uid).First(&user).Error; err != nil {
		user = models.User{UID: uid, Email: email}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
	}
	if in.DisplayName != nil {
		user.DisplayName = *in.DisplayName
	}
	if in.ProfilePicture != nil {
		user.ProfilePicture = *in.ProfilePicture
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.Settings != nil {
		user.Settings = *in.Settings
	}
	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}
	return s.GetByUID(uid)
}

// DisplayName resolves a user's display name, falling back to email when the
// profile never set one.
func (s *UserService) DisplayName(uid string) (string, error) {
	var user models.User
	if err := s.db.Select("display_name", "email").Where("uid = ?", uid).First(&user).Error; err != nil {
		return "", ErrUserNotFound
	}
	if user.DisplayName != "" {
		return user.DisplayName, nil
	}
	return user.Email, nil
}

// SetInvitedRoom persists the pending invite so an offline friend can pick
// it up by polling.
func (s *UserService) SetInvitedRoom(uid, roomID string) error {
	res := s.db.Model(&models.User{}).Where("uid = ?", uid).Update("invited_room_id", roomID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) ClearInvite(uid string) error {
	res := s.db.Model(&models.User{}).Where("uid = ?", uid).Update("invited_room_id", "")
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddFocusSession appends the session and folds it into the study stats:
// ten points per full minute studied.
func (s *UserService) AddFocusSession(uid string, session models.FocusSession) (*models.User, error) {
	var user models.User
	if err := s.db.Where("uid = ?", uid).First(&user).Error; err != nil {
		return nil, ErrUserNotFound
	}

	if session.Date.IsZero() {
		session.Date = time.Now()
	}
	session.UserID = user.ID
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}

	user.StudyStats.TotalStudyTime += session.Duration
	user.StudyStats.SessionsCompleted++
	user.StudyStats.Points += (session.Duration / 60) * 10
	user.StudyStats.LastStudyDate = time.Now()
	if err := s.db.Save(&user).Error; err != nil {
		return nil, err
	}

	return s.GetByUID(uid)
}

type LeaderboardEntry struct {
	UID               string `json:"uid"`
	DisplayName       string `json:"displayName"`
	Email             string `json:"email"`
	Points            int    `json:"points"`
	TotalStudyTime    int    `json:"totalStudyTime"`
	SessionsCompleted int    `json:"sessionsCompleted"`
}

// Leaderboard returns the top users by points.
func (s *UserService) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var users []models.User
	if err := s.db.Order("stats_points DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return toLeaderboard(users), nil
}

// FriendsLeaderboard ranks the user and their friends by points.
func (s *UserService) FriendsLeaderboard(uid string) ([]LeaderboardEntry, error) {
	user, err := s.GetByUID(uid)
	if err != nil {
		return nil, err
	}

	uids := []string{uid}
	for _, f := range user.Friends {
		uids = append(uids, f.UID)
	}

	var users []models.User
	if err := s.db.Where("uid IN ?", uids).Order("stats_points DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return toLeaderboard(users), nil
}

func toLeaderboard(users []models.User) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, LeaderboardEntry{
			UID:               u.UID,
			DisplayName:       u.DisplayName,
			Email:             u.Email,
			Points:            u.StudyStats.Points,
			TotalStudyTime:    u.StudyStats.TotalStudyTime,
			SessionsCompleted: u.StudyStats.SessionsCompleted,
		})
	}
	return entries
}

// SendFriendRequest files a request on the target user, addressed by email.
func (s *UserService) SendFriendRequest(uid, targetEmail string) error {
	var sender models.User
	if err := s.db.Where("uid = ?", uid).First(&sender).Error; err != nil {
		return ErrUserNotFound
	}
	var target models.User
	if err := s.db.Preload("Friends").Preload("FriendRequests").
		Where("email = ?", targetEmail).First(&target).Error; err != nil {
		return ErrUserNotFound
	}
	if target.UID == uid {
		return errors.New("cannot send friend request to yourself")
	}
	for _, f := range target.Friends {
		if f.UID == uid {
			return errors.New("already friends")
		}
	}
	for _, r := range target.FriendRequests {
		if r.From == uid {
			return errors.New("friend request already sent")
		}
	}

	fromName := sender.DisplayName
	if fromName == "" {
		fromName = sender.Email
	}
	req := models.FriendRequest{
		UserID:    target.ID,
		From:      uid,
		FromName:  fromName,
		FromEmail: sender.Email,
		SentAt:    time.Now(),
	}
	return s.db.Create(&req).Error
}

// AcceptFriendRequest removes the pending request and links both users.
func (s *UserService) AcceptFriendRequest(uid, fromUID string) error {
	var user models.User
	if err := s.db.Where("uid = ?", uid).First(&user).Error; err != nil {
		return ErrUserNotFound
	}
	var friend models.User
	if err := s.db.Where("uid = ?", fromUID).First(&friend).Error; err != nil {
		return ErrUserNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND from_uid = ?", user.ID, fromUID).
			Delete(&models.FriendRequest{}).Error; err != nil {
			return err
		}

		friendName := friend.DisplayName
		if friendName == "" {
			friendName = friend.Email
		}
		userName := user.DisplayName
		if userName == "" {
			userName = user.Email
		}

		now := time.Now()
		if err := tx.Create(&models.Friend{
			UserID: user.ID, UID: friend.UID, DisplayName: friendName, Email: friend.Email, AddedAt: now,
		}).Error; err != nil {
			return err
		}
		return tx.Create(&models.Friend{
			UserID: friend.ID, UID: user.UID, DisplayName: userName, Email: user.Email, AddedAt: now,
		}).Error
	})
}

// RejectFriendRequest drops the pending request.
func (s *UserService) RejectFriendRequest(uid, fromUID string) error {
	var user models.User
	if err := s.db.Where("uid = ?", uid).First(&user).Error; err != nil {
		return ErrUserNotFound
	}
	return s.db.Where("user_id = ? AND from_uid = ?", user.ID, fromUID).
		Delete(&models.FriendRequest{}).Error
}

// AddVideo appends to the user's gallery and returns the full gallery.
func (s *UserService) AddVideo(uid string, video models.Video) ([]models.Video, error) {
	var user models.User
	if err := s.db.Where("uid = ?", uid).First(&user).Error; err != nil {
		return nil, ErrUserNotFound
	}
	if video.AddedAt.IsZero() {
		video.AddedAt = time.Now()
	}
	video.UserID = user.ID
	if err := s.db.Create(&video).Error; err != nil {
		return nil, err
	}
	var videos []models.Video
	if err := s.db.Where("user_id = ?", user.ID).Order("added_at ASC").Find(&videos).Error; err != nil {
		return nil, err
	}
	return videos, nil
}

func (s *UserService) preloaded() *gorm.DB {
	return s.db.
		Preload("Friends").
		Preload("FriendRequests").
		Preload("Tasks").
		Preload("FocusSessions").
		Preload("Videos")
}
