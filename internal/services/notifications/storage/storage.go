// Package storage defines persistence contracts for notifications service state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested notification or preference record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a requested write conflicts with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
)

// ReadStatusFilter narrows inbox listings by read state.
type ReadStatusFilter string

const (
	// ReadStatusAny lists notifications regardless of read state.
	ReadStatusAny ReadStatusFilter = ""
	// ReadStatusUnread lists only unread notifications.
	ReadStatusUnread ReadStatusFilter = "unread"
	// ReadStatusRead lists only read notifications.
	ReadStatusRead ReadStatusFilter = "read"
)

// ListFilter narrows inbox listings by read state and notification kind.
type ListFilter struct {
	Status ReadStatusFilter
	Kind   string
}

// NotificationRecord stores one user notification inbox item.
type NotificationRecord struct {
	ID              string
	RecipientUserID string
	Kind            string
	Title           string
	Message         string
	ExtraJSON       string
	CreatedAt       time.Time
	ReadAt          *time.Time
}

// NotificationPage stores a paged inbox listing result.
type NotificationPage struct {
	Notifications []NotificationRecord
	NextPageToken string
}

// PreferenceRecord stores one user's per-topic channel flags.
type PreferenceRecord struct {
	UserID string

	EmailTeamStatusChanges bool
	EmailTeamInvitations   bool
	EmailTaskAssignments   bool
	EmailProjectUpdates    bool
	EmailCommentMentions   bool

	WebTeamStatusChanges bool
	WebTeamInvitations   bool
	WebTaskAssignments   bool
	WebProjectUpdates    bool
	WebCommentMentions   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NotificationStore persists notification inbox state.
type NotificationStore interface {
	PutNotification(ctx context.Context, record NotificationRecord) error
	ListNotificationsByRecipient(ctx context.Context, recipientUserID string, filter ListFilter, pageSize int, pageToken string) (NotificationPage, error)
	CountUnreadNotificationsByRecipient(ctx context.Context, recipientUserID string) (int, error)
	MarkNotificationRead(ctx context.Context, recipientUserID string, notificationID string, readAt time.Time) (NotificationRecord, error)
	MarkAllNotificationsRead(ctx context.Context, recipientUserID string, readAt time.Time) (int, error)
	MarkAllNotificationsUnread(ctx context.Context, recipientUserID string) (int, error)
	DeleteNotificationsByRecipient(ctx context.Context, recipientUserID string) (int, error)
}

// PreferenceStore persists notification preference records.
type PreferenceStore interface {
	GetOrCreatePreferences(ctx context.Context, defaults PreferenceRecord) (PreferenceRecord, error)
	PutPreferences(ctx context.Context, record PreferenceRecord) error
	DeletePreferences(ctx context.Context, userID string) error
}
