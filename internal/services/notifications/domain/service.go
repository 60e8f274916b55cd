package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mangacollab/mangacollab/internal/platform/id"
)

var (
	// ErrNotFound indicates a notification record was not found for the recipient.
	ErrNotFound = errors.New("notification not found")
	// ErrConflict indicates a write conflicted with existing uniqueness constraints.
	ErrConflict = errors.New("notification conflict")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("notification store is not configured")
	// ErrRecipientUserIDRequired indicates recipient identity is required.
	ErrRecipientUserIDRequired = errors.New("recipient user id is required")
	// ErrKindRequired indicates a notification kind is required.
	ErrKindRequired = errors.New("notification kind is required")
	// ErrTitleRequired indicates a notification title is required.
	ErrTitleRequired = errors.New("notification title is required")
	// ErrMessageRequired indicates a notification message is required.
	ErrMessageRequired = errors.New("notification message is required")
	// ErrNotificationIDRequired indicates notification ID is required.
	ErrNotificationIDRequired = errors.New("notification id is required")
	// ErrIDGeneratorNotConfigured indicates an ID generator is required.
	ErrIDGeneratorNotConfigured = errors.New("notification id generator is not configured")
	// ErrIDGeneratorExhausted indicates a fixed test ID sequence was exhausted.
	ErrIDGeneratorExhausted = errors.New("notification id generator exhausted")
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// StatusFilter narrows inbox listings by read state.
type StatusFilter string

const (
	// StatusAny lists notifications regardless of read state.
	StatusAny StatusFilter = ""
	// StatusUnread lists only unread notifications.
	StatusUnread StatusFilter = "unread"
	// StatusRead lists only read notifications.
	StatusRead StatusFilter = "read"
)

// ListFilter narrows inbox listings by read state and kind.
type ListFilter struct {
	Status StatusFilter
	Kind   Kind
}

// NotificationPage is a paged recipient inbox view.
type NotificationPage struct {
	Notifications []Notification
	NextPageToken string
}

// CreateInput describes one notification to record for a recipient.
type CreateInput struct {
	RecipientUserID string
	Kind            Kind
	Title           string
	Message         string
	Extra           ExtraData
}

// ListInput configures recipient inbox listing.
type ListInput struct {
	RecipientUserID string
	Filter          ListFilter
	PageSize        int
	PageToken       string
}

// MarkReadInput identifies one recipient notification to acknowledge.
type MarkReadInput struct {
	RecipientUserID string
	NotificationID  string
}

// Store is the domain persistence boundary for notification lifecycle behavior.
type Store interface {
	PutNotification(ctx context.Context, notification Notification) error
	ListNotificationsByRecipient(ctx context.Context, recipientUserID string, filter ListFilter, pageSize int, pageToken string) (NotificationPage, error)
	CountUnreadByRecipient(ctx context.Context, recipientUserID string) (int, error)
	MarkNotificationRead(ctx context.Context, recipientUserID string, notificationID string, readAt time.Time) (Notification, error)
	MarkAllRead(ctx context.Context, recipientUserID string, readAt time.Time) (int, error)
	MarkAllUnread(ctx context.Context, recipientUserID string) (int, error)
	DeleteNotificationsByRecipient(ctx context.Context, recipientUserID string) (int, error)
}

// PreferenceStore is the domain persistence boundary for preference records.
type PreferenceStore interface {
	GetOrCreatePreferences(ctx context.Context, defaults Preferences) (Preferences, error)
	PutPreferences(ctx context.Context, preferences Preferences) error
	DeletePreferences(ctx context.Context, userID string) error
}

// Service orchestrates recipient inbox and preference lifecycle behavior.
type Service struct {
	store       Store
	preferences PreferenceStore
	clock       func() time.Time
	newID       func() (string, error)
}

// NewService constructs notification domain use-cases.
func NewService(store Store, preferences PreferenceStore, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:       store,
		preferences: preferences,
		clock:       clock,
		newID:       newID,
	}
}

// Create records one notification for a recipient. It performs no delivery
// decisions; the dispatcher consults preferences before calling it.
func (s *Service) Create(ctx context.Context, input CreateInput) (Notification, error) {
	if s == nil || s.store == nil {
		return Notification{}, ErrStoreNotConfigured
	}
	if s.newID == nil {
		return Notification{}, ErrIDGeneratorNotConfigured
	}
	recipientUserID := strings.TrimSpace(input.RecipientUserID)
	if recipientUserID == "" {
		return Notification{}, ErrRecipientUserIDRequired
	}
	kind := NormalizeKind(string(input.Kind))
	if kind == "" {
		return Notification{}, ErrKindRequired
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Notification{}, ErrTitleRequired
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return Notification{}, ErrMessageRequired
	}
	extraJSON, err := input.Extra.JSON()
	if err != nil {
		return Notification{}, err
	}

	notificationID, err := s.newID()
	if err != nil {
		return Notification{}, err
	}
	notification := Notification{
		ID:              notificationID,
		RecipientUserID: recipientUserID,
		Kind:            kind,
		Title:           title,
		Message:         message,
		ExtraJSON:       extraJSON,
		CreatedAt:       s.nowUTC(),
	}
	if err := s.store.PutNotification(ctx, notification); err != nil {
		return Notification{}, err
	}
	return notification, nil
}

// List lists recipient inbox notifications newest first with optional
// status/kind filters.
func (s *Service) List(ctx context.Context, input ListInput) (NotificationPage, error) {
	if s == nil || s.store == nil {
		return NotificationPage{}, ErrStoreNotConfigured
	}
	recipientUserID := strings.TrimSpace(input.RecipientUserID)
	if recipientUserID == "" {
		return NotificationPage{}, ErrRecipientUserIDRequired
	}
	pageSize := input.PageSize
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return s.store.ListNotificationsByRecipient(ctx, recipientUserID, input.Filter, pageSize, strings.TrimSpace(input.PageToken))
}

// UnreadCount returns the recipient's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, recipientUserID string) (int, error) {
	if s == nil || s.store == nil {
		return 0, ErrStoreNotConfigured
	}
	recipientUserID = strings.TrimSpace(recipientUserID)
	if recipientUserID == "" {
		return 0, ErrRecipientUserIDRequired
	}
	return s.store.CountUnreadByRecipient(ctx, recipientUserID)
}

// MarkRead marks one recipient notification as read. The operation is
// idempotent: a second call returns the notification unchanged.
func (s *Service) MarkRead(ctx context.Context, input MarkReadInput) (Notification, error) {
	if s == nil || s.store == nil {
		return Notification{}, ErrStoreNotConfigured
	}
	recipientUserID := strings.TrimSpace(input.RecipientUserID)
	if recipientUserID == "" {
		return Notification{}, ErrRecipientUserIDRequired
	}
	notificationID := strings.TrimSpace(input.NotificationID)
	if notificationID == "" {
		return Notification{}, ErrNotificationIDRequired
	}
	return s.store.MarkNotificationRead(ctx, recipientUserID, notificationID, s.nowUTC())
}

// MarkAllRead marks every unread notification for the recipient as read in
// one atomic bulk update and returns the number of rows affected.
func (s *Service) MarkAllRead(ctx context.Context, recipientUserID string) (int, error) {
	if s == nil || s.store == nil {
		return 0, ErrStoreNotConfigured
	}
	recipientUserID = strings.TrimSpace(recipientUserID)
	if recipientUserID == "" {
		return 0, ErrRecipientUserIDRequired
	}
	return s.store.MarkAllRead(ctx, recipientUserID, s.nowUTC())
}

// MarkAllUnread clears the read state of every notification for the
// recipient. Admin override, no audit trail.
func (s *Service) MarkAllUnread(ctx context.Context, recipientUserID string) (int, error) {
	if s == nil || s.store == nil {
		return 0, ErrStoreNotConfigured
	}
	recipientUserID = strings.TrimSpace(recipientUserID)
	if recipientUserID == "" {
		return 0, ErrRecipientUserIDRequired
	}
	return s.store.MarkAllUnread(ctx, recipientUserID)
}

// Preferences loads the recipient's preference record, creating it with
// defaults on first access. Creation is conflict-safe under concurrent first
// access for the same user.
func (s *Service) Preferences(ctx context.Context, userID string) (Preferences, error) {
	if s == nil || s.preferences == nil {
		return Preferences{}, ErrStoreNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Preferences{}, ErrRecipientUserIDRequired
	}
	return s.preferences.GetOrCreatePreferences(ctx, DefaultPreferences(userID, s.nowUTC()))
}

// UpdatePreferences replaces the recipient's channel flags.
func (s *Service) UpdatePreferences(ctx context.Context, preferences Preferences) (Preferences, error) {
	if s == nil || s.preferences == nil {
		return Preferences{}, ErrStoreNotConfigured
	}
	preferences.UserID = strings.TrimSpace(preferences.UserID)
	if preferences.UserID == "" {
		return Preferences{}, ErrRecipientUserIDRequired
	}
	// Ensure the row exists before replacing flags so first-time saves keep
	// get-or-create semantics.
	existing, err := s.preferences.GetOrCreatePreferences(ctx, DefaultPreferences(preferences.UserID, s.nowUTC()))
	if err != nil {
		return Preferences{}, err
	}
	preferences.CreatedAt = existing.CreatedAt
	preferences.UpdatedAt = s.nowUTC()
	if err := s.preferences.PutPreferences(ctx, preferences); err != nil {
		return Preferences{}, err
	}
	return preferences, nil
}

// PurgeRecipient removes every notification and the preference record for a
// deleted user. This is the service-boundary cascade for recipient deletion.
func (s *Service) PurgeRecipient(ctx context.Context, userID string) (int, error) {
	if s == nil || s.store == nil || s.preferences == nil {
		return 0, ErrStoreNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, ErrRecipientUserIDRequired
	}
	removed, err := s.store.DeleteNotificationsByRecipient(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.preferences.DeletePreferences(ctx, userID); err != nil && !errors.Is(err, ErrNotFound) {
		return removed, err
	}
	return removed, nil
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}
