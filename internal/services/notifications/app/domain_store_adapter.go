package server

import (
	"context"
	"errors"
	"time"

	"github.com/mangacollab/mangacollab/internal/services/notifications/domain"
	"github.com/mangacollab/mangacollab/internal/services/notifications/storage"
)

// domainStoreAdapter bridges the domain persistence contracts onto the
// storage layer, translating record types and sentinel errors.
type domainStoreAdapter struct {
	notifications storage.NotificationStore
	preferences   storage.PreferenceStore
}

func newDomainStoreAdapter(notifications storage.NotificationStore, preferences storage.PreferenceStore) *domainStoreAdapter {
	return &domainStoreAdapter{
		notifications: notifications,
		preferences:   preferences,
	}
}

func (a *domainStoreAdapter) PutNotification(ctx context.Context, notification domain.Notification) error {
	if a == nil || a.notifications == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.notifications.PutNotification(ctx, toStorageNotification(notification)))
}

func (a *domainStoreAdapter) ListNotificationsByRecipient(ctx context.Context, recipientUserID string, filter domain.ListFilter, pageSize int, pageToken string) (domain.NotificationPage, error) {
	if a == nil || a.notifications == nil {
		return domain.NotificationPage{}, domain.ErrStoreNotConfigured
	}
	page, err := a.notifications.ListNotificationsByRecipient(ctx, recipientUserID, storage.ListFilter{
		Status: storage.ReadStatusFilter(filter.Status),
		Kind:   string(filter.Kind),
	}, pageSize, pageToken)
	if err != nil {
		return domain.NotificationPage{}, mapStorageError(err)
	}
	result := domain.NotificationPage{
		Notifications: make([]domain.Notification, 0, len(page.Notifications)),
		NextPageToken: page.NextPageToken,
	}
	for _, record := range page.Notifications {
		result.Notifications = append(result.Notifications, toDomainNotification(record))
	}
	return result, nil
}

func (a *domainStoreAdapter) CountUnreadByRecipient(ctx context.Context, recipientUserID string) (int, error) {
	if a == nil || a.notifications == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	unreadCount, err := a.notifications.CountUnreadNotificationsByRecipient(ctx, recipientUserID)
	if err != nil {
		return 0, mapStorageError(err)
	}
	return unreadCount, nil
}

func (a *domainStoreAdapter) MarkNotificationRead(ctx context.Context, recipientUserID string, notificationID string, readAt time.Time) (domain.Notification, error) {
	if a == nil || a.notifications == nil {
		return domain.Notification{}, domain.ErrStoreNotConfigured
	}
	record, err := a.notifications.MarkNotificationRead(ctx, recipientUserID, notificationID, readAt)
	if err != nil {
		return domain.Notification{}, mapStorageError(err)
	}
	return toDomainNotification(record), nil
}

func (a *domainStoreAdapter) MarkAllRead(ctx context.Context, recipientUserID string, readAt time.Time) (int, error) {
	if a == nil || a.notifications == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	affected, err := a.notifications.MarkAllNotificationsRead(ctx, recipientUserID, readAt)
	if err != nil {
		return 0, mapStorageError(err)
	}
	return affected, nil
}

func (a *domainStoreAdapter) MarkAllUnread(ctx context.Context, recipientUserID string) (int, error) {
	if a == nil || a.notifications == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	affected, err := a.notifications.MarkAllNotificationsUnread(ctx, recipientUserID)
	if err != nil {
		return 0, mapStorageError(err)
	}
	return affected, nil
}

func (a *domainStoreAdapter) DeleteNotificationsByRecipient(ctx context.Context, recipientUserID string) (int, error) {
	if a == nil || a.notifications == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	removed, err := a.notifications.DeleteNotificationsByRecipient(ctx, recipientUserID)
	if err != nil {
		return 0, mapStorageError(err)
	}
	return removed, nil
}

func (a *domainStoreAdapter) GetOrCreatePreferences(ctx context.Context, defaults domain.Preferences) (domain.Preferences, error) {
	if a == nil || a.preferences == nil {
		return domain.Preferences{}, domain.ErrStoreNotConfigured
	}
	record, err := a.preferences.GetOrCreatePreferences(ctx, toStoragePreferences(defaults))
	if err != nil {
		return domain.Preferences{}, mapStorageError(err)
	}
	return toDomainPreferences(record), nil
}

func (a *domainStoreAdapter) PutPreferences(ctx context.Context, preferences domain.Preferences) error {
	if a == nil || a.preferences == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.preferences.PutPreferences(ctx, toStoragePreferences(preferences)))
}

func (a *domainStoreAdapter) DeletePreferences(ctx context.Context, userID string) error {
	if a == nil || a.preferences == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.preferences.DeletePreferences(ctx, userID))
}

func toStorageNotification(notification domain.Notification) storage.NotificationRecord {
	return storage.NotificationRecord{
		ID:              notification.ID,
		RecipientUserID: notification.RecipientUserID,
		Kind:            string(notification.Kind),
		Title:           notification.Title,
		Message:         notification.Message,
		ExtraJSON:       notification.ExtraJSON,
		CreatedAt:       notification.CreatedAt,
		ReadAt:          notification.ReadAt,
	}
}

func toDomainNotification(record storage.NotificationRecord) domain.Notification {
	return domain.Notification{
		ID:              record.ID,
		RecipientUserID: record.RecipientUserID,
		Kind:            domain.Kind(record.Kind),
		Title:           record.Title,
		Message:         record.Message,
		ExtraJSON:       record.ExtraJSON,
		CreatedAt:       record.CreatedAt,
		ReadAt:          record.ReadAt,
	}
}

func toStoragePreferences(preferences domain.Preferences) storage.PreferenceRecord {
	return storage.PreferenceRecord{
		UserID:                 preferences.UserID,
		EmailTeamStatusChanges: preferences.EmailTeamStatusChanges,
		EmailTeamInvitations:   preferences.EmailTeamInvitations,
		EmailTaskAssignments:   preferences.EmailTaskAssignments,
		EmailProjectUpdates:    preferences.EmailProjectUpdates,
		EmailCommentMentions:   preferences.EmailCommentMentions,
		WebTeamStatusChanges:   preferences.WebTeamStatusChanges,
		WebTeamInvitations:     preferences.WebTeamInvitations,
		WebTaskAssignments:     preferences.WebTaskAssignments,
		WebProjectUpdates:      preferences.WebProjectUpdates,
		WebCommentMentions:     preferences.WebCommentMentions,
		CreatedAt:              preferences.CreatedAt,
		UpdatedAt:              preferences.UpdatedAt,
	}
}

func toDomainPreferences(record storage.PreferenceRecord) domain.Preferences {
	return domain.Preferences{
		UserID:                 record.UserID,
		EmailTeamStatusChanges: record.EmailTeamStatusChanges,
		EmailTeamInvitations:   record.EmailTeamInvitations,
		EmailTaskAssignments:   record.EmailTaskAssignments,
		EmailProjectUpdates:    record.EmailProjectUpdates,
		EmailCommentMentions:   record.EmailCommentMentions,
		WebTeamStatusChanges:   record.WebTeamStatusChanges,
		WebTeamInvitations:     record.WebTeamInvitations,
		WebTaskAssignments:     record.WebTaskAssignments,
		WebProjectUpdates:      record.WebProjectUpdates,
		WebCommentMentions:     record.WebCommentMentions,
		CreatedAt:              record.CreatedAt,
		UpdatedAt:              record.UpdatedAt,
	}
}

func mapStorageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, storage.ErrConflict):
		return domain.ErrConflict
	default:
		return err
	}
}

var (
	_ domain.Store           = (*domainStoreAdapter)(nil)
	_ domain.PreferenceStore = (*domainStoreAdapter)(nil)
)
