// Package sqlite provides a SQLite-backed notifications storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/mangacollab/mangacollab/internal/platform/storage/sqlitemigrate"
	"github.com/mangacollab/mangacollab/internal/services/notifications/storage"
	"github.com/mangacollab/mangacollab/internal/services/notifications/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists notifications state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a notifications SQLite store at the provided path and applies
// embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutNotification persists one notification inbox row.
func (s *Store) PutNotification(ctx context.Context, record storage.NotificationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(record.ID)
	recipientUserID := strings.TrimSpace(record.RecipientUserID)
	if id == "" {
		return fmt.Errorf("notification id is required")
	}
	if recipientUserID == "" {
		return fmt.Errorf("recipient user id is required")
	}
	extraJSON := strings.TrimSpace(record.ExtraJSON)
	if extraJSON == "" {
		extraJSON = "{}"
	}
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var readAt any
	if record.ReadAt != nil {
		readAt = toMillis(*record.ReadAt)
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO notifications (id, recipient_user_id, kind, title, message, extra_json, created_at, read_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, id, recipientUserID, strings.TrimSpace(record.Kind), record.Title, record.Message, extraJSON, toMillis(createdAt), readAt)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put notification: %w", err)
	}
	return nil
}

// ListNotificationsByRecipient lists one recipient inbox newest-first with
// cursor pagination and optional read-state and kind filters.
func (s *Store) ListNotificationsByRecipient(ctx context.Context, recipientUserID string, filter storage.ListFilter, pageSize int, pageToken string) (storage.NotificationPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.NotificationPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.NotificationPage{}, fmt.Errorf("storage is not configured")
	}
	recipientUserID = strings.TrimSpace(recipientUserID)
	pageToken = strings.TrimSpace(pageToken)
	if recipientUserID == "" {
		return storage.NotificationPage{}, fmt.Errorf("recipient user id is required")
	}
	if pageSize <= 0 {
		return storage.NotificationPage{}, fmt.Errorf("page size must be greater than zero")
	}

	conditions := []string{"recipient_user_id = ?"}
	args := []any{recipientUserID}
	switch filter.Status {
	case storage.ReadStatusUnread:
		conditions = append(conditions, "read_at IS NULL")
	case storage.ReadStatusRead:
		conditions = append(conditions, "read_at IS NOT NULL")
	}
	if kind := strings.TrimSpace(filter.Kind); kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, kind)
	}

	if pageToken != "" {
		tokenCreatedAt, err := s.notificationCreatedAtByID(ctx, recipientUserID, pageToken)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return storage.NotificationPage{}, nil
			}
			return storage.NotificationPage{}, err
		}
		conditions = append(conditions, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, toMillis(tokenCreatedAt), toMillis(tokenCreatedAt), pageToken)
	}

	query := fmt.Sprintf(`
SELECT id, recipient_user_id, kind, title, message, extra_json, created_at, read_at
FROM notifications
WHERE %s
ORDER BY created_at DESC, id DESC
LIMIT ?
`, strings.Join(conditions, " AND "))
	args = append(args, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return storage.NotificationPage{}, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	page := storage.NotificationPage{
		Notifications: make([]storage.NotificationRecord, 0, pageSize),
	}
	for rows.Next() {
		record, err := scanNotification(rows.Scan)
		if err != nil {
			return storage.NotificationPage{}, fmt.Errorf("list notifications: %w", err)
		}
		page.Notifications = append(page.Notifications, record)
	}
	if err := rows.Err(); err != nil {
		return storage.NotificationPage{}, fmt.Errorf("list notifications: %w", err)
	}
	if len(page.Notifications) > pageSize {
		page.Notifications = page.Notifications[:pageSize]
		page.NextPageToken = page.Notifications[pageSize-1].ID
	}
	return page, nil
}

func (s *Store) notificationCreatedAtByID(ctx context.Context, recipientUserID string, notificationID string) (time.Time, error) {
	var createdAt int64
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT created_at
FROM notifications
WHERE recipient_user_id = ? AND id = ?
`, recipientUserID, notificationID).Scan(&createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("resolve page token: %w", err)
	}
	return fromMillis(createdAt), nil
}

// CountUnreadNotificationsByRecipient returns unread inbox count for one recipient.
func (s *Store) CountUnreadNotificationsByRecipient(ctx context.Context, recipientUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	recipientUserID = strings.TrimSpace(recipientUserID)
	if recipientUserID == "" {
		return 0, fmt.Errorf("recipient user id is required")
	}

	var unreadCount int
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(1)
FROM notifications
WHERE recipient_user_id = ? AND read_at IS NULL
`, recipientUserID).Scan(&unreadCount)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return unreadCount, nil
}

// MarkNotificationRead marks one recipient notification as read. A repeat
// call keeps the original read timestamp.
func (s *Store) MarkNotificationRead(ctx context.Context, recipientUserID string, notificationID string, readAt time.Time) (storage.NotificationRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.NotificationRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.NotificationRecord{}, fmt.Errorf("storage is not configured")
	}
	recipientUserID = strings.TrimSpace(recipientUserID)
	notificationID = strings.TrimSpace(notificationID)
	if recipientUserID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("recipient user id is required")
	}
	if notificationID == "" {
		return storage.NotificationRecord{}, fmt.Errorf("notification id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
UPDATE notifications
SET read_at = ?
WHERE recipient_user_id = ? AND id = ? AND read_at IS NULL
`, toMillis(readAt), recipientUserID, notificationID)
	if err != nil {
		return storage.NotificationRecord{}, fmt.Errorf("mark notification read: %w", err)
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, recipient_user_id, kind, title, message, extra_json, created_at, read_at
FROM notifications
WHERE recipient_user_id = ? AND id = ?
`, recipientUserID, notificationID)
	record, err := scanNotification(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.NotificationRecord{}, storage.ErrNotFound
		}
		return storage.NotificationRecord{}, fmt.Errorf("load marked notification: %w", err)
	}
	return record, nil
}

// MarkAllNotificationsRead marks every unread recipient notification read in
// one statement and returns the affected row count.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientUserID string, readAt time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	recipientUserID = strings.TrimSpace(recipientUserID)
	if recipientUserID == "" {
		return 0, fmt.Errorf("recipient user id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE notifications
SET read_at = ?
WHERE recipient_user_id = ? AND read_at IS NULL
`, toMillis(readAt), recipientUserID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read rows affected: %w", err)
	}
	return int(affected), nil
}

// MarkAllNotificationsUnread clears read state for every recipient notification.
func (s *Store) MarkAllNotificationsUnread(ctx context.Context, recipientUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	recipientUserID = strings.TrimSpace(recipientUserID)
	if recipientUserID == "" {
		return 0, fmt.Errorf("recipient user id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE notifications
SET read_at = NULL
WHERE recipient_user_id = ? AND read_at IS NOT NULL
`, recipientUserID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications unread: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications unread rows affected: %w", err)
	}
	return int(affected), nil
}

// DeleteNotificationsByRecipient removes every notification row for one recipient.
func (s *Store) DeleteNotificationsByRecipient(ctx context.Context, recipientUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	recipientUserID = strings.TrimSpace(recipientUserID)
	if recipientUserID == "" {
		return 0, fmt.Errorf("recipient user id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM notifications
WHERE recipient_user_id = ?
`, recipientUserID)
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete notifications rows affected: %w", err)
	}
	return int(affected), nil
}

// GetOrCreatePreferences loads one user's preference row, inserting the
// provided defaults first when the row does not exist. The insert is
// conflict-safe under concurrent first access.
func (s *Store) GetOrCreatePreferences(ctx context.Context, defaults storage.PreferenceRecord) (storage.PreferenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.PreferenceRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.PreferenceRecord{}, fmt.Errorf("storage is not configured")
	}
	userID := strings.TrimSpace(defaults.UserID)
	if userID == "" {
		return storage.PreferenceRecord{}, fmt.Errorf("user id is required")
	}
	createdAt := defaults.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := defaults.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO notification_preferences (
    user_id,
    email_team_status_changes, email_team_invitations, email_task_assignments,
    email_project_updates, email_comment_mentions,
    web_team_status_changes, web_team_invitations, web_task_assignments,
    web_project_updates, web_comment_mentions,
    created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO NOTHING
`,
		userID,
		defaults.EmailTeamStatusChanges, defaults.EmailTeamInvitations, defaults.EmailTaskAssignments,
		defaults.EmailProjectUpdates, defaults.EmailCommentMentions,
		defaults.WebTeamStatusChanges, defaults.WebTeamInvitations, defaults.WebTaskAssignments,
		defaults.WebProjectUpdates, defaults.WebCommentMentions,
		toMillis(createdAt), toMillis(updatedAt),
	)
	if err != nil {
		return storage.PreferenceRecord{}, fmt.Errorf("create default preferences: %w", err)
	}
	return s.getPreferences(ctx, userID)
}

// PutPreferences replaces one user's preference row.
func (s *Store) PutPreferences(ctx context.Context, record storage.PreferenceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID := strings.TrimSpace(record.UserID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := record.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO notification_preferences (
    user_id,
    email_team_status_changes, email_team_invitations, email_task_assignments,
    email_project_updates, email_comment_mentions,
    web_team_status_changes, web_team_invitations, web_task_assignments,
    web_project_updates, web_comment_mentions,
    created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    email_team_status_changes = excluded.email_team_status_changes,
    email_team_invitations = excluded.email_team_invitations,
    email_task_assignments = excluded.email_task_assignments,
    email_project_updates = excluded.email_project_updates,
    email_comment_mentions = excluded.email_comment_mentions,
    web_team_status_changes = excluded.web_team_status_changes,
    web_team_invitations = excluded.web_team_invitations,
    web_task_assignments = excluded.web_task_assignments,
    web_project_updates = excluded.web_project_updates,
    web_comment_mentions = excluded.web_comment_mentions,
    updated_at = excluded.updated_at
`,
		userID,
		record.EmailTeamStatusChanges, record.EmailTeamInvitations, record.EmailTaskAssignments,
		record.EmailProjectUpdates, record.EmailCommentMentions,
		record.WebTeamStatusChanges, record.WebTeamInvitations, record.WebTaskAssignments,
		record.WebProjectUpdates, record.WebCommentMentions,
		toMillis(createdAt), toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put preferences: %w", err)
	}
	return nil
}

// DeletePreferences removes one user's preference row.
func (s *Store) DeletePreferences(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM notification_preferences
WHERE user_id = ?
`, userID)
	if err != nil {
		return fmt.Errorf("delete preferences: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete preferences rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) getPreferences(ctx context.Context, userID string) (storage.PreferenceRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT user_id,
       email_team_status_changes, email_team_invitations, email_task_assignments,
       email_project_updates, email_comment_mentions,
       web_team_status_changes, web_team_invitations, web_task_assignments,
       web_project_updates, web_comment_mentions,
       created_at, updated_at
FROM notification_preferences
WHERE user_id = ?
`, userID)

	var record storage.PreferenceRecord
	var createdAt int64
	var updatedAt int64
	err := row.Scan(
		&record.UserID,
		&record.EmailTeamStatusChanges, &record.EmailTeamInvitations, &record.EmailTaskAssignments,
		&record.EmailProjectUpdates, &record.EmailCommentMentions,
		&record.WebTeamStatusChanges, &record.WebTeamInvitations, &record.WebTaskAssignments,
		&record.WebProjectUpdates, &record.WebCommentMentions,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.PreferenceRecord{}, storage.ErrNotFound
		}
		return storage.PreferenceRecord{}, fmt.Errorf("get preferences: %w", err)
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func scanNotification(scan func(dest ...any) error) (storage.NotificationRecord, error) {
	var record storage.NotificationRecord
	var createdAt int64
	var readAt sql.NullInt64
	if err := scan(
		&record.ID,
		&record.RecipientUserID,
		&record.Kind,
		&record.Title,
		&record.Message,
		&record.ExtraJSON,
		&createdAt,
		&readAt,
	); err != nil {
		return storage.NotificationRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	if readAt.Valid {
		readValue := fromMillis(readAt.Int64)
		record.ReadAt = &readValue
	}
	return record, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var (
	_ storage.NotificationStore = (*Store)(nil)
	_ storage.PreferenceStore   = (*Store)(nil)
)
