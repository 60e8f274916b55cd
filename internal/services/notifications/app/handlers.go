package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mangacollab/mangacollab/internal/services/notifications/domain"
)

// defaultHTTPPageSize matches the inbox page size rendered by the web UI.
const defaultHTTPPageSize = 20

type notificationPayload struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Extra     json.RawMessage `json:"extra"`
	IsRead    bool            `json:"is_read"`
	CreatedAt string          `json:"created_at"`
	ReadAt    string          `json:"read_at,omitempty"`
}

type preferencesPayload struct {
	UserID string `json:"user_id"`

	EmailTeamStatusChanges bool `json:"email_team_status_changes"`
	EmailTeamInvitations   bool `json:"email_team_invitations"`
	EmailTaskAssignments   bool `json:"email_task_assignments"`
	EmailProjectUpdates    bool `json:"email_project_updates"`
	EmailCommentMentions   bool `json:"email_comment_mentions"`

	WebTeamStatusChanges bool `json:"web_team_status_changes"`
	WebTeamInvitations   bool `json:"web_team_invitations"`
	WebTaskAssignments   bool `json:"web_task_assignments"`
	WebProjectUpdates    bool `json:"web_project_updates"`
	WebCommentMentions   bool `json:"web_comment_mentions"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toNotificationPayload(notification domain.Notification) notificationPayload {
	extra := strings.TrimSpace(notification.ExtraJSON)
	if extra == "" {
		extra = "{}"
	}
	payload := notificationPayload{
		ID:        notification.ID,
		Kind:      string(notification.Kind),
		Title:     notification.Title,
		Message:   notification.Message,
		Extra:     json.RawMessage(extra),
		IsRead:    notification.IsRead(),
		CreatedAt: notification.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if notification.ReadAt != nil {
		payload.ReadAt = notification.ReadAt.UTC().Format(time.RFC3339Nano)
	}
	return payload
}

func toPreferencesPayload(preferences domain.Preferences) preferencesPayload {
	return preferencesPayload{
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
		CreatedAt:              preferences.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:              preferences.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request, userID string) {
	query := r.URL.Query()
	input := domain.ListInput{
		RecipientUserID: userID,
		Filter: domain.ListFilter{
			Status: domain.StatusFilter(strings.TrimSpace(query.Get("status"))),
			Kind:   domain.Kind(strings.TrimSpace(query.Get("type"))),
		},
		PageSize:  defaultHTTPPageSize,
		PageToken: strings.TrimSpace(query.Get("page_token")),
	}
	switch input.Filter.Status {
	case domain.StatusAny, domain.StatusUnread, domain.StatusRead:
	default:
		writeError(w, http.StatusBadRequest, "status must be unread or read")
		return
	}
	if raw := strings.TrimSpace(query.Get("page_size")); raw != "" {
		pageSize, err := strconv.Atoi(raw)
		if err != nil || pageSize < 0 {
			writeError(w, http.StatusBadRequest, "page_size must be a non-negative integer")
			return
		}
		input.PageSize = pageSize
	}

	page, err := s.service.List(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	payload := struct {
		Notifications []notificationPayload `json:"notifications"`
		NextPageToken string                `json:"next_page_token,omitempty"`
	}{
		Notifications: make([]notificationPayload, 0, len(page.Notifications)),
		NextPageToken: page.NextPageToken,
	}
	for _, notification := range page.Notifications {
		payload.Notifications = append(payload.Notifications, toNotificationPayload(notification))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request, userID string) {
	count, err := s.service.UnreadCount(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request, userID string) {
	notification, err := s.service.MarkRead(r.Context(), domain.MarkReadInput{
		RecipientUserID: userID,
		NotificationID:  r.PathValue("id"),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationPayload(notification))
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request, userID string) {
	count, err := s.service.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request, userID string) {
	preferences, err := s.service.Preferences(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreferencesPayload(preferences))
}

func (s *Server) handlePutPreferences(w http.ResponseWriter, r *http.Request, userID string) {
	var body preferencesPayload
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	preferences, err := s.service.UpdatePreferences(r.Context(), domain.Preferences{
		UserID:                 userID,
		EmailTeamStatusChanges: body.EmailTeamStatusChanges,
		EmailTeamInvitations:   body.EmailTeamInvitations,
		EmailTaskAssignments:   body.EmailTaskAssignments,
		EmailProjectUpdates:    body.EmailProjectUpdates,
		EmailCommentMentions:   body.EmailCommentMentions,
		WebTeamStatusChanges:   body.WebTeamStatusChanges,
		WebTeamInvitations:     body.WebTeamInvitations,
		WebTaskAssignments:     body.WebTaskAssignments,
		WebProjectUpdates:      body.WebProjectUpdates,
		WebCommentMentions:     body.WebCommentMentions,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPreferencesPayload(preferences))
}

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type teamStatusDispatchPayload struct {
	Team struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
	Change string      `json:"change"`
	Actor  userPayload `json:"actor"`
	Reason string      `json:"reason"`
}

func (s *Server) handleDispatchTeamStatus(w http.ResponseWriter, r *http.Request) {
	if s.dispatcher == nil {
		writeError(w, http.StatusServiceUnavailable, "dispatcher is not configured")
		return
	}
	var body teamStatusDispatchPayload
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := s.dispatcher.DispatchTeamStatusChange(r.Context(), domain.TeamStatusChangeInput{
		Team:   domain.Team{ID: body.Team.ID, Name: body.Team.Name},
		Change: domain.TeamStatusChange(body.Change),
		Actor:  domain.User{ID: body.Actor.ID, Username: body.Actor.Username, Email: body.Actor.Email},
		Reason: body.Reason,
	})
	if err != nil {
		log.Printf("team status dispatch for team %s: %v", body.Team.ID, err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "dispatched"})
}

type notifyPayload struct {
	Recipient userPayload     `json:"recipient"`
	Kind      string          `json:"kind"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Extra     json.RawMessage `json:"extra"`
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	if s.dispatcher == nil {
		writeError(w, http.StatusServiceUnavailable, "dispatcher is not configured")
		return
	}
	var body notifyPayload
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	extra, err := domain.ParseExtraData(string(body.Extra))
	if err != nil {
		writeError(w, http.StatusBadRequest, "extra must be a JSON object")
		return
	}
	recipient := domain.User{ID: body.Recipient.ID, Username: body.Recipient.Username, Email: body.Recipient.Email}
	err = s.dispatcher.Notify(r.Context(), recipient, domain.Kind(body.Kind), body.Title, body.Message, extra)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "notified"})
}

func (s *Server) handleMarkAllUnread(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	count, err := s.service.MarkAllUnread(r.Context(), body.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handlePurgeRecipient(w http.ResponseWriter, r *http.Request) {
	count, err := s.service.PurgeRecipient(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": count})
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "notification not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "notification already exists")
	case errors.Is(err, domain.ErrRecipientUserIDRequired),
		errors.Is(err, domain.ErrKindRequired),
		errors.Is(err, domain.ErrTitleRequired),
		errors.Is(err, domain.ErrMessageRequired),
		errors.Is(err, domain.ErrNotificationIDRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("notifications request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
