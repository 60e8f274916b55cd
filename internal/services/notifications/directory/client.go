// Package directory resolves team membership from the teams service.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mangacollab/mangacollab/internal/platform/timeouts"
	"github.com/mangacollab/mangacollab/internal/services/notifications/domain"
)

// Client fetches team members over the teams service HTTP API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient builds a directory client for the given teams service base URL.
// The token, when set, authenticates service-to-service calls.
func NewClient(baseURL string, token string, client *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("directory base url is required")
	}
	if client == nil {
		client = &http.Client{Timeout: timeouts.DirectoryRequest}
	}
	return &Client{
		baseURL: baseURL,
		token:   strings.TrimSpace(token),
		client:  client,
	}, nil
}

type memberPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type membersResponse struct {
	Members []memberPayload `json:"members"`
}

// ListTeamMembers returns every member of one team.
func (c *Client) ListTeamMembers(ctx context.Context, teamID string) ([]domain.User, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("directory client is not configured")
	}
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return nil, fmt.Errorf("team id is required")
	}

	endpoint := c.baseURL + "/api/v1/teams/" + url.PathEscape(teamID) + "/members"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build team members request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("team members request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("team members endpoint returned %s", resp.Status)
	}

	var payload membersResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode team members response: %w", err)
	}

	members := make([]domain.User, 0, len(payload.Members))
	for _, member := range payload.Members {
		userID := strings.TrimSpace(member.UserID)
		if userID == "" {
			continue
		}
		members = append(members, domain.User{
			ID:       userID,
			Username: member.Username,
			Email:    strings.TrimSpace(member.Email),
		})
	}
	return members, nil
}

var _ domain.MemberResolver = (*Client)(nil)
