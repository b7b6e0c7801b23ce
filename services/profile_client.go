// services/profile_client.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ProfileServiceClient resolves display profiles from the platform's profile
// service. It is the ProfileLookup used when the Discord bot is not running.
type ProfileServiceClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

type remoteProfile struct {
	ExternalID        string  `json:"external_id"`
	Username          string  `json:"username"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
}

func NewProfileServiceClient(baseURL, token string) *ProfileServiceClient {
	return &ProfileServiceClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Profile calls GET /api/v1/public/profiles/:id on the profile service
func (c *ProfileServiceClient) Profile(ctx context.Context, userID string) (Profile, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return Profile{}, fmt.Errorf("invalid profile service URL '%s': %w", c.BaseURL, err)
	}
	endpoint := base.JoinPath("/api/v1/public/profiles", userID).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to create request to %s: %w", endpoint, err)
	}
	req.Header.Set("X-Service-Token", c.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("profile request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return Profile{}, fmt.Errorf("profile %s: %w", userID, ErrPlayerNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Profile{}, fmt.Errorf("profile service returned %d: %s", resp.StatusCode, string(body))
	}

	var out remoteProfile
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Profile{}, fmt.Errorf("failed to decode profile response: %w", err)
	}

	p := Profile{UserID: userID, Username: out.Username}
	if out.ProfilePictureURL != nil {
		p.AvatarURL = *out.ProfilePictureURL
	}
	return p, nil
}
