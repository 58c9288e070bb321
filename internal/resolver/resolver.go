// ABOUTME: UID extraction from profile links and Graph-style profile lookup
// ABOUTME: Falls back to local pattern matching when no access token is configured

package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DefaultBaseURL is the Graph API endpoint used when none is configured.
const DefaultBaseURL = "https://graph.facebook.com/v17.0"

// DefaultTimeout bounds every resolver HTTP call.
const DefaultTimeout = 10 * time.Second

// uidPattern matches profile links of the form
// https://host/profile.php?id=<id> or https://host/<vanity>.
// The captured segment is restricted to UID-safe characters; anything
// else yields no match.
var uidPattern = regexp.MustCompile(`https?://(?:www\.)?[^/\s]+/(?:profile\.php\?id=)?([0-9A-Za-z._-]+)`)

// Profile is the subset of the remote profile object the bot uses.
type Profile struct {
	ID         string
	Name       string
	PictureURL string
}

// profileResponse mirrors the Graph API profile JSON shape.
type profileResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// Client resolves profile links and UIDs against a Graph-style API.
// With no access token it degrades to local pattern extraction and
// disables profile lookups.
type Client struct {
	baseURL     string
	accessToken string
	client      *http.Client
	logger      *slog.Logger
}

// New creates a resolver client. baseURL and timeout fall back to
// defaults when zero; accessToken may be empty.
func New(baseURL, accessToken string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		accessToken: accessToken,
		client:      &http.Client{Timeout: timeout},
		logger:      slog.Default().With("component", "resolver"),
	}
}

// Enabled reports whether an access token is configured, i.e. whether
// remote lookups are available.
func (c *Client) Enabled() bool {
	return c.accessToken != ""
}

// ExtractUID turns a profile link into a UID.
// Without an access token the link is matched locally against the
// profile-link pattern. With a token the full link is resolved through
// the remote API; any failure there degrades to "no UID found".
// This never returns an error to the caller.
func (c *Client) ExtractUID(ctx context.Context, link string) (string, bool) {
	if !c.Enabled() {
		m := uidPattern.FindStringSubmatch(link)
		if m == nil {
			return "", false
		}
		return m[1], true
	}

	params := url.Values{}
	params.Set("id", link)
	params.Set("access_token", c.accessToken)

	body, ok := c.get(ctx, c.baseURL+"?"+params.Encode())
	if !ok {
		return "", false
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.ID == "" {
		c.logger.Warn("malformed resolver response", "link", link)
		return "", false
	}
	return resp.ID, true
}

// FetchProfile looks up a profile object for the given UID.
// Returns absent when no access token is configured or on any
// transport or API failure.
func (c *Client) FetchProfile(ctx context.Context, uid string) (*Profile, bool) {
	if !c.Enabled() {
		return nil, false
	}

	params := url.Values{}
	params.Set("fields", "id,name,picture.width(800).height(800)")
	params.Set("access_token", c.accessToken)

	body, ok := c.get(ctx, c.baseURL+"/"+url.PathEscape(uid)+"?"+params.Encode())
	if !ok {
		return nil, false
	}

	var resp profileResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.ID == "" {
		c.logger.Warn("malformed profile response", "uid", uid)
		return nil, false
	}

	return &Profile{
		ID:         resp.ID,
		Name:       resp.Name,
		PictureURL: resp.Picture.Data.URL,
	}, true
}

// PictureURL returns the tokenless fallback avatar URL for a UID.
func (c *Client) PictureURL(uid string) string {
	return fmt.Sprintf("%s/%s/picture?type=large", c.baseURL, url.PathEscape(uid))
}

// get performs a bounded GET and returns the body on HTTP 200.
// Failures are logged and reported as absence, never as errors.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		c.logger.Warn("building resolver request failed", "error", err)
		return nil, false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("resolver request failed", "error", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("resolver returned non-200", "status", resp.StatusCode)
		return nil, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("reading resolver response failed", "error", err)
		return nil, false
	}
	return body, true
}
