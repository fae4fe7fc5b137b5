package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"feedpilot/internal/model"
)

// HTTPClient implements Client against an OAuth2 password-grant API in the
// style of the big content platforms: a token endpoint plus bearer calls.
type HTTPClient struct {
	authURL    string
	apiURL     string
	httpClient *http.Client
}

func NewHTTPClient(authURL, apiURL string) *HTTPClient {
	return &HTTPClient{
		authURL:    strings.TrimRight(authURL, "/"),
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *HTTPClient) Authenticate(ctx context.Context, creds model.RemoteCredential, password string) (Session, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", creds.Username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	req.SetBasicAuth(creds.ClientID, creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", creds.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: token endpoint returned %d", ErrAuth, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrAuth)
	}

	return &httpSession{client: c, accessToken: token.AccessToken, userAgent: creds.UserAgent}, nil
}

type httpSession struct {
	client      *HTTPClient
	accessToken string
	userAgent   string
}

type identityResponse struct {
	Name string `json:"name"`
}

type listResponse struct {
	Items []struct {
		Title     string  `json:"title"`
		CreatedAt float64 `json:"created_utc"`
	} `json:"items"`
}

func (s *httpSession) Identity(ctx context.Context) (string, error) {
	var out identityResponse
	if err := s.get(ctx, "/api/v1/me", &out); err != nil {
		return "", err
	}
	if out.Name == "" {
		return "", fmt.Errorf("%w: identity probe returned no name", ErrAuth)
	}
	return out.Name, nil
}

func (s *httpSession) ListRecent(ctx context.Context, channel string, limit int) ([]Item, error) {
	path := "/api/v1/channels/" + url.PathEscape(channel) + "/new?limit=" + strconv.Itoa(limit)
	var out listResponse
	if err := s.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	items := make([]Item, 0, len(out.Items))
	for _, it := range out.Items {
		items = append(items, Item{
			Title:     it.Title,
			CreatedAt: time.Unix(int64(it.CreatedAt), 0),
		})
	}
	return items, nil
}

func (s *httpSession) Publish(ctx context.Context, channel, title, body string) error {
	payload, _ := json.Marshal(map[string]string{
		"channel": channel,
		"title":   title,
		"body":    body,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.apiURL+"/api/v1/submit", strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	s.decorate(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrPublish, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

func (s *httpSession) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.client.apiURL+path, nil)
	if err != nil {
		return err
	}
	s.decorate(req)

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (s *httpSession) decorate(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("User-Agent", s.userAgent)
}
