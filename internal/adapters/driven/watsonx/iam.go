package watsonx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultAuthURL is the IBM Cloud IAM token endpoint.
const DefaultAuthURL = "https://iam.cloud.ibm.com/identity/token"

// tokenRefreshMargin renews the bearer token this long before it expires.
const tokenRefreshMargin = time.Minute

// tokenSource exchanges an IBM Cloud API key for a short-lived IAM bearer
// token and caches it until shortly before expiry. Safe for concurrent use.
type tokenSource struct {
	client  *http.Client
	authURL string
	apiKey  string

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// iamResponse is the IAM token endpoint response format.
type iamResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`

	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// newTokenSource creates a token source for the given API key.
func newTokenSource(client *http.Client, authURL, apiKey string) *tokenSource {
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	return &tokenSource{
		client:  client,
		authURL: authURL,
		apiKey:  apiKey,
	}
}

// Token returns a valid bearer token, fetching a fresh one when the cached
// token is missing or about to expire.
func (ts *tokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Before(ts.expiry.Add(-tokenRefreshMargin)) {
		return ts.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ibm:params:oauth:grant-type:apikey")
	form.Set("apikey", ts.apiKey)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		ts.authURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := ts.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	var iam iamResponse
	if err := json.Unmarshal(body, &iam); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	if iam.ErrorCode != "" {
		return "", fmt.Errorf("iam error %s: %s", iam.ErrorCode, iam.ErrorMessage)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("iam error (status %d): %s", resp.StatusCode, string(body))
	}
	if iam.AccessToken == "" {
		return "", fmt.Errorf("iam returned no access token")
	}

	ts.token = iam.AccessToken
	ts.expiry = time.Now().Add(time.Duration(iam.ExpiresIn) * time.Second)

	return ts.token, nil
}
