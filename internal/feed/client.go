package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"print-relay/internal/domain"
)

const assertionGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// Client talks to the POS purchase API. Authentication is the JWT
// assertion grant: the long-lived assertion token from the merchant
// portal is exchanged for a short-lived bearer token, cached until
// close to expiry.
type Client struct {
	baseURL        string
	tokenURL       string
	clientID       string
	assertionToken string
	httpc          *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time
}

type Options struct {
	BaseURL        string
	TokenURL       string
	ClientID       string
	AssertionToken string
	Timeout        time.Duration
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		tokenURL:       opts.TokenURL,
		clientID:       opts.ClientID,
		assertionToken: opts.AssertionToken,
		httpc:          &http.Client{Timeout: opts.Timeout},
	}
}

type purchasesResponse struct {
	Purchases []domain.Purchase `json:"purchases"`
}

func (c *Client) LatestPurchases(ctx context.Context, limit int, includeRefunded bool) ([]domain.Purchase, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("feed auth: %w", err)
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("descending", "true")
	if includeRefunded {
		q.Set("includeRefunded", "true")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/purchases/v2?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			// Token may have been revoked server-side; drop the cache
			// so the next cycle re-authenticates.
			c.mu.Lock()
			c.token = ""
			c.mu.Unlock()
		}
		return nil, fmt.Errorf("feed fetch: unexpected status %d", resp.StatusCode)
	}

	var out purchasesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("feed decode: %w", err)
	}
	return out.Purchases, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", assertionGrant)
	form.Set("client_id", c.clientID)
	form.Set("assertion", c.assertionToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange: unexpected status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("token decode: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token exchange: empty access_token")
	}

	c.token = tok.AccessToken
	// Refresh a minute early so a token never expires mid-cycle.
	c.expiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

var _ Source = (*Client)(nil)
