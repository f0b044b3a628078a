package personapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"iam-service/internal/iam"

	"golang.org/x/oauth2/clientcredentials"
)

// Client fetches identity records from the provider's person API,
// authenticating with OAuth2 client credentials.
type Client struct {
	baseURL string
	http    *http.Client
}

type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Audience     string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.BaseURL == "" || cfg.TokenURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("person api config missing required fields")
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	if cfg.Audience != "" {
		cc.EndpointParams = url.Values{"audience": {cfg.Audience}}
	}

	httpClient := cc.Client(ctx)
	httpClient.Timeout = 10 * time.Second

	return &Client{
		baseURL: cfg.BaseURL,
		http:    httpClient,
	}, nil
}

// record is the wire shape of a person API profile. Only the fields the
// service consumes are decoded.
type record struct {
	PrimaryEmail    string   `json:"primary_email"`
	SecondaryEmails []string `json:"secondary_emails"`
}

func (c *Client) FetchAttributes(ctx context.Context, uid string) (iam.Attributes, error) {
	u := c.baseURL + "/v2/user/" + url.PathEscape(uid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return iam.Attributes{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return iam.Attributes{}, fmt.Errorf("person api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return iam.Attributes{}, fmt.Errorf("person api returned %d for uid %q", resp.StatusCode, uid)
	}

	var rec record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return iam.Attributes{}, fmt.Errorf("person api response decode failed: %w", err)
	}

	return iam.Attributes{SecondaryEmails: rec.SecondaryEmails}, nil
}
