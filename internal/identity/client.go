// Package identity resolves member cards, mobile numbers and business ids
// against the external member directory.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// ErrNotFound is returned when the directory has no record for the lookup key.
var ErrNotFound = errors.New("identity not found")

// Member is the directory record of a job-card holder.
type Member struct {
	CardNumber   string `json:"card_number"`
	MobileNumber string `json:"mobile_number"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
}

// Business is the directory record of an employer.
type Business struct {
	BusinessID   string `json:"business_id"`
	BusinessName string `json:"business_name"`
	Email        string `json:"email"`
}

// Resolver is what the rest of the service needs from the directory.
type Resolver interface {
	ResolveByCard(ctx context.Context, cardNumber string) (*Member, error)
	ResolveByMobile(ctx context.Context, mobile string) (*Member, error)
	ResolveBusiness(ctx context.Context, businessID string) (*Business, error)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Optional OAuth2 client credentials for the directory
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// Client is an HTTP implementation of Resolver.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a directory client. With client credentials configured
// every request carries a bearer token fetched and refreshed by oauth2.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	if opts.ClientID != "" && opts.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			TokenURL:     opts.TokenURL,
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = timeout
	}
	return NewClientWithHTTP(opts.BaseURL, httpClient)
}

// NewClientWithHTTP builds a directory client on top of an existing http.Client.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

// ResolveByCard looks a member up by 16-digit card number.
func (c *Client) ResolveByCard(ctx context.Context, cardNumber string) (*Member, error) {
	var payload memberPayload
	if err := c.get(ctx, "/cardno/member-details/", url.Values{"card_number": {cardNumber}}, &payload); err != nil {
		return nil, err
	}
	m := payload.member()
	if m.CardNumber == "" {
		m.CardNumber = cardNumber
	}
	return m, nil
}

// ResolveByMobile looks a member up by 10-digit mobile number.
func (c *Client) ResolveByMobile(ctx context.Context, mobile string) (*Member, error) {
	var payload memberPayload
	if err := c.get(ctx, "/member-details/", url.Values{"mobile_number": {mobile}}, &payload); err != nil {
		return nil, err
	}
	m := payload.member()
	if m.MobileNumber == "" {
		m.MobileNumber = mobile
	}
	if m.CardNumber == "" {
		return nil, fmt.Errorf("directory returned no card number for mobile %s", mobile)
	}
	return m, nil
}

// ResolveBusiness looks an employer up by business id.
func (c *Client) ResolveBusiness(ctx context.Context, businessID string) (*Business, error) {
	var payload businessPayload
	if err := c.get(ctx, "/business/details/", url.Values{"business_id": {businessID}}, &payload); err != nil {
		return nil, err
	}
	b := payload.business()
	if b.BusinessID == "" {
		b.BusinessID = businessID
	}
	return b, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if c.baseURL == "" {
		return errors.New("identity directory url is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create directory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send directory request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read directory response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("directory responded %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode directory response: %w", err)
	}
	return nil
}
