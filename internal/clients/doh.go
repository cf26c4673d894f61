package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DoHClient resolves DNS records over the DNS-over-HTTPS JSON API
// (https://dns.google/resolve and compatible endpoints). The service never
// uses the host resolver for ownership checks so results are consistent
// across deployment environments.
type DoHClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewDoHClient creates a new DNS-over-HTTPS client
func NewDoHClient(endpoint string) *DoHClient {
	return &DoHClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

const txtRecordType = 16

type dohResponse struct {
	Status int `json:"Status"`
	Answer []struct {
		Name string `json:"name"`
		Type int    `json:"type"`
		TTL  int    `json:"TTL"`
		Data string `json:"data"`
	} `json:"Answer"`
}

// LookupTXT returns the TXT values published at name, quotes stripped.
// NXDOMAIN and NOERROR-with-no-answers both return an empty slice and no
// error; only transport or malformed-response failures error.
func (c *DoHClient) LookupTXT(ctx context.Context, name string) ([]string, error) {
	query := url.Values{}
	query.Set("name", name)
	query.Set("type", "TXT")

	req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/dns-json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dns query failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read dns response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dns resolver returned status %d", resp.StatusCode)
	}

	var result dohResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse dns response: %w", err)
	}

	var values []string
	for _, answer := range result.Answer {
		if answer.Type != txtRecordType {
			continue
		}
		values = append(values, unquoteTXT(answer.Data))
	}
	return values, nil
}

// unquoteTXT strips the quoting DoH endpoints apply to TXT data. Long
// records come back as multiple quoted chunks which are concatenated.
func unquoteTXT(data string) string {
	if !strings.Contains(data, `"`) {
		return data
	}
	var sb strings.Builder
	parts := strings.Split(data, `"`)
	for i, part := range parts {
		// Odd indexes are inside quotes.
		if i%2 == 1 {
			sb.WriteString(part)
		}
	}
	return sb.String()
}
