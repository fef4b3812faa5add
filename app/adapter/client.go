package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/avast/retry-go/v4"
	"golang.org/x/text/encoding/charmap"

	"github.com/grenlandlive/sportsync/app/config"
)

const fetchAttempts = 3

// Client is the shared HTTP fetcher for all adapters. Transient transport
// failures and 5xx responses are retried with bounded exponential backoff;
// 4xx responses are not, since retrying will not fix them.
type Client struct {
	http      *http.Client
	userAgent string
}

func NewClient(userAgent string) *Client {
	return &Client{
		http:      &http.Client{},
		userAgent: userAgent,
	}
}

// GetBytes fetches a URL within the source's timeout budget.
func (c *Client) GetBytes(ctx context.Context, url string, src config.Source) ([]byte, error) {
	var body []byte

	err := retry.Do(
		func() error {
			data, err := c.fetchOnce(ctx, url, src.GetTimeout())
			if err != nil {
				return err
			}
			body = data
			return nil
		},
		retry.Attempts(fetchAttempts),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("GET %s failed after %d attempts: %w", url, fetchAttempts, err)
	}

	return body, nil
}

// GetText fetches a URL and decodes the body to UTF-8. Sources may pin
// "latin1"; otherwise invalid UTF-8 falls back to ISO-8859-1, which is what
// the older Norwegian federation feeds actually serve.
func (c *Client) GetText(ctx context.Context, url string, src config.Source) (string, error) {
	body, err := c.GetBytes(ctx, url, src)
	if err != nil {
		return "", err
	}
	return decodeText(body, src.Encoding), nil
}

func (c *Client) fetchOnce(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "GET", url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func decodeText(body []byte, encoding string) string {
	latin1 := encoding == "latin1" || encoding == "iso-8859-1"
	if !latin1 && utf8.Valid(body) {
		return string(body)
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
