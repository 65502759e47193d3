package bible

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUpstream is returned when the content API answers with a non-2xx
// status or an unexpected payload shape.
var ErrUpstream = errors.New("bible api request failed")

// Client fetches version lists, version details and chapter content from
// the external content API. Every failure is logged with its URL, status
// and body here; callers only see a nil result with the error.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL, token string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// AllVersions fetches the version list for a language.
func (c *Client) AllVersions(ctx context.Context, lng string) ([]ApiVersion, error) {
	url := fmt.Sprintf("%s/api/%s/", c.baseURL, lng)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var envelope allVersionsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.log.Error("invalid version list payload", zap.String("url", url), zap.Error(err))
		return nil, ErrUpstream
	}
	versions := envelope.Response.Data.Versions
	if versions == nil {
		c.log.Error("version list missing versions field", zap.String("url", url))
		return nil, ErrUpstream
	}
	return versions, nil
}

// VersionDetail fetches one edition's description including its books.
func (c *Client) VersionDetail(ctx context.Context, lng, abbreviation string) (*VersionDetail, error) {
	url := fmt.Sprintf("%s/api/%s/%s", c.baseURL, lng, abbreviation)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var detail VersionDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		c.log.Error("invalid version detail payload", zap.String("url", url), zap.Error(err))
		return nil, ErrUpstream
	}
	if detail.Books == nil {
		c.log.Error("version detail missing books", zap.String("url", url))
		return nil, ErrUpstream
	}
	return &detail, nil
}

// VersionDetailLegacy fetches an edition by abbreviation alone. The legacy
// endpoint wraps the payload in a data envelope.
func (c *Client) VersionDetailLegacy(ctx context.Context, abbreviation string) (*VersionDetail, error) {
	url := fmt.Sprintf("%s/api/%s", c.baseURL, abbreviation)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var envelope dataEnvelope[VersionDetail]
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Data == nil {
		c.log.Error("invalid legacy version detail payload", zap.String("url", url), zap.Error(err))
		return nil, ErrUpstream
	}
	if envelope.Data.Books == nil {
		c.log.Error("legacy version detail missing books", zap.String("url", url))
		return nil, ErrUpstream
	}
	return envelope.Data, nil
}

// Chapter fetches and normalizes one chapter. The book code is lowercased
// for the upstream URL. A result with no title or content is a failure.
func (c *Client) Chapter(ctx context.Context, version, book, chapter string) (*ChapterContent, error) {
	url := fmt.Sprintf("%s/api/%s/%s/%s", c.baseURL, version, strings.ToLower(book), chapter)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var envelope dataEnvelope[ChapterContent]
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Data == nil {
		c.log.Error("invalid chapter payload", zap.String("url", url), zap.Error(err))
		return nil, ErrUpstream
	}
	content := envelope.Data
	if content.Title == "" || content.Content == nil {
		c.log.Error("chapter payload missing title or content", zap.String("url", url))
		return nil, ErrUpstream
	}
	return content, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("bible api unreachable", zap.String("url", url), zap.Error(err))
		return nil, ErrUpstream
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("bible api read failed", zap.String("url", url), zap.Error(err))
		return nil, ErrUpstream
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error("bible api non-success status",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.String("body", strings.TrimSpace(string(body))),
		)
		return nil, ErrUpstream
	}
	return body, nil
}
