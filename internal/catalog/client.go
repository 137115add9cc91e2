package catalog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/logger"
	"github.com/spigell/scholarpath/internal/scholarship"
)

const (
	ScholarshipsPath = "/scholarships"
	ProfilePath      = "/students/%s/profile"

	userAgent       = "spigell/scholarpath"
	contentType     = "application/json"
	contentEncoding = "gzip"
	// Max value the catalog API accepts per page.
	defaultPerPage = 100
)

// Query narrows a catalog request. Zero fields are not sent.
type Query struct {
	// param is the query string key.
	State     string   `param:"state"`
	Majors    []string `param:"major"`
	MinAmount int      `param:"min_amount"`
	Renewable bool     `param:"renewable"`
	PerPage   int      `param:"per_page"`
}

// Client reads the catalog from a paginated HTTP API.
type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

func NewClient(log *zap.Logger, baseURL, token string) *Client {
	return &Client{
		token:   token,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger.WithFields(log),
		UserAgent: userAgent,
	}
}

type itemResponse struct {
	Items   []any `json:"items"`
	Found   int   `json:"found"`
	Pages   int   `json:"pages"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

// FetchCatalog downloads every page and validates the result.
func (c *Client) FetchCatalog(ctx context.Context, q *Query) (*scholarship.Catalog, error) {
	if q == nil {
		q = &Query{}
	}
	if q.PerPage == 0 {
		q.PerPage = defaultPerPage
	}

	items, err := c.getItems(ctx, c.BaseURL+ScholarshipsPath, buildParams(q))
	if err != nil {
		return nil, err
	}

	var scholarships []*scholarship.Scholarship
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339),
		Result:     &scholarships,
		TagName:    "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decoding scholarships: %w", err)
	}

	c.logger.Info("catalog fetched", zap.String("url", c.BaseURL), zap.Int("scholarships", len(scholarships)))

	cat := scholarship.NewCatalog(scholarships...)
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// FetchProfile downloads a student's profile record.
func (c *Client) FetchProfile(ctx context.Context, studentID string) (*scholarship.Profile, error) {
	if studentID == "" {
		return nil, errors.New("student id is required")
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, c.BaseURL+fmt.Sprintf(ProfilePath, url.PathEscape(studentID)), &raw); err != nil {
		return nil, err
	}
	return ParseProfile(raw)
}

// getItems follows pagination and returns items from all pages.
func (c *Client) getItems(ctx context.Context, endpoint string, q url.Values) ([]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.URL.RawQuery = q.Encode()

	response, err := c.fetchPage(req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("got catalog response", zap.Int("pages", response.Pages), zap.Int("per_page", response.PerPage))

	items := append([]any(nil), response.Items...)
	for response.Page < response.Pages-1 {
		c.logger.Debug("additional request needed", zap.String("reason", fmt.Sprintf(
			"current page (%d) < all page count (%d)", response.Page+1, response.Pages),
		))
		response, err = c.fetchPage(addPage(req, response.Page+1))
		if err != nil {
			return nil, err
		}
		items = append(items, response.Items...)
	}
	return items, nil
}

func (c *Client) fetchPage(req *http.Request) (*itemResponse, error) {
	var response itemResponse
	if err := c.do(req, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target any) error {
	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gz.Close()
		body = gz
	}
	return json.NewDecoder(body).Decode(target)
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)
}

func buildParams(query *Query) url.Values {
	q := url.Values{}
	value := reflect.ValueOf(query).Elem()
	for _, field := range reflect.VisibleFields(value.Type()) {
		key := field.Tag.Get("param")
		if key == "" {
			continue
		}
		switch v := value.FieldByIndex(field.Index).Interface().(type) {
		case []string:
			for _, item := range v {
				q.Add(key, item)
			}
		case bool:
			if v {
				q.Set(key, "true")
			}
		case int:
			if v != 0 {
				q.Set(key, strconv.Itoa(v))
			}
		case string:
			if v != "" {
				q.Set(key, v)
			}
		}
	}
	return q
}

// addPage sets the page parameter on the request URL.
func addPage(req *http.Request, page int) *http.Request {
	q := req.URL.Query()
	q.Set("page", strconv.Itoa(page))
	req.URL.RawQuery = q.Encode()
	return req
}
