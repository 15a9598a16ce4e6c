package visual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/lacquer-social/vernis/cachestore"
	"github.com/lacquer-social/vernis/util"

	"github.com/carlmjohnson/versioninfo"
)

// Client talks to the vision analysis REST service (safe-search and label
// detection endpoints). An optional cache avoids re-scanning a URL which was
// analyzed recently; cost estimation happens upstream and is not affected.
type Client struct {
	Client *http.Client
	Host   string
	APIKey string
	Cache  cachestore.CacheStore
}

func NewClient(host, apiKey string) *Client {
	return &Client{
		Client: util.RobustHTTPClient(),
		Host:   host,
		APIKey: apiKey,
	}
}

// request/response schema follows the Google Cloud Vision images:annotate API
type annotateRequest struct {
	Requests []annotateRequestEntry `json:"requests"`
}

type annotateRequestEntry struct {
	Image    annotateImage     `json:"image"`
	Features []annotateFeature `json:"features"`
}

type annotateImage struct {
	Source annotateImageSource `json:"source"`
}

type annotateImageSource struct {
	ImageURI string `json:"imageUri"`
}

type annotateFeature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

type annotateResponse struct {
	Responses []annotateResponseEntry `json:"responses"`
}

type annotateResponseEntry struct {
	SafeSearchAnnotation *SafeSearchResult `json:"safeSearchAnnotation"`
	LabelAnnotations     []Label           `json:"labelAnnotations"`
	Error                *annotateError    `json:"error"`
}

type annotateError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *Client) SafeSearch(ctx context.Context, url string) (*SafeSearchResult, error) {
	if c.Cache != nil {
		if cached, err := c.Cache.Get(ctx, "safesearch", url); err == nil && cached != "" {
			var res SafeSearchResult
			if err := json.Unmarshal([]byte(cached), &res); err == nil {
				visionCacheHits.WithLabelValues("safesearch").Inc()
				return &res, nil
			}
		}
	}

	entry, err := c.annotate(ctx, url, "safesearch", annotateFeature{Type: "SAFE_SEARCH_DETECTION"})
	if err != nil {
		return nil, err
	}
	if entry.SafeSearchAnnotation == nil {
		// a successful call with no annotation; caller decides policy
		return nil, nil
	}

	if c.Cache != nil {
		if b, err := json.Marshal(entry.SafeSearchAnnotation); err == nil {
			if err := c.Cache.Set(ctx, "safesearch", url, string(b)); err != nil {
				slog.Warn("failed to cache safe-search response", "url", url, "err", err)
			}
		}
	}
	return entry.SafeSearchAnnotation, nil
}

func (c *Client) DetectLabels(ctx context.Context, url string) ([]Label, error) {
	if c.Cache != nil {
		if cached, err := c.Cache.Get(ctx, "labels", url); err == nil && cached != "" {
			var labels []Label
			if err := json.Unmarshal([]byte(cached), &labels); err == nil {
				visionCacheHits.WithLabelValues("labels").Inc()
				return labels, nil
			}
		}
	}

	entry, err := c.annotate(ctx, url, "labels", annotateFeature{Type: "LABEL_DETECTION", MaxResults: 10})
	if err != nil {
		return nil, err
	}

	if c.Cache != nil {
		if b, err := json.Marshal(entry.LabelAnnotations); err == nil {
			if err := c.Cache.Set(ctx, "labels", url, string(b)); err != nil {
				slog.Warn("failed to cache label response", "url", url, "err", err)
			}
		}
	}
	return entry.LabelAnnotations, nil
}

func (c *Client) annotate(ctx context.Context, url, feature string, feat annotateFeature) (*annotateResponseEntry, error) {

	slog.Debug("sending image to vision service", "url", url, "feature", feature)

	reqObj := annotateRequest{
		Requests: []annotateRequestEntry{
			{
				Image:    annotateImage{Source: annotateImageSource{ImageURI: url}},
				Features: []annotateFeature{feat},
			},
		},
	}
	body, err := json.Marshal(&reqObj)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.Host+"/v1/images:annotate", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	q.Add("key", c.APIKey)
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "vernis/"+versioninfo.Short())

	start := time.Now()
	defer func() {
		duration := time.Since(start)
		visionAPIDuration.WithLabelValues(feature).Observe(duration.Seconds())
	}()

	res, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	defer res.Body.Close()

	visionAPICount.WithLabelValues(feature, fmt.Sprint(res.StatusCode)).Inc()
	if res.StatusCode != 200 {
		return nil, fmt.Errorf("vision request failed statusCode=%d", res.StatusCode)
	}

	respBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read vision resp body: %w", err)
	}

	var respObj annotateResponse
	if err := json.Unmarshal(respBytes, &respObj); err != nil {
		return nil, fmt.Errorf("failed to parse vision resp JSON: %w", err)
	}
	if len(respObj.Responses) == 0 {
		return &annotateResponseEntry{}, nil
	}
	entry := respObj.Responses[0]
	if entry.Error != nil {
		return nil, fmt.Errorf("vision annotation failed: code=%d %s", entry.Error.Code, entry.Error.Message)
	}
	return &entry, nil
}
