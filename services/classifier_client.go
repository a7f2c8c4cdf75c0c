// reloop/services/classifier_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"reloop/models"
	"reloop/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Classifier identifies the object in an image.
type Classifier interface {
	Classify(ctx context.Context, image string) (*ClassifiedItem, error)
}

// ClassifiedItem is the item block of the classification worker's response.
type ClassifiedItem struct {
	ObjectName     string               `json:"objectName"`
	Category       string               `json:"category"`
	Material       string               `json:"material"`
	Condition      string               `json:"condition"`
	EstimatedCoins float64              `json:"estimatedCoins"`
	Recyclable     *bool                `json:"recyclable"`
	UpcycleIdeas   []models.UpcycleIdea `json:"upcycleIdeas"`
}

type classifyResponse struct {
	Success bool            `json:"success"`
	Item    *ClassifiedItem `json:"item"`
	Error   string          `json:"error"`
}

var ErrClassifierUnavailable = errors.New("classifier not configured")

// ClassifierClient calls the image classification worker over HTTP.
type ClassifierClient struct {
	BaseURL string
	Client  *http.Client
	Limiter *rate.Limiter
	Log     *zap.Logger
}

// NewClassifierClient builds a client allowing rps requests per second (burst of one
// second's worth). rps <= 0 disables limiting.
func NewClassifierClient(baseURL string, timeout time.Duration, rps float64, logger *zap.Logger) *ClassifierClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit, burst := rate.Inf, 1
	if rps > 0 {
		limit = rate.Limit(rps)
		burst = max(1, int(rps))
	}
	return &ClassifierClient{
		BaseURL: baseURL,
		Client:  utils.NewHTTPClient(timeout),
		Limiter: rate.NewLimiter(limit, burst),
		Log:     logger,
	}
}

// Classify posts {"image": ...} and returns the recognized item. Any transport error,
// non-200 status, malformed body, success=false or missing object name is an error.
func (c *ClassifierClient) Classify(ctx context.Context, image string) (*ClassifiedItem, error) {
	if c.BaseURL == "" {
		return nil, ErrClassifierUnavailable
	}
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("classifier rate limit: %w", err)
	}

	jsonData, err := json.Marshal(map[string]string{"image": image})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read classifier response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.Log.Warn("classifier returned non-200",
			zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return nil, fmt.Errorf("classifier failed: %d", resp.StatusCode)
	}

	var out classifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode classifier response: %w", err)
	}
	if !out.Success || out.Item == nil {
		if out.Error == "" {
			out.Error = "Invalid response from AI"
		}
		return nil, errors.New(out.Error)
	}
	if out.Item.ObjectName == "" {
		return nil, errors.New("classifier returned no object name")
	}
	return out.Item, nil
}
