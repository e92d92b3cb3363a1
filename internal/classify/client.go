package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/driftboard/backend/internal/logger"
	"github.com/driftboard/backend/internal/metrics"
	"go.uber.org/zap"
)

// DefaultLabel is assigned when the classifier is unreachable, times out,
// or returns a label outside the known set.
const DefaultLabel = "personal"

// Labels is the closed set of post categories the classifier may return.
var Labels = map[string]bool{
	"academic":  true,
	"jobhunt":   true,
	"workplace": true,
	"startup":   true,
	"personal":  true,
	"health":    true,
	"hobby":     true,
}

// Classifier assigns a category label to post text.
type Classifier interface {
	Classify(ctx context.Context, text string) string
}

// RESTClient calls an external classification service over HTTP.
type RESTClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRESTClient creates a classifier client. The timeout bounds the whole
// request; post creation never blocks longer than this on classification.
func NewRESTClient(baseURL, apiKey string, timeout time.Duration) *RESTClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RESTClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label string `json:"label"`
}

// Classify returns the category for the given text. Any failure degrades to
// DefaultLabel rather than surfacing an error: classification is advisory
// and must never block post creation.
func (c *RESTClient) Classify(ctx context.Context, text string) string {
	label, err := c.classify(ctx, text)
	if err != nil {
		logger.Warn("Classifier fallback",
			zap.Error(err),
			zap.String("label", DefaultLabel))
		metrics.Get().ClassifierRequestsTotal.WithLabelValues("fallback").Inc()
		metrics.Get().ClassifierFallbacksTotal.WithLabelValues(fallbackReason(err)).Inc()
		return DefaultLabel
	}
	metrics.Get().ClassifierRequestsTotal.WithLabelValues("ok").Inc()
	return label
}

func fallbackReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}

func (c *RESTClient) classify(ctx context.Context, text string) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("classifier not configured")
	}

	jsonData, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/classify", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("classifier API error: status %d", resp.StatusCode)
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if !Labels[out.Label] {
		return "", fmt.Errorf("unknown label %q", out.Label)
	}
	return out.Label, nil
}
