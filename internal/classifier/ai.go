package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"alert-monitor/internal/logging"
	"alert-monitor/internal/models"
)

// DefaultBatchSize bounds how many items go into one request.
const DefaultBatchSize = 5

// AIOptions configures the AI-backed classifier.
type AIOptions struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	BatchSize int
	City      string
}

// AI classifies items through an OpenAI-compatible chat-completions endpoint
// using a JSON schema response format.
type AI struct {
	opts     AIOptions
	client   *http.Client
	limiter  *rate.Limiter
	fallback Classifier
	logger   *logging.Logger
}

// NewAI creates the AI classifier. fallback handles any batch whose request fails.
func NewAI(opts AIOptions, fallback Classifier, logger *logging.Logger) *AI {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &AI{
		opts:     opts,
		client:   &http.Client{Timeout: opts.Timeout},
		limiter:  rate.NewLimiter(rate.Every(time.Second), opts.BatchSize),
		fallback: fallback,
		logger:   logger,
	}
}

// Name implements Classifier.
func (a *AI) Name() string { return "ai:" + a.opts.Model }

// Classify implements Classifier.
func (a *AI) Classify(ctx context.Context, items []models.StreamItem) []models.ThreatAssessment {
	out := make([]models.ThreatAssessment, 0, len(items))
	for start := 0; start < len(items); start += a.opts.BatchSize {
		end := start + a.opts.BatchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		res, err := a.classifyBatch(ctx, batch)
		if err != nil {
			a.logger.WithError(err).WithField("batch_size", len(batch)).Warn("AI classification failed, using rule fallback")
			res = a.fallback.Classify(ctx, batch)
		}
		for i, r := range res {
			a.logger.WithFields(logrus.Fields{
				"item_id":    batch[i].ID,
				"level":      r.Level,
				"confidence": r.Confidence,
			}).Debugf("%s %s", r.Level.Emoji(), r.Reason)
		}
		out = append(out, res...)
	}
	return out
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string                 `json:"model"`
	Messages       []chatMessage          `json:"messages"`
	Temperature    float64                `json:"temperature"`
	MaxTokens      int                    `json:"max_tokens"`
	ResponseFormat map[string]interface{} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type analysesPayload struct {
	Analyses []models.ThreatAssessment `json:"analyses"`
}

func (a *AI) classifyBatch(ctx context.Context, batch []models.StreamItem) ([]models.ThreatAssessment, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", models.ErrClassification, err)
	}

	body, err := json.Marshal(chatRequest{
		Model: a.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(a.opts.City)},
			{Role: "user", Content: batchPrompt(batch)},
		},
		Temperature:    0.3,
		MaxTokens:      2000,
		ResponseFormat: responseFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", models.ErrClassification, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.opts.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", models.ErrClassification, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.opts.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request: %v", models.ErrClassification, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", models.ErrClassification, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: endpoint returned %d: %s", models.ErrClassification, resp.StatusCode, truncate(string(raw), 200))
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", models.ErrClassification, err)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", models.ErrClassification)
	}

	var payload analysesPayload
	if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), &payload); err != nil {
		return nil, fmt.Errorf("%w: decode analyses: %v", models.ErrClassification, err)
	}
	if len(payload.Analyses) != len(batch) {
		return nil, fmt.Errorf("%w: got %d analyses for %d messages", models.ErrClassification, len(payload.Analyses), len(batch))
	}

	out := make([]models.ThreatAssessment, len(batch))
	for i, an := range payload.Analyses {
		out[i] = an.Normalize()
	}
	return out, nil
}

func batchPrompt(batch []models.StreamItem) string {
	parts := make([]string, len(batch))
	for i, item := range batch {
		text := StripFooter(item.Text)
		if strings.TrimSpace(text) == "" {
			text = "[пусто]"
		}
		parts[i] = fmt.Sprintf("Message %d:\n%s\n", i+1, text)
	}
	return strings.Join(parts, "\n---\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
