package recognize

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/binsight/go-binsight/internal/httpc"
	"github.com/binsight/go-binsight/pkg/waste"
)

const providerRemote = "remote"

// classifyPrompt asks the vision model for a strict JSON classification.
const classifyPrompt = `You are a waste sorting assistant. Classify the single most ` +
	`prominent piece of waste in this image. Respond with JSON only, no prose: ` +
	`{"label": "<short class name>", "category": "<recyclable|hazardous|food|residual>", ` +
	`"confidence": <0.0-1.0>}`

// RemoteConfig holds remote recognizer settings.
type RemoteConfig struct {
	BaseURL string // OpenAI-compatible API root
	APIKey  string
	Model   string
	Timeout time.Duration // HTTP client timeout, distinct from the invoker's
}

// DefaultRemoteConfig returns production defaults for the remote recognizer.
func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		Model:   "gpt-4o-mini",
		Timeout: 30 * time.Second,
	}
}

// Remote classifies snapshots through an OpenAI-compatible vision API.
type Remote struct {
	cfg  RemoteConfig
	http *http.Client
}

// NewRemote creates a remote recognizer.
func NewRemote(cfg RemoteConfig) (*Remote, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("recognize: remote base URL required")
	}
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultRemoteConfig().Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRemoteConfig().Timeout
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &Remote{
		cfg:  cfg,
		http: httpc.NewClient(cfg.Timeout),
	}, nil
}

// Recognize sends the snapshot to the vision API and parses the
// classification from the model's JSON reply.
func (r *Remote) Recognize(ctx context.Context, jpeg []byte) (Result, error) {
	if len(jpeg) == 0 {
		return Result{}, ErrEmptySnapshot
	}

	payload := map[string]any{
		"model": r.cfg.Model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": classifyPrompt},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg),
						},
					},
				},
			},
		},
		"max_tokens": 128,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("recognize: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("recognize: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	resp, err := r.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, r.parseError(resp)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return Result{}, fmt.Errorf("recognize: decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return Result{}, ErrNoClassification
	}

	return parseClassification(completion.Choices[0].Message.Content)
}

// Close implements Recognizer. The shared HTTP client needs no teardown.
func (r *Remote) Close() error {
	return nil
}

func (r *Remote) parseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &apiResp) == nil && apiResp.Error.Message != "" {
		msg = apiResp.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Provider:   providerRemote,
	}
}

// parseClassification extracts the JSON object from the model reply,
// tolerating surrounding prose or markdown fences.
func parseClassification(content string) (Result, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return Result{}, fmt.Errorf("%w: %q", ErrNoClassification, content)
	}

	var parsed struct {
		Label      string  `json:"label"`
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrNoClassification, err)
	}

	category, err := waste.ParseCategory(parsed.Category)
	if err != nil {
		category = waste.Unknown
	}
	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	} else if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}

	return Result{
		Label:      parsed.Label,
		Category:   category,
		Confidence: parsed.Confidence,
	}, nil
}
