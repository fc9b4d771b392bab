// Package openai implements pkg/completion's Service for servers speaking the
// OpenAI-compatible legacy completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/leonia/pkg/completion"
)

const (
	// DefaultBaseURL targets a local llama.cpp server.
	DefaultBaseURL = "http://localhost:8000"
)

// Service wraps /v1/completions.
type Service struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ServiceConfig holds configuration for the OpenAI-compatible service.
type ServiceConfig struct {
	// BaseURL is the server URL without the /v1 suffix.
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	HTTPClient *http.Client
}

// NewService creates a new OpenAI-compatible completion service.
func NewService(cfg ServiceConfig) (*Service, error) {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/v1")

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: 5 * time.Minute,
		}
	}

	return &Service{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: client,
	}, nil
}

// Complete continues req.Prompt by at most req.MaxNewTokens tokens. The
// request asks the server not to echo the prompt.
func (s *Service) Complete(ctx context.Context, req completion.Request) (completion.Result, error) {
	body := completionRequest{
		Model:     req.Model,
		Prompt:    req.Prompt,
		MaxTokens: req.MaxNewTokens,
		Seed:      req.Sampling.Seed,
		Echo:      false,
		Stream:    false,
	}

	if req.Sampling.DoSample {
		topK := req.Sampling.TopK
		topP := req.Sampling.TopP
		body.TopK = &topK
		body.TopP = &topP
		if req.Sampling.Temperature != 0 {
			t := req.Sampling.Temperature
			body.Temperature = &t
		}
	} else {
		zero := 0.0
		body.Temperature = &zero
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return completion.Result{}, fmt.Errorf("%w: marshaling request: %v", completion.ErrCompletion, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return completion.Result{}, fmt.Errorf("%w: creating request: %v", completion.ErrCompletion, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	s.authorize(httpReq)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return completion.Result{}, ctx.Err()
		}
		return completion.Result{}, fmt.Errorf("%w: sending request: %v", completion.ErrCompletion, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return completion.Result{}, fmt.Errorf("%w: server returned status %d: %s", completion.ErrCompletion, resp.StatusCode, string(respBody))
	}

	var compResp completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&compResp); err != nil {
		return completion.Result{}, fmt.Errorf("%w: decoding response: %v", completion.ErrCompletion, err)
	}

	if len(compResp.Choices) == 0 {
		return completion.Result{}, fmt.Errorf("%w: no choices returned", completion.ErrCompletion)
	}

	choice := compResp.Choices[0]
	return completion.Result{
		Text:       choice.Text,
		StopReason: stopReason(choice.FinishReason),
	}, nil
}

// Models returns the model ids served by the server.
func (s *Service) Models(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/models", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", completion.ErrCompletion, err)
	}
	s.authorize(httpReq)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", completion.ErrCompletion, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: server returned status %d: %s", completion.ErrCompletion, resp.StatusCode, string(respBody))
	}

	var models modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", completion.ErrCompletion, err)
	}

	ids := make([]string, 0, len(models.Data))
	for _, m := range models.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	return nil
}

func (s *Service) authorize(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}

func stopReason(finishReason string) completion.StopReason {
	switch finishReason {
	case "stop", "eos":
		return completion.StopEnd
	case "length":
		return completion.StopLength
	default:
		return completion.StopUnknown
	}
}

var (
	_ completion.Service = (*Service)(nil)
	_ completion.Lister  = (*Service)(nil)
)
