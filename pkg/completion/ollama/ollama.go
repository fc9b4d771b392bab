// Package ollama implements pkg/completion's Service for Ollama's generate API.
//
// Requests are sent in raw mode so the prompt reaches the model untouched by
// any chat template, and the response carries only the continuation.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/papercomputeco/leonia/pkg/completion"
)

const (
	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"
)

// Service wraps Ollama's /api/generate endpoint.
type Service struct {
	baseURL    string
	httpClient *http.Client
}

// ServiceConfig holds configuration for the Ollama completion service.
type ServiceConfig struct {
	// BaseURL is the Ollama API URL. Defaults to DefaultBaseURL if empty.
	BaseURL string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// NewService creates a new completion service backed by Ollama.
func NewService(cfg ServiceConfig) (*Service, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			// Local models on CPU can be slow to produce even a short increment
			Timeout: 5 * time.Minute,
		}
	}

	return &Service{
		baseURL:    baseURL,
		httpClient: client,
	}, nil
}

// Complete continues req.Prompt by at most req.MaxNewTokens tokens.
func (s *Service) Complete(ctx context.Context, req completion.Request) (completion.Result, error) {
	body := generateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Raw:    true,
		Stream: false,
		Options: generateOptions{
			NumPredict: req.MaxNewTokens,
			Seed:       req.Sampling.Seed,
		},
	}

	if req.Sampling.DoSample {
		body.Options.TopK = req.Sampling.TopK
		body.Options.TopP = req.Sampling.TopP
		if req.Sampling.Temperature != 0 {
			t := req.Sampling.Temperature
			body.Options.Temperature = &t
		}
	} else {
		// Greedy decoding
		zero := 0.0
		body.Options.Temperature = &zero
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return completion.Result{}, fmt.Errorf("%w: marshaling request: %v", completion.ErrCompletion, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return completion.Result{}, fmt.Errorf("%w: creating request: %v", completion.ErrCompletion, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
		return completion.Result{}, fmt.Errorf("%w: ollama returned status %d: %s", completion.ErrCompletion, resp.StatusCode, string(respBody))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return completion.Result{}, fmt.Errorf("%w: decoding response: %v", completion.ErrCompletion, err)
	}

	return completion.Result{
		Text:       genResp.Response,
		StopReason: stopReason(genResp.DoneReason),
	}, nil
}

// Models returns the names of the models pulled into the Ollama instance.
func (s *Service) Models(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", completion.ErrCompletion, err)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", completion.ErrCompletion, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", completion.ErrCompletion, resp.StatusCode, string(respBody))
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", completion.ErrCompletion, err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

func stopReason(doneReason string) completion.StopReason {
	switch doneReason {
	case "stop":
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
