package transcription

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultModel = "whisper-1"

// OpenAIConfig configures an OpenAI-backed Client.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	Timeout    time.Duration
	BaseURL    string       // optional, tests
	HTTPClient *http.Client // optional, tests
}

// OpenAIClient transcribes chunks via OpenAI's audio transcription endpoint,
// requesting verbose_json so segment timestamps come back directly.
type OpenAIClient struct {
	model  string
	client openai.Client
}

// NewOpenAIClient builds a Client backed by the OpenAI API.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		model:  cfg.Model,
		client: openai.NewClient(opts...),
	}
}

// Transcribe implements Client.
func (c *OpenAIClient) Transcribe(ctx context.Context, audioPath string) (Result, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return Result{}, fmt.Errorf("open audio chunk: %w", err)
	}
	defer f.Close()

	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:                   f,
		Model:                  openai.AudioModel(c.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	})
	if err != nil {
		return Result{}, mapOpenAIError(err, audioPath)
	}

	segments := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, Segment{
			StartSec: s.Start,
			EndSec:   s.End,
			Text:     s.Text,
		})
	}

	return deriveDuration(Result{
		Text:     resp.Text,
		Duration: resp.Duration,
		Segments: segments,
	}), nil
}

func mapOpenAIError(err error, audioPath string) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai transcription failed for %s (status %d): %s",
			filepath.Base(audioPath), apiErr.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("openai transcription failed for %s: %w", filepath.Base(audioPath), err)
}
