package transcription

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// WhisperTranscriber calls the OpenAI audio transcription endpoint
type WhisperTranscriber struct {
	client *openai.Client
	model  string
}

var _ Transcriber = (*WhisperTranscriber)(nil)

// NewWhisperTranscriber creates a transcriber; baseURL and httpClient may be empty
func NewWhisperTranscriber(apiKey, baseURL, model string, httpClient *http.Client) (*WhisperTranscriber, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if model == "" {
		model = openai.Whisper1
	}

	return &WhisperTranscriber{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Transcribe requests verbose JSON with segment-level timestamps
func (w *WhisperTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (*Transcript, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: filename,
		Reader:   audio,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		return nil, err
	}

	result := &Transcript{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
		Segments: make([]Segment, 0, len(resp.Segments)),
	}
	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	return result, nil
}

// serviceMessage turns a transcription failure into the message shown to the operator
func serviceMessage(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok {
			switch code {
			case "invalid_api_key":
				return "Invalid OpenAI API key. Please check your configuration."
			case "insufficient_quota":
				return "OpenAI API quota exceeded. Please check your billing."
			}
		}
		if strings.Contains(apiErr.Message, "Could not process audio") {
			return "Audio format not supported. Please try MP3, WAV, or WebM."
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.Err != nil {
		return reqErr.Err.Error()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "Transcription timed out"
	}
	if err.Error() == "" {
		return "Transcription failed"
	}
	return err.Error()
}
