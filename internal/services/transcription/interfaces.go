package transcription

import (
	"context"
	"io"
)

// Segment is one timestamped span returned by the speech-to-text service
type Segment struct {
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the service's answer for one audio file
type Transcript struct {
	Text     string
	Language string
	Duration float64
	Segments []Segment
}

// Transcriber converts audio to ordered timestamped segments
type Transcriber interface {
	// Transcribe sends audio named filename; the extension tells the service the format
	Transcribe(ctx context.Context, filename string, audio io.Reader) (*Transcript, error)
}

// MediaSource reads stored episode audio back for re-transcription
type MediaSource interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	KeyFromURL(url string) (string, bool)
}
