package transcription

import "errors"

var (
	ErrMissingAPIKey = errors.New("missing OpenAI API key")
	ErrNoAudio       = errors.New("episode has no stored audio")
)

const missingKeyMessage = "Server configuration error: Missing OpenAI API key"
