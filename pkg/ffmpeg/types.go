package ffmpeg

// AudioMetadata represents metadata extracted from an audio file
type AudioMetadata struct {
	Duration   float64 `json:"duration"`    // Duration in seconds
	SampleRate int     `json:"sample_rate"` // Sample rate in Hz
	Channels   int     `json:"channels"`
	Bitrate    int     `json:"bitrate"` // bits per second
	Format     string  `json:"format"`  // Container format (mp3, webm, etc.)
	Codec      string  `json:"codec"`
	Size       int64   `json:"size"`
	Title      string  `json:"title"`
}

// CaptureOptions describes a live capture input for ffmpeg
type CaptureOptions struct {
	InputFormat string // pulse, alsa, avfoundation, dshow
	Device      string
	SampleRate  int
	Channels    int
}
