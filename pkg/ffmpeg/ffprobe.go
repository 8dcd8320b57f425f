package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// ffprobeOutput represents the JSON structure returned by ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration   string            `json:"duration"`
		Size       string            `json:"size"`
		Bitrate    string            `json:"bit_rate"`
		FormatName string            `json:"format_name"`
		Tags       map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
		Duration   string `json:"duration"`
	} `json:"streams"`
}

// GetMetadata extracts metadata from an audio file using ffprobe
func (f *FFmpeg) GetMetadata(ctx context.Context, filePath string) (*AudioMetadata, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	args := []string{
		"-v", "quiet",
		"-show_format",
		"-show_streams",
		"-select_streams", "a:0",
		"-of", "json",
		filePath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, NewProcessingError("metadata_extraction", filePath, err, stderr.String())
	}

	return ParseProbeOutput(stdout.Bytes(), filePath)
}

// ParseProbeOutput converts ffprobe JSON into AudioMetadata
func ParseProbeOutput(data []byte, filePath string) (*AudioMetadata, error) {
	var output ffprobeOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, NewProcessingError("metadata_parsing", filePath, err, "")
	}

	metadata := &AudioMetadata{Format: output.Format.FormatName}

	if output.Format.Duration != "" {
		if duration, err := strconv.ParseFloat(output.Format.Duration, 64); err == nil {
			metadata.Duration = duration
		}
	}
	if output.Format.Size != "" {
		if size, err := strconv.ParseInt(output.Format.Size, 10, 64); err == nil {
			metadata.Size = size
		}
	}
	if output.Format.Bitrate != "" {
		if bitrate, err := strconv.Atoi(output.Format.Bitrate); err == nil {
			metadata.Bitrate = bitrate
		}
	}
	if tags := output.Format.Tags; tags != nil {
		metadata.Title = tags["title"]
	}

	for _, stream := range output.Streams {
		if stream.CodecType != "audio" {
			continue
		}
		metadata.Codec = stream.CodecName
		metadata.Channels = stream.Channels
		if sampleRate, err := strconv.Atoi(stream.SampleRate); err == nil {
			metadata.SampleRate = sampleRate
		}
		// WebM from browser recorders often has no container duration
		if metadata.Duration == 0 && stream.Duration != "" {
			if duration, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
				metadata.Duration = duration
			}
		}
		break
	}

	if metadata.Codec == "" {
		return nil, NewProcessingError("metadata_validation", filePath,
			fmt.Errorf("%w: no audio stream", ErrInvalidAudioFile), "")
	}

	return metadata, nil
}
