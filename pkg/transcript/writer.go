package transcript

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Write renders segments as a WebVTT or SRT caption file
func Write(w io.Writer, format Format, segments []Segment) error {
	switch format {
	case FormatVTT:
		if _, err := io.WriteString(w, "WEBVTT\n\n"); err != nil {
			return err
		}
	case FormatSRT:
	default:
		return fmt.Errorf("unsupported caption format: %s", format)
	}

	for i, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}

		var cue string
		if format == FormatSRT {
			cue = fmt.Sprintf("%d\n%s --> %s\n%s\n\n", i+1,
				formatTimestamp(segment.Start, ','), formatTimestamp(segment.End, ','), text)
		} else {
			cue = fmt.Sprintf("%s --> %s\n%s\n\n",
				formatTimestamp(segment.Start, '.'), formatTimestamp(segment.End, '.'), text)
		}
		if _, err := io.WriteString(w, cue); err != nil {
			return err
		}
	}

	return nil
}

// ContentType returns the MIME type for a caption format
func ContentType(format Format) string {
	switch format {
	case FormatVTT:
		return "text/vtt; charset=utf-8"
	case FormatSRT:
		return "application/x-subrip; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

func formatTimestamp(d time.Duration, sep byte) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d%c%03d",
		ms/3600000, (ms/60000)%60, (ms/1000)%60, sep, ms%1000)
}
