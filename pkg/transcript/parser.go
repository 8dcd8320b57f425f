package transcript

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Format represents a caption or transcript file format
type Format string

const (
	FormatVTT  Format = "vtt"
	FormatSRT  Format = "srt"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Segment represents a transcript segment with timing information
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Transcript represents a parsed transcript
type Transcript struct {
	Format   Format
	Segments []Segment
	FullText string
	Duration time.Duration
}

var (
	// 00:00:01.000 --> 00:00:05.000, hours optional in VTT
	vttTimestampRegex = regexp.MustCompile(`((?:\d{2,}:)?\d{2}:\d{2}\.\d{3})\s*-->\s*((?:\d{2,}:)?\d{2}:\d{2}\.\d{3})`)
	srtTimestampRegex = regexp.MustCompile(`(\d{2,}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{2,}:\d{2}:\d{2},\d{3})`)
	sequenceRegex     = regexp.MustCompile(`^\d+$`)
	cueTagRegex       = regexp.MustCompile(`</?(?:v|c|i|b|u|lang)[^>]*>`)
)

// Parser handles parsing different transcript formats
type Parser struct{}

// NewParser creates a new transcript parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses transcript content based on its format
func (p *Parser) Parse(content string, format Format) (*Transcript, error) {
	var (
		transcript *Transcript
		err        error
	)

	switch format {
	case FormatVTT:
		transcript = p.parseCues(content, FormatVTT, vttTimestampRegex)
	case FormatSRT:
		transcript = p.parseCues(content, FormatSRT, srtTimestampRegex)
	case FormatJSON:
		transcript, err = p.parseJSON(content)
	case FormatText:
		return &Transcript{Format: FormatText, Segments: []Segment{}, FullText: strings.TrimSpace(content)}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	transcript.finish()
	return transcript, nil
}

// parseCues handles VTT and SRT, which differ only in header and timestamp separator
func (p *Parser) parseCues(content string, format Format, timestampRegex *regexp.Regexp) *Transcript {
	transcript := &Transcript{Format: format, Segments: []Segment{}}

	var (
		current *Segment
		text    strings.Builder
		inNote  bool
	)

	flush := func() {
		if current != nil && text.Len() > 0 {
			current.Text = strings.TrimSpace(text.String())
			transcript.Segments = append(transcript.Segments, *current)
		}
		current = nil
		text.Reset()
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if line == "" {
			flush()
			inNote = false
			continue
		}
		if inNote {
			continue
		}
		if format == FormatVTT && (strings.HasPrefix(line, "WEBVTT") || strings.HasPrefix(line, "NOTE") ||
			strings.HasPrefix(line, "STYLE") || strings.HasPrefix(line, "REGION")) {
			inNote = !strings.HasPrefix(line, "WEBVTT")
			continue
		}

		if matches := timestampRegex.FindStringSubmatch(line); matches != nil {
			flush()
			start, _ := parseTimestamp(matches[1])
			end, _ := parseTimestamp(matches[2])
			current = &Segment{Start: start, End: end}
			continue
		}

		// Cue identifiers and SRT sequence numbers precede the timing line
		if current == nil || sequenceRegex.MatchString(line) && text.Len() == 0 && format == FormatSRT {
			continue
		}

		if text.Len() > 0 {
			text.WriteString(" ")
		}
		text.WriteString(strings.TrimSpace(cueTagRegex.ReplaceAllString(line, "")))
	}
	flush()

	return transcript
}

type jsonSegment struct {
	Start     float64 `json:"start"`
	StartTime float64 `json:"startTime"`
	End       float64 `json:"end"`
	EndTime   float64 `json:"endTime"`
	Text      string  `json:"text"`
	Body      string  `json:"body"`
}

// parseJSON accepts an array of segments or an object with a segments array,
// which covers Whisper verbose_json and the podcast namespace JSON transcript
func (p *Parser) parseJSON(content string) (*Transcript, error) {
	var segments []jsonSegment
	if err := json.Unmarshal([]byte(content), &segments); err != nil {
		var obj struct {
			Segments []jsonSegment `json:"segments"`
		}
		if err := json.Unmarshal([]byte(content), &obj); err != nil {
			return nil, fmt.Errorf("failed to parse JSON transcript: %w", err)
		}
		segments = obj.Segments
	}

	transcript := &Transcript{Format: FormatJSON, Segments: make([]Segment, 0, len(segments))}
	for _, seg := range segments {
		start := seg.Start
		if start == 0 {
			start = seg.StartTime
		}
		end := seg.End
		if end == 0 {
			end = seg.EndTime
		}
		text := seg.Text
		if text == "" {
			text = seg.Body
		}

		transcript.Segments = append(transcript.Segments, Segment{
			Start: Seconds(start),
			End:   Seconds(end),
			Text:  strings.TrimSpace(text),
		})
	}

	return transcript, nil
}

func (t *Transcript) finish() {
	texts := make([]string, 0, len(t.Segments))
	for _, segment := range t.Segments {
		if segment.Text != "" {
			texts = append(texts, segment.Text)
		}
	}
	t.FullText = strings.Join(texts, " ")

	if len(t.Segments) > 0 {
		t.Duration = t.Segments[len(t.Segments)-1].End
	}
}

// parseTimestamp parses HH:MM:SS.mmm, MM:SS.mmm or HH:MM:SS,mmm
func parseTimestamp(timestamp string) (time.Duration, error) {
	timestamp = strings.Replace(timestamp, ",", ".", 1)

	parts := strings.Split(timestamp, ":")
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp: %s", timestamp)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hours in %s: %w", timestamp, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minutes in %s: %w", timestamp, err)
	}

	secParts := strings.SplitN(parts[2], ".", 2)
	seconds, err := strconv.Atoi(secParts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %s: %w", timestamp, err)
	}
	milliseconds := 0
	if len(secParts) > 1 {
		milliseconds, _ = strconv.Atoi(secParts[1])
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(milliseconds)*time.Millisecond, nil
}

// Seconds converts fractional seconds to a duration rounded to the millisecond
func Seconds(s float64) time.Duration {
	return (time.Duration(s*1000+0.5) * time.Millisecond)
}

// ToPlainText converts a transcript to plain text format
func (t *Transcript) ToPlainText() string {
	if t.FullText != "" {
		return t.FullText
	}

	var builder strings.Builder
	for _, segment := range t.Segments {
		builder.WriteString(segment.Text)
		builder.WriteString(" ")
	}

	return strings.TrimSpace(builder.String())
}

// DetectFormat determines the transcript format from file name, content type and content
func DetectFormat(name, contentType, content string) Format {
	nameLower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(nameLower, ".vtt"):
		return FormatVTT
	case strings.HasSuffix(nameLower, ".srt"):
		return FormatSRT
	case strings.HasSuffix(nameLower, ".json"):
		return FormatJSON
	case strings.HasSuffix(nameLower, ".txt"):
		return FormatText
	}

	contentTypeLower := strings.ToLower(contentType)
	switch {
	case strings.Contains(contentTypeLower, "vtt"):
		return FormatVTT
	case strings.Contains(contentTypeLower, "subrip"), strings.Contains(contentTypeLower, "srt"):
		return FormatSRT
	case strings.Contains(contentTypeLower, "json"):
		return FormatJSON
	}

	head := strings.TrimSpace(content)
	if len(head) > 1000 {
		head = head[:1000]
	}
	switch {
	case strings.HasPrefix(head, "WEBVTT"):
		return FormatVTT
	case strings.Contains(head, "-->"):
		return FormatSRT
	case strings.HasPrefix(head, "{"), strings.HasPrefix(head, "["):
		return FormatJSON
	}

	return FormatText
}
