package transcripts

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"

	"github.com/stooppolitics/stoop-cms/internal/models"
	"github.com/stooppolitics/stoop-cms/pkg/transcript"
)

// DefaultPlaceholder is the text of a manually inserted node
const DefaultPlaceholder = "Transcript pending..."

// editable maps each field the editor may commit to its column
var editable = map[string]bool{
	"content":         true,
	"reference_link":  true,
	"reference_title": true,
}

// Service implements TranscriptService
type Service struct {
	repository     NodeRepository
	parser         *transcript.Parser
	onPublicChange func(episodeID string)
}

var _ TranscriptService = (*Service)(nil)

// ServiceOption is a functional option for configuring the service
type ServiceOption func(*Service)

// WithChangeHook registers a callback run after an episode's transcript changes
func WithChangeHook(fn func(episodeID string)) ServiceOption {
	return func(s *Service) {
		s.onPublicChange = fn
	}
}

// NewService creates a new transcript service
func NewService(repository NodeRepository, opts ...ServiceOption) *Service {
	s := &Service{
		repository: repository,
		parser:     transcript.NewParser(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListByEpisode returns nodes in reading order
func (s *Service) ListByEpisode(ctx context.Context, episodeID string) ([]models.TranscriptNode, error) {
	return s.repository.ListByEpisode(ctx, episodeID)
}

// UpdateField commits one edited field and returns the node as stored
// Concurrent edits are last-write-wins
func (s *Service) UpdateField(ctx context.Context, nodeID, field, value string) (*models.TranscriptNode, error) {
	if !editable[field] {
		return nil, invalidField(field)
	}

	var update any
	switch field {
	case "content":
		update = value
	case "reference_link":
		link := strings.TrimSpace(value)
		if link != "" && !isAbsoluteHTTP(link) {
			return nil, ValidationError{Field: field, Message: "Reference link must be a full URL starting with http:// or https://"}
		}
		update = models.StringPtr(link)
	case "reference_title":
		update = models.StringPtr(strings.TrimSpace(value))
	}

	if err := s.repository.UpdateNodeFields(ctx, nodeID, map[string]any{field: update}); err != nil {
		return nil, err
	}

	node, err := s.repository.GetNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	s.changed(node.EpisodeID)
	return node, nil
}

// InsertPlaceholder appends an untimed node after the last one
func (s *Service) InsertPlaceholder(ctx context.Context, episodeID, content string) (*models.TranscriptNode, error) {
	if strings.TrimSpace(content) == "" {
		content = DefaultPlaceholder
	}

	node := &models.TranscriptNode{EpisodeID: episodeID, Content: content}
	if err := s.repository.AppendNode(ctx, node); err != nil {
		return nil, err
	}

	log.Printf("[DEBUG] Added placeholder node %d to episode %s", node.DisplayOrder, episodeID)
	s.changed(episodeID)
	return node, nil
}

// Replace swaps the whole transcript; display order follows slice order and every node gets a new id
func (s *Service) Replace(ctx context.Context, episodeID string, nodes []models.TranscriptNode) ([]models.TranscriptNode, error) {
	staged := make([]models.TranscriptNode, len(nodes))
	for i, node := range nodes {
		staged[i] = models.TranscriptNode{
			EpisodeID:      episodeID,
			Content:        node.Content,
			DisplayOrder:   i,
			StartTime:      node.StartTime,
			EndTime:        node.EndTime,
			ReferenceLink:  node.ReferenceLink,
			ReferenceTitle: node.ReferenceTitle,
		}
	}

	if err := s.repository.ReplaceNodes(ctx, episodeID, staged); err != nil {
		return nil, err
	}

	log.Printf("[INFO] Replaced transcript of episode %s with %d node(s)", episodeID, len(staged))
	s.changed(episodeID)
	return staged, nil
}

// ImportCaptions replaces the transcript with the cues of a VTT, SRT or JSON caption file
func (s *Service) ImportCaptions(ctx context.Context, episodeID, filename, contentType, content string) ([]models.TranscriptNode, error) {
	format := transcript.DetectFormat(filename, contentType, content)
	if format == transcript.FormatText {
		return nil, ValidationError{Field: "file", Message: "Please upload a VTT, SRT or JSON caption file"}
	}

	parsed, err := s.parser.Parse(content, format)
	if err != nil {
		return nil, ValidationError{Field: "file", Message: fmt.Sprintf("Could not read caption file: %v", err)}
	}
	if len(parsed.Segments) == 0 {
		return nil, ErrEmptyTranscript
	}

	return s.Replace(ctx, episodeID, NodesFromSegments(parsed.Segments))
}

// ExportCaptions writes the timed nodes of an episode as a caption file
func (s *Service) ExportCaptions(ctx context.Context, episodeID string, format transcript.Format, w io.Writer) error {
	nodes, err := s.repository.ListByEpisode(ctx, episodeID)
	if err != nil {
		return err
	}
	return transcript.Write(w, format, SegmentsFromNodes(nodes))
}

func (s *Service) changed(episodeID string) {
	if s.onPublicChange != nil {
		s.onPublicChange(episodeID)
	}
}

// NodesFromSegments maps timed segments to unsaved nodes in the same order
func NodesFromSegments(segments []transcript.Segment) []models.TranscriptNode {
	nodes := make([]models.TranscriptNode, 0, len(segments))
	for _, segment := range segments {
		nodes = append(nodes, models.TranscriptNode{
			Content:   strings.TrimSpace(segment.Text),
			StartTime: models.Float64Ptr(segment.Start.Seconds()),
			EndTime:   models.Float64Ptr(segment.End.Seconds()),
		})
	}
	return nodes
}

// SegmentsFromNodes keeps only nodes with both offsets; placeholders have no place in a caption track
func SegmentsFromNodes(nodes []models.TranscriptNode) []transcript.Segment {
	segments := make([]transcript.Segment, 0, len(nodes))
	for _, node := range nodes {
		if node.StartTime == nil || node.EndTime == nil {
			continue
		}
		segments = append(segments, transcript.Segment{
			Start: transcript.Seconds(*node.StartTime),
			End:   transcript.Seconds(*node.EndTime),
			Text:  node.Content,
		})
	}
	return segments
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
