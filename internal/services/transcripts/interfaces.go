package transcripts

import (
	"context"
	"io"

	"github.com/stooppolitics/stoop-cms/internal/models"
	"github.com/stooppolitics/stoop-cms/pkg/transcript"
)

// NodeRepository defines persistence for transcript nodes
type NodeRepository interface {
	ListByEpisode(ctx context.Context, episodeID string) ([]models.TranscriptNode, error)
	GetNode(ctx context.Context, id string) (*models.TranscriptNode, error)
	UpdateNodeFields(ctx context.Context, id string, updates map[string]any) error
	// AppendNode inserts node after the episode's last node
	AppendNode(ctx context.Context, node *models.TranscriptNode) error
	// ReplaceNodes swaps the episode's nodes for the given batch in one transaction
	ReplaceNodes(ctx context.Context, episodeID string, nodes []models.TranscriptNode) error
}

// TranscriptService is the editor's view of an episode transcript
type TranscriptService interface {
	ListByEpisode(ctx context.Context, episodeID string) ([]models.TranscriptNode, error)
	UpdateField(ctx context.Context, nodeID, field, value string) (*models.TranscriptNode, error)
	InsertPlaceholder(ctx context.Context, episodeID, content string) (*models.TranscriptNode, error)
	Replace(ctx context.Context, episodeID string, nodes []models.TranscriptNode) ([]models.TranscriptNode, error)

	ImportCaptions(ctx context.Context, episodeID, filename, contentType, content string) ([]models.TranscriptNode, error)
	ExportCaptions(ctx context.Context, episodeID string, format transcript.Format, w io.Writer) error
}
