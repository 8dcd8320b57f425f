package public

import (
	"context"
	"errors"
	"fmt"

	"github.com/stooppolitics/stoop-cms/internal/models"
)

// ErrNotPublished is returned for episodes the public may not see
var ErrNotPublished = errors.New("episode not published")

// Episodes reads published episodes
type Episodes interface {
	ListPublished(ctx context.Context) ([]models.Episode, error)
	Get(ctx context.Context, id string) (*models.Episode, error)
}

// Nodes reads an episode's transcript
type Nodes interface {
	ListByEpisode(ctx context.Context, episodeID string) ([]models.TranscriptNode, error)
}

// Page is everything the public page renders
type Page struct {
	Latest     *models.Episode
	Nodes      []models.TranscriptNode
	Archive    []models.Episode
	ComingSoon bool
}

// Service assembles the public page
type Service struct {
	episodes Episodes
	nodes    Nodes
}

// NewService creates a new public page service
func NewService(episodes Episodes, nodes Nodes) *Service {
	return &Service{episodes: episodes, nodes: nodes}
}

// BuildPage selects the most recently published episode with its transcript; older ones form the archive
func (s *Service) BuildPage(ctx context.Context) (*Page, error) {
	published, err := s.episodes.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading published episodes: %w", err)
	}
	if len(published) == 0 {
		return &Page{ComingSoon: true}, nil
	}

	latest := published[0]
	nodes, err := s.nodes.ListByEpisode(ctx, latest.ID)
	if err != nil {
		return nil, fmt.Errorf("loading transcript: %w", err)
	}

	return &Page{
		Latest:  &latest,
		Nodes:   nodes,
		Archive: published[1:],
	}, nil
}

// EpisodePage renders one published episode with the rest as archive
func (s *Service) EpisodePage(ctx context.Context, id string) (*Page, error) {
	episode, err := s.episodes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !episode.Visible() {
		return nil, ErrNotPublished
	}

	nodes, err := s.nodes.ListByEpisode(ctx, episode.ID)
	if err != nil {
		return nil, fmt.Errorf("loading transcript: %w", err)
	}

	published, err := s.episodes.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading published episodes: %w", err)
	}
	archive := make([]models.Episode, 0, len(published))
	for _, e := range published {
		if e.ID != episode.ID {
			archive = append(archive, e)
		}
	}

	return &Page{Latest: episode, Nodes: nodes, Archive: archive}, nil
}
