package feed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stooppolitics/stoop-cms/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEpisodes struct {
	episodes []models.Episode
	err      error
}

func (s stubEpisodes) ListPublished(ctx context.Context) ([]models.Episode, error) {
	return s.episodes, s.err
}

func publishedEpisode(id, title, format string, at time.Time) models.Episode {
	size := int64(1234)
	return models.Episode{
		ID:            id,
		Title:         title,
		AudioURL:      "https://cdn.example.com/media/audio/" + id + "." + format,
		AudioFileSize: &size,
		AudioFormat:   models.StringPtr(format),
		Duration:      61.6,
		IsPublished:   true,
		PublishedAt:   &at,
	}
}

func parse(t *testing.T, g *Generator) *gofeed.Feed {
	var buf bytes.Buffer
	require.NoError(t, g.Write(context.Background(), &buf))

	feed, err := gofeed.NewParser().ParseString(buf.String())
	require.NoError(t, err)
	return feed
}

func TestGenerator_Write(t *testing.T) {
	newer := time.Date(2026, 4, 2, 18, 0, 0, 0, time.UTC)
	older := newer.Add(-7 * 24 * time.Hour)

	latest := publishedEpisode("ep-2", "Budget Night", "mp3", newer)
	latest.Summary = models.StringPtr("<p>The <b>budget</b> vote,\n explained.</p>")
	first := publishedEpisode("ep-1", "Pilot", "webm", older)

	g := NewGenerator(stubEpisodes{episodes: []models.Episode{latest, first}}, Options{
		Title:       "Stoop Politics",
		Description: "Neighborhood politics from the front stoop",
		Author:      "Stoop Politics",
		SiteURL:     "https://stoop.example.com/",
	})
	feed := parse(t, g)

	assert.Equal(t, "Stoop Politics", feed.Title)
	assert.Equal(t, "https://stoop.example.com/", feed.Link)
	assert.Equal(t, "en-us", feed.Language)
	require.Len(t, feed.Items, 2)

	item := feed.Items[0]
	assert.Equal(t, "Budget Night", item.Title)
	assert.Equal(t, "The budget vote, explained.", item.Description)
	assert.Equal(t, "https://stoop.example.com/episodes/ep-2", item.Link)
	assert.Equal(t, "ep-2", item.GUID)
	require.NotNil(t, item.PublishedParsed)
	assert.True(t, newer.Equal(*item.PublishedParsed))
	require.Len(t, item.Enclosures, 1)
	assert.Equal(t, latest.AudioURL, item.Enclosures[0].URL)
	assert.Equal(t, "audio/mpeg", item.Enclosures[0].Type)
	assert.Equal(t, "1234", item.Enclosures[0].Length)

	pilot := feed.Items[1]
	assert.Equal(t, "Pilot", pilot.Description, "title stands in for a missing summary")
	require.Len(t, pilot.Enclosures, 1)
	assert.Equal(t, "audio/webm", pilot.Enclosures[0].Type)
}

func TestGenerator_EmptyFeed(t *testing.T) {
	g := NewGenerator(stubEpisodes{}, Options{Title: "Stoop Politics", Description: "d", SiteURL: "http://localhost:8080"})
	feed := parse(t, g)

	assert.Equal(t, "Stoop Politics", feed.Title)
	assert.Empty(t, feed.Items)
}

func TestGenerator_StoreError(t *testing.T) {
	g := NewGenerator(stubEpisodes{err: errors.New("database is locked")}, Options{Title: "t", Description: "d"})
	var buf bytes.Buffer
	err := g.Write(context.Background(), &buf)
	assert.ErrorContains(t, err, "database is locked")
	assert.Zero(t, buf.Len())
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain  words\n here", "plain words here"},
		{"<p>Hello <a href=\"https://x.example\">world</a></p>", "Hello world"},
		{"Fish &amp; chips", "Fish & chips"},
		{"   ", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PlainText(tt.in))
	}
}
