package feed

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/eduncan911/podcast"
	"github.com/stooppolitics/stoop-cms/internal/models"
)

// Episodes reads published episodes, newest first
type Episodes interface {
	ListPublished(ctx context.Context) ([]models.Episode, error)
}

// Options describes the channel
type Options struct {
	Title       string
	Description string
	Author      string
	Language    string
	SiteURL     string // public site root, used for channel and item links
	ImageURL    string
}

// Generator renders the podcast RSS feed of published episodes
type Generator struct {
	episodes Episodes
	options  Options
	now      func() time.Time
}

// NewGenerator creates a feed generator
func NewGenerator(episodes Episodes, options Options) *Generator {
	if options.Language == "" {
		options.Language = "en-us"
	}
	options.SiteURL = strings.TrimRight(options.SiteURL, "/")
	return &Generator{episodes: episodes, options: options, now: time.Now}
}

// Build assembles the channel and its items
func (g *Generator) Build(ctx context.Context) (*podcast.Podcast, error) {
	published, err := g.episodes.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading published episodes: %w", err)
	}

	built := g.now().UTC()
	var pubDate *time.Time
	if len(published) > 0 {
		pubDate = published[0].PublishedAt
	}

	p := podcast.New(g.options.Title, g.options.SiteURL+"/", g.options.Description, pubDate, &built)
	p.Language = g.options.Language
	p.IAuthor = g.options.Author
	p.IExplicit = "no"
	p.AddSummary(g.options.Description)
	p.AddCategory("News", []string{"Politics"})
	p.AddAtomLink(g.options.SiteURL + "/feed.xml")
	if g.options.ImageURL != "" {
		p.AddImage(g.options.ImageURL)
	}

	for _, episode := range published {
		if err := g.addEpisode(&p, episode); err != nil {
			return nil, fmt.Errorf("adding episode %s: %w", episode.ID, err)
		}
	}
	return &p, nil
}

// Write encodes the feed to w
func (g *Generator) Write(ctx context.Context, w io.Writer) error {
	p, err := g.Build(ctx)
	if err != nil {
		return err
	}
	return p.Encode(w)
}

func (g *Generator) addEpisode(p *podcast.Podcast, episode models.Episode) error {
	description := episode.Title
	if episode.Summary != nil {
		if text := PlainText(*episode.Summary); text != "" {
			description = text
		}
	}

	item := podcast.Item{
		Title:       episode.Title,
		Description: description,
		Link:        g.options.SiteURL + "/episodes/" + episode.ID,
		GUID:        episode.ID,
		PubDate:     episode.PublishedAt,
	}

	var size int64
	if episode.AudioFileSize != nil {
		size = *episode.AudioFileSize
	}
	format := ""
	if episode.AudioFormat != nil {
		format = *episode.AudioFormat
	}
	enclosureType, known := enclosureTypes[format]
	if !known {
		enclosureType = podcast.MP3
	}
	item.AddEnclosure(episode.AudioURL, enclosureType, size)

	if episode.Duration > 0 {
		item.AddDuration(int64(episode.Duration + 0.5))
	}
	if episode.CoverImageURL != nil {
		item.AddImage(*episode.CoverImageURL)
	}

	n, err := p.AddItem(item)
	if err != nil {
		return err
	}

	// podcast only knows a handful of enclosure types
	if !known {
		if mimeType, ok := otherTypes[format]; ok {
			p.Items[n-1].Enclosure.TypeFormatted = mimeType
		}
	}
	return nil
}

var enclosureTypes = map[string]podcast.EnclosureType{
	"mp3": podcast.MP3,
	"m4a": podcast.M4A,
	"aac": podcast.M4A,
	"mp4": podcast.MP4,
}

var otherTypes = map[string]string{
	"wav":  "audio/wav",
	"webm": "audio/webm",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",
}

// PlainText strips markup from a summary and collapses whitespace
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
