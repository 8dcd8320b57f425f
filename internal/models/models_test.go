package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(All()...))
	return db
}

func TestTranscriptionStatus(t *testing.T) {
	tests := []struct {
		status   TranscriptionStatus
		valid    bool
		terminal bool
	}{
		{TranscriptionNotStarted, true, false},
		{TranscriptionProcessing, true, false},
		{TranscriptionCompleted, true, true},
		{TranscriptionFailed, true, true},
		{"queued", false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.status.Valid())
			assert.Equal(t, tt.terminal, tt.status.Terminal())
		})
	}
}

func TestEpisodeBeforeCreate(t *testing.T) {
	db := setupTestDB(t)

	episode := Episode{Title: "Test Ep", AudioURL: "http://localhost/media/audio/1-audio.webm"}
	require.NoError(t, db.Create(&episode).Error)

	assert.Len(t, episode.ID, 36)
	assert.Equal(t, TranscriptionNotStarted, episode.TranscriptionStatus)
	assert.False(t, episode.IsPublished)
	assert.Nil(t, episode.PublishedAt)
	assert.False(t, episode.Visible())
}

func TestEpisodeVisible(t *testing.T) {
	now := time.Now()

	assert.False(t, (&Episode{IsPublished: true}).Visible())
	assert.False(t, (&Episode{PublishedAt: &now}).Visible())
	assert.True(t, (&Episode{IsPublished: true, PublishedAt: &now}).Visible())
}

func TestTranscriptNodeIDsAreAlwaysFresh(t *testing.T) {
	db := setupTestDB(t)

	episode := Episode{Title: "Ep", AudioURL: "u"}
	require.NoError(t, db.Create(&episode).Error)

	node := TranscriptNode{ID: "fixed", EpisodeID: episode.ID, Content: "hello", DisplayOrder: 0}
	require.NoError(t, db.Create(&node).Error)

	assert.NotEqual(t, "fixed", node.ID)
	assert.Len(t, node.ID, 36)
}

func TestTranscriptNodeOrderIsUniquePerEpisode(t *testing.T) {
	db := setupTestDB(t)

	first := Episode{Title: "One", AudioURL: "u"}
	second := Episode{Title: "Two", AudioURL: "u"}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)

	require.NoError(t, db.Create(&TranscriptNode{EpisodeID: first.ID, Content: "a", DisplayOrder: 0}).Error)
	require.NoError(t, db.Create(&TranscriptNode{EpisodeID: second.ID, Content: "a", DisplayOrder: 0}).Error)

	err := db.Create(&TranscriptNode{EpisodeID: first.ID, Content: "b", DisplayOrder: 0}).Error
	assert.Error(t, err)
}

func TestTranscriptNodeHasLink(t *testing.T) {
	empty := ""
	link := "https://example.com/source"

	assert.False(t, (&TranscriptNode{}).HasLink())
	assert.False(t, (&TranscriptNode{ReferenceLink: &empty}).HasLink())
	assert.True(t, (&TranscriptNode{ReferenceLink: &link}).HasLink())
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	require.NotNil(t, StringPtr("x"))
	assert.Equal(t, "x", *StringPtr("x"))
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "episodes", Episode{}.TableName())
	assert.Equal(t, "transcript_nodes", TranscriptNode{}.TableName())
	assert.Equal(t, "inbox_messages", InboxMessage{}.TableName())
}
