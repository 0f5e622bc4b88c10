package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestMetadataUpdatesStampsUpdateDate(t *testing.T) {
	now := time.Now()

	// a body-only edit still refreshes updateDate
	fields := UpdatePostRequest{Content: strPtr("new body")}.metadataUpdates(now)
	require.Len(t, fields, 1)
	assert.Equal(t, now, fields["updateDate"])

	fields = UpdatePostRequest{Title: strPtr("T")}.metadataUpdates(now)
	assert.Equal(t, "T", fields["title"])
	assert.Equal(t, now, fields["updateDate"])

	// an empty request changes nothing, updateDate included
	assert.Empty(t, UpdatePostRequest{}.metadataUpdates(now))
}

func TestMetadataUpdatesDescriptionFillsExcerpt(t *testing.T) {
	fields := UpdatePostRequest{Description: strPtr("d")}.metadataUpdates(time.Now())
	assert.Equal(t, "d", fields["excerpt"])
	assert.Equal(t, "d", fields["description"])
}
