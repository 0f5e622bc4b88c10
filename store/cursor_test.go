package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCursorRoundTrip(t *testing.T) {
	c := postCursor{
		PublishDate: time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
		ID:          "hello-world",
	}
	token := encodeCursor(c)
	require.NotEmpty(t, token)

	decoded, err := decodeCursor(token)
	require.NoError(t, err)
	assert.True(t, c.PublishDate.Equal(decoded.PublishDate))
	assert.Equal(t, c.ID, decoded.ID)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := decodeCursor("not base64!!")
	assert.ErrorIs(t, err, ErrBadCursor)

	// valid base64, invalid payload
	_, err = decodeCursor("aGVsbG8")
	assert.ErrorIs(t, err, ErrBadCursor)

	// missing id
	_, err = decodeCursor(encodeCursor(postCursor{}))
	assert.ErrorIs(t, err, ErrBadCursor)
}

func TestApplyCursorDatedReachesUndatedTail(t *testing.T) {
	at := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	filter := publishedFilter("it")
	applyCursor(filter, postCursor{PublishDate: at, ID: "hello-world"})

	or, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 3)
	assert.Equal(t, bson.M{"metadata.publishDate": bson.M{"$lt": at}}, or[0])
	assert.Equal(t, bson.M{"metadata.publishDate": at, "_id": bson.M{"$lt": "hello-world"}}, or[1])
	// documents with no publish date sort last; they must stay reachable
	assert.Equal(t, bson.M{"metadata.publishDate": nil}, or[2])
}

func TestApplyCursorUndatedContinuesById(t *testing.T) {
	filter := publishedFilter("")
	applyCursor(filter, postCursor{ID: "undated-post"})

	v, ok := filter["metadata.publishDate"]
	require.True(t, ok, "must match null and missing publish dates")
	assert.Nil(t, v)
	assert.Equal(t, bson.M{"$lt": "undated-post"}, filter["_id"])
	_, hasOr := filter["$or"]
	assert.False(t, hasOr, "id-only continuation must not end pagination early")
}
