package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/lumenstudio/lumen/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrBadCursor is returned when a page cursor cannot be decoded.
var ErrBadCursor = errors.New("invalid page cursor")

// postSort orders posts newest-first with the document id as a unique
// tie-break, so cursor pagination never skips or repeats documents.
var postSort = bson.D{
	{Key: "metadata.publishDate", Value: -1},
	{Key: "_id", Value: -1},
}

// publishedFilter excludes drafts at the query level. Unpublished posts
// are filtered again after normalization; this is the cheap first pass.
func publishedFilter(lang string) bson.M {
	filter := bson.M{"metadata.draft": bson.M{"$ne": true}}
	if lang != "" {
		filter["lang"] = lang
	}
	return filter
}

// postCursor marks the position after the last document of a page.
type postCursor struct {
	PublishDate time.Time `json:"d"`
	ID          string    `json:"id"`
}

func encodeCursor(c postCursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(token string) (postCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return postCursor{}, ErrBadCursor
	}
	var c postCursor
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" {
		return postCursor{}, ErrBadCursor
	}
	return c, nil
}

// applyCursor adds the continuation condition for c to filter. Documents
// without a publish date sort after every dated one (missing fields rank
// lowest under the descending sort), so a dated cursor must still reach
// that undated tail, and a zero cursor date means the tail itself is
// being paged by id.
func applyCursor(filter bson.M, c postCursor) {
	if c.PublishDate.IsZero() {
		filter["metadata.publishDate"] = nil
		filter["_id"] = bson.M{"$lt": c.ID}
		return
	}
	filter["$or"] = bson.A{
		bson.M{"metadata.publishDate": bson.M{"$lt": c.PublishDate}},
		bson.M{"metadata.publishDate": c.PublishDate, "_id": bson.M{"$lt": c.ID}},
		bson.M{"metadata.publishDate": nil},
	}
}

// PostsAfter returns up to pageSize published posts starting after the
// given cursor token (empty token means the newest posts). The returned
// next token is empty when no further page exists. This is the cheap
// sequential path: each page costs a single indexed query.
func (db *DB) PostsAfter(ctx context.Context, lang, token string, pageSize int) (posts []models.RawPost, next string, err error) {
	filter := publishedFilter(lang)
	if token != "" {
		c, err := decodeCursor(token)
		if err != nil {
			return nil, "", err
		}
		applyCursor(filter, c)
	}
	docs, err := db.findPosts(ctx, filter, options.Find().SetSort(postSort).SetLimit(int64(pageSize+1)))
	if err != nil {
		return nil, "", err
	}
	if len(docs) > pageSize {
		docs = docs[:pageSize]
		last := docs[len(docs)-1]
		var at time.Time
		if last.Metadata.PublishDate != nil {
			at = *last.Metadata.PublishDate
		}
		next = encodeCursor(postCursor{PublishDate: at, ID: last.ID})
	}
	return docs, next, nil
}

// PostsPage returns the 1-based page of published posts, newest first.
// Jumping to page N skips (N-1)*pageSize documents, which is O(N) work in
// the store; keep page sizes small or navigate sequentially with
// PostsAfter when the corpus grows.
func (db *DB) PostsPage(ctx context.Context, lang string, pageSize, pageNumber int) (posts []models.RawPost, hasNext bool, err error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	opts := options.Find().
		SetSort(postSort).
		SetSkip(int64((pageNumber - 1) * pageSize)).
		SetLimit(int64(pageSize + 1))
	docs, err := db.findPosts(ctx, publishedFilter(lang), opts)
	if err != nil {
		return nil, false, err
	}
	hasNext = len(docs) > pageSize
	if hasNext {
		docs = docs[:pageSize]
	}
	return docs, hasNext, nil
}

// AllPosts returns every post document for the language, newest first,
// drafts included. Callers filter eligibility after normalization.
func (db *DB) AllPosts(ctx context.Context, lang string) ([]models.RawPost, error) {
	filter := bson.M{}
	if lang != "" {
		filter["lang"] = lang
	}
	return db.findPosts(ctx, filter, options.Find().SetSort(postSort))
}

func (db *DB) findPosts(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.RawPost, error) {
	cur, err := db.Posts().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []models.RawPost
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// PostByID fetches a single document by its id. Returns (nil, nil) when absent.
func (db *DB) PostByID(ctx context.Context, id string) (*models.RawPost, error) {
	var doc models.RawPost
	err := db.Posts().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// PostBySlug fetches the first document whose metadata slug matches.
// Returns (nil, nil) when absent; callers typically fall back to PostByID.
func (db *DB) PostBySlug(ctx context.Context, slug string) (*models.RawPost, error) {
	var doc models.RawPost
	err := db.Posts().FindOne(ctx, bson.M{"metadata.slug": slug}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// PublishedCount counts non-draft posts for the language.
func (db *DB) PublishedCount(ctx context.Context, lang string) (int64, error) {
	return db.Posts().CountDocuments(ctx, publishedFilter(lang))
}

func (db *DB) InsertPost(ctx context.Context, doc *models.RawPost) (string, error) {
	res, err := db.Posts().InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}
	if id, ok := res.InsertedID.(string); ok {
		return id, nil
	}
	return doc.ID, nil
}

// UpdatePostMetadata merges the given metadata fields into the document.
// Keys are metadata field names, e.g. "title" or "draft".
func (db *DB) UpdatePostMetadata(ctx context.Context, id string, fields bson.M) error {
	if len(fields) == 0 {
		return nil
	}
	set := bson.M{}
	for k, v := range fields {
		set["metadata."+k] = v
	}
	_, err := db.Posts().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

// UpdatePostContent replaces the markdown body.
func (db *DB) UpdatePostContent(ctx context.Context, id, content string) error {
	_, err := db.Posts().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"content": content}})
	return err
}

func (db *DB) DeletePost(ctx context.Context, id string) error {
	_, err := db.Posts().DeleteOne(ctx, bson.M{"_id": id})
	return err
}
