package models

import "time"

// Taxonomy is a category or tag: a display title plus its URL slug.
type Taxonomy struct {
	Slug  string `bson:"slug" json:"slug"`
	Title string `bson:"title" json:"title"`
}

// RawPost is a post document as stored: free-form metadata plus the
// markdown body. Documents are written by the dashboard and by content
// imports, so every metadata field is optional.
type RawPost struct {
	ID       string       `bson:"_id,omitempty" json:"id"`
	Lang     string       `bson:"lang,omitempty" json:"lang,omitempty"`
	Metadata PostMetadata `bson:"metadata" json:"metadata"`
	Content  string       `bson:"content" json:"content"`
}

type PostMetadata struct {
	Title       string     `bson:"title,omitempty" json:"title,omitempty"`
	Slug        string     `bson:"slug,omitempty" json:"slug,omitempty"`
	Canonical   string     `bson:"canonical,omitempty" json:"canonical,omitempty"`
	Excerpt     string     `bson:"excerpt,omitempty" json:"excerpt,omitempty"`
	Description string     `bson:"description,omitempty" json:"description,omitempty"`
	Image       string     `bson:"image,omitempty" json:"image,omitempty"`
	Author      string     `bson:"author,omitempty" json:"author,omitempty"`
	Category    string     `bson:"category,omitempty" json:"category,omitempty"`
	Tags        []string   `bson:"tags,omitempty" json:"tags,omitempty"`
	PublishDate *time.Time `bson:"publishDate,omitempty" json:"publishDate,omitempty"`
	UpdateDate  *time.Time `bson:"updateDate,omitempty" json:"updateDate,omitempty"`
	Draft       bool       `bson:"draft" json:"draft"`
	Published   *bool      `bson:"published,omitempty" json:"published,omitempty"`
}

// Post is the canonical, normalized form served to readers.
type Post struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Permalink   string     `json:"permalink"`
	Lang        string     `json:"lang,omitempty"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Image       string     `json:"image,omitempty"`
	Author      string     `json:"author,omitempty"`
	Category    *Taxonomy  `json:"category,omitempty"`
	Tags        []Taxonomy `json:"tags,omitempty"`
	PublishDate time.Time  `json:"publishDate"`
	UpdateDate  *time.Time `json:"updateDate,omitempty"`
	Draft       bool       `json:"draft"`
	Published   bool       `json:"published"`
	Content     string     `json:"content,omitempty"`
	ContentHTML string     `json:"contentHtml,omitempty"`
	ReadingTime int        `json:"readingTime"` // minutes
}

// Eligible reports whether the post may appear in public listings,
// search, category pages, and related-post results.
func (p *Post) Eligible() bool {
	return !p.Draft && p.Published
}

// PostPage is one page of a post listing.
type PostPage struct {
	Posts       []Post `json:"posts"`
	HasNextPage bool   `json:"hasNextPage"`
	HasPrevPage bool   `json:"hasPrevPage"`
	CurrentPage int    `json:"currentPage"`
	NextCursor  string `json:"nextCursor,omitempty"`
}
