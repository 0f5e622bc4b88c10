package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lumenstudio/lumen/backend/models"
	"github.com/lumenstudio/lumen/backend/store"
	"github.com/lumenstudio/lumen/backend/utils"
)

// NormalizePost converts a stored document into the canonical Post. It is
// a pure function of its input (plus the permalink pattern): no store
// calls, same output for the same document.
//
// Resolution order follows the dashboard's conventions:
//   - slug: explicit metadata slug, else slugified title, else the doc id
//   - permalink: explicit canonical, else the expanded permalink pattern
//   - publishDate: stored value, else now
func NormalizePost(doc models.RawPost, pattern string) models.Post {
	m := doc.Metadata

	slug := m.Slug
	if slug == "" {
		slug = utils.Slugify(m.Title)
	}
	if slug == "" {
		slug = doc.ID
	}

	publishDate := time.Now()
	if m.PublishDate != nil {
		publishDate = *m.PublishDate
	}

	title := m.Title
	if title == "" {
		title = "Untitled"
	}
	excerpt := m.Excerpt
	if excerpt == "" {
		excerpt = m.Description
	}

	var category *models.Taxonomy
	if m.Category != "" {
		category = &models.Taxonomy{Slug: utils.Slugify(m.Category), Title: m.Category}
	}
	var tags []models.Taxonomy
	for _, t := range m.Tags {
		tags = append(tags, models.Taxonomy{Slug: utils.Slugify(t), Title: t})
	}

	permalink := m.Canonical
	if permalink == "" {
		categorySlug := ""
		if category != nil {
			categorySlug = category.Slug
		}
		permalink = utils.ExpandPermalink(pattern, slug, doc.ID, categorySlug, publishDate)
	}

	return models.Post{
		ID:          doc.ID,
		Slug:        slug,
		Permalink:   permalink,
		Lang:        doc.Lang,
		Title:       title,
		Excerpt:     excerpt,
		Image:       m.Image,
		Author:      m.Author,
		Category:    category,
		Tags:        tags,
		PublishDate: publishDate,
		UpdateDate:  m.UpdateDate,
		Draft:       m.Draft,
		Published:   m.Published == nil || *m.Published,
		Content:     doc.Content,
		ReadingTime: utils.ReadingTime(doc.Content),
	}
}

// BlogService serves normalized posts out of the document store. The full
// per-language corpus (used by search, categories, and related posts) is
// memoized in process; Invalidate drops it after writes.
type BlogService struct {
	db      *store.DB
	pattern string

	mu     sync.Mutex
	corpus map[string][]models.Post
}

func NewBlogService(db *store.DB, permalinkPattern string) *BlogService {
	return &BlogService{
		db:      db,
		pattern: permalinkPattern,
		corpus:  make(map[string][]models.Post),
	}
}

// Normalize converts a raw document using the service's permalink pattern.
func (s *BlogService) Normalize(doc models.RawPost) models.Post {
	return NormalizePost(doc, s.pattern)
}

// Page returns the 1-based page of published posts, newest first.
func (s *BlogService) Page(ctx context.Context, lang string, pageSize, pageNumber int) (*models.PostPage, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	docs, hasNext, err := s.db.PostsPage(ctx, lang, pageSize, pageNumber)
	if err != nil {
		return nil, err
	}
	return &models.PostPage{
		Posts:       s.normalizeEligible(docs),
		HasNextPage: hasNext,
		HasPrevPage: pageNumber > 1,
		CurrentPage: pageNumber,
	}, nil
}

// After returns the page following the cursor token; an empty token
// starts from the newest posts.
func (s *BlogService) After(ctx context.Context, lang, cursor string, pageSize int) (*models.PostPage, error) {
	docs, next, err := s.db.PostsAfter(ctx, lang, cursor, pageSize)
	if err != nil {
		return nil, err
	}
	return &models.PostPage{
		Posts:       s.normalizeEligible(docs),
		HasNextPage: next != "",
		HasPrevPage: cursor != "",
		NextCursor:  next,
	}, nil
}

// normalizeEligible converts raw documents and drops any that slipped
// past the store-level draft filter.
func (s *BlogService) normalizeEligible(docs []models.RawPost) []models.Post {
	posts := make([]models.Post, 0, len(docs))
	for _, doc := range docs {
		post := NormalizePost(doc, s.pattern)
		if post.Eligible() {
			posts = append(posts, post)
		}
	}
	return posts
}

// BySlugOrID resolves a published post by slug, falling back to a direct
// id lookup. Returns (nil, nil) when missing or not publicly visible.
func (s *BlogService) BySlugOrID(ctx context.Context, slugOrID string) (*models.Post, error) {
	doc, err := s.db.PostBySlug(ctx, slugOrID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		if doc, err = s.db.PostByID(ctx, slugOrID); err != nil {
			return nil, err
		}
	}
	if doc == nil {
		return nil, nil
	}
	post := NormalizePost(*doc, s.pattern)
	if !post.Eligible() {
		return nil, nil
	}
	return &post, nil
}

// Posts returns the eligible corpus for the language, newest first,
// loading it once per language and serving the memoized copy after that.
func (s *BlogService) Posts(ctx context.Context, lang string) ([]models.Post, error) {
	s.mu.Lock()
	cached, ok := s.corpus[lang]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	docs, err := s.db.AllPosts(ctx, lang)
	if err != nil {
		return nil, err
	}
	posts := s.normalizeEligible(docs)

	s.mu.Lock()
	s.corpus[lang] = posts
	s.mu.Unlock()
	return posts, nil
}

// Invalidate drops the memoized corpus for the language (every language
// when lang is empty). Call after any post write.
func (s *BlogService) Invalidate(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lang == "" {
		s.corpus = make(map[string][]models.Post)
		return
	}
	delete(s.corpus, lang)
}

// Latest returns the newest count eligible posts.
func (s *BlogService) Latest(ctx context.Context, lang string, count int) ([]models.Post, error) {
	posts, err := s.Posts(ctx, lang)
	if err != nil {
		return nil, err
	}
	if count > len(posts) {
		count = len(posts)
	}
	return posts[:count], nil
}

// Related scores every other eligible post against the given one: 5 for a
// shared category plus 1 per shared tag. Ties keep the corpus order, so
// equally-scored posts stay newest-first.
func (s *BlogService) Related(ctx context.Context, post *models.Post, maxResults int) ([]models.Post, error) {
	posts, err := s.Posts(ctx, post.Lang)
	if err != nil {
		return nil, err
	}
	return RankRelated(*post, posts, maxResults), nil
}

// RankRelated is the pure scoring core behind Related. Candidates must
// already be eligible and sorted newest-first.
func RankRelated(post models.Post, candidates []models.Post, maxResults int) []models.Post {
	tagSet := make(map[string]struct{}, len(post.Tags))
	for _, t := range post.Tags {
		tagSet[t.Slug] = struct{}{}
	}

	type scored struct {
		post  models.Post
		score int
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.Slug == post.Slug {
			continue
		}
		score := 0
		if c.Category != nil && post.Category != nil && c.Category.Slug == post.Category.Slug {
			score += 5
		}
		for _, t := range c.Tags {
			if _, ok := tagSet[t.Slug]; ok {
				score++
			}
		}
		ranked = append(ranked, scored{post: c, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if maxResults > len(ranked) {
		maxResults = len(ranked)
	}
	out := make([]models.Post, 0, maxResults)
	for _, r := range ranked[:maxResults] {
		out = append(out, r.post)
	}
	return out
}

// Search matches the term case-insensitively against title, body, and
// excerpt; any one match suffices. Results stay newest-first, truncated
// to limit.
func (s *BlogService) Search(ctx context.Context, lang, term string, limit int) ([]models.Post, error) {
	posts, err := s.Posts(ctx, lang)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	var out []models.Post
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Content), needle) ||
			strings.Contains(strings.ToLower(p.Excerpt), needle) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// CategoryCount is a category with the number of eligible posts in it.
type CategoryCount struct {
	models.Taxonomy
	Count int `json:"count"`
}

// Categories lists the distinct categories of eligible posts, most
// populated first.
func (s *BlogService) Categories(ctx context.Context, lang string) ([]CategoryCount, error) {
	posts, err := s.Posts(ctx, lang)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]*CategoryCount)
	var order []string
	for _, p := range posts {
		if p.Category == nil {
			continue
		}
		if c, ok := counts[p.Category.Slug]; ok {
			c.Count++
			continue
		}
		counts[p.Category.Slug] = &CategoryCount{Taxonomy: *p.Category, Count: 1}
		order = append(order, p.Category.Slug)
	}
	out := make([]CategoryCount, 0, len(order))
	for _, slug := range order {
		out = append(out, *counts[slug])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

// ByCategory pages through eligible posts in one category. Matching
// accepts either the category slug or its title (case-insensitive).
func (s *BlogService) ByCategory(ctx context.Context, lang, category string, pageSize, pageNumber int) (*models.PostPage, error) {
	posts, err := s.Posts(ctx, lang)
	if err != nil {
		return nil, err
	}
	var filtered []models.Post
	for _, p := range posts {
		if p.Category == nil {
			continue
		}
		if p.Category.Slug == category || strings.EqualFold(p.Category.Title, category) {
			filtered = append(filtered, p)
		}
	}
	return PaginatePosts(filtered, pageSize, pageNumber), nil
}

// ByTag pages through eligible posts carrying one tag. Matching accepts
// either the tag slug or its title (case-insensitive).
func (s *BlogService) ByTag(ctx context.Context, lang, tag string, pageSize, pageNumber int) (*models.PostPage, error) {
	posts, err := s.Posts(ctx, lang)
	if err != nil {
		return nil, err
	}
	var filtered []models.Post
	for _, p := range posts {
		for _, t := range p.Tags {
			if t.Slug == tag || strings.EqualFold(t.Title, tag) {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return PaginatePosts(filtered, pageSize, pageNumber), nil
}

// PaginatePosts slices an in-memory, pre-sorted post list into a 1-based
// page with next/prev flags.
func PaginatePosts(posts []models.Post, pageSize, pageNumber int) *models.PostPage {
	if pageNumber < 1 {
		pageNumber = 1
	}
	start := (pageNumber - 1) * pageSize
	end := start + pageSize
	if start > len(posts) {
		start = len(posts)
	}
	if end > len(posts) {
		end = len(posts)
	}
	return &models.PostPage{
		Posts:       posts[start:end],
		HasNextPage: len(posts) > end,
		HasPrevPage: pageNumber > 1,
		CurrentPage: pageNumber,
	}
}
