package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lumenstudio/lumen/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestNormalizePostSlugResolution(t *testing.T) {
	// explicit metadata slug wins
	post := NormalizePost(models.RawPost{
		ID:       "doc-1",
		Metadata: models.PostMetadata{Title: "My Title", Slug: "custom-slug"},
	}, "%slug%")
	assert.Equal(t, "custom-slug", post.Slug)

	// falls back to the slugified title
	post = NormalizePost(models.RawPost{
		ID:       "doc-1",
		Metadata: models.PostMetadata{Title: "My Great Title!"},
	}, "%slug%")
	assert.Equal(t, "my-great-title", post.Slug)

	// falls back to the document id
	post = NormalizePost(models.RawPost{ID: "doc-1"}, "%slug%")
	assert.Equal(t, "doc-1", post.Slug)
}

func TestNormalizePostPermalink(t *testing.T) {
	published := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	post := NormalizePost(models.RawPost{
		ID: "doc-1",
		Metadata: models.PostMetadata{
			Title:       "Hello World",
			PublishDate: &published,
		},
	}, "%year%/%month%/%slug%")
	assert.Equal(t, "2024/03/hello-world", post.Permalink)

	// explicit canonical wins over the pattern
	post = NormalizePost(models.RawPost{
		ID: "doc-1",
		Metadata: models.PostMetadata{
			Title:     "Hello World",
			Canonical: "/legacy/hello",
		},
	}, "%year%/%month%/%slug%")
	assert.Equal(t, "/legacy/hello", post.Permalink)
}

func TestNormalizePostClassification(t *testing.T) {
	post := NormalizePost(models.RawPost{
		ID: "doc-1",
		Metadata: models.PostMetadata{
			Title:    "T",
			Category: "Web Design",
			Tags:     []string{"Go Lang", "HTTP"},
		},
	}, "%slug%")

	require.NotNil(t, post.Category)
	assert.Equal(t, "web-design", post.Category.Slug)
	assert.Equal(t, "Web Design", post.Category.Title)
	require.Len(t, post.Tags, 2)
	assert.Equal(t, "go-lang", post.Tags[0].Slug)
	assert.Equal(t, "HTTP", post.Tags[1].Title)
}

func TestNormalizePostDatesAndVisibility(t *testing.T) {
	before := time.Now()
	post := NormalizePost(models.RawPost{ID: "doc-1"}, "%slug%")
	assert.False(t, post.PublishDate.Before(before), "publish date defaults to now")
	assert.True(t, post.Published, "published defaults to true")
	assert.True(t, post.Eligible())

	no := false
	post = NormalizePost(models.RawPost{
		ID:       "doc-2",
		Metadata: models.PostMetadata{Published: &no},
	}, "%slug%")
	assert.False(t, post.Eligible())

	post = NormalizePost(models.RawPost{
		ID:       "doc-3",
		Metadata: models.PostMetadata{Draft: true},
	}, "%slug%")
	assert.False(t, post.Eligible())
}

func TestNormalizePostDeterministic(t *testing.T) {
	published := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := models.RawPost{
		ID:       "doc-1",
		Metadata: models.PostMetadata{Title: "Stable", PublishDate: &published},
		Content:  "some body here",
	}
	assert.Equal(t, NormalizePost(doc, "%slug%"), NormalizePost(doc, "%slug%"))
}

func makePost(slug, category string, tags []string, publishDate time.Time) models.Post {
	p := models.Post{
		Slug:        slug,
		Title:       slug,
		PublishDate: publishDate,
		Published:   true,
	}
	if category != "" {
		p.Category = &models.Taxonomy{Slug: category, Title: category}
	}
	for _, t := range tags {
		p.Tags = append(p.Tags, models.Taxonomy{Slug: t, Title: t})
	}
	return p
}

func TestRankRelated(t *testing.T) {
	now := time.Now()
	a := makePost("a", "x", []string{"t1", "t2"}, now)
	b := makePost("b", "x", nil, now.Add(-time.Hour))
	c := makePost("c", "y", []string{"t1"}, now.Add(-2*time.Hour))

	related := RankRelated(a, []models.Post{a, b, c}, 4)
	require.Len(t, related, 2, "the post itself is excluded")
	assert.Equal(t, "b", related[0].Slug) // same category, score 5
	assert.Equal(t, "c", related[1].Slug) // one shared tag, score 1
}

func TestRankRelatedTiesKeepCorpusOrder(t *testing.T) {
	now := time.Now()
	a := makePost("a", "x", nil, now)
	// both score 5; newest-first corpus order must be preserved
	newer := makePost("newer", "x", nil, now.Add(-time.Hour))
	older := makePost("older", "x", nil, now.Add(-2*time.Hour))

	related := RankRelated(a, []models.Post{a, newer, older}, 2)
	require.Len(t, related, 2)
	assert.Equal(t, "newer", related[0].Slug)
	assert.Equal(t, "older", related[1].Slug)
}

func TestRankRelatedSharedTagsAccumulate(t *testing.T) {
	now := time.Now()
	a := makePost("a", "", []string{"t1", "t2", "t3"}, now)
	two := makePost("two", "", []string{"t1", "t2"}, now.Add(-time.Hour))
	one := makePost("one", "", []string{"t3"}, now.Add(-2*time.Hour))

	related := RankRelated(a, []models.Post{two, one}, 2)
	assert.Equal(t, "two", related[0].Slug)
	assert.Equal(t, "one", related[1].Slug)
}

// seedCorpus primes the per-language cache so discovery methods run
// without a live store.
func seedCorpus(posts []models.Post, lang string) *BlogService {
	s := NewBlogService(nil, "%slug%")
	s.corpus[lang] = posts
	return s
}

func TestSearchCaseInsensitiveAcrossFields(t *testing.T) {
	now := time.Now()
	title := makePost("in-title", "", nil, now)
	title.Title = "Designing APIs"
	body := makePost("in-body", "", nil, now.Add(-time.Hour))
	body.Content = "a deep dive into API design"
	excerpt := makePost("in-excerpt", "", nil, now.Add(-2*time.Hour))
	excerpt.Excerpt = "apis everywhere"
	miss := makePost("miss", "", nil, now.Add(-3*time.Hour))
	miss.Title = "Unrelated"

	s := seedCorpus([]models.Post{title, body, excerpt, miss}, "en")

	results, err := s.Search(context.Background(), "en", "API", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	// newest first
	assert.Equal(t, "in-title", results[0].Slug)
	assert.Equal(t, "in-body", results[1].Slug)
	assert.Equal(t, "in-excerpt", results[2].Slug)
}

func TestSearchHonorsLimit(t *testing.T) {
	now := time.Now()
	var posts []models.Post
	for i := 0; i < 5; i++ {
		p := makePost(fmt.Sprintf("p%d", i), "", nil, now.Add(-time.Duration(i)*time.Hour))
		p.Title = "match me"
		posts = append(posts, p)
	}
	s := seedCorpus(posts, "en")

	results, err := s.Search(context.Background(), "en", "match", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestCategoriesCountsAndOrder(t *testing.T) {
	now := time.Now()
	posts := []models.Post{
		makePost("a", "design", nil, now),
		makePost("b", "code", nil, now.Add(-time.Hour)),
		makePost("c", "code", nil, now.Add(-2*time.Hour)),
		makePost("d", "", nil, now.Add(-3*time.Hour)),
	}
	s := seedCorpus(posts, "it")

	categories, err := s.Categories(context.Background(), "it")
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "code", categories[0].Slug)
	assert.Equal(t, 2, categories[0].Count)
	assert.Equal(t, "design", categories[1].Slug)
	assert.Equal(t, 1, categories[1].Count)
}

func TestByCategoryMatchesSlugOrTitle(t *testing.T) {
	now := time.Now()
	p := makePost("a", "web-design", nil, now)
	p.Category.Title = "Web Design"
	s := seedCorpus([]models.Post{p, makePost("b", "code", nil, now)}, "it")

	page, err := s.ByCategory(context.Background(), "it", "web-design", 10, 1)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)

	page, err = s.ByCategory(context.Background(), "it", "WEB DESIGN", 10, 1)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
}

func TestByTagMatchesSlugOrTitle(t *testing.T) {
	now := time.Now()
	p := makePost("a", "", []string{"web-design"}, now)
	p.Tags[0].Title = "Web Design"
	s := seedCorpus([]models.Post{p, makePost("b", "", []string{"code"}, now)}, "it")

	page, err := s.ByTag(context.Background(), "it", "web-design", 10, 1)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "a", page.Posts[0].Slug)

	page, err = s.ByTag(context.Background(), "it", "WEB DESIGN", 10, 1)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)

	page, err = s.ByTag(context.Background(), "it", "missing", 10, 1)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
}

func TestPaginatePosts(t *testing.T) {
	now := time.Now()
	var posts []models.Post
	for i := 0; i < 15; i++ {
		posts = append(posts, makePost(fmt.Sprintf("p%d", i), "", nil, now.Add(-time.Duration(i)*time.Hour)))
	}

	page1 := PaginatePosts(posts, 10, 1)
	assert.Len(t, page1.Posts, 10)
	assert.True(t, page1.HasNextPage)
	assert.False(t, page1.HasPrevPage)
	assert.Equal(t, 1, page1.CurrentPage)

	page2 := PaginatePosts(posts, 10, 2)
	assert.Len(t, page2.Posts, 5)
	assert.False(t, page2.HasNextPage)
	assert.True(t, page2.HasPrevPage)
	assert.Equal(t, 2, page2.CurrentPage)

	empty := PaginatePosts(posts, 10, 3)
	assert.Len(t, empty.Posts, 0)
	assert.False(t, empty.HasNextPage)
}

func TestLatest(t *testing.T) {
	now := time.Now()
	posts := []models.Post{
		makePost("a", "", nil, now),
		makePost("b", "", nil, now.Add(-time.Hour)),
		makePost("c", "", nil, now.Add(-2*time.Hour)),
	}
	s := seedCorpus(posts, "it")

	latest, err := s.Latest(context.Background(), "it", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "a", latest[0].Slug)

	all, err := s.Latest(context.Background(), "it", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNormalizeEligibleDropsDraftsAndUnpublished(t *testing.T) {
	no := false
	docs := []models.RawPost{
		{ID: "visible", Metadata: models.PostMetadata{Title: "Visible"}},
		{ID: "draft", Metadata: models.PostMetadata{Title: "Draft", Draft: true}},
		{ID: "unpublished", Metadata: models.PostMetadata{Title: "Hidden", Published: &no}},
	}
	s := NewBlogService(nil, "%slug%")

	posts := s.normalizeEligible(docs)
	require.Len(t, posts, 1)
	assert.Equal(t, "visible", posts[0].Slug)
}

func TestInvalidateDropsCorpus(t *testing.T) {
	s := seedCorpus([]models.Post{makePost("a", "", nil, time.Now())}, "it")
	s.corpus["en"] = nil

	s.Invalidate("it")
	_, ok := s.corpus["it"]
	assert.False(t, ok)
	_, ok = s.corpus["en"]
	assert.True(t, ok, "other languages untouched")

	s.Invalidate("")
	assert.Empty(t, s.corpus)
}
