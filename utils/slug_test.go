package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":            "hello-world",
		"  Ciao, Mondo!  ":       "ciao-mondo",
		"already-a-slug":         "already-a-slug",
		"Multiple   Spaces":      "multiple-spaces",
		"Trailing punctuation!!": "trailing-punctuation",
		"CamelCase123":           "camelcase123",
		"":                       "",
		"---":                    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestSlugifyIdempotent(t *testing.T) {
	inputs := []string{"Hello World", "già-slug", "A  B  C", "post-1"}
	for _, in := range inputs {
		once := Slugify(in)
		assert.Equal(t, once, Slugify(once))
	}
}

func TestExpandPermalink(t *testing.T) {
	date := time.Date(2024, 3, 5, 9, 7, 2, 0, time.UTC)

	out := ExpandPermalink("%year%/%month%/%slug%", "hello-world", "doc-1", "news", date)
	assert.Equal(t, "2024/03/hello-world", out)

	// empty placeholders must not leave empty segments
	out = ExpandPermalink("blog/%category%/%slug%", "hello-world", "doc-1", "", date)
	assert.Equal(t, "blog/hello-world", out)

	out = ExpandPermalink("/%id%//%day%/", "s", "doc-1", "", date)
	assert.Equal(t, "doc-1/05", out)

	out = ExpandPermalink("%hour%-%minute%-%second%", "s", "id", "", date)
	assert.Equal(t, "09-07-02", out)
}

func TestReadingTime(t *testing.T) {
	words := func(n int) string {
		s := ""
		for i := 0; i < n; i++ {
			s += "parola "
		}
		return s
	}

	assert.Equal(t, 2, ReadingTime(words(400)))
	assert.Equal(t, 1, ReadingTime("ciao"))
	assert.Equal(t, 1, ReadingTime(words(200)))
	assert.Equal(t, 2, ReadingTime(words(201)))
	assert.Equal(t, 0, ReadingTime(""))
}
