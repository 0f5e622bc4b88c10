package utils

import (
	"fmt"
	"strings"
	"time"
)

// WordsPerMinute is the reading speed used for the reading-time estimate.
const WordsPerMinute = 200

// Slugify lowercases s and collapses every run of non-alphanumeric
// characters into a single hyphen, with no leading or trailing hyphen.
// Applying it to an existing slug is a no-op.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pendingHyphen = b.Len() > 0
			continue
		}
		if pendingHyphen {
			b.WriteByte('-')
			pendingHyphen = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ExpandPermalink substitutes the pattern placeholders (%slug%, %id%,
// %category%, %year%, %month%, %day%, %hour%, %minute%, %second%) and
// normalizes the result: split on "/", trim surrounding slashes from each
// segment, drop empty segments, rejoin.
func ExpandPermalink(pattern, slug, id, category string, publishDate time.Time) string {
	r := strings.NewReplacer(
		"%slug%", slug,
		"%id%", id,
		"%category%", category,
		"%year%", fmt.Sprintf("%04d", publishDate.Year()),
		"%month%", fmt.Sprintf("%02d", int(publishDate.Month())),
		"%day%", fmt.Sprintf("%02d", publishDate.Day()),
		"%hour%", fmt.Sprintf("%02d", publishDate.Hour()),
		"%minute%", fmt.Sprintf("%02d", publishDate.Minute()),
		"%second%", fmt.Sprintf("%02d", publishDate.Second()),
	)
	var segments []string
	for _, seg := range strings.Split(r.Replace(pattern), "/") {
		seg = strings.Trim(seg, "/")
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return strings.Join(segments, "/")
}

// ReadingTime estimates reading minutes for the body, rounding up.
// A one-word body still reads as one minute.
func ReadingTime(body string) int {
	words := len(strings.Fields(body))
	if words == 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}
