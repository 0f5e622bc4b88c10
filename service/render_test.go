package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdown(t *testing.T) {
	html := RenderMarkdown("# Titolo\n\nSome **bold** text.")
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<strong>bold</strong>")
}

func TestRenderMarkdownGFMTable(t *testing.T) {
	html := RenderMarkdown("| a | b |\n|---|---|\n| 1 | 2 |")
	assert.Contains(t, html, "<table>")
}
