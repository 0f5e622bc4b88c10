package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lumenstudio/lumen/backend/utils"
	"gopkg.in/yaml.v3"
)

// ContentHandler writes and lists markdown post files in the content
// directory, for the static-site build that consumes them directly.
type ContentHandler struct {
	Dir string
}

type CreateContentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags"` // comma separated
	Category    string `json:"category"`
	Author      string `json:"author"`
	Image       string `json:"image"`
	Content     string `json:"content"`
}

type CreateContentResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Slug     string `json:"slug"`
	Filepath string `json:"filepath"`
}

// frontmatter mirrors the metadata block the site's content pipeline
// expects at the top of each post file. Field order matters for diffs,
// so it is a struct rather than a map.
type frontmatter struct {
	Title       string              `yaml:"title"`
	Excerpt     string              `yaml:"excerpt"`
	PublishDate string              `yaml:"publishDate"`
	Draft       bool                `yaml:"draft"`
	Tags        []string            `yaml:"tags,omitempty"`
	Category    string              `yaml:"category,omitempty"`
	Author      string              `yaml:"author,omitempty"`
	Image       string              `yaml:"image,omitempty"`
	Metadata    frontmatterMetadata `yaml:"metadata"`
}

type frontmatterMetadata struct {
	Description string `yaml:"description"`
	Title       string `yaml:"title,omitempty"`
}

// Create writes {slug}.md with a YAML frontmatter block to the content
// directory. 400 when title or content is missing, 500 on a write failure.
func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Content == "" {
		http.Error(w, `{"error":"Title and content are required"}`, http.StatusBadRequest)
		return
	}

	slug := utils.Slugify(req.Title)
	var tags []string
	for _, t := range strings.Split(req.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	fm := frontmatter{
		Title:       req.Title,
		Excerpt:     req.Description,
		PublishDate: time.Now().UTC().Format(time.RFC3339),
		Draft:       false,
		Tags:        tags,
		Category:    req.Category,
		Author:      req.Author,
		Image:       req.Image,
		Metadata: frontmatterMetadata{
			Description: req.Description,
			Title:       req.Title,
		},
	}
	fmBytes, err := yaml.Marshal(&fm)
	if err != nil {
		log.Println("content frontmatter:", err)
		http.Error(w, `{"error":"Failed to create blog post"}`, http.StatusInternalServerError)
		return
	}

	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		log.Println("content mkdir:", err)
		http.Error(w, `{"error":"Failed to create blog post"}`, http.StatusInternalServerError)
		return
	}
	filename := slug + ".md"
	path := filepath.Join(h.Dir, filename)
	body := fmt.Sprintf("---\n%s---\n\n%s", fmBytes, req.Content)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		log.Println("content write:", err)
		http.Error(w, `{"error":"Failed to create blog post"}`, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, CreateContentResponse{
		Success:  true,
		Message:  "Blog post created successfully",
		Filename: filename,
		Slug:     slug,
		Filepath: path,
	})
}

type ContentFile struct {
	Slug         string    `json:"slug"`
	Filename     string    `json:"filename"`
	LastModified time.Time `json:"lastModified"`
}

// List returns the stored markdown filenames with modification times.
// A missing content directory is an empty listing, not an error.
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.Dir)
	if os.IsNotExist(err) {
		respondJSON(w, http.StatusOK, map[string]interface{}{"posts": []ContentFile{}})
		return
	}
	if err != nil {
		log.Println("content list:", err)
		http.Error(w, `{"error":"Failed to fetch blog posts"}`, http.StatusInternalServerError)
		return
	}
	files := make([]ContentFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, ContentFile{
			Slug:         strings.TrimSuffix(e.Name(), ".md"),
			Filename:     e.Name(),
			LastModified: info.ModTime(),
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"posts": files})
}
