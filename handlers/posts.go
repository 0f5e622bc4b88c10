package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lumenstudio/lumen/backend/models"
	"github.com/lumenstudio/lumen/backend/service"
	"github.com/lumenstudio/lumen/backend/store"
	"github.com/lumenstudio/lumen/backend/utils"
	"go.mongodb.org/mongo-driver/bson"
)

type PostsHandler struct {
	DB          *store.DB
	Blog        *service.BlogService
	PageSize    int
	DefaultLang string
	Langs       []string
}

// lang resolves ?lang=, falling back to the default for unknown or
// missing values. An empty Langs list accepts anything.
func (h *PostsHandler) lang(r *http.Request) string {
	l := r.URL.Query().Get("lang")
	if l == "" {
		return h.DefaultLang
	}
	if len(h.Langs) == 0 {
		return l
	}
	for _, known := range h.Langs {
		if l == known {
			return l
		}
	}
	return h.DefaultLang
}

// List pages through published posts. With ?cursor= the cheap sequential
// path is used and the response carries nextCursor; with ?page=N the
// store skips to the requested page (O(N), fine for a small corpus).
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	lang := h.lang(r)
	if cursor := r.URL.Query().Get("cursor"); cursor != "" {
		page, err := h.Blog.After(r.Context(), lang, cursor, h.PageSize)
		if err == store.ErrBadCursor {
			http.Error(w, `{"error":"invalid cursor"}`, http.StatusBadRequest)
			return
		}
		if err != nil {
			log.Println("posts list:", err)
			http.Error(w, `{"error":"failed to load posts"}`, http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, page)
		return
	}
	pageNumber := parsePositiveInt(r.URL.Query().Get("page"), 1)
	page, err := h.Blog.Page(r.Context(), lang, h.PageSize, pageNumber)
	if err != nil {
		log.Println("posts list:", err)
		http.Error(w, `{"error":"failed to load posts"}`, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Get returns one published post by slug (or id), with the markdown body
// rendered to HTML.
func (h *PostsHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	post, err := h.Blog.BySlugOrID(r.Context(), slug)
	if err != nil {
		log.Println("post get:", err)
		http.Error(w, `{"error":"failed to load post"}`, http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.Error(w, `{"error":"post not found"}`, http.StatusNotFound)
		return
	}
	post.ContentHTML = service.RenderMarkdown(post.Content)
	respondJSON(w, http.StatusOK, post)
}

// Search matches ?q= against title, body, and excerpt, newest first.
func (h *PostsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		http.Error(w, `{"error":"missing search query"}`, http.StatusBadRequest)
		return
	}
	limit := parsePositiveInt(r.URL.Query().Get("limit"), 10)
	posts, err := h.Blog.Search(r.Context(), h.lang(r), q, limit)
	if err != nil {
		log.Println("posts search:", err)
		http.Error(w, `{"error":"failed to search posts"}`, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

// Categories lists the categories in use with their post counts.
func (h *PostsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Blog.Categories(r.Context(), h.lang(r))
	if err != nil {
		log.Println("posts categories:", err)
		http.Error(w, `{"error":"failed to load categories"}`, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// ByCategory pages through one category's posts.
func (h *PostsHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	pageNumber := parsePositiveInt(r.URL.Query().Get("page"), 1)
	page, err := h.Blog.ByCategory(r.Context(), h.lang(r), category, h.PageSize, pageNumber)
	if err != nil {
		log.Println("posts by category:", err)
		http.Error(w, `{"error":"failed to load posts"}`, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// ByTag pages through posts carrying one tag.
func (h *PostsHandler) ByTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	pageNumber := parsePositiveInt(r.URL.Query().Get("page"), 1)
	page, err := h.Blog.ByTag(r.Context(), h.lang(r), tag, h.PageSize, pageNumber)
	if err != nil {
		log.Println("posts by tag:", err)
		http.Error(w, `{"error":"failed to load posts"}`, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Related returns up to ?count= posts related to the given one.
func (h *PostsHandler) Related(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	count := parsePositiveInt(r.URL.Query().Get("count"), 4)
	post, err := h.Blog.BySlugOrID(r.Context(), slug)
	if err != nil {
		log.Println("related:", err)
		http.Error(w, `{"error":"failed to load post"}`, http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.Error(w, `{"error":"post not found"}`, http.StatusNotFound)
		return
	}
	related, err := h.Blog.Related(r.Context(), post, count)
	if err != nil {
		log.Println("related:", err)
		http.Error(w, `{"error":"failed to load related posts"}`, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"posts": related})
}

// Latest returns the newest ?count= posts for the homepage strip.
func (h *PostsHandler) Latest(w http.ResponseWriter, r *http.Request) {
	count := parsePositiveInt(r.URL.Query().Get("count"), 4)
	posts, err := h.Blog.Latest(r.Context(), h.lang(r), count)
	if err != nil {
		log.Println("latest:", err)
		http.Error(w, `{"error":"failed to load posts"}`, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

type CreatePostRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
	Author      string   `json:"author"`
	Image       string   `json:"image"`
	Content     string   `json:"content"`
	Lang        string   `json:"lang"`
	Draft       bool     `json:"draft"`
}

// Create stores a new post document (editor role). The document id is
// the derived slug, matching how imported content is keyed.
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Content == "" {
		http.Error(w, `{"error":"title and content are required"}`, http.StatusBadRequest)
		return
	}
	slug := utils.Slugify(req.Title)
	lang := req.Lang
	if lang == "" {
		lang = h.DefaultLang
	}
	now := time.Now()
	published := true
	doc := &models.RawPost{
		ID:   slug,
		Lang: lang,
		Metadata: models.PostMetadata{
			Title:       req.Title,
			Slug:        slug,
			Excerpt:     req.Description,
			Description: req.Description,
			Image:       req.Image,
			Author:      req.Author,
			Category:    req.Category,
			Tags:        req.Tags,
			PublishDate: &now,
			Draft:       req.Draft,
			Published:   &published,
		},
		Content: req.Content,
	}
	if _, err := h.DB.InsertPost(r.Context(), doc); err != nil {
		log.Println("post create:", err)
		http.Error(w, `{"error":"failed to create post"}`, http.StatusInternalServerError)
		return
	}
	h.Blog.Invalidate(lang)
	respondJSON(w, http.StatusCreated, h.Blog.Normalize(*doc))
}

type UpdatePostRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	Category    *string   `json:"category"`
	Author      *string   `json:"author"`
	Image       *string   `json:"image"`
	Content     *string   `json:"content"`
	Draft       *bool     `json:"draft"`
	Published   *bool     `json:"published"`
}

// metadataUpdates builds the metadata field merge for the request. Any
// change, a body edit included, stamps updateDate.
func (req UpdatePostRequest) metadataUpdates(now time.Time) bson.M {
	fields := bson.M{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["excerpt"] = *req.Description
		fields["description"] = *req.Description
	}
	if req.Tags != nil {
		fields["tags"] = *req.Tags
	}
	if req.Category != nil {
		fields["category"] = *req.Category
	}
	if req.Author != nil {
		fields["author"] = *req.Author
	}
	if req.Image != nil {
		fields["image"] = *req.Image
	}
	if req.Draft != nil {
		fields["draft"] = *req.Draft
	}
	if req.Published != nil {
		fields["published"] = *req.Published
	}
	if len(fields) > 0 || req.Content != nil {
		fields["updateDate"] = now
	}
	return fields
}

// Update merges the provided fields into the stored document (editor
// role). Absent fields are left untouched.
func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	doc, err := h.DB.PostByID(r.Context(), id)
	if err != nil {
		log.Println("post update:", err)
		http.Error(w, `{"error":"failed to load post"}`, http.StatusInternalServerError)
		return
	}
	if doc == nil {
		http.Error(w, `{"error":"post not found"}`, http.StatusNotFound)
		return
	}

	fields := req.metadataUpdates(time.Now())
	if len(fields) > 0 {
		if err := h.DB.UpdatePostMetadata(r.Context(), id, fields); err != nil {
			log.Println("post update:", err)
			http.Error(w, `{"error":"failed to update post"}`, http.StatusInternalServerError)
			return
		}
	}
	if req.Content != nil {
		if err := h.DB.UpdatePostContent(r.Context(), id, *req.Content); err != nil {
			log.Println("post update content:", err)
			http.Error(w, `{"error":"failed to update post"}`, http.StatusInternalServerError)
			return
		}
	}
	h.Blog.Invalidate(doc.Lang)

	doc, err = h.DB.PostByID(r.Context(), id)
	if err != nil || doc == nil {
		http.Error(w, `{"error":"failed to load post"}`, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, h.Blog.Normalize(*doc))
}

// Delete removes a post document (admin role).
func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.DB.PostByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"failed to load post"}`, http.StatusInternalServerError)
		return
	}
	if doc == nil {
		http.Error(w, `{"error":"post not found"}`, http.StatusNotFound)
		return
	}
	if err := h.DB.DeletePost(r.Context(), id); err != nil {
		log.Println("post delete:", err)
		http.Error(w, `{"error":"failed to delete post"}`, http.StatusInternalServerError)
		return
	}
	h.Blog.Invalidate(doc.Lang)
	w.WriteHeader(http.StatusNoContent)
}

func parsePositiveInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
