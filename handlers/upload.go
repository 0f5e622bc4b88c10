package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lumenstudio/lumen/backend/service"
)

// UploadHandler stores post images in S3 for the dashboard editor.
type UploadHandler struct {
	S3       *service.S3Service
	MaxBytes int64
}

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".svg":  true,
}

type UploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Upload accepts a multipart image and returns the stored key plus a
// presigned URL the editor can paste into the post's image field.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.S3 == nil {
		http.Error(w, `{"error":"upload not configured (missing S3)"}`, http.StatusServiceUnavailable)
		return
	}
	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		http.Error(w, `{"error":"failed to parse multipart form"}`, http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"error":"missing file"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(strings.TrimSpace(filepath.Ext(header.Filename)))
	contentType := header.Header.Get("Content-Type")
	if !allowedImageExts[ext] && !strings.HasPrefix(contentType, "image/") {
		http.Error(w, `{"error":"only image files are allowed"}`, http.StatusBadRequest)
		return
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key, err := h.S3.Upload(r.Context(), "images/", header.Filename, file, contentType)
	if err != nil {
		http.Error(w, `{"error":"failed to upload to storage"}`, http.StatusInternalServerError)
		return
	}
	url, err := h.S3.PresignedGetURL(r.Context(), key, 24*time.Hour)
	if err != nil {
		http.Error(w, `{"error":"failed to sign image url"}`, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, UploadResponse{Key: key, URL: url})
}

// Serve streams a stored image straight from the bucket (public so img
// src works without a presigned URL).
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if h.S3 == nil {
		http.Error(w, `{"error":"upload not configured (missing S3)"}`, http.StatusServiceUnavailable)
		return
	}
	key := chi.URLParam(r, "*")
	if key == "" {
		http.Error(w, `{"error":"missing file key"}`, http.StatusBadRequest)
		return
	}
	body, contentType, err := h.S3.GetObject(r.Context(), key)
	if err != nil {
		http.Error(w, `{"error":"file not found"}`, http.StatusNotFound)
		return
	}
	defer body.Close()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	io.Copy(w, body)
}

// Delete removes a stored image from the bucket (admin only).
func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.S3 == nil {
		http.Error(w, `{"error":"upload not configured (missing S3)"}`, http.StatusServiceUnavailable)
		return
	}
	key := chi.URLParam(r, "*")
	if key == "" {
		http.Error(w, `{"error":"missing file key"}`, http.StatusBadRequest)
		return
	}
	if err := h.S3.Delete(r.Context(), key); err != nil {
		http.Error(w, `{"error":"failed to delete file"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
