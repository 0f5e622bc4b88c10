package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lumenstudio/lumen/backend/middleware"
	"github.com/lumenstudio/lumen/backend/models"
	"github.com/lumenstudio/lumen/backend/service"
	"github.com/lumenstudio/lumen/backend/store"
	"golang.org/x/crypto/bcrypt"
)

type UsersHandler struct {
	DB       *store.DB
	Sessions *service.SessionStore
}

type CreateUserRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type UserResponse struct {
	UID       string      `json:"uid"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt string      `json:"createdAt"`
}

type SetRoleRequest struct {
	Role models.Role `json:"role"`
}

func userToResponse(u *models.User) UserResponse {
	return UserResponse{
		UID:       u.UID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// CreateUser creates a dashboard account (admin only). Role must be one
// of the defined roles; admin accounts cannot be minted through the API.
func (h *UsersHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, `{"error":"email and password required"}`, http.StatusBadRequest)
		return
	}
	role := models.Role(strings.TrimSpace(strings.ToLower(string(req.Role))))
	if role == "" {
		role = models.DefaultRole
	}
	if role == models.RoleAdmin {
		http.Error(w, `{"error":"cannot create admin user via API"}`, http.StatusBadRequest)
		return
	}
	if !role.Valid() {
		http.Error(w, `{"error":"invalid role; use viewer or editor"}`, http.StatusBadRequest)
		return
	}
	existing, err := h.DB.UserByEmail(r.Context(), req.Email)
	if err != nil {
		http.Error(w, `{"error":"failed to create user"}`, http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, `{"error":"email already in use"}`, http.StatusConflict)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, `{"error":"failed to create user"}`, http.StatusInternalServerError)
		return
	}
	user := &models.User{
		UID:       uuid.New().String(),
		Email:     req.Email,
		Password:  string(hash),
		Role:      role,
		CreatedAt: time.Now(),
	}
	if _, err := h.DB.CreateUser(r.Context(), user); err != nil {
		http.Error(w, `{"error":"failed to create user"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(userToResponse(user))
}

// ListUsers returns all users (admin only). Password is omitted via json:"-".
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.DB.ListUsers(r.Context())
	if err != nil {
		http.Error(w, `{"error":"failed to list users"}`, http.StatusInternalServerError)
		return
	}
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userToResponse(&users[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// SetRole changes a user's role (admin only). Demoting the last admin is
// rejected. The session store refreshes in-memory state when the target
// is the currently authenticated identity.
func (h *UsersHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	var req SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	role := models.Role(strings.TrimSpace(strings.ToLower(string(req.Role))))
	if !role.Valid() {
		http.Error(w, `{"error":"invalid role"}`, http.StatusBadRequest)
		return
	}
	user, err := h.DB.UserByUID(r.Context(), uid)
	if err != nil || user == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	if user.Role == models.RoleAdmin && role != models.RoleAdmin {
		count, err := h.DB.AdminsCount(r.Context())
		if err != nil {
			http.Error(w, `{"error":"failed to update role"}`, http.StatusInternalServerError)
			return
		}
		if count <= 1 {
			http.Error(w, `{"error":"cannot demote the last admin user"}`, http.StatusBadRequest)
			return
		}
	}
	if err := h.Sessions.SetRole(r.Context(), uid, role); err != nil {
		http.Error(w, `{"error":"failed to update role"}`, http.StatusInternalServerError)
		return
	}
	user.Role = role
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userToResponse(user))
}

type UpdateUserRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UpdateUser updates a user's credentials by UID (admin only). Body:
// { "email"?, "password"? }. Role changes go through SetRole.
func (h *UsersHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	user, err := h.DB.UserByUID(r.Context(), uid)
	if err != nil || user == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	var newEmail *string
	if req.Email != nil {
		e := strings.TrimSpace(strings.ToLower(*req.Email))
		if e == "" {
			http.Error(w, `{"error":"email cannot be empty"}`, http.StatusBadRequest)
			return
		}
		existing, _ := h.DB.UserByEmail(r.Context(), e)
		if existing != nil && existing.UID != uid {
			http.Error(w, `{"error":"email already in use"}`, http.StatusConflict)
			return
		}
		newEmail = &e
		user.Email = e
	}
	var newHash *string
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, `{"error":"failed to update user"}`, http.StatusInternalServerError)
			return
		}
		s := string(hash)
		newHash = &s
	}
	if err := h.DB.UpdateUser(r.Context(), user.ID, newEmail, newHash); err != nil {
		http.Error(w, `{"error":"failed to update user"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userToResponse(user))
}

// Stats returns dashboard counters (admin only).
func (h *UsersHandler) Stats(w http.ResponseWriter, r *http.Request) {
	users, err := h.DB.UsersCount(r.Context())
	if err != nil {
		http.Error(w, `{"error":"failed to load stats"}`, http.StatusInternalServerError)
		return
	}
	posts, err := h.DB.PublishedCount(r.Context(), "")
	if err != nil {
		http.Error(w, `{"error":"failed to load stats"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"users": users, "posts": posts})
}

// DeleteUser deletes a user by UID (admin only). Prevents deleting self
// and the last admin.
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	currentUID, ok := middleware.UserUIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	if currentUID == uid {
		http.Error(w, `{"error":"cannot delete your own account"}`, http.StatusBadRequest)
		return
	}
	user, err := h.DB.UserByUID(r.Context(), uid)
	if err != nil || user == nil {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	if user.Role == models.RoleAdmin {
		count, err := h.DB.AdminsCount(r.Context())
		if err != nil {
			http.Error(w, `{"error":"failed to delete user"}`, http.StatusInternalServerError)
			return
		}
		if count <= 1 {
			http.Error(w, `{"error":"cannot delete the last admin user"}`, http.StatusBadRequest)
			return
		}
	}
	if err := h.DB.DeleteUser(r.Context(), user.ID); err != nil {
		http.Error(w, `{"error":"failed to delete user"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
