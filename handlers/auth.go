package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lumenstudio/lumen/backend/middleware"
	"github.com/lumenstudio/lumen/backend/models"
	"github.com/lumenstudio/lumen/backend/service"
	"github.com/lumenstudio/lumen/backend/store"
	"golang.org/x/crypto/bcrypt"
)

// Auth failures carry a provider-style code; the table maps them to the
// user-facing message. Unmapped codes fall back to the raw code text.
const (
	errUserNotFound    = "auth/user-not-found"
	errWrongPassword   = "auth/wrong-password"
	errEmailInUse      = "auth/email-already-in-use"
	errWeakPassword    = "auth/weak-password"
	errInvalidEmail    = "auth/invalid-email"
	errTooManyRequests = "auth/too-many-requests"
	errNetworkRequest  = "auth/network-request-failed"
)

var authErrorMessages = map[string]string{
	errUserNotFound:    "No account found for this email",
	errWrongPassword:   "Incorrect password",
	errEmailInUse:      "Email is already in use",
	errWeakPassword:    "Password is too weak (minimum 6 characters)",
	errInvalidEmail:    "Invalid email address",
	errTooManyRequests: "Too many failed attempts. Try again later",
	errNetworkRequest:  "Connection error. Check your network and retry",
}

func translateAuthError(code string) string {
	if msg, ok := authErrorMessages[code]; ok {
		return msg
	}
	return code
}

func authError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   translateAuthError(code),
	})
}

type AuthHandler struct {
	DB        *store.DB
	Sessions  *service.SessionStore
	JWTSecret string
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	UID     string      `json:"uid"`
	Email   string      `json:"email"`
	Role    models.Role `json:"role"`
}

// Login authenticates with email/password and returns a JWT carrying the
// resolved role.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email, password, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	user, err := h.DB.UserByEmail(r.Context(), email)
	if err != nil {
		log.Println("login:", err)
		authError(w, http.StatusInternalServerError, errNetworkRequest)
		return
	}
	if user == nil {
		authError(w, http.StatusUnauthorized, errUserNotFound)
		return
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		authError(w, http.StatusUnauthorized, errWrongPassword)
		return
	}
	if err := h.Sessions.Apply(r.Context(), &service.Identity{UID: user.UID, Email: user.Email}); err != nil {
		log.Println("login session:", err)
		authError(w, http.StatusInternalServerError, errNetworkRequest)
		return
	}
	h.respondWithToken(w, h.Sessions.Current().User)
}

// Signup registers a new account. The profile record is created through
// the session store's insert-if-absent path, so a concurrent first login
// for the same identity cannot produce a duplicate.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	email, password, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	if len(password) < 6 {
		authError(w, http.StatusBadRequest, errWeakPassword)
		return
	}
	existing, err := h.DB.UserByEmail(r.Context(), email)
	if err != nil {
		log.Println("signup:", err)
		authError(w, http.StatusInternalServerError, errNetworkRequest)
		return
	}
	if existing != nil {
		authError(w, http.StatusConflict, errEmailInUse)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		authError(w, http.StatusInternalServerError, errNetworkRequest)
		return
	}
	user := &models.User{
		UID:       uuid.New().String(),
		Email:     email,
		Password:  string(hash),
		Role:      models.DefaultRole,
		CreatedAt: time.Now(),
	}
	if _, err := h.DB.CreateUser(r.Context(), user); err != nil {
		log.Println("signup create:", err)
		authError(w, http.StatusInternalServerError, errNetworkRequest)
		return
	}
	if err := h.Sessions.Apply(r.Context(), &service.Identity{UID: user.UID, Email: user.Email}); err != nil {
		log.Println("signup session:", err)
		authError(w, http.StatusInternalServerError, errNetworkRequest)
		return
	}
	h.respondWithToken(w, user)
}

// Logout clears the observable session. The token itself simply expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Apply(r.Context(), nil); err != nil {
		authError(w, http.StatusInternalServerError, errNetworkRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// Me returns the profile behind the bearer token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserUIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	user, err := h.DB.UserByUID(r.Context(), uid)
	if err != nil {
		http.Error(w, `{"error":"failed to load profile"}`, http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, `{"error":"profile not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (email, password string, ok bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return "", "", false
	}
	email = strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		authError(w, http.StatusBadRequest, errInvalidEmail)
		return "", "", false
	}
	if req.Password == "" {
		authError(w, http.StatusBadRequest, errWrongPassword)
		return "", "", false
	}
	return email, req.Password, true
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, user *models.User) {
	token, err := h.createToken(user)
	if err != nil {
		authError(w, http.StatusInternalServerError, errNetworkRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{
		Success: true,
		Token:   token,
		UID:     user.UID,
		Email:   user.Email,
		Role:    user.Role,
	})
}

func (h *AuthHandler) createToken(user *models.User) (string, error) {
	claims := &middleware.Claims{
		UID:   user.UID,
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour * 7)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.JWTSecret))
}
