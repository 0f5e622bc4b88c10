package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port             string
	MongoURI         string
	DBName           string
	JWTSecret        string
	S3Bucket         string
	S3Region         string
	S3AccessKeyID    string
	S3SecretKey      string
	ContentDir       string
	PostsPerPage     int
	PermalinkPattern string
	DefaultLang      string
	Langs            []string
	LoginRedirect    string
	MaxUploadMB      int64
}

func Load() (*Config, error) {
	_ = os.Setenv("AWS_REGION", getEnv("AWS_REGION", "us-east-1"))

	perPage := 10
	if v := getEnv("BLOG_POSTS_PER_PAGE", "10"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			perPage = n
		}
	}
	maxMB := int64(10)
	if v := getEnv("MAX_UPLOAD_MB", "10"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxMB = n
		}
	}
	langs := []string{}
	for _, l := range strings.Split(getEnv("SITE_LANGS", "it,en"), ",") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		MongoURI:         getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:           getEnv("MONGODB_DB", "lumen"),
		JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production"),
		S3Bucket:         getEnv("AWS_S3_BUCKET", ""),
		S3Region:         getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID:    getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
		ContentDir:       getEnv("CONTENT_DIR", "data/post"),
		PostsPerPage:     perPage,
		PermalinkPattern: getEnv("POST_PERMALINK_PATTERN", "%slug%"),
		DefaultLang:      getEnv("SITE_DEFAULT_LANG", "it"),
		Langs:            langs,
		LoginRedirect:    getEnv("LOGIN_REDIRECT", "/login"),
		MaxUploadMB:      maxMB,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// RequiredEnvVars are checked at startup; app exits if any are unset.
var RequiredEnvVars = []string{
	"MONGODB_URI",
	"MONGODB_DB",
	"JWT_SECRET",
}

// OptionalEnvVars are logged at startup so you can confirm they are loaded when set.
var OptionalEnvVars = []string{
	"PORT",
	"AWS_S3_BUCKET",
	"AWS_REGION",
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
	"CONTENT_DIR",
	"BLOG_POSTS_PER_PAGE",
	"POST_PERMALINK_PATTERN",
	"SITE_DEFAULT_LANG",
	"SITE_LANGS",
	"LOGIN_REDIRECT",
}

// ValidateEnv checks that all required env vars are set and logs status of
// required + optional. Calls log.Fatal if any required var is missing.
func ValidateEnv() {
	var missing []string
	for _, key := range RequiredEnvVars {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		} else {
			log.Printf("env %s loaded", key)
		}
	}
	if len(missing) > 0 {
		log.Fatalf("missing required env: %s (set these in .env or environment)", strings.Join(missing, ", "))
	}
	for _, key := range OptionalEnvVars {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			log.Printf("env %s not set (optional)", key)
			continue
		}
		if key == "AWS_ACCESS_KEY_ID" || key == "AWS_SECRET_ACCESS_KEY" {
			log.Printf("env %s loaded", key)
		} else {
			log.Printf("env %s = %s", key, v)
		}
	}
	if j := os.Getenv("JWT_SECRET"); j == "change-me-in-production" {
		log.Fatal("JWT_SECRET must be set to a strong secret (not the default change-me-in-production)")
	}
}
