package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lumenstudio/lumen/backend/config"
	"github.com/lumenstudio/lumen/backend/handlers"
	"github.com/lumenstudio/lumen/backend/middleware"
	"github.com/lumenstudio/lumen/backend/models"
	"github.com/lumenstudio/lumen/backend/service"
	"github.com/lumenstudio/lumen/backend/store"
)

func main() {
	_ = godotenv.Load()
	config.ValidateEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatal("mongodb:", err)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Println("mongodb disconnect:", err)
		}
	}()

	var s3Service *service.S3Service
	if cfg.S3Bucket != "" {
		s3Service, err = service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			log.Fatal("s3:", err)
		}
	} else {
		log.Println("warning: AWS_S3_BUCKET not set; image uploads will fail")
	}

	sessions := service.NewSessionStore(db)
	sessions.Subscribe(func(s service.Session) {
		switch s.State {
		case service.SessionAuthenticated:
			log.Printf("session: %s signed in as %s", s.User.Email, s.User.Role)
		case service.SessionAnonymous:
			log.Println("session: signed out")
		}
	})

	blog := service.NewBlogService(db, cfg.PermalinkPattern)

	authHandler := &handlers.AuthHandler{
		DB:        db,
		Sessions:  sessions,
		JWTSecret: cfg.JWTSecret,
	}
	usersHandler := &handlers.UsersHandler{DB: db, Sessions: sessions}
	postsHandler := &handlers.PostsHandler{
		DB:          db,
		Blog:        blog,
		PageSize:    cfg.PostsPerPage,
		DefaultLang: cfg.DefaultLang,
		Langs:       cfg.Langs,
	}
	contentHandler := &handlers.ContentHandler{Dir: cfg.ContentDir}
	uploadHandler := &handlers.UploadHandler{
		S3:       s3Service,
		MaxBytes: cfg.MaxUploadMB * 1024 * 1024,
	}

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"welcome to lumen."}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/signup", authHandler.Signup)

		// Public blog endpoints
		r.Get("/posts", postsHandler.List)
		r.Get("/posts/latest", postsHandler.Latest)
		r.Get("/posts/search", postsHandler.Search)
		r.Get("/posts/categories", postsHandler.Categories)
		r.Get("/posts/category/{category}", postsHandler.ByCategory)
		r.Get("/posts/tag/{tag}", postsHandler.ByTag)
		r.Get("/posts/{slug}", postsHandler.Get)
		r.Get("/posts/{slug}/related", postsHandler.Related)
		r.Get("/files/*", uploadHandler.Serve)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			// Editor dashboard
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleEditor, cfg.LoginRedirect))
				r.Post("/posts", postsHandler.Create)
				r.Patch("/posts/{id}", postsHandler.Update)
				r.Post("/upload", uploadHandler.Upload)
				r.Post("/content", contentHandler.Create)
				r.Get("/content", contentHandler.List)
			})

			// Admin
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin, cfg.LoginRedirect))
				r.Delete("/posts/{id}", postsHandler.Delete)
				r.Delete("/files/*", uploadHandler.Delete)
				r.Get("/stats", usersHandler.Stats)
				r.Post("/users", usersHandler.CreateUser)
				r.Get("/users", usersHandler.ListUsers)
				r.Patch("/users/{uid}", usersHandler.UpdateUser)
				r.Patch("/users/{uid}/role", usersHandler.SetRole)
				r.Delete("/users/{uid}", usersHandler.DeleteUser)
			})
		})
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Println("server listening on :" + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("shutdown:", err)
	}
}
