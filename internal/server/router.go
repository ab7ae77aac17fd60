// Package server assembles the HTTP routes of the feed API.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayush/feed-api/internal/apperr"
	"github.com/ayush/feed-api/internal/auth"
	"github.com/ayush/feed-api/internal/feed"
	"github.com/ayush/feed-api/internal/logger"
	"github.com/ayush/feed-api/internal/middleware"
	"github.com/ayush/feed-api/internal/respond"
	"github.com/ayush/feed-api/internal/store"
)

// UserStore is everything the auth and feed handlers need from the
// credential store.
type UserStore interface {
	auth.UserStore
	feed.UserStore
}

// ImageStore stores uploads and serves them back under /images/.
type ImageStore interface {
	feed.ImageStore
	Open(ctx context.Context, ref string) (io.ReadCloser, string, error)
}

// Revocations is the logout blacklist. It is optional.
type Revocations interface {
	auth.Revoker
	middleware.RevocationChecker
}

type Deps struct {
	Users       UserStore
	Posts       feed.PostStore
	Images      ImageStore
	Tokens      *auth.TokenService
	Hasher      auth.PasswordHasher
	Revocations Revocations
	Log         *logger.Logger

	FeedPageSize   int
	MaxUploadBytes int64
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter wires handlers, middleware, and routes.
func NewRouter(d Deps) http.Handler {
	var (
		revoker auth.Revoker
		checker middleware.RevocationChecker
	)
	if d.Revocations != nil {
		revoker, checker = d.Revocations, d.Revocations
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 10 * time.Second
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	authHandler := auth.NewHandler(d.Users, d.Hasher, d.Tokens, revoker, d.Log)
	feedHandler := feed.NewHandler(d.Posts, d.Users, d.Images, feed.Options{
		PageSize:       d.FeedPageSize,
		MaxUploadBytes: d.MaxUploadBytes,
	}, d.Log)
	requireAuth := middleware.RequireAuth(d.Tokens, checker, d.Log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Observe(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(d.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"OPTIONS", "GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, r, d.Log, apperr.NotFound("Not found."))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/images/*", serveImage(d.Images, d.Log))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.With(requireAuth).Post("/logout", authHandler.Logout)
	})

	r.Route("/feed", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/status", feedHandler.GetStatus)
		r.Put("/status", feedHandler.UpdateStatus)
		r.Get("/posts", feedHandler.ListPosts)
		r.Post("/post", feedHandler.CreatePost)
		r.Get("/post/{postId}", feedHandler.GetPost)
		r.Put("/post/{postId}", feedHandler.UpdatePost)
		r.Delete("/post/{postId}", feedHandler.DeletePost)
	})

	return r
}

func serveImage(images ImageStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := store.ImageRef(chi.URLParam(r, "*"))
		if _, err := store.ImageName(ref); err != nil {
			respond.Error(w, r, log, apperr.NotFound("Image not found."))
			return
		}

		body, contentType, err := images.Open(r.Context(), ref)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				err = apperr.NotFound("Image not found.")
			}
			respond.Error(w, r, log, err)
			return
		}
		defer body.Close()

		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		if _, err := io.Copy(w, body); err != nil {
			log.WithFields(r.Context(), logger.Fields{"image": ref}).Warnf("stream image: %v", err)
		}
	}
}
