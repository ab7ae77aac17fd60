package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/feed-api/internal/apperr"
	"github.com/ayush/feed-api/internal/auth"
	"github.com/ayush/feed-api/internal/logger"
	"github.com/ayush/feed-api/internal/metrics"
	"github.com/ayush/feed-api/internal/models"
	"github.com/ayush/feed-api/internal/respond"
	"github.com/ayush/feed-api/internal/store"
	"github.com/ayush/feed-api/internal/validate"
)

// PostStore defines the interface for post persistence.
type PostStore interface {
	Insert(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, skip, limit int) ([]models.Post, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, p *models.Post) error
	Delete(ctx context.Context, id string) error
}

// UserStore is the slice of the credential store the feed needs.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	AddPost(ctx context.Context, userID, postID string) error
	RemovePost(ctx context.Context, userID, postID string) error
	SetStatus(ctx context.Context, userID, status string) error
}

// ImageStore defines the interface for image file storage.
type ImageStore interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, ref string) error
}

type Options struct {
	PageSize       int
	MaxUploadBytes int64
}

// Handler holds feed HTTP handlers.
type Handler struct {
	posts  PostStore
	users  UserStore
	images ImageStore
	opts   Options
	log    *logger.Logger
}

func NewHandler(posts PostStore, users UserStore, images ImageStore, opts Options, log *logger.Logger) *Handler {
	if opts.PageSize < 1 {
		opts.PageSize = 2
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Handler{posts: posts, users: users, images: images, opts: opts, log: log}
}

var postMessages = map[string]string{
	"title":   "Title must be at least 5 characters long.",
	"content": "Content must be at least 5 characters long.",
}

// ListPosts returns one page of the feed, newest first.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	// keeps the skip below from overflowing
	if maxPage := math.MaxInt / h.opts.PageSize; page > maxPage {
		page = maxPage
	}

	total, err := h.posts.Count(ctx)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	posts, err := h.posts.List(ctx, (page-1)*h.opts.PageSize, h.opts.PageSize)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	views, err := h.withCreators(ctx, posts)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"message":    "Fetched posts successfully.",
		"posts":      views,
		"totalItems": total,
	})
}

// CreatePost stores the uploaded image, the post, and the owner back-reference.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserID(ctx)

	form, err := parsePostForm(w, r, h.opts.MaxUploadBytes)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	defer form.cleanup()

	if err := validatePost(form); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	img, err := inspectImage(form.file)
	if err != nil {
		respond.Error(w, r, h.log, imageError(err))
		return
	}

	creator, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		respond.Error(w, r, h.log, notFound(err, "Could not find user."))
		return
	}

	ref, err := h.saveImage(ctx, img)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	post := &models.Post{
		Title:    form.Title,
		Content:  form.Content,
		ImageURL: ref,
		Creator:  creator.ID,
	}
	if err := h.posts.Insert(ctx, post); err != nil {
		h.removeImage(context.WithoutCancel(ctx), ref)
		respond.Error(w, r, h.log, err)
		return
	}
	if err := h.users.AddPost(ctx, creator.ID, post.ID); err != nil {
		cleanup := context.WithoutCancel(ctx)
		if derr := h.posts.Delete(cleanup, post.ID); derr != nil {
			h.log.WithFields(ctx, logger.Fields{"post_id": post.ID}).Errorf("rollback post insert: %v", derr)
		}
		h.removeImage(cleanup, ref)
		respond.Error(w, r, h.log, err)
		return
	}

	metrics.PostsCreatedTotal.Inc()
	respond.JSON(w, http.StatusCreated, map[string]any{
		"message": "Post created successfully!",
		"post":    models.PostView{Post: *post, Creator: creator.Creator()},
		"creator": creator.Creator(),
	})
}

// GetPost returns a single post.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetByID(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		respond.Error(w, r, h.log, notFound(err, "Could not find post."))
		return
	}
	views, err := h.withCreators(r.Context(), []models.Post{*post})
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Post fetched.",
		"post":    views[0],
	})
}

// UpdatePost edits a post owned by the caller. A new upload replaces the
// image and the previous file is removed best-effort.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserID(ctx)

	form, err := parsePostForm(w, r, h.opts.MaxUploadBytes)
	if err != nil {
		respond.Error(w, r, h.log, err)
		return
	}
	defer form.cleanup()

	if err := validatePost(form); err != nil {
		respond.Error(w, r, h.log, err)
		return
	}

	// A rejected upload is dropped in favour of the text reference, if any.
	var img *image
	if form.file != nil {
		img, err = inspectImage(form.file)
		if err != nil && (!errors.Is(err, errNoImage) || form.ImageRef == "") {
			respond.Error(w, r, h.log, imageError(err))
			return
		}
	} else if form.ImageRef == "" {
		respond.Error(w, r, h.log, apperr.Validation("No file picked.", nil))
		return
	}

	post, err := h.posts.GetByID(ctx, chi.URLParam(r, "postId"))
	if err != nil {
		respond.Error(w, r, h.log, notFound(err, "Could not find post."))
		return
	}
	if post.Creator != userID {
		respond.Error(w, r, h.log, apperr.Forbidden("Not authorized!"))
		return
	}
	if img == nil && form.ImageRef != post.ImageURL {
		respond.Error(w, r, h.log, apperr.Validation("Image reference does not match post.", nil))
		return
	}

	oldRef := post.ImageURL
	if img != nil {
		ref, err := h.saveImage(ctx, img)
		if err != nil {
			respond.Error(w, r, h.log, err)
			return
		}
		post.ImageURL = ref
	}
	post.Title = form.Title
	post.Content = form.Content

	if err := h.posts.Update(ctx, post); err != nil {
		if img != nil {
			h.removeImage(context.WithoutCancel(ctx), post.ImageURL)
		}
		respond.Error(w, r, h.log, notFound(err, "Could not find post."))
		return
	}
	if post.ImageURL != oldRef {
		h.removeImage(ctx, oldRef)
	}

	creator, err := h.users.GetUserByID(ctx, post.Creator)
	if err != nil {
		respond.Error(w, r, h.log, notFound(err, "Could not find user."))
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"message": "Post updated!",
		"post":    models.PostView{Post: *post, Creator: creator.Creator()},
	})
}

// DeletePost removes a post owned by the caller, its image, and the owner
// back-reference.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.UserID(ctx)

	post, err := h.posts.GetByID(ctx, chi.URLParam(r, "postId"))
	if err != nil {
		respond.Error(w, r, h.log, notFound(err, "Could not find post."))
		return
	}
	if post.Creator != userID {
		respond.Error(w, r, h.log, apperr.Forbidden("Not authorized!"))
		return
	}

	h.removeImage(ctx, post.ImageURL)

	if err := h.posts.Delete(ctx, post.ID); err != nil {
		respond.Error(w, r, h.log, notFound(err, "Could not find post."))
		return
	}
	// The post is gone either way; a stale id in the owner's list is only logged.
	if err := h.users.RemovePost(ctx, userID, post.ID); err != nil {
		h.log.WithFields(ctx, logger.Fields{"post_id": post.ID, "user_id": userID}).
			Errorf("remove post from owner: %v", err)
	}

	metrics.PostsDeletedTotal.Inc()
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Deleted post."})
}

func validatePost(form *postForm) error {
	details, err := validate.Struct(models.PostInput{Title: form.Title, Content: form.Content}, postMessages)
	if err != nil {
		return apperr.Internal(err)
	}
	if len(details) > 0 {
		return apperr.Validation("Validation failed, entered data is incorrect.", details)
	}
	return nil
}

func imageError(err error) error {
	if errors.Is(err, errNoImage) {
		return apperr.Validation("No valid image provided.", nil)
	}
	return apperr.Internal(err)
}

func (h *Handler) saveImage(ctx context.Context, img *image) (string, error) {
	file, err := img.header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	ref, err := h.images.Save(ctx, img.name, file, img.header.Size, img.contentType)
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return ref, nil
}

// removeImage deletes an image file; failure is logged and never aborts the
// request.
func (h *Handler) removeImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	err := h.images.Remove(ctx, ref)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		h.log.WithFields(ctx, logger.Fields{"image": ref}).Debug("image already gone")
	default:
		metrics.ImageRemovalFailuresTotal.Inc()
		h.log.WithFields(ctx, logger.Fields{"image": ref}).Warnf("remove image: %v", err)
	}
}

// withCreators attaches creator display data, loading each user once.
func (h *Handler) withCreators(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	creators := make(map[string]models.Creator)
	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		c, ok := creators[p.Creator]
		if !ok {
			u, err := h.users.GetUserByID(ctx, p.Creator)
			switch {
			case err == nil:
				c = u.Creator()
			case errors.Is(err, store.ErrNotFound):
				c = models.Creator{ID: p.Creator}
			default:
				return nil, err
			}
			creators[p.Creator] = c
		}
		views = append(views, models.PostView{Post: p, Creator: c})
	}
	return views, nil
}

// notFound maps store.ErrNotFound to a 404 and passes other errors through.
func notFound(err error, message string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(message)
	}
	return err
}
