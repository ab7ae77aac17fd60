// Package memstore provides in-memory user, post, and image stores with the
// same contracts as the Mongo, Postgres, and object-storage backends. Handler
// and router tests run against them.
package memstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/feed-api/internal/models"
	"github.com/ayush/feed-api/internal/store"
)

type UserStore struct {
	mu    sync.Mutex
	users map[string]*models.User

	// AddPostErr, when set, is returned by AddPost.
	AddPostErr error
	// RemovePostErr, when set, is returned by RemovePost.
	RemovePostErr error
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*models.User)}
}

func (s *UserStore) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID().Hex()
	u.CreatedAt = time.Now().UTC()
	u.Posts = []string{}
	s.users[u.ID] = clone(u)
	return nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *UserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(u), nil
}

func (s *UserStore) AddPost(ctx context.Context, userID, postID string) error {
	if s.AddPostErr != nil {
		return s.AddPostErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.Posts = append(u.Posts, postID)
	return nil
}

func (s *UserStore) RemovePost(ctx context.Context, userID, postID string) error {
	if s.RemovePostErr != nil {
		return s.RemovePostErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	kept := u.Posts[:0]
	for _, p := range u.Posts {
		if p != postID {
			kept = append(kept, p)
		}
	}
	u.Posts = kept
	return nil
}

func (s *UserStore) SetStatus(ctx context.Context, userID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.Status = status
	return nil
}

func clone(u *models.User) *models.User {
	c := *u
	c.Posts = append([]string(nil), u.Posts...)
	return &c
}

type PostStore struct {
	mu    sync.Mutex
	seq   int
	posts map[string]*entry

	// InsertErr, when set, is returned by Insert.
	InsertErr error
}

type entry struct {
	post models.Post
	seq  int
}

func NewPostStore() *PostStore {
	return &PostStore{posts: make(map[string]*entry)}
}

func (s *PostStore) Insert(ctx context.Context, p *models.Post) error {
	if s.InsertErr != nil {
		return s.InsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID().Hex()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.posts[p.ID] = &entry{post: *p, seq: s.seq}
	return nil
}

func (s *PostStore) GetByID(ctx context.Context, id string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p := e.post
	return &p, nil
}

// List orders newest-first; insertion order breaks timestamp ties.
func (s *PostStore) List(ctx context.Context, skip, limit int) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*entry, 0, len(s.posts))
	for _, e := range s.posts {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].post.CreatedAt.Equal(all[j].post.CreatedAt) {
			return all[i].post.CreatedAt.After(all[j].post.CreatedAt)
		}
		return all[i].seq > all[j].seq
	})
	out := []models.Post{}
	for i := skip; i < len(all) && len(out) < limit; i++ {
		out = append(out, all[i].post)
	}
	return out, nil
}

func (s *PostStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.posts)), nil
}

func (s *PostStore) Update(ctx context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.posts[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	e.post.Title = p.Title
	e.post.Content = p.Content
	e.post.ImageURL = p.ImageURL
	e.post.UpdatedAt = p.UpdatedAt
	return nil
}

func (s *PostStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

type ImageStore struct {
	mu      sync.Mutex
	objects map[string]object

	// RemoveErr, when set, is returned by Remove.
	RemoveErr error
}

type object struct {
	data        []byte
	contentType string
}

func NewImageStore() *ImageStore {
	return &ImageStore{objects: make(map[string]object)}
}

func (s *ImageStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	if _, err := store.ImageName(name); err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := store.ImageRef(name)
	s.objects[ref] = object{data: data, contentType: contentType}
	return ref, nil
}

func (s *ImageStore) Open(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[ref]
	if !ok {
		return nil, "", store.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

func (s *ImageStore) Remove(ctx context.Context, ref string) error {
	if s.RemoveErr != nil {
		return s.RemoveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[ref]; !ok {
		return store.ErrNotFound
	}
	delete(s.objects, ref)
	return nil
}

// Has reports whether ref is stored.
func (s *ImageStore) Has(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[ref]
	return ok
}

// Len is the number of stored images.
func (s *ImageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
