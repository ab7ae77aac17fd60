package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/feed-api/internal/models"
)

type userDoc struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Email     string               `bson:"email"`
	Password  string               `bson:"password"`
	Name      string               `bson:"name"`
	Status    string               `bson:"status"`
	Posts     []primitive.ObjectID `bson:"posts"`
	CreatedAt time.Time            `bson:"createdAt"`
}

func (d *userDoc) model() *models.User {
	posts := make([]string, 0, len(d.Posts))
	for _, p := range d.Posts {
		posts = append(posts, p.Hex())
	}
	return &models.User{
		ID:        d.ID.Hex(),
		Email:     d.Email,
		Password:  d.Password,
		Name:      d.Name,
		Status:    d.Status,
		Posts:     posts,
		CreatedAt: d.CreatedAt,
	}
}

type postDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	ImageURL  string             `bson:"imageUrl"`
	Creator   string             `bson:"creator"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *postDoc) model() *models.Post {
	return &models.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		ImageURL:  d.ImageURL,
		Creator:   d.Creator,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// EnsureIndexes creates the unique email index and the feed ordering index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	_, err = db.Collection("posts").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("posts index: %w", err)
	}
	return nil
}

// MongoUserStore keeps accounts in the users collection.
type MongoUserStore struct {
	col *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection("users")}
}

func (s *MongoUserStore) CreateUser(ctx context.Context, u *models.User) error {
	doc := userDoc{
		Email:     u.Email,
		Password:  u.Password,
		Name:      u.Name,
		Status:    u.Status,
		Posts:     []primitive.ObjectID{},
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("mongo insert user: %w", err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID).Hex()
	u.CreatedAt = doc.CreatedAt
	u.Posts = []string{}
	return nil
}

func (s *MongoUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find user: %w", err)
	}
	return doc.model(), nil
}

// AddPost appends postID to the user's owned-post list.
func (s *MongoUserStore) AddPost(ctx context.Context, userID, postID string) error {
	pid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return fmt.Errorf("invalid post id: %w", err)
	}
	return s.update(ctx, userID, bson.M{"$push": bson.M{"posts": pid}})
}

// RemovePost pulls postID from the user's owned-post list.
func (s *MongoUserStore) RemovePost(ctx context.Context, userID, postID string) error {
	pid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return fmt.Errorf("invalid post id: %w", err)
	}
	return s.update(ctx, userID, bson.M{"$pull": bson.M{"posts": pid}})
}

func (s *MongoUserStore) SetStatus(ctx context.Context, userID, status string) error {
	return s.update(ctx, userID, bson.M{"$set": bson.M{"status": status}})
}

func (s *MongoUserStore) update(ctx context.Context, userID string, change bson.M) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, change)
	if err != nil {
		return fmt.Errorf("mongo update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoPostStore keeps feed posts in the posts collection.
type MongoPostStore struct {
	col *mongo.Collection
}

func NewMongoPostStore(db *mongo.Database) *MongoPostStore {
	return &MongoPostStore{col: db.Collection("posts")}
}

func (s *MongoPostStore) Insert(ctx context.Context, p *models.Post) error {
	now := time.Now().UTC()
	doc := postDoc{
		Title:     p.Title,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		Creator:   p.Creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("mongo insert post: %w", err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (s *MongoPostStore) GetByID(ctx context.Context, id string) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc postDoc
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("mongo find post: %w", err)
	}
	return doc.model(), nil
}

// List returns up to limit posts newest-first, skipping the first skip.
func (s *MongoPostStore) List(ctx context.Context, skip, limit int) ([]models.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list posts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode posts: %w", err)
	}
	posts := make([]models.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, *docs[i].model())
	}
	return posts, nil
}

func (s *MongoPostStore) Count(ctx context.Context) (int64, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("mongo count posts: %w", err)
	}
	return n, nil
}

// Update writes the mutable fields of p and refreshes UpdatedAt.
func (s *MongoPostStore) Update(ctx context.Context, p *models.Post) error {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":     p.Title,
		"content":   p.Content,
		"imageUrl":  p.ImageURL,
		"updatedAt": now,
	}})
	if err != nil {
		return fmt.Errorf("mongo update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	p.UpdatedAt = now
	return nil
}

func (s *MongoPostStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
