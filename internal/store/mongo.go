package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/acodylabs/platform/internal/model"
	"github.com/acodylabs/platform/pkg/logger"
)

const (
	collThreads  = "threads"
	collMessages = "messages"
	collAccounts = "users"
	collRequests = "project_requests"
)

// Mongo implements Store on a MongoDB database. Documents are decoded
// into the explicit model types and validated at this boundary rather
// than trusted to match the expected shape.
type Mongo struct {
	db     *mongo.Database
	client *mongo.Client
	logger *logger.Logger
}

// ConnectMongo connects to MongoDB and returns a Store bound to the
// named database.
func ConnectMongo(ctx context.Context, uri, database string, log *logger.Logger) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Mongo{
		db:     client.Database(database),
		client: client,
		logger: log,
	}, nil
}

// Close disconnects the underlying client.
func (s *Mongo) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping reports whether the database is reachable.
func (s *Mongo) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// InsertThread writes a new thread with server-assigned id and times.
func (s *Mongo) InsertThread(ctx context.Context, t *model.Thread) (*model.Thread, error) {
	stored := *t
	stored.ID = newID()
	stored.CreatedAt = time.Now().UTC()
	if stored.LastMessageAt.IsZero() {
		stored.LastMessageAt = stored.CreatedAt
	}

	if _, err := s.db.Collection(collThreads).InsertOne(ctx, &stored); err != nil {
		return nil, fmt.Errorf("failed to insert thread: %w", err)
	}
	return &stored, nil
}

// GetThread returns a thread by id.
func (s *Mongo) GetThread(ctx context.Context, id string) (*model.Thread, error) {
	var t model.Thread
	err := s.db.Collection(collThreads).FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("malformed thread document %s: %w", id, err)
	}
	return &t, nil
}

// FindClientThread returns the one-to-one thread containing clientID,
// or (nil, nil) when none exists.
func (s *Mongo) FindClientThread(ctx context.Context, clientID string) (*model.Thread, error) {
	filter := bson.M{"is_group": false, "participant_ids": clientID}

	var t model.Thread
	err := s.db.Collection(collThreads).FindOne(ctx, filter).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find client thread: %w", err)
	}
	return &t, nil
}

// FindGroupThread returns the shared group thread, or (nil, nil).
func (s *Mongo) FindGroupThread(ctx context.Context) (*model.Thread, error) {
	var t model.Thread
	err := s.db.Collection(collThreads).FindOne(ctx, bson.M{"is_group": true}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group thread: %w", err)
	}
	return &t, nil
}

// ThreadsByParticipant returns userID's threads, newest activity first.
func (s *Mongo) ThreadsByParticipant(ctx context.Context, userID string) ([]model.Thread, error) {
	filter := bson.M{"participant_ids": userID}
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}})

	cursor, err := s.db.Collection(collThreads).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	var threads []model.Thread
	if err := cursor.All(ctx, &threads); err != nil {
		return nil, fmt.Errorf("failed to decode threads: %w", err)
	}

	out := threads[:0]
	for _, t := range threads {
		if err := t.Validate(); err != nil {
			s.logger.Warn("skipping malformed thread document",
				zap.String("thread_id", t.ID), zap.Error(err))
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// SetLastMessage updates a thread's denormalized preview fields.
func (s *Mongo) SetLastMessage(ctx context.Context, threadID, text string, at time.Time) error {
	update := bson.M{"$set": bson.M{"last_message": text, "last_message_at": at}}

	res, err := s.db.Collection(collThreads).UpdateOne(ctx, bson.M{"_id": threadID}, update)
	if err != nil {
		return fmt.Errorf("failed to update last message: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertMessage appends a message with a server-assigned timestamp.
func (s *Mongo) InsertMessage(ctx context.Context, m *model.Message) (*model.Message, error) {
	stored := *m
	stored.ID = newID()
	stored.CreatedAt = time.Now().UTC()

	if _, err := s.db.Collection(collMessages).InsertOne(ctx, &stored); err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return &stored, nil
}

// MessagesByThread returns a thread's messages in creation order.
func (s *Mongo) MessagesByThread(ctx context.Context, threadID string) ([]model.Message, error) {
	filter := bson.M{"thread_id": threadID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := s.db.Collection(collMessages).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	var messages []model.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

// GetAccount returns an account by id.
func (s *Mongo) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	var a model.Account
	err := s.db.Collection(collAccounts).FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}

// ListAccountsByRole returns accounts with the given role, by name.
func (s *Mongo) ListAccountsByRole(ctx context.Context, role model.Role) ([]model.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := s.db.Collection(collAccounts).Find(ctx, bson.M{"role": role}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	var accounts []model.Account
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	return accounts, nil
}

// InsertRequest writes a new project request.
func (s *Mongo) InsertRequest(ctx context.Context, r *model.ProjectRequest) (*model.ProjectRequest, error) {
	stored := *r
	stored.ID = newID()
	stored.Status = model.StatusPending
	stored.SubmittedAt = time.Now().UTC()

	if _, err := s.db.Collection(collRequests).InsertOne(ctx, &stored); err != nil {
		return nil, fmt.Errorf("failed to insert project request: %w", err)
	}
	return &stored, nil
}

// GetRequest returns a project request by id.
func (s *Mongo) GetRequest(ctx context.Context, id string) (*model.ProjectRequest, error) {
	var r model.ProjectRequest
	err := s.db.Collection(collRequests).FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project request: %w", err)
	}
	return &r, nil
}

// ListRequests returns project requests, newest first.
func (s *Mongo) ListRequests(ctx context.Context, ownerID string) ([]model.ProjectRequest, error) {
	filter := bson.M{}
	if ownerID != "" {
		filter["user_id"] = ownerID
	}
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})

	cursor, err := s.db.Collection(collRequests).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list project requests: %w", err)
	}

	var requests []model.ProjectRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode project requests: %w", err)
	}
	return requests, nil
}

// SetRequestStatus updates a request's review status.
func (s *Mongo) SetRequestStatus(ctx context.Context, id string, status model.RequestStatus) error {
	update := bson.M{"$set": bson.M{"status": status}}

	res, err := s.db.Collection(collRequests).UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
