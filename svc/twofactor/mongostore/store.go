// Package mongostore keeps two-factor credentials and attempts in MongoDB.
//
// Credentials live in one document per user keyed by user ID. Every write
// filters on the stored version, so a document changed in between is left
// untouched and the caller sees twofactor.ErrVersionConflict.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

const (
	DefaultCredentialsCollection = "two_factor_credentials"
	DefaultAttemptsCollection    = "two_factor_attempts"
)

// Store implements twofactor.Store.
type Store struct {
	credentials *mongo.Collection
	attempts    *mongo.Collection
}

var _ twofactor.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*names)

type names struct {
	credentials string
	attempts    string
}

// WithCollections overrides the collection names.
func WithCollections(credentials, attempts string) Option {
	return func(n *names) {
		n.credentials, n.attempts = credentials, attempts
	}
}

// New returns a Store backed by collections in db.
func New(db *mongo.Database, opts ...Option) *Store {
	n := names{credentials: DefaultCredentialsCollection, attempts: DefaultAttemptsCollection}
	for _, opt := range opts {
		opt(&n)
	}
	return &Store{
		credentials: db.Collection(n.credentials),
		attempts:    db.Collection(n.attempts),
	}
}

// EnsureIndexes creates the attempt lookup index. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.attempts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("user_created"),
	})
	if err != nil {
		return fmt.Errorf("create two-factor attempt index: %w", err)
	}
	return nil
}

type credentialDoc struct {
	UserID      string     `bson:"_id"`
	Secret      []byte     `bson:"secret"`
	BackupCodes [][]byte   `bson:"backup_codes"`
	Enabled     bool       `bson:"enabled"`
	CreatedAt   time.Time  `bson:"created_at"`
	VerifiedAt  *time.Time `bson:"verified_at,omitempty"`
	LastUsedAt  *time.Time `bson:"last_used_at,omitempty"`
	LastCounter int64      `bson:"last_counter"`
	Version     int64      `bson:"version"`
}

func (d credentialDoc) credential() *twofactor.Credential {
	return &twofactor.Credential{
		UserID:           d.UserID,
		SecretCiphertext: d.Secret,
		BackupCodes:      d.BackupCodes,
		Enabled:          d.Enabled,
		CreatedAt:        d.CreatedAt,
		VerifiedAt:       d.VerifiedAt,
		LastUsedAt:       d.LastUsedAt,
		LastCounter:      uint64(d.LastCounter),
		Version:          d.Version,
	}
}

type attemptDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Type      string    `bson:"attempt_type"`
	Success   bool      `bson:"success"`
	IP        string    `bson:"ip,omitempty"`
	UserAgent string    `bson:"user_agent,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (s *Store) GetCredential(ctx context.Context, userID string) (*twofactor.Credential, error) {
	var doc credentialDoc
	err := s.credentials.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, twofactor.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get two-factor credential: %w", err)
	}
	return doc.credential(), nil
}

// CreatePending upserts on {_id, enabled: false}. When an enabled document
// exists the filter misses, the upsert collides on _id and the duplicate key
// error is reported as twofactor.ErrAlreadyEnabled.
func (s *Store) CreatePending(ctx context.Context, cred *twofactor.Credential) error {
	filter := bson.D{{Key: "_id", Value: cred.UserID}, {Key: "enabled", Value: false}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "secret", Value: cred.SecretCiphertext},
			{Key: "backup_codes", Value: backupCodes(cred.BackupCodes)},
			{Key: "enabled", Value: false},
			{Key: "created_at", Value: cred.CreatedAt},
			{Key: "last_counter", Value: int64(0)},
		}},
		{Key: "$unset", Value: bson.D{
			{Key: "verified_at", Value: ""},
			{Key: "last_used_at", Value: ""},
		}},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: int64(1)}}},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "version", Value: 1}})

	var doc struct {
		Version int64 `bson:"version"`
	}
	err := s.credentials.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		return twofactor.ErrAlreadyEnabled
	}
	if err != nil {
		return fmt.Errorf("create pending two-factor credential: %w", err)
	}

	cred.Version = doc.Version
	return nil
}

func (s *Store) UpdateCredential(ctx context.Context, cred *twofactor.Credential, expectedVersion int64) error {
	set := bson.D{
		{Key: "secret", Value: cred.SecretCiphertext},
		{Key: "backup_codes", Value: backupCodes(cred.BackupCodes)},
		{Key: "enabled", Value: cred.Enabled},
		{Key: "last_counter", Value: int64(cred.LastCounter)},
	}
	unset := bson.D{}
	for _, f := range []struct {
		key string
		val *time.Time
	}{
		{"verified_at", cred.VerifiedAt},
		{"last_used_at", cred.LastUsedAt},
	} {
		if f.val != nil {
			set = append(set, bson.E{Key: f.key, Value: *f.val})
		} else {
			unset = append(unset, bson.E{Key: f.key, Value: ""})
		}
	}

	update := bson.D{
		{Key: "$set", Value: set},
		{Key: "$inc", Value: bson.D{{Key: "version", Value: int64(1)}}},
	}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}

	filter := bson.D{{Key: "_id", Value: cred.UserID}, {Key: "version", Value: expectedVersion}}
	res, err := s.credentials.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update two-factor credential: %w", err)
	}
	if res.MatchedCount == 0 {
		return twofactor.ErrVersionConflict
	}

	cred.Version = expectedVersion + 1
	return nil
}

func (s *Store) DeleteCredential(ctx context.Context, userID string, expectedVersion int64) error {
	filter := bson.D{{Key: "_id", Value: userID}, {Key: "version", Value: expectedVersion}}
	res, err := s.credentials.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete two-factor credential: %w", err)
	}
	if res.DeletedCount == 0 {
		return twofactor.ErrVersionConflict
	}
	return nil
}

func (s *Store) RecordAttempt(ctx context.Context, a twofactor.Attempt) error {
	_, err := s.attempts.InsertOne(ctx, attemptDoc{
		ID:        a.ID,
		UserID:    a.UserID,
		Type:      string(a.Type),
		Success:   a.Success,
		IP:        a.IP,
		UserAgent: a.UserAgent,
		CreatedAt: a.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("record two-factor attempt: %w", err)
	}
	return nil
}

// ListAttempts returns the newest attempts of userID first.
func (s *Store) ListAttempts(ctx context.Context, userID string, limit int) ([]twofactor.Attempt, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.attempts.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list two-factor attempts: %w", err)
	}

	var docs []attemptDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list two-factor attempts: %w", err)
	}

	attempts := make([]twofactor.Attempt, len(docs))
	for i, d := range docs {
		attempts[i] = twofactor.Attempt{
			ID:        d.ID,
			UserID:    d.UserID,
			Type:      twofactor.AttemptType(d.Type),
			Success:   d.Success,
			IP:        d.IP,
			UserAgent: d.UserAgent,
			CreatedAt: d.CreatedAt,
		}
	}
	return attempts, nil
}

// PruneAttempts deletes attempts created before cutoff and returns how many
// were removed.
func (s *Store) PruneAttempts(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.attempts.DeleteMany(ctx, bson.D{{Key: "created_at", Value: bson.D{{Key: "$lt", Value: cutoff}}}})
	if err != nil {
		return 0, fmt.Errorf("prune two-factor attempts: %w", err)
	}
	return res.DeletedCount, nil
}

func backupCodes(codes [][]byte) [][]byte {
	if codes == nil {
		return [][]byte{}
	}
	return codes
}
