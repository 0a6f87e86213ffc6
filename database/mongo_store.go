package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taikoweb/metrics"
	"taikoweb/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names shared with the rest of the taiko-web deployment
const (
	songsCollection  = "songs"
	usersCollection  = "users"
	scoresCollection = "scores"
)

// MongoStore keeps songs and users in MongoDB documents
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to MongoDB, verifies the connection and ensures the indexes exist
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	store := &MongoStore{client: client, db: client.Database(database)}
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// EnsureIndexes creates the unique keys the catalog relies on
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{usersCollection, mongo.IndexModel{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{songsCollection, mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{scoresCollection, mongo.IndexModel{Keys: bson.D{{Key: "username", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := s.db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create %s index: %w", idx.collection, err)
		}
	}
	return nil
}

// InsertSong inserts the song document, ErrDuplicateKey when the id is taken
func (s *MongoStore) InsertSong(ctx context.Context, song *models.Song) error {
	defer metrics.RecordDBOperation("insert", songsCollection, time.Now())

	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now().UTC()
	}
	if _, err := s.db.Collection(songsCollection).InsertOne(ctx, song); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: song %s", ErrDuplicateKey, song.ID)
		}
		return fmt.Errorf("insert song: %w", err)
	}
	return nil
}

// FindSong returns the song with the given id
func (s *MongoStore) FindSong(ctx context.Context, id string) (*models.Song, error) {
	defer metrics.RecordDBOperation("select", songsCollection, time.Now())

	var song models.Song
	if err := s.db.Collection(songsCollection).FindOne(ctx, bson.M{"id": id}).Decode(&song); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find song: %w", err)
	}
	return &song, nil
}

// ListSongs returns every song, newest first
func (s *MongoStore) ListSongs(ctx context.Context) ([]models.Song, error) {
	defer metrics.RecordDBOperation("select", songsCollection, time.Now())

	cursor, err := s.db.Collection(songsCollection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list songs: %w", err)
	}
	songs := []models.Song{}
	if err := cursor.All(ctx, &songs); err != nil {
		return nil, fmt.Errorf("decode songs: %w", err)
	}
	return songs, nil
}

// SongExists reports whether a song with the given id is committed
func (s *MongoStore) SongExists(ctx context.Context, id string) (bool, error) {
	defer metrics.RecordDBOperation("count", songsCollection, time.Now())

	count, err := s.db.Collection(songsCollection).CountDocuments(ctx, bson.M{"id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count songs: %w", err)
	}
	return count > 0, nil
}

// CountSongs returns the number of committed songs
func (s *MongoStore) CountSongs(ctx context.Context) (int64, error) {
	defer metrics.RecordDBOperation("count", songsCollection, time.Now())

	count, err := s.db.Collection(songsCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count songs: %w", err)
	}
	return count, nil
}

// FindUserByUsername resolves a privileged user, ErrNotFound when absent
func (s *MongoStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	defer metrics.RecordDBOperation("select", usersCollection, time.Now())

	var user models.User
	if err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"username": username}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// Close disconnects the client
func (s *MongoStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
