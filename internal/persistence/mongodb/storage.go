package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const sessionTTL = 30 * 24 * time.Hour

type session struct {
	Id         string            `bson:"_id"`
	Entries    map[string]string `bson:"entries"`
	UpdateTime time.Time         `bson:"updateTime"`
}

// Storage keeps every entry of a namespace in one document, so multi-key
// writes are atomic.
type Storage struct {
	collection *mongo.Collection
	namespace  string
}

func NewStorage(client *mongo.Client, namespace string) *Storage {
	database := client.Database("gigboard")
	collection := database.Collection("sessions")

	return &Storage{
		collection,
		namespace,
	}
}

func (s *Storage) Setup(ctx context.Context) error {
	ttlIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "updateTime", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(sessionTTL.Seconds())),
	}

	_, err := s.collection.Indexes().CreateOne(ctx, ttlIndexModel)

	return err
}

func (s *Storage) Load(ctx context.Context, key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}

	var doc session
	err := s.collection.FindOne(ctx, bson.M{"_id": s.namespace}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	value, ok := doc.Entries[key]

	return value, ok, nil
}

func (s *Storage) Store(ctx context.Context, entries map[string]string) error {
	set := bson.D{{Key: "updateTime", Value: time.Now()}}
	for key, value := range entries {
		if err := validateKey(key); err != nil {
			return err
		}

		set = append(set, bson.E{Key: "entries." + key, Value: value})
	}

	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": s.namespace},
		bson.D{{Key: "$set", Value: set}},
		options.UpdateOne().SetUpsert(true),
	)

	return err
}

func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	unset := bson.D{}
	for _, key := range keys {
		if err := validateKey(key); err != nil {
			return err
		}

		unset = append(unset, bson.E{Key: "entries." + key, Value: ""})
	}

	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": s.namespace},
		bson.D{
			{Key: "$unset", Value: unset},
			{Key: "$set", Value: bson.D{{Key: "updateTime", Value: time.Now()}}},
		},
	)

	return err
}

func validateKey(key string) error {
	if key == "" || strings.Contains(key, ".") || strings.HasPrefix(key, "$") {
		return fmt.Errorf("invalid storage key %q", key)
	}

	return nil
}
