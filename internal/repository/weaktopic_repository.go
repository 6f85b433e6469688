package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type weakTopicRecord struct {
	UserID    string    `bson:"user_id"`
	Topics    []string  `bson:"topics"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// WeakTopicRepository persists the set of topics flagged for remediation per
// user.
type WeakTopicRepository struct {
	Col *mongo.Collection
}

func NewWeakTopicRepository(db *mongo.Database) *WeakTopicRepository {
	return &WeakTopicRepository{Col: db.Collection("weak_topics")}
}

func (r *WeakTopicRepository) Get(ctx context.Context, userID string) ([]string, error) {
	var rec weakTopicRecord
	err := r.Col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.Topics, nil
}

func (r *WeakTopicRepository) Update(ctx context.Context, userID string, topics []string) error {
	if topics == nil {
		topics = []string{}
	}
	filter := bson.M{"user_id": userID}
	update := bson.M{"$set": bson.M{
		"topics":     topics,
		"updated_at": time.Now().UTC(),
	}}
	_, err := r.Col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
