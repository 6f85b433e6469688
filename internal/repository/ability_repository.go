package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// abilityRecord is the persisted ability estimate for one (user, subject,
// year), updated with upsert semantics at session end.
type abilityRecord struct {
	UserID    string    `bson:"user_id"`
	Subject   string    `bson:"subject"`
	Year      int       `bson:"year"`
	Ability   float64   `bson:"ability"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type AbilityRepository struct {
	Col *mongo.Collection
}

func NewAbilityRepository(db *mongo.Database) *AbilityRepository {
	return &AbilityRepository{Col: db.Collection("abilities")}
}

// Get returns the stored ability for the user and subject/year pair. The
// second return reports whether a record exists.
func (r *AbilityRepository) Get(ctx context.Context, userID, subject string, year int) (float64, bool, error) {
	var rec abilityRecord
	err := r.Col.FindOne(ctx, bson.M{"user_id": userID, "subject": subject, "year": year}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rec.Ability, true, nil
}

// Set upserts the ability atomically for the compound key.
func (r *AbilityRepository) Set(ctx context.Context, userID, subject string, year int, ability float64) error {
	filter := bson.M{"user_id": userID, "subject": subject, "year": year}
	update := bson.M{"$set": bson.M{
		"ability":    ability,
		"updated_at": time.Now().UTC(),
	}}
	_, err := r.Col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
