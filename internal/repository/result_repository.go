package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mykafa-quiz-service/internal/models"
)

// ResultRepository archives finalized session summaries.
type ResultRepository struct {
	Col *mongo.Collection
}

func NewResultRepository(db *mongo.Database) *ResultRepository {
	return &ResultRepository{Col: db.Collection("results")}
}

func (r *ResultRepository) Create(ctx context.Context, summary *models.QuizSummary) error {
	_, err := r.Col.InsertOne(ctx, summary)
	return err
}

func (r *ResultRepository) FindBySessionID(ctx context.Context, sessionID string) (*models.QuizSummary, error) {
	var summary models.QuizSummary
	err := r.Col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&summary)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *ResultRepository) FindByUser(ctx context.Context, userID string, limit int64) ([]models.QuizSummary, error) {
	opts := options.Find().SetSort(bson.M{"completed_at": -1})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var summaries []models.QuizSummary
	for cur.Next(ctx) {
		var s models.QuizSummary
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, cur.Err()
}
