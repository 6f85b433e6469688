package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"mykafa-quiz-service/internal/models"
)

// QuestionRepository is the read path to the question catalog. The engine
// treats catalog questions as immutable; writes here exist for content
// management only.
type QuestionRepository struct {
	Col *mongo.Collection
}

func NewQuestionRepository(db *mongo.Database) *QuestionRepository {
	return &QuestionRepository{Col: db.Collection("questions")}
}

func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	err := r.Col.FindOne(ctx, bson.M{"_id": id, "is_active": true}).Decode(&question)
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// FindByTopic returns the active questions for one (subject, year, topic)
// pool.
func (r *QuestionRepository) FindByTopic(ctx context.Context, subject string, year int, topic string) ([]models.Question, error) {
	return r.find(ctx, bson.M{
		"subject":   subject,
		"year":      year,
		"topic":     topic,
		"is_active": true,
	})
}

// FindByTopics returns active questions across several topics for the same
// subject and year, used to build remedial pools from the weak-topic set.
func (r *QuestionRepository) FindByTopics(ctx context.Context, subject string, year int, topics []string) ([]models.Question, error) {
	if len(topics) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{
		"subject":   subject,
		"year":      year,
		"topic":     bson.M{"$in": topics},
		"is_active": true,
	})
}

// CountByTopic reports whether a (subject, year, topic) pool exists and how
// large it is, used to validate session-start parameters.
func (r *QuestionRepository) CountByTopic(ctx context.Context, subject string, year int, topic string) (int64, error) {
	return r.Col.CountDocuments(ctx, bson.M{
		"subject":   subject,
		"year":      year,
		"topic":     topic,
		"is_active": true,
	})
}

func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	_, err := r.Col.InsertOne(ctx, question)
	return err
}

func (r *QuestionRepository) Update(ctx context.Context, id string, update bson.M) error {
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	return err
}

func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_active": false}})
	return err
}

func (r *QuestionRepository) find(ctx context.Context, filter bson.M) ([]models.Question, error) {
	cur, err := r.Col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var questions []models.Question
	for cur.Next(ctx) {
		var q models.Question
		if err := cur.Decode(&q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, cur.Err()
}
