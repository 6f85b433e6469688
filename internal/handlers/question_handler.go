package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"mykafa-quiz-service/internal/models"
	"mykafa-quiz-service/internal/repository"
)

// QuestionHandler exposes content management for the question catalog. These
// routes sit behind the gateway's admin authorization.
type QuestionHandler struct {
	questions *repository.QuestionRepository
	log       *logrus.Logger
}

func NewQuestionHandler(questions *repository.QuestionRepository, log *logrus.Logger) *QuestionHandler {
	if log == nil {
		log = logrus.New()
	}
	return &QuestionHandler{questions: questions, log: log}
}

type questionBody struct {
	Text             string            `json:"text" binding:"required"`
	Type             string            `json:"type" binding:"required"`
	Options          []models.Option   `json:"options" binding:"required"`
	CorrectAnswers   []string          `json:"correct_answers" binding:"required"`
	Difficulty       models.Difficulty `json:"difficulty" binding:"required"`
	Subject          string            `json:"subject" binding:"required"`
	Year             int               `json:"year" binding:"required"`
	Topic            string            `json:"topic" binding:"required"`
	Hints            []string          `json:"hints"`
	TimeLimitSeconds int               `json:"time_limit_seconds"`
	Points           int               `json:"points"`
}

func (b *questionBody) validate() string {
	if b.Type != "single" && b.Type != "multiple" {
		return "type must be single or multiple"
	}
	if !b.Difficulty.Valid() {
		return "difficulty must be easy, medium or hard"
	}
	if len(b.Options) < 2 {
		return "a question needs at least two options"
	}
	if b.Type == "single" && len(b.CorrectAnswers) != 1 {
		return "a single-answer question needs exactly one correct answer"
	}
	optionIDs := map[string]bool{}
	for _, opt := range b.Options {
		optionIDs[opt.ID] = true
	}
	for _, id := range b.CorrectAnswers {
		if !optionIDs[id] {
			return "correct answers must reference option ids"
		}
	}
	return ""
}

// Create handles POST /admin/questions.
func (h *QuestionHandler) Create(c *gin.Context) {
	var body questionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_BODY"})
		return
	}
	if reason := body.validate(); reason != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": reason, "code": "INVALID_QUESTION"})
		return
	}

	question := &models.Question{
		ID:               uuid.NewString(),
		Text:             body.Text,
		Type:             body.Type,
		Options:          body.Options,
		CorrectAnswers:   body.CorrectAnswers,
		Difficulty:       body.Difficulty,
		Subject:          body.Subject,
		Year:             body.Year,
		Topic:            body.Topic,
		Hints:            body.Hints,
		TimeLimitSeconds: body.TimeLimitSeconds,
		Points:           body.Points,
		IsActive:         true,
	}
	if err := h.questions.Create(c.Request.Context(), question); err != nil {
		h.log.WithError(err).Error("failed to create question")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create question", "code": "INTERNAL"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": question.ID})
}

// Update handles PUT /admin/questions/:id, replacing the editable fields.
func (h *QuestionHandler) Update(c *gin.Context) {
	var body questionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_BODY"})
		return
	}
	if reason := body.validate(); reason != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": reason, "code": "INVALID_QUESTION"})
		return
	}

	update := bson.M{
		"text":               body.Text,
		"type":               body.Type,
		"options":            body.Options,
		"correct_answers":    body.CorrectAnswers,
		"difficulty":         body.Difficulty,
		"subject":            body.Subject,
		"year":               body.Year,
		"topic":              body.Topic,
		"hints":              body.Hints,
		"time_limit_seconds": body.TimeLimitSeconds,
		"points":             body.Points,
	}
	if err := h.questions.Update(c.Request.Context(), c.Param("id"), update); err != nil {
		h.log.WithError(err).WithField("question_id", c.Param("id")).Error("failed to update question")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update question", "code": "INTERNAL"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
}

// Get handles GET /admin/questions/:id. Unlike the player-facing view this
// returns the full document, correct answers included.
func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.questions.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "question not found", "code": "QUESTION_NOT_FOUND"})
			return
		}
		h.log.WithError(err).Error("failed to load question")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load question", "code": "INTERNAL"})
		return
	}
	c.JSON(http.StatusOK, question)
}

// Delete handles DELETE /admin/questions/:id. Questions are soft-deleted so
// finished sessions keep resolving their history.
func (h *QuestionHandler) Delete(c *gin.Context) {
	if err := h.questions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.log.WithError(err).WithField("question_id", c.Param("id")).Error("failed to delete question")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete question", "code": "INTERNAL"})
		return
	}
	c.Status(http.StatusNoContent)
}
