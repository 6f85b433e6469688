package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mykafa-quiz-service/internal/adaptive"
	"mykafa-quiz-service/internal/models"
	"mykafa-quiz-service/internal/service"
	"mykafa-quiz-service/internal/store"
)

// QuizHandler exposes the adaptive quiz session flow over HTTP. The gateway
// authenticates and injects X-User-ID; the handler only enforces session
// ownership through the service.
type QuizHandler struct {
	sessions *service.SessionService
	log      *logrus.Logger
}

func NewQuizHandler(sessions *service.SessionService, log *logrus.Logger) *QuizHandler {
	if log == nil {
		log = logrus.New()
	}
	return &QuizHandler{sessions: sessions, log: log}
}

type startBody struct {
	Year         int    `json:"year" binding:"required"`
	Subject      string `json:"subject" binding:"required"`
	Topic        string `json:"topic" binding:"required"`
	MaxQuestions int    `json:"max_questions"`
}

// StartSession handles POST /adaptive-quiz/start.
func (h *QuizHandler) StartSession(c *gin.Context) {
	var body startBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_BODY"})
		return
	}

	resp, err := h.sessions.StartSession(c.Request.Context(), service.StartRequest{
		UserID:       c.GetHeader("X-User-ID"),
		Year:         body.Year,
		Subject:      body.Subject,
		Topic:        body.Topic,
		MaxQuestions: body.MaxQuestions,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// NextQuestion handles GET /adaptive-quiz/question/:sessionId.
func (h *QuizHandler) NextQuestion(c *gin.Context) {
	view, completed, err := h.sessions.NextQuestion(c.Request.Context(), c.Param("sessionId"), c.GetHeader("X-User-ID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if completed {
		c.JSON(http.StatusOK, gin.H{"completed": true})
		return
	}
	c.JSON(http.StatusOK, view)
}

type answerBody struct {
	QuestionID       string                 `json:"question_id" binding:"required"`
	Answer           models.SubmittedAnswer `json:"answer"`
	TimeSpentSeconds int                    `json:"time_spent_seconds"`
}

// SubmitAnswer handles POST /adaptive-quiz/answer/:sessionId.
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	var body answerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_BODY"})
		return
	}

	result, err := h.sessions.SubmitAnswer(
		c.Request.Context(),
		c.Param("sessionId"),
		c.GetHeader("X-User-ID"),
		body.QuestionID,
		body.Answer,
		body.TimeSpentSeconds,
	)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RequestHint handles POST /adaptive-quiz/hint/:sessionId.
func (h *QuizHandler) RequestHint(c *gin.Context) {
	result, err := h.sessions.RequestHint(c.Request.Context(), c.Param("sessionId"), c.GetHeader("X-User-ID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Results handles GET /adaptive-quiz/results/:sessionId.
func (h *QuizHandler) Results(c *gin.Context) {
	summary, err := h.sessions.Results(c.Request.Context(), c.Param("sessionId"), c.GetHeader("X-User-ID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Status handles GET /adaptive-quiz/status/:sessionId.
func (h *QuizHandler) Status(c *gin.Context) {
	status, err := h.sessions.Status(c.Request.Context(), c.Param("sessionId"), c.GetHeader("X-User-ID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// History handles GET /adaptive-quiz/history.
func (h *QuizHandler) History(c *gin.Context) {
	limit := int64(20)
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	summaries, err := h.sessions.History(c.Request.Context(), c.GetHeader("X-User-ID"), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": summaries, "count": len(summaries)})
}

func (h *QuizHandler) writeError(c *gin.Context, err error) {
	var invalidParams *service.InvalidParametersError
	var creationErr *service.SessionCreationError
	var staleErr *adaptive.StaleAnswerError

	switch {
	case errors.As(err, &invalidParams):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidParams.Reason, "code": "INVALID_PARAMETERS"})
	case errors.As(err, &creationErr):
		h.log.WithError(err).Error("session creation failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session creation failed, please retry", "code": "SESSION_CREATION_FAILED"})
	case errors.As(err, &staleErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":               staleErr.Error(),
			"code":                "STALE_ANSWER",
			"current_question_id": staleErr.CurrentID,
		})
	case errors.Is(err, adaptive.ErrSessionCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "SESSION_COMPLETED"})
	case errors.Is(err, adaptive.ErrNoHintsAvailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "NO_HINTS_AVAILABLE"})
	case errors.Is(err, store.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "SESSION_NOT_FOUND"})
	case errors.Is(err, service.ErrNotSessionOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": "FORBIDDEN"})
	default:
		h.log.WithError(err).Error("unhandled quiz error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "INTERNAL"})
	}
}

// RequireUser rejects requests missing the gateway-injected user header.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-User-ID") == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
				"code":  "MISSING_USER_ID",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
