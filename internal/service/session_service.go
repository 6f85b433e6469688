package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"mykafa-quiz-service/internal/adaptive"
	"mykafa-quiz-service/internal/models"
	"mykafa-quiz-service/internal/selection"
	"mykafa-quiz-service/internal/store"
)

const defaultAbility = 0.5

// RetryPolicy controls asynchronous re-attempts of ability/weak-topic writes
// that failed after an answer was already scored in memory.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: 2 * time.Second}
}

// SessionService orchestrates the adaptive quiz flow. All mutations of one
// session are serialized through a per-session mutex; different sessions run
// fully in parallel.
type SessionService struct {
	sessions   store.SessionStore
	catalog    QuestionCatalog
	abilities  AbilityStore
	weakTopics WeakTopicStore
	results    ResultArchive
	events     EventSink
	engine     *adaptive.Engine
	selector   *selection.Selector
	log        *logrus.Logger
	retry      RetryPolicy

	locks sync.Map // sessionID -> *sync.Mutex
}

func NewSessionService(
	sessions store.SessionStore,
	catalog QuestionCatalog,
	abilities AbilityStore,
	weakTopics WeakTopicStore,
	results ResultArchive,
	events EventSink,
	engine *adaptive.Engine,
	selector *selection.Selector,
	log *logrus.Logger,
) *SessionService {
	if engine == nil {
		engine = adaptive.NewEngine(nil)
	}
	if selector == nil {
		selector = selection.NewSelector()
	}
	if log == nil {
		log = logrus.New()
	}
	return &SessionService{
		sessions:   sessions,
		catalog:    catalog,
		abilities:  abilities,
		weakTopics: weakTopics,
		results:    results,
		events:     events,
		engine:     engine,
		selector:   selector,
		log:        log,
		retry:      DefaultRetryPolicy(),
	}
}

func (s *SessionService) SetRetryPolicy(p RetryPolicy) {
	s.retry = p
}

type StartRequest struct {
	UserID       string `json:"user_id"`
	Year         int    `json:"year"`
	Subject      string `json:"subject"`
	Topic        string `json:"topic"`
	MaxQuestions int    `json:"max_questions"`
}

type StartResponse struct {
	SessionID      string   `json:"session_id"`
	InitialAbility float64  `json:"initial_ability"`
	WeakTopics     []string `json:"weak_topics"`
	TotalQuestions int      `json:"total_questions"`
}

// StartSession validates the request against the catalog, seeds the session
// with the user's persisted ability (0.5 when none) and flagged weak topics,
// and stores it.
func (s *SessionService) StartSession(ctx context.Context, req StartRequest) (*StartResponse, error) {
	if req.UserID == "" {
		return nil, &InvalidParametersError{Reason: "user id is required"}
	}
	if req.Subject == "" || req.Topic == "" || req.Year <= 0 {
		return nil, &InvalidParametersError{Reason: "subject, topic and year are required"}
	}
	if req.MaxQuestions <= 0 {
		req.MaxQuestions = s.engine.Settings().MaxQuestions
	}

	count, err := s.catalog.CountByTopic(ctx, req.Subject, req.Year, req.Topic)
	if err != nil {
		return nil, &SessionCreationError{Err: fmt.Errorf("catalog lookup: %w", err)}
	}
	if count == 0 {
		return nil, &InvalidParametersError{Reason: fmt.Sprintf("no questions for subject %q year %d topic %q", req.Subject, req.Year, req.Topic)}
	}

	ability, found, err := s.abilities.Get(ctx, req.UserID, req.Subject, req.Year)
	if err != nil {
		return nil, &SessionCreationError{Err: fmt.Errorf("ability lookup: %w", err)}
	}
	if !found {
		ability = defaultAbility
	}

	weakTopics, err := s.weakTopics.Get(ctx, req.UserID)
	if err != nil {
		return nil, &SessionCreationError{Err: fmt.Errorf("weak topic lookup: %w", err)}
	}

	session := models.NewQuizSession(
		uuid.NewString(),
		req.UserID,
		req.Subject,
		req.Year,
		req.Topic,
		req.MaxQuestions,
		ability,
		weakTopics,
	)

	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, &SessionCreationError{Err: err}
	}

	s.publish("quiz.session.started", map[string]any{
		"session_id": session.ID,
		"user_id":    session.UserID,
		"subject":    session.Subject,
		"year":       session.Year,
		"topic":      session.Topic,
	})
	s.log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"user_id":    session.UserID,
		"ability":    ability,
	}).Info("quiz session started")

	return &StartResponse{
		SessionID:      session.ID,
		InitialAbility: ability,
		WeakTopics:     session.WeakTopics,
		TotalQuestions: session.TotalQuestions,
	}, nil
}

// NextQuestion serves the next question for the session, or reports
// completion when the question budget or time limit is spent. Re-requesting
// while a question is open re-serves the same question unchanged.
func (s *SessionService) NextQuestion(ctx context.Context, sessionID, userID string) (*models.QuestionView, bool, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID, userID)
	if err != nil {
		return nil, false, err
	}
	if session.IsCompleted || s.engine.BudgetExhausted(session) {
		return nil, true, nil
	}

	if session.CurrentQuestionID != "" {
		q, err := s.catalog.FindByID(ctx, session.CurrentQuestionID)
		if err != nil {
			return nil, false, fmt.Errorf("reload current question: %w", err)
		}
		return q.View(session.CurrentIsRemedial, session.Progress()), false, nil
	}

	q, remedial, err := s.selectQuestion(ctx, session)
	if err != nil {
		return nil, false, err
	}
	if q == nil {
		// Pool exhausted before the budget: the session ends early.
		return nil, true, nil
	}

	s.engine.MarkServed(session, q, remedial)
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, false, err
	}

	s.publish("quiz.question.served", map[string]any{
		"session_id":  session.ID,
		"question_id": q.ID,
		"difficulty":  q.Difficulty,
		"remedial":    remedial,
	})

	return q.View(remedial, session.Progress()), false, nil
}

// SubmitAnswer grades a submission for the currently served question and
// advances session state. Ability and weak-topic persistence runs
// asynchronously so a storage hiccup never loses the scored answer.
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionID, userID, questionID string, answer models.SubmittedAnswer, timeSpentSeconds int) (*models.AnswerResult, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, adaptive.ErrSessionCompleted
	}
	if session.CurrentQuestionID == "" || session.CurrentQuestionID != questionID {
		return nil, &adaptive.StaleAnswerError{SubmittedID: questionID, CurrentID: session.CurrentQuestionID}
	}

	q, err := s.catalog.FindByID(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}

	result, err := s.engine.EvaluateAnswer(session, q, answer, timeSpentSeconds)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}

	if result.Retired {
		s.persistProgress(session)
	}

	s.publish("quiz.answer.submitted", map[string]any{
		"session_id":  session.ID,
		"question_id": questionID,
		"correct":     result.IsCorrect,
		"retired":     result.Retired,
		"points":      result.TotalPoints,
	})

	return result, nil
}

// RequestHint dispenses the next hint for the current question.
func (s *SessionService) RequestHint(ctx context.Context, sessionID, userID string) (*models.HintResult, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, adaptive.ErrSessionCompleted
	}
	if session.CurrentQuestionID == "" {
		return nil, adaptive.ErrNoHintsAvailable
	}

	q, err := s.catalog.FindByID(ctx, session.CurrentQuestionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}

	result, err := s.engine.DispenseHint(session, q)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}

	s.publish("quiz.hint.dispensed", map[string]any{
		"session_id":  session.ID,
		"question_id": q.ID,
		"hint_index":  result.HintIndex,
	})

	return result, nil
}

// Results finalizes the session on first call and returns the archived
// summary on later calls. Further answer submissions are rejected once
// finalized.
func (s *SessionService) Results(ctx context.Context, sessionID, userID string) (*models.QuizSummary, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	session, err := s.load(ctx, sessionID, userID)
	if err != nil {
		if err == store.ErrSessionNotFound {
			// The live session may have expired after finalization; the
			// archive is the source of truth then.
			if summary, archiveErr := s.results.FindBySessionID(ctx, sessionID); archiveErr == nil {
				return summary, nil
			}
		}
		return nil, err
	}

	if session.IsCompleted {
		if summary, err := s.results.FindBySessionID(ctx, sessionID); err == nil {
			return summary, nil
		}
	}

	summary := s.engine.Finalize(session)
	if err := s.sessions.Put(ctx, session); err != nil {
		return nil, err
	}

	if err := s.results.Create(ctx, summary); err != nil {
		s.log.WithError(err).WithField("session_id", session.ID).Error("failed to archive quiz summary")
	}
	s.persistProgress(session)

	s.publish("quiz.session.completed", map[string]any{
		"session_id": session.ID,
		"user_id":    session.UserID,
		"passed":     summary.QuizPassed,
		"score":      summary.TotalScore,
	})

	return summary, nil
}

// History returns the user's archived quiz summaries, most recent first.
func (s *SessionService) History(ctx context.Context, userID string, limit int64) ([]models.QuizSummary, error) {
	if userID == "" {
		return nil, &InvalidParametersError{Reason: "user id is required"}
	}
	return s.results.FindByUser(ctx, userID, limit)
}

// StatusResponse is a live snapshot of a session, cheap enough to poll.
type StatusResponse struct {
	SessionID        string          `json:"session_id"`
	Progress         models.Progress `json:"progress"`
	TotalScore       float64         `json:"total_score"`
	ConsecutiveWrong int             `json:"consecutive_wrong"`
	WeakTopics       []string        `json:"weak_topics"`
	QuestionOpen     bool            `json:"question_open"`
	IsCompleted      bool            `json:"is_completed"`
}

func (s *SessionService) Status(ctx context.Context, sessionID, userID string) (*StatusResponse, error) {
	session, err := s.load(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return &StatusResponse{
		SessionID:        session.ID,
		Progress:         session.Progress(),
		TotalScore:       session.TotalScore,
		ConsecutiveWrong: session.ConsecutiveWrong,
		WeakTopics:       session.WeakTopics,
		QuestionOpen:     session.CurrentQuestionID != "",
		IsCompleted:      session.IsCompleted,
	}, nil
}

// selectQuestion picks the next question, preferring a remedial pool when the
// wrong streak warrants an intervention, with fallback to the session topic.
func (s *SessionService) selectQuestion(ctx context.Context, session *models.QuizSession) (*models.Question, bool, error) {
	target := s.engine.TargetDifficulty(session)
	exclude := session.UsedQuestionIDs()

	if s.engine.NeedsRemediation(session) {
		candidates, err := s.catalog.FindByTopics(ctx, session.Subject, session.Year, session.WeakTopics)
		if err != nil {
			return nil, false, fmt.Errorf("load remedial pool: %w", err)
		}
		if q, ok := s.selector.Pick(candidates, target, exclude); ok {
			return q, true, nil
		}
	}

	candidates, err := s.catalog.FindByTopic(ctx, session.Subject, session.Year, session.Topic)
	if err != nil {
		return nil, false, fmt.Errorf("load question pool: %w", err)
	}
	q, ok := s.selector.Pick(candidates, target, exclude)
	if !ok {
		return nil, false, nil
	}
	return q, false, nil
}

// persistProgress writes the ability estimate and weak-topic set. Failures
// never surface to the caller; they are retried in the background and
// reported when exhausted, per the reconciliation design.
func (s *SessionService) persistProgress(session *models.QuizSession) {
	userID := session.UserID
	subject := session.Subject
	year := session.Year
	ability := session.AbilityEstimate
	topics := append([]string{}, session.WeakTopics...)
	sessionID := session.ID

	go func() {
		var lastErr error
		for attempt := 0; attempt < s.retry.Attempts; attempt++ {
			if attempt > 0 {
				time.Sleep(s.retry.Backoff)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := s.abilities.Set(ctx, userID, subject, year, ability)
			if err == nil {
				err = s.weakTopics.Update(ctx, userID, topics)
			}
			cancel()
			if err == nil {
				return
			}
			lastErr = err
		}
		s.log.WithError(lastErr).WithFields(logrus.Fields{
			"session_id": sessionID,
			"user_id":    userID,
		}).Error("ability persistence retries exhausted, needs reconciliation")
		s.publish("quiz.persistence.retry_exhausted", map[string]any{
			"session_id": sessionID,
			"user_id":    userID,
			"ability":    ability,
		})
	}()
}

func (s *SessionService) load(ctx context.Context, sessionID, userID string) (*models.QuizSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if userID != "" && session.UserID != userID {
		return nil, ErrNotSessionOwner
	}
	return session, nil
}

func (s *SessionService) lock(sessionID string) func() {
	v, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *SessionService) publish(eventType string, payload map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(eventType, payload); err != nil {
		s.log.WithError(err).WithField("event", eventType).Warn("event publish failed")
	}
}
