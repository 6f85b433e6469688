package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"mykafa-quiz-service/internal/adaptive"
	"mykafa-quiz-service/internal/config"
	"mykafa-quiz-service/internal/db"
	"mykafa-quiz-service/internal/event"
	"mykafa-quiz-service/internal/handlers"
	"mykafa-quiz-service/internal/repository"
	"mykafa-quiz-service/internal/selection"
	"mykafa-quiz-service/internal/service"
	"mykafa-quiz-service/internal/store"
	"mykafa-quiz-service/pkg/discovery"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, using system env")
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()
	if cfg.Mongo.URI == "" {
		log.Fatal("MONGO_URI is required")
	}

	mongoClient, err := db.Connect(cfg.Mongo.URI)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to mongo")
	}
	defer mongoClient.Disconnect(context.Background())
	database := mongoClient.Database(cfg.Mongo.Database)

	// Live session state: redis when configured, otherwise in-process.
	var sessionStore store.SessionStore
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sessionStore = store.NewRedisStore(redisClient, cfg.Session.TTL)
		log.WithField("addr", cfg.Redis.Addr).Info("using redis session store")
	} else {
		sessionStore = store.NewMemoryStore()
		log.Info("using in-memory session store")
	}

	// Event publisher is optional; the engine runs fine without a broker.
	var publisher *event.Publisher
	if cfg.Rabbit.URI != "" {
		publisher, err = event.NewPublisher(cfg.Rabbit.URI, cfg.Rabbit.Exchange, log)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to RabbitMQ")
		}
		defer publisher.Close()
	} else {
		log.Info("RabbitMQ not configured, events will not be published")
	}

	questionRepo := repository.NewQuestionRepository(database)
	abilityRepo := repository.NewAbilityRepository(database)
	weakTopicRepo := repository.NewWeakTopicRepository(database)
	resultRepo := repository.NewResultRepository(database)

	var events service.EventSink
	if publisher != nil {
		events = publisher
	}

	sessionService := service.NewSessionService(
		sessionStore,
		questionRepo,
		abilityRepo,
		weakTopicRepo,
		resultRepo,
		events,
		adaptive.NewEngine(nil),
		selection.NewSelector(),
		log,
	)
	quizHandler := handlers.NewQuizHandler(sessionService, log)
	questionHandler := handlers.NewQuestionHandler(questionRepo, log)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://mykafa.edu.my"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "X-User-ID", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	quiz := r.Group("/adaptive-quiz")
	quiz.Use(handlers.RequireUser())
	{
		quiz.POST("/start", quizHandler.StartSession)
		quiz.GET("/question/:sessionId", quizHandler.NextQuestion)
		quiz.POST("/answer/:sessionId", quizHandler.SubmitAnswer)
		quiz.POST("/hint/:sessionId", quizHandler.RequestHint)
		quiz.GET("/results/:sessionId", quizHandler.Results)
		quiz.GET("/status/:sessionId", quizHandler.Status)
		quiz.GET("/history", quizHandler.History)
	}

	// Content management; the gateway restricts /admin to staff tokens.
	admin := r.Group("/admin")
	{
		admin.POST("/questions", questionHandler.Create)
		admin.GET("/questions/:id", questionHandler.Get)
		admin.PUT("/questions/:id", questionHandler.Update)
		admin.DELETE("/questions/:id", questionHandler.Delete)
	}

	if cfg.Consul.Address != "" {
		registry, err := discovery.NewServiceRegistry(cfg)
		if err != nil {
			log.WithError(err).Fatal("failed to create consul registry")
		}
		if err := registry.Register(); err != nil {
			log.WithError(err).Fatal("failed to register with consul")
		}
		defer registry.Deregister()
		log.Info("registered with consul")
	}

	log.WithField("port", cfg.Server.Port).Info("starting adaptive quiz service")
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
