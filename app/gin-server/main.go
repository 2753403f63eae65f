package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/hirevox/hirevox/config"
	"github.com/hirevox/hirevox/internal/api/handlers"
	"github.com/hirevox/hirevox/internal/api/middleware"
	"github.com/hirevox/hirevox/internal/api/routes"
	"github.com/hirevox/hirevox/internal/cache"
	"github.com/hirevox/hirevox/internal/logger"
	"github.com/hirevox/hirevox/internal/providers/llm"
	"github.com/hirevox/hirevox/internal/providers/stt"
	mongorepo "github.com/hirevox/hirevox/internal/repositories/mongo"
	pgrepo "github.com/hirevox/hirevox/internal/repositories/postgres"
	"github.com/hirevox/hirevox/internal/services"
	"github.com/hirevox/hirevox/internal/storage"
	"github.com/hirevox/hirevox/internal/workers"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()

	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	l.Info("MongoDB connected")

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	l.Info("PostgreSQL connected")

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("Mongo index bootstrap error: %v", err)
	}

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "hirevox"
	}
	mongoDB := config.MongoClient.Database(dbName)

	ctx := context.Background()

	// Providers
	sttProvider, err := stt.NewGoogleSpeech(ctx)
	if err != nil {
		log.Fatalf("STT init error: %v", err)
	}
	defer sttProvider.Close()

	llmProvider, err := llm.NewVertexGemini(ctx,
		os.Getenv("VERTEX_PROJECT_ID"),
		os.Getenv("VERTEX_LOCATION"),
		os.Getenv("VERTEX_MODEL"),
	)
	if err != nil {
		log.Fatalf("LLM init error: %v", err)
	}
	defer llmProvider.Close()

	uploader, err := storage.NewGCSUploader(ctx, os.Getenv("GCS_BUCKET"))
	if err != nil {
		log.Fatalf("GCS init error: %v", err)
	}

	// Repositories
	sessionRepo := mongorepo.NewSessionRepo(mongoDB)
	chunkRepo := mongorepo.NewChunkRepo(mongoDB)
	candidateRepo := pgrepo.NewCandidateRepo(config.PostgresDB)
	transcriptRepo := pgrepo.NewTranscriptRepo(config.PostgresDB)
	feedbackRepo := pgrepo.NewFeedbackRepo(config.PostgresDB)
	recordingRepo := pgrepo.NewRecordingRepo(config.PostgresDB)

	// Services
	sessionCache := cache.NewRedisCache(config.RedisClient)
	sessionSvc := services.NewSessionService(sessionRepo, sessionCache)
	chunkSvc := services.NewChunkService(chunkRepo, 0)
	transcriptSvc := services.NewTranscriptService(transcriptRepo)
	candidateSvc := services.NewCandidateService(candidateRepo)
	feedbackSvc := services.NewFeedbackService(feedbackRepo)
	recordingSvc := services.NewRecordingService(chunkRepo, recordingRepo, uploader, uploader)

	// Conductor pool: chunks off the media stream -> transcript + questions
	pool := &workers.ConductorPool{
		Redis:       config.RedisClient,
		Sessions:    sessionSvc,
		Chunks:      chunkSvc,
		Transcripts: transcriptSvc,
		STT:         sttProvider,
		LLM:         llmProvider,
		Logger:      l,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("conductor pool start error: %v", err)
	}

	// HTTP
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Session:   handlers.NewSessionHandler(sessionSvc, transcriptSvc),
		Candidate: handlers.NewCandidateHandler(candidateSvc),
		Feedback:  handlers.NewFeedbackHandler(feedbackSvc),
		Recording: handlers.NewRecordingHandler(recordingSvc),
		WS:        handlers.NewWSHandler(sessionSvc, chunkSvc, config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
