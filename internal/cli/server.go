package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"assessment-scoring-service/internal/app"
	"assessment-scoring-service/internal/config"
	"assessment-scoring-service/internal/domain"
	"assessment-scoring-service/internal/infra/memory"
	pgstore "assessment-scoring-service/internal/infra/postgres"
	redisinfra "assessment-scoring-service/internal/infra/redis"
	"assessment-scoring-service/internal/metrics"
	"assessment-scoring-service/internal/scoring"
	transport "assessment-scoring-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the scoring service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	manager := metrics.NewManager()

	var loader memory.AssessmentLoader = memory.NewStaticAssessmentLoader(sampleAssessments())
	if pool != nil {
		loader = pgstore.NewAssessmentLoader(pool)
	}

	assessmentTTL := config.TTLDuration(cfg.Assessment.TTL, 10*time.Minute)
	var assessments app.AssessmentRepository
	if redisClient != nil {
		assessments = redisinfra.NewAssessmentRepository(redisClient, loader, assessmentTTL)
	} else {
		assessments = memory.NewAssessmentRepository(loader, assessmentTTL).WithMetrics(manager)
	}

	var store app.Store
	if pool != nil {
		store = pgstore.NewStore(pool)
	} else {
		store = sampleStore()
	}

	var runs app.RunRegistry
	if redisClient != nil {
		runs = redisinfra.NewRunRegistry(redisClient, redisTTL)
	} else {
		runs = memory.NewRunRegistry()
	}

	opts := []app.Option{app.WithMetrics(manager)}
	if cfg.Recalc.Workers > 1 {
		opts = append(opts, app.WithWorkers(cfg.Recalc.Workers))
	}
	if len(cfg.Scoring.Tiers) > 0 {
		opts = append(opts, app.WithTierTable(scoring.TierTable(cfg.Scoring.Tiers)))
	}
	service := app.NewRecalcService(store, assessments, runs, opts...)

	recalcHandler := transport.NewRecalcHandler(service)
	progressHandler := transport.NewProgressHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/recalculations", recalcHandler.ServeRecalculate)
	mux.HandleFunc("/ws/progress", progressHandler.ServeWS)
	mux.Handle("/metrics", manager.Handler())

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting scoring service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleAssessments provides minimal demo content; production deployments
// load assessments from Postgres.
func sampleAssessments() map[string]domain.Assessment {
	score := func(v float64) *float64 { return &v }
	idx := func(i float64) *domain.AnswerValue { return &domain.AnswerValue{Number: &i} }
	return map[string]domain.Assessment{
		"assessment-1": {
			ID:       "assessment-1",
			Title:    "Situational judgment demo",
			IsGraded: true,
			Questions: []domain.Question{
				{
					ID:   "q1",
					Type: domain.KindRanked,
					Options: []domain.Option{
						{Text: "Escalate immediately", Score: score(2)},
						{Text: "Gather context first", Score: score(4)},
						{Text: "Ignore it", Score: score(1)},
					},
				},
				{
					ID:            "q2",
					Type:          domain.KindSingleChoice,
					CorrectAnswer: idx(0),
					Options: []domain.Option{
						{Text: "Listen, then respond"},
						{Text: "Respond right away"},
					},
				},
			},
		},
	}
}

func sampleStore() *memory.Store {
	one := 1.0
	store := memory.NewStore()
	store.PutParticipant(domain.Participant{
		ID:             "participant-1",
		GroupID:        "group-1",
		OrganizationID: "org-1",
		AssessmentID:   "assessment-1",
		Status:         domain.StatusCompleted,
	})
	store.PutResponses("participant-1", []domain.Response{
		{ID: "r1", ParticipantID: "participant-1", QuestionID: "q1",
			AnswerData: domain.AnswerData{Value: &domain.AnswerValue{Number: &one}}},
		{ID: "r2", ParticipantID: "participant-1", QuestionID: "q2",
			AnswerData: domain.AnswerData{Value: &domain.AnswerValue{Number: &one}}},
	})
	return store
}
