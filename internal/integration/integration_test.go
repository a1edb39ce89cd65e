package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/jackc/pgx/v4/pgxpool"

	"assessment-scoring-service/internal/app"
	"assessment-scoring-service/internal/domain"
	pgstore "assessment-scoring-service/internal/infra/postgres"
	pgmigrations "assessment-scoring-service/internal/infra/postgres/migrations"
	infraredis "assessment-scoring-service/internal/infra/redis"
)

func TestRecalculationEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedData(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	store := pgstore.NewStore(pool)
	loader := pgstore.NewAssessmentLoader(pool)
	assessments := infraredis.NewAssessmentRepository(redisClient, loader, 5*time.Minute)
	runs := infraredis.NewRunRegistry(redisClient, 5*time.Minute)
	service := app.NewRecalcService(store, assessments, runs)

	report, err := service.Recalculate(ctx, domain.RecalcScope{GroupID: "group-1"})
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	// p1 answered ranked questions; q-trait is on a pure trait assessment.
	if report.RecalculatedCount != 1 || report.SkippedCount != 1 {
		t.Fatalf("counts: %+v", report)
	}
	summary := report.Results[0].NewSummary.Percentage
	if summary.TotalScore != 8 || summary.TotalPossible != 12 || summary.Percentage != 67 || summary.Grade != "D" {
		t.Fatalf("summary: %+v", summary)
	}

	// Summary round-trips through the participants table.
	candidates, err := store.ListCandidates(ctx, domain.RecalcScope{ParticipantID: "p1"})
	if err != nil {
		t.Fatalf("reload participant: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ScoreSummary == nil {
		t.Fatalf("persisted summary missing: %+v", candidates)
	}
	if candidates[0].ScoreSummary.Percentage.Grade != "D" {
		t.Fatalf("persisted summary: %+v", candidates[0].ScoreSummary)
	}

	// Recalculating again is idempotent apart from the timestamp.
	second, err := service.Recalculate(ctx, domain.RecalcScope{GroupID: "group-1"})
	if err != nil {
		t.Fatalf("second recalculate: %v", err)
	}
	a := *report.Results[0].NewSummary.Percentage
	b := *second.Results[0].NewSummary.Percentage
	a.RecalculatedAt, b.RecalculatedAt = time.Time{}, time.Time{}
	if a != b {
		t.Fatalf("recalculation not idempotent:\nfirst:  %+v\nsecond: %+v", a, b)
	}
}

func seedData(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	insertAssessment := func(a domain.Assessment) {
		data, err := json.Marshal(a)
		if err != nil {
			t.Fatalf("marshal assessment: %v", err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO assessments (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`,
			a.ID, string(data)); err != nil {
			t.Fatalf("insert assessment: %v", err)
		}
	}
	insertAssessment(rankedAssessment())
	insertAssessment(traitAssessment())

	exec := func(q string, args ...any) {
		if _, err := db.ExecContext(ctx, q, args...); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	exec(`INSERT INTO participants (id, group_id, organization_id, assessment_id, status) VALUES ('p1', 'group-1', 'org-1', 'assessment-ranked', 'completed')`)
	exec(`INSERT INTO participants (id, group_id, organization_id, assessment_id, status) VALUES ('q-trait', 'group-1', 'org-1', 'assessment-trait', 'completed')`)

	// Selected scores [3,4,1] against maxima [4,4,4].
	exec(`INSERT INTO responses (id, participant_id, question_id, answer_data) VALUES ('p1-r1', 'p1', 'q1', '{"value":1}'::jsonb)`)
	exec(`INSERT INTO responses (id, participant_id, question_id, answer_data) VALUES ('p1-r2', 'p1', 'q2', '{"value":2}'::jsonb)`)
	exec(`INSERT INTO responses (id, participant_id, question_id, answer_data) VALUES ('p1-r3', 'p1', 'q3', '{"value":0}'::jsonb)`)
	exec(`INSERT INTO responses (id, participant_id, question_id, answer_data) VALUES ('qt-r1', 'q-trait', 't1', '{"value":1}'::jsonb)`)
}

func rankedAssessment() domain.Assessment {
	s := func(v float64) *float64 { return &v }
	q := func(id string) domain.Question {
		return domain.Question{
			ID:   id,
			Type: domain.KindRanked,
			Options: []domain.Option{
				{Text: "weak", Score: s(1)},
				{Text: "workable", Score: s(3)},
				{Text: "best", Score: s(4)},
			},
		}
	}
	return domain.Assessment{
		ID:        "assessment-ranked",
		IsGraded:  true,
		Questions: []domain.Question{q("q1"), q("q2"), q("q3")},
	}
}

func traitAssessment() domain.Assessment {
	v := func(x float64) *float64 { return &x }
	return domain.Assessment{
		ID:       "assessment-trait",
		IsGraded: true,
		Questions: []domain.Question{
			{ID: "t1", Type: domain.KindTrait, Trait: "empathy",
				Options: []domain.Option{{Value: v(1)}, {Value: v(3)}, {Value: v(5)}}},
		},
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "scoring", "POSTGRES_PASSWORD": "scoringpass", "POSTGRES_DB": "scoringdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://scoring:scoringpass@%s:%s/scoringdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
