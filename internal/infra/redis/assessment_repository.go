package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"assessment-scoring-service/internal/domain"
)

// AssessmentLoader fetches assessment content from a backing store.
type AssessmentLoader interface {
	LoadAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
}

// AssessmentRepository caches whole assessments as JSON values in Redis and
// falls back to a loader on cache miss. The engine needs the full option
// shape of every question (explicit scores, tier labels, Likert weights), so
// one value per assessment is cached rather than per-question fragments:
// SET assessment:{id} {json} EX ttl
type AssessmentRepository struct {
	client *redis.Client
	loader AssessmentLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewAssessmentRepository(client *redis.Client, loader AssessmentLoader, ttl time.Duration) *AssessmentRepository {
	return &AssessmentRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *AssessmentRepository) GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	key := r.key(assessmentID)

	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var a domain.Assessment
		if jsonErr := json.Unmarshal(raw, &a); jsonErr == nil {
			return a, nil
		}
		// Corrupted cache entry; fall through and reload.
	}

	result, err, _ := r.sf.Do(assessmentID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
			var a domain.Assessment
			if jsonErr := json.Unmarshal(raw, &a); jsonErr == nil {
				return a, nil
			}
		}

		assessment, err := r.loader.LoadAssessment(ctx, assessmentID)
		if err != nil {
			return domain.Assessment{}, err
		}

		if raw, err := json.Marshal(assessment); err == nil {
			// Best-effort: a failed cache write only costs a reload.
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		return assessment, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

func (r *AssessmentRepository) key(assessmentID string) string {
	return "assessment:" + assessmentID
}

func (r *AssessmentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
