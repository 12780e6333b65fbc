package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"daily-trivia-service/internal/app"
	"daily-trivia-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// QuestionSetCache caches session question sets in Redis and falls back to a
// loader on a miss. Sets are stored as JSON: SET trivia:session:{id}:questions.
type QuestionSetCache struct {
	client *redis.Client
	loader app.QuestionLoader
	ttl    time.Duration
	log    logrus.FieldLogger
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuestionSetCache(client *redis.Client, loader app.QuestionLoader, ttl time.Duration, log logrus.FieldLogger) *QuestionSetCache {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &QuestionSetCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionSetCache) SessionQuestions(ctx context.Context, sessionID string, ids []string) ([]domain.Question, error) {
	key := questionsKey(sessionID)
	if questions, ok := r.lookup(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(sessionID, func() (interface{}, error) {
		// re-check in case another instance filled it
		if questions, ok := r.lookup(ctx, key); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadQuestions(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			return nil, domain.ErrQuestionsNotFound
		}

		raw, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("encode question set: %w", err)
		}
		if err := r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err(); err != nil {
			r.log.WithError(err).WithField("session_id", sessionID).Warn("cache question set")
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionSetCache) lookup(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.WithError(err).WithField("key", key).Warn("read cached question set")
		}
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil || len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func (r *QuestionSetCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func questionsKey(sessionID string) string {
	return "trivia:session:" + sessionID + ":questions"
}
