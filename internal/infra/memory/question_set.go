package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"daily-trivia-service/internal/app"
	"daily-trivia-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionSetCache caches session question sets with TTL to avoid repeated
// store hits; every player of the day reads the same set.
type QuestionSetCache struct {
	loader app.QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionSetCache(loader app.QuestionLoader, ttl time.Duration) *QuestionSetCache {
	return &QuestionSetCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (r *QuestionSetCache) SessionQuestions(ctx context.Context, sessionID string, ids []string) ([]domain.Question, error) {
	if questions, ok := r.lookup(sessionID); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(sessionID, func() (interface{}, error) {
		if questions, ok := r.lookup(sessionID); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadQuestions(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			return nil, domain.ErrQuestionsNotFound
		}

		r.mu.Lock()
		r.cache[sessionID] = cachedSet{
			questions: questions,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionSetCache) lookup(sessionID string) ([]domain.Question, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[sessionID]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.questions, true
}

func (r *QuestionSetCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
