package memory

import (
	"context"
	"sync"

	"daily-trivia-service/internal/domain"
)

// StatsFeed is an in-process app.StatsFeed. Each session keeps its own set of
// subscriber channels; slow subscribers lose stale updates rather than block.
type StatsFeed struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.SessionStats]struct{}
	latest      map[string]domain.SessionStats
}

func NewStatsFeed() *StatsFeed {
	return &StatsFeed{
		subscribers: make(map[string]map[chan domain.SessionStats]struct{}),
		latest:      make(map[string]domain.SessionStats),
	}
}

func (f *StatsFeed) Publish(_ context.Context, stats domain.SessionStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest[stats.SessionID] = stats
	for ch := range f.subscribers[stats.SessionID] {
		select {
		case ch <- stats:
		default:
			// drop the oldest queued update so the latest always lands
			select {
			case <-ch:
			default:
			}
			ch <- stats
		}
	}
	return nil
}

func (f *StatsFeed) Subscribe(_ context.Context, sessionID string) (<-chan domain.SessionStats, func(), error) {
	ch := make(chan domain.SessionStats, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[sessionID]
	if !ok {
		subs = make(map[chan domain.SessionStats]struct{})
		f.subscribers[sessionID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs := f.subscribers[sessionID]
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.subscribers, sessionID)
		}
	}
	return ch, cancel, nil
}

func (f *StatsFeed) Latest(_ context.Context, sessionID string) (domain.SessionStats, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats, ok := f.latest[sessionID]
	return stats, ok, nil
}

// Subscribers reports how many listeners a session has.
func (f *StatsFeed) Subscribers(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers[sessionID])
}
