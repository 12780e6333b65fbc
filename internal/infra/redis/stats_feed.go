package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"daily-trivia-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// StatsFeed fans session statistics out across instances with Redis pub/sub.
// The latest snapshot is also kept under trivia:session:{id}:stats so
// late joiners on other instances can read it.
type StatsFeed struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

func NewStatsFeed(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *StatsFeed {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StatsFeed{client: client, ttl: ttl, log: log}
}

func (f *StatsFeed) Publish(ctx context.Context, stats domain.SessionStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	pipe := f.client.Pipeline()
	pipe.Set(ctx, statsKey(stats.SessionID), raw, f.ttl)
	pipe.Publish(ctx, statsChannel(stats.SessionID), raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish stats: %w", err)
	}
	return nil
}

// Latest returns the last published snapshot, if any.
func (f *StatsFeed) Latest(ctx context.Context, sessionID string) (domain.SessionStats, bool, error) {
	raw, err := f.client.Get(ctx, statsKey(sessionID)).Bytes()
	if err == redis.Nil {
		return domain.SessionStats{}, false, nil
	}
	if err != nil {
		return domain.SessionStats{}, false, err
	}
	var stats domain.SessionStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return domain.SessionStats{}, false, fmt.Errorf("decode stats: %w", err)
	}
	return stats, true, nil
}

func (f *StatsFeed) Subscribe(ctx context.Context, sessionID string) (<-chan domain.SessionStats, func(), error) {
	sub := f.client.Subscribe(ctx, statsChannel(sessionID))
	// wait for the subscription to be confirmed so no publish is missed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("subscribe stats: %w", err)
	}

	out := make(chan domain.SessionStats, 8)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(out)
		msgs := sub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var stats domain.SessionStats
				if err := json.Unmarshal([]byte(msg.Payload), &stats); err != nil {
					f.log.WithError(err).WithField("session_id", sessionID).Warn("discarding malformed stats message")
					continue
				}
				select {
				case out <- stats:
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
			wg.Wait()
		})
	}
	return out, cancel, nil
}

func statsKey(sessionID string) string {
	return "trivia:session:" + sessionID + ":stats"
}

func statsChannel(sessionID string) string {
	return "trivia:session:" + sessionID + ":stats:updates"
}
