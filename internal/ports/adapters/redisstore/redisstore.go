package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forPelevin/cuetrack/internal/types"
)

const (
	playbackKey = "cuetrack:%s:playback" // Hash: time, playing, updated_at
	timelineKey = "cuetrack:%s:timeline" // String: timeline JSON
	stateTTL    = 24 * time.Hour
)

var errNoClient = errors.New("redis client not initialized")

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Store keeps one project's editor state in redis so several processes can
// share the playback clock.
type Store struct {
	client  *redis.Client
	project string
	now     func() time.Time
}

func NewClient(o Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     o.Addr,
		Password: o.Password,
		DB:       o.DB,
	})
}

func New(client *redis.Client, project string) *Store {
	return &Store{client: client, project: project, now: time.Now}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return errNoClient
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (s *Store) Timeline(ctx context.Context) (types.Timeline, error) {
	if s.client == nil {
		return types.Timeline{}, errNoClient
	}
	data, err := s.client.Get(ctx, fmt.Sprintf(timelineKey, s.project)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.Timeline{}, nil
		}
		return types.Timeline{}, fmt.Errorf("get timeline: %w", err)
	}
	var tl types.Timeline
	if err := json.Unmarshal([]byte(data), &tl); err != nil {
		return types.Timeline{}, fmt.Errorf("decode timeline: %w", err)
	}
	return tl, nil
}

func (s *Store) SetTimeline(ctx context.Context, tl types.Timeline) error {
	if s.client == nil {
		return errNoClient
	}
	data, err := json.Marshal(tl)
	if err != nil {
		return fmt.Errorf("failed to marshal timeline: %w", err)
	}
	return s.client.Set(ctx, fmt.Sprintf(timelineKey, s.project), data, stateTTL).Err()
}

func (s *Store) Time(ctx context.Context) (float64, error) {
	v, err := s.field(ctx, "time")
	if err != nil || v == "" {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", v, err)
	}
	return f, nil
}

func (s *Store) Playing(ctx context.Context) (bool, error) {
	v, err := s.field(ctx, "playing")
	return v == "1", err
}

func (s *Store) Dispatch(ctx context.Context, a types.Action) error {
	if s.client == nil {
		return errNoClient
	}
	fields, err := actionFields(a)
	if err != nil {
		return err
	}
	fields["updated_at"] = s.now().UnixMilli()

	key := fmt.Sprintf(playbackKey, s.project)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, stateTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) field(ctx context.Context, name string) (string, error) {
	if s.client == nil {
		return "", errNoClient
	}
	v, err := s.client.HGet(ctx, fmt.Sprintf(playbackKey, s.project), name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

// actionFields maps an action onto the playback hash.
func actionFields(a types.Action) (map[string]any, error) {
	switch a.Type {
	case types.SetTime:
		t := a.Payload
		if t < 0 {
			t = 0
		}
		return map[string]any{"time": strconv.FormatFloat(t, 'f', -1, 64)}, nil
	case types.SetPlaying:
		if a.Payload != 0 {
			return map[string]any{"playing": "1"}, nil
		}
		return map[string]any{"playing": "0"}, nil
	}
	return nil, fmt.Errorf("unsupported action %q", a.Type)
}
