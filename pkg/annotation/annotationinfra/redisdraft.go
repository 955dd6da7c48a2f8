package annotationinfra

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saiteja-tally/taggo/pkg/annotation"
	"github.com/saiteja-tally/taggo/pkg/errx"
)

const draftKeyPrefix = "taggo:draft:"

// RedisDraftStore caches in-progress working copies in Redis so an
// interrupted session can resume where it left off.
type RedisDraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftStore creates the store. A non-positive ttl defaults to 24h.
func NewRedisDraftStore(client *redis.Client, ttl time.Duration) annotation.DraftStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDraftStore{client: client, ttl: ttl}
}

func (s *RedisDraftStore) SaveDraft(ctx context.Context, id string, doc *annotation.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return errx.Wrap(err, "failed to encode draft", errx.TypeInternal).
			WithDetail("record_id", id)
	}
	if err := s.client.Set(ctx, draftKeyPrefix+id, payload, s.ttl).Err(); err != nil {
		return annotation.StorageFailed(err).WithDetail("record_id", id)
	}
	return nil
}

func (s *RedisDraftStore) LoadDraft(ctx context.Context, id string) (*annotation.Document, error) {
	payload, err := s.client.Get(ctx, draftKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, annotation.StorageFailed(err).WithDetail("record_id", id)
	}
	var doc annotation.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, errx.Wrap(err, "failed to decode draft", errx.TypeInternal).
			WithDetail("record_id", id)
	}
	return &doc, nil
}

func (s *RedisDraftStore) DropDraft(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, draftKeyPrefix+id).Err(); err != nil {
		return annotation.StorageFailed(err).WithDetail("record_id", id)
	}
	return nil
}
