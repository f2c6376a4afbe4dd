package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"familytree_go/internal/model"
)

// RedisStore keeps each member as a JSON document in Redis, with a per-user
// id set for listing. Batches run inside a MULTI/EXEC pipeline so a batch
// commits all of its writes or none. Every successful commit publishes a
// change notification; subscribers reload the full set and push it to their
// listener, mirroring a snapshot-style realtime feed.
type RedisStore struct {
	client *redis.Client
	appID  string
	logger *zap.Logger
}

// NewRedisStore connects to Redis and returns the store. appID namespaces
// all keys so several deployments can share one Redis.
func NewRedisStore(addr, password string, db int, appID string, logger *zap.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client, appID: appID, logger: logger}
}

// Close releases the underlying connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping verifies connectivity at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) docKey(userID, id string) string {
	return fmt.Sprintf("family:%s:%s:member:%s", s.appID, userID, id)
}

func (s *RedisStore) idsKey(userID string) string {
	return fmt.Sprintf("family:%s:%s:members", s.appID, userID)
}

func (s *RedisStore) channel(userID string) string {
	return fmt.Sprintf("family:%s:%s:events", s.appID, userID)
}

// NewID returns a fresh document id.
func (s *RedisStore) NewID() string {
	return uuid.NewString()
}

// List reads the full member set of one user.
func (s *RedisStore) List(ctx context.Context, userID string) ([]model.Member, error) {
	ids, err := s.client.SMembers(ctx, s.idsKey(userID)).Result()
	if err != nil {
		return nil, model.NewPersistenceError("failed to list member ids", err)
	}
	if len(ids) == 0 {
		return []model.Member{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(userID, id)
	}
	raw, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, model.NewPersistenceError("failed to read member documents", err)
	}
	members := make([]model.Member, 0, len(raw))
	for i, v := range raw {
		data, ok := v.(string)
		if !ok {
			// Id set and documents can diverge only if a batch was bypassed;
			// skip rather than fail the whole read.
			s.logger.Warn("member id without document", zap.String("id", ids[i]))
			continue
		}
		var m model.Member
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return nil, model.NewPersistenceError("corrupt member document", err)
		}
		members = append(members, m)
	}
	return members, nil
}

// GetOne reads a single document, returning (nil, nil) when absent.
func (s *RedisStore) GetOne(ctx context.Context, userID, id string) (*model.Member, error) {
	data, err := s.client.Get(ctx, s.docKey(userID, id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewPersistenceError("failed to read member document", err)
	}
	var m model.Member
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, model.NewPersistenceError("corrupt member document", err)
	}
	return &m, nil
}

// Commit applies a batch atomically. Update ops read the current document
// first and merge the patch; those reads happen before the pipeline is
// queued, which is the same read-then-write window the save contract
// documents as an accepted race.
func (s *RedisStore) Commit(ctx context.Context, userID string, ops []Op) error {
	type write struct {
		op   Op
		data []byte
	}
	writes := make([]write, 0, len(ops))
	for _, op := range ops {
		switch op.Type {
		case OpSet:
			data, err := json.Marshal(op.Data)
			if err != nil {
				return model.NewPersistenceError("failed to encode member", err)
			}
			writes = append(writes, write{op: op, data: data})
		case OpUpdate:
			cur, err := s.GetOne(ctx, userID, op.ID)
			if err != nil {
				return err
			}
			if cur == nil {
				// Companion vanished between snapshot and commit; removal
				// patches are idempotent, so dropping the op is safe.
				continue
			}
			merged, err := applyFields(*cur, op.Fields)
			if err != nil {
				return model.NewPersistenceError("failed to apply field patch", err)
			}
			data, err := json.Marshal(merged)
			if err != nil {
				return model.NewPersistenceError("failed to encode member", err)
			}
			writes = append(writes, write{op: op, data: data})
		case OpDelete:
			writes = append(writes, write{op: op})
		default:
			return model.NewPersistenceError(fmt.Sprintf("unknown op type %q", op.Type), nil)
		}
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, w := range writes {
			switch w.op.Type {
			case OpSet, OpUpdate:
				pipe.Set(ctx, s.docKey(userID, w.op.ID), w.data, 0)
				pipe.SAdd(ctx, s.idsKey(userID), w.op.ID)
			case OpDelete:
				pipe.Del(ctx, s.docKey(userID, w.op.ID))
				pipe.SRem(ctx, s.idsKey(userID), w.op.ID)
			}
		}
		return nil
	})
	if err != nil {
		return model.NewPersistenceError("batch commit failed", err)
	}

	if err := s.client.Publish(ctx, s.channel(userID), "changed").Err(); err != nil {
		// The write landed; only the notification was lost. Subscribers will
		// catch up on the next commit.
		s.logger.Warn("failed to publish change notification", zap.Error(err))
	}
	return nil
}

// Subscribe delivers the full member set immediately and after every commit.
func (s *RedisStore) Subscribe(ctx context.Context, userID string, onChange func([]model.Member), onError func(error)) (func(), error) {
	pubsub := s.client.Subscribe(ctx, s.channel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, model.NewPersistenceError("failed to subscribe to change feed", err)
	}

	done := make(chan struct{})
	go func() {
		push := func() {
			members, err := s.List(ctx, userID)
			if err != nil {
				onError(err)
				return
			}
			onChange(members)
		}
		push()
		ch := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				push()
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			pubsub.Close()
		})
	}
	return unsubscribe, nil
}
