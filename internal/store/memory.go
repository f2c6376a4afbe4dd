package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"familytree_go/internal/model"
)

// MemoryStore is an in-process MemberStore. It backs tests and the
// standalone mode where no Redis is configured. Subscribers are notified
// synchronously after each commit, and commits apply all-or-nothing by
// staging into a copy of the collection first.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string]map[string]model.Member // userID -> id -> member
	subs    map[int]*memorySub
	nextSub int

	commits int
	lastOps []Op
}

type memorySub struct {
	userID   string
	onChange func([]model.Member)
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]model.Member),
		subs: make(map[int]*memorySub),
	}
}

// NewID returns a fresh document id.
func (s *MemoryStore) NewID() string {
	return uuid.NewString()
}

// List reads the full member set of one user.
func (s *MemoryStore) List(ctx context.Context, userID string) ([]model.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(userID), nil
}

// GetOne reads a single document, returning (nil, nil) when absent.
func (s *MemoryStore) GetOne(ctx context.Context, userID, id string) (*model.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.data[userID][id]; ok {
		c := m.Clone()
		return &c, nil
	}
	return nil, nil
}

// Commit applies a batch atomically and notifies subscribers.
func (s *MemoryStore) Commit(ctx context.Context, userID string, ops []Op) error {
	s.mu.Lock()

	staged := make(map[string]model.Member, len(s.data[userID]))
	for id, m := range s.data[userID] {
		staged[id] = m
	}
	for _, op := range ops {
		switch op.Type {
		case OpSet:
			staged[op.ID] = op.Data.Clone()
		case OpUpdate:
			cur, ok := staged[op.ID]
			if !ok {
				continue
			}
			merged, err := applyFields(cur, op.Fields)
			if err != nil {
				s.mu.Unlock()
				return model.NewPersistenceError("failed to apply field patch", err)
			}
			staged[op.ID] = merged
		case OpDelete:
			delete(staged, op.ID)
		default:
			s.mu.Unlock()
			return model.NewPersistenceError("unknown op type", nil)
		}
	}
	s.data[userID] = staged
	s.commits++
	s.lastOps = append([]Op(nil), ops...)

	var notify []*memorySub
	for _, sub := range s.subs {
		if sub.userID == userID {
			notify = append(notify, sub)
		}
	}
	members := s.snapshot(userID)
	s.mu.Unlock()

	for _, sub := range notify {
		sub.onChange(members)
	}
	return nil
}

// Subscribe delivers the current member set immediately and after every
// commit for the same user.
func (s *MemoryStore) Subscribe(ctx context.Context, userID string, onChange func([]model.Member), onError func(error)) (func(), error) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = &memorySub{userID: userID, onChange: onChange}
	members := s.snapshot(userID)
	s.mu.Unlock()

	onChange(members)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}, nil
}

// CommitCount reports how many batches were committed; tests use it to
// verify that failed validation never reaches the store.
func (s *MemoryStore) CommitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// LastOps returns the ops of the most recent batch.
func (s *MemoryStore) LastOps() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Op(nil), s.lastOps...)
}

// snapshot copies one user's collection; callers must hold mu.
func (s *MemoryStore) snapshot(userID string) []model.Member {
	members := make([]model.Member, 0, len(s.data[userID]))
	for _, m := range s.data[userID] {
		members = append(members, m.Clone())
	}
	return members
}
