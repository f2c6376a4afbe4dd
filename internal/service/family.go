package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"familytree_go/internal/graph"
	"familytree_go/internal/model"
	"familytree_go/internal/store"
)

// FamilyService orchestrates member mutations against the store: it runs
// the validation preconditions, asks the graph package for the atomic batch
// and commits it. It also wraps the realtime subscription, seeding an empty
// collection on first contact and bounding the wait for the first snapshot.
type FamilyService struct {
	store       store.MemberStore
	logger      *zap.Logger
	metrics     *Metrics
	loadTimeout time.Duration

	mu     sync.Mutex
	seeded map[string]bool
}

// NewFamilyService creates the service. metrics may be nil.
func NewFamilyService(st store.MemberStore, logger *zap.Logger, metrics *Metrics, loadTimeout time.Duration) *FamilyService {
	return &FamilyService{
		store:       st,
		logger:      logger,
		metrics:     metrics,
		loadTimeout: loadTimeout,
		seeded:      make(map[string]bool),
	}
}

// Members returns the user's full member set.
func (s *FamilyService) Members(ctx context.Context, userID string) ([]model.Member, error) {
	return s.store.List(ctx, userID)
}

// Member returns one member, or a not-found error.
func (s *FamilyService) Member(ctx context.Context, userID, id string) (*model.Member, error) {
	m, err := s.store.GetOne(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, model.NewError(model.ErrNotFound, "member not found", nil)
	}
	return m, nil
}

// Save persists one member together with every companion patch needed to
// keep the relationship graph symmetric, as a single atomic batch. A fresh
// id is assigned when the record has none. Validation failures are returned
// before anything touches the store.
func (s *FamilyService) Save(ctx context.Context, userID string, rec model.Member) (model.Member, error) {
	if err := graph.Validate(rec); err != nil {
		s.countValidationError()
		return model.Member{}, err
	}

	members, err := s.store.List(ctx, userID)
	if err != nil {
		s.countPersistenceError()
		return model.Member{}, err
	}
	byID := graph.ByID(members)

	var prev *model.Member
	if rec.ID == "" {
		rec.ID = s.store.NewID()
	} else if p, ok := byID[rec.ID]; ok {
		prev = &p
	}

	ops, err := graph.SaveBatch(rec, prev, byID)
	if err != nil {
		return model.Member{}, err
	}
	if err := s.store.Commit(ctx, userID, ops); err != nil {
		s.countPersistenceError()
		return model.Member{}, err
	}

	s.logger.Info("member saved",
		zap.String("user", userID),
		zap.String("member", rec.ID),
		zap.Int("batch_ops", len(ops)))
	if s.metrics != nil {
		s.metrics.Saves.Inc()
	}
	return rec, nil
}

// Delete removes one member and strips every reference to it from the rest
// of the collection in the same batch. Deleting an id that no longer exists
// is a not-found error, not a crash.
func (s *FamilyService) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.store.GetOne(ctx, userID, id)
	if err != nil {
		s.countPersistenceError()
		return err
	}
	if existing == nil {
		return model.NewError(model.ErrNotFound, "member not found", nil)
	}

	members, err := s.store.List(ctx, userID)
	if err != nil {
		s.countPersistenceError()
		return err
	}
	ops := graph.DeleteBatch(members, id)
	if err := s.store.Commit(ctx, userID, ops); err != nil {
		s.countPersistenceError()
		return err
	}

	s.logger.Info("member deleted",
		zap.String("user", userID),
		zap.String("member", id),
		zap.Int("batch_ops", len(ops)))
	if s.metrics != nil {
		s.metrics.Deletes.Inc()
	}
	return nil
}

// Subscribe wraps the store subscription. The first empty snapshot for a
// user triggers the starter family seed; the subscription then re-fires
// with the seeded data on its own.
func (s *FamilyService) Subscribe(ctx context.Context, userID string, onChange func([]model.Member), onError func(error)) (func(), error) {
	wrapped := func(members []model.Member) {
		if s.metrics != nil {
			s.metrics.Members.Set(float64(len(members)))
		}
		onChange(members)
		// Seed after forwarding so the listener sees the empty set first and
		// the re-fired snapshot with the starter family second.
		if len(members) == 0 && s.markSeeding(userID) {
			if err := s.seed(ctx, userID); err != nil {
				s.logger.Error("failed to seed starter family", zap.String("user", userID), zap.Error(err))
				onError(err)
			}
		}
	}
	return s.store.Subscribe(ctx, userID, wrapped, onError)
}

// WaitForData blocks until the subscription delivers its first snapshot,
// the store reports an error, or the load timeout elapses. The timeout is
// surfaced as a timeout error rather than hanging indefinitely.
func (s *FamilyService) WaitForData(ctx context.Context, userID string) ([]model.Member, error) {
	type result struct {
		members []model.Member
		err     error
	}
	ch := make(chan result, 1)
	unsubscribe, err := s.Subscribe(ctx, userID,
		func(members []model.Member) {
			// An empty first snapshot only means the seed has not landed
			// yet; the loading gate opens on data or error.
			if len(members) == 0 {
				return
			}
			select {
			case ch <- result{members: members}:
			default:
			}
		},
		func(err error) {
			select {
			case ch <- result{err: err}:
			default:
			}
		})
	if err != nil {
		return nil, err
	}
	defer unsubscribe()

	select {
	case r := <-ch:
		return r.members, r.err
	case <-ctx.Done():
		return nil, model.NewError(model.ErrTimeout, "cancelled while waiting for family data", ctx.Err())
	case <-time.After(s.loadTimeout):
		return nil, model.NewError(model.ErrTimeout, "timed out waiting for family data", nil)
	}
}

// markSeeding records that seeding has started for a user. Returns false if
// a seed for this user is already underway or done for this process.
func (s *FamilyService) markSeeding(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seeded[userID] {
		return false
	}
	s.seeded[userID] = true
	return true
}

// seed writes the starter family in one batch so a brand-new account opens
// onto a populated tree rather than a blank page.
func (s *FamilyService) seed(ctx context.Context, userID string) error {
	jane := s.store.NewID()
	john := s.store.NewID()
	peter := s.store.NewID()
	mary := s.store.NewID()
	robert := s.store.NewID()
	susan := s.store.NewID()
	chris := s.store.NewID()

	members := []model.Member{
		{ID: jane, FirstName: "Jane", LastName: "Appleseed", Alias: "Grandma Jane", Gender: "Female",
			BirthDate: "1945-03-15", DeathDate: "2020-11-22", Bio: "The matriarch of the Appleseed family.",
			Parents: []string{}, Children: []string{peter, mary}, Partners: []string{john}},
		{ID: john, FirstName: "John", LastName: "Appleseed", Alias: "Grandpa John", Gender: "Male",
			BirthDate: "1943-07-20", DeathDate: "2018-05-10", Bio: "The patriarch of the Appleseed family.",
			Parents: []string{}, Children: []string{peter, mary}, Partners: []string{jane}},
		{ID: peter, FirstName: "Peter", LastName: "Appleseed", Gender: "Male", BirthDate: "1968-01-30",
			Parents: []string{jane, john}, Children: []string{}, Partners: []string{}},
		{ID: mary, FirstName: "Mary", LastName: "Smith", Alias: "Aunt Mary", Gender: "Female", BirthDate: "1970-06-05",
			Parents: []string{jane, john}, Children: []string{chris}, Partners: []string{robert}},
		{ID: robert, FirstName: "Robert", LastName: "Smith", Alias: "Uncle Rob", Gender: "Male", BirthDate: "1969-11-12",
			Parents: []string{}, Children: []string{chris}, Partners: []string{mary}},
		{ID: susan, FirstName: "Susan", LastName: "Smith", Gender: "Female", BirthDate: "1972-02-22",
			Parents: []string{}, Children: []string{}, Partners: []string{}},
		{ID: chris, FirstName: "Chris", LastName: "Smith", Gender: "Male", BirthDate: "1995-09-01",
			Parents: []string{mary, robert}, Children: []string{}, Partners: []string{}},
	}

	ops := make([]store.Op, 0, len(members))
	for _, m := range members {
		ops = append(ops, store.SetOp(m))
	}
	return s.store.Commit(ctx, userID, ops)
}

func (s *FamilyService) countValidationError() {
	if s.metrics != nil {
		s.metrics.ValidationErrors.Inc()
	}
}

func (s *FamilyService) countPersistenceError() {
	if s.metrics != nil {
		s.metrics.PersistenceErrors.Inc()
	}
}
