package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree_go/internal/model"
	"familytree_go/internal/store"
)

func mkMember(id, first string) model.Member {
	return model.Member{
		ID:        id,
		FirstName: first,
		LastName:  "Appleseed",
		Parents:   []string{},
		Children:  []string{},
		Partners:  []string{},
	}
}

func TestValidateDateOrdering(t *testing.T) {
	m := mkMember("a", "Jane")
	m.BirthDate = "1950-01-01"
	m.DeathDate = "1940-01-01"

	err := Validate(m)
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrValidation))

	m.DeathDate = "1950-01-01"
	assert.NoError(t, Validate(m), "death on the same day as birth is allowed")
}

func TestValidateRejectsBadDates(t *testing.T) {
	m := mkMember("a", "Jane")
	m.BirthDate = "not-a-date"
	err := Validate(m)
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrValidation))
}

func TestValidateSelfReference(t *testing.T) {
	m := mkMember("a", "Jane")
	m.Parents = []string{"a"}
	err := Validate(m)
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrValidation))

	m = mkMember("a", "Jane")
	m.Partners = []string{"a"}
	assert.Error(t, Validate(m))
}

func TestValidateParentChildOverlap(t *testing.T) {
	m := mkMember("a", "Jane")
	m.Parents = []string{"b"}
	m.Children = []string{"b"}
	err := Validate(m)
	require.Error(t, err)
	assert.True(t, model.IsCode(err, model.ErrValidation))
}

func TestValidateRequiredNames(t *testing.T) {
	m := mkMember("a", "Jane")
	m.LastName = ""
	assert.Error(t, Validate(m))
}

// commitAndList applies a batch to a fresh in-memory store seeded with the
// given members and returns the resulting collection.
func commitAndList(t *testing.T, seed []model.Member, ops []store.Op) []model.Member {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	seedOps := make([]store.Op, 0, len(seed))
	for _, m := range seed {
		seedOps = append(seedOps, store.SetOp(m))
	}
	require.NoError(t, st.Commit(ctx, "u1", seedOps))
	require.NoError(t, st.Commit(ctx, "u1", ops))
	members, err := st.List(ctx, "u1")
	require.NoError(t, err)
	return members
}

func TestSaveBatchMirrorsNewRelationships(t *testing.T) {
	jane := mkMember("jane", "Jane")
	peter := mkMember("peter", "Peter")
	seed := []model.Member{jane, peter}

	john := mkMember("john", "John")
	john.Partners = []string{"jane"}
	john.Children = []string{"peter"}

	ops, err := SaveBatch(john, nil, ByID(seed))
	require.NoError(t, err)

	members := commitAndList(t, seed, ops)
	require.NoError(t, CheckInvariants(members))

	byID := ByID(members)
	assert.True(t, byID["jane"].HasPartner("john"))
	assert.True(t, byID["peter"].HasParent("john"))
	assert.True(t, byID["john"].HasChild("peter"))
}

func TestSaveBatchRemovesDroppedRelationships(t *testing.T) {
	jane := mkMember("jane", "Jane")
	jane.Partners = []string{"john"}
	jane.Children = []string{"peter"}
	john := mkMember("john", "John")
	john.Partners = []string{"jane"}
	peter := mkMember("peter", "Peter")
	peter.Parents = []string{"jane"}
	seed := []model.Member{jane, john, peter}

	// Jane drops both the partner and the child.
	next := jane.Clone()
	next.Partners = []string{}
	next.Children = []string{}

	ops, err := SaveBatch(next, &jane, ByID(seed))
	require.NoError(t, err)

	members := commitAndList(t, seed, ops)
	require.NoError(t, CheckInvariants(members))

	byID := ByID(members)
	assert.False(t, byID["john"].HasPartner("jane"))
	assert.False(t, byID["peter"].HasParent("jane"))
}

func TestSaveBatchIdempotentResave(t *testing.T) {
	jane := mkMember("jane", "Jane")
	jane.Partners = []string{"john"}
	john := mkMember("john", "John")
	john.Partners = []string{"jane"}
	seed := []model.Member{jane, john}

	ops, err := SaveBatch(jane, &jane, ByID(seed))
	require.NoError(t, err)

	// Unchanged record: no companion patches, only the member's own write.
	require.Len(t, ops, 1)
	assert.Equal(t, store.OpSet, ops[0].Type)
	assert.Equal(t, "jane", ops[0].ID)
}

func TestSaveBatchIgnoresMissingCompanions(t *testing.T) {
	jane := mkMember("jane", "Jane")
	jane.Partners = []string{"ghost"}

	ops, err := SaveBatch(jane, nil, ByID(nil))
	require.NoError(t, err)
	require.Len(t, ops, 1, "no patch for a companion that does not exist")
	assert.Equal(t, store.OpSet, ops[0].Type)
}

func TestSaveBatchRequiresID(t *testing.T) {
	m := mkMember("", "Jane")
	_, err := SaveBatch(m, nil, ByID(nil))
	assert.Error(t, err)
}

func TestDeleteBatchStripsAllReferences(t *testing.T) {
	jane := mkMember("jane", "Jane")
	jane.Partners = []string{"john"}
	jane.Children = []string{"mary"}
	john := mkMember("john", "John")
	john.Partners = []string{"jane"}
	john.Children = []string{"mary"}
	mary := mkMember("mary", "Mary")
	mary.Parents = []string{"jane", "john"}
	seed := []model.Member{jane, john, mary}

	ops := DeleteBatch(seed, "jane")
	members := commitAndList(t, seed, ops)
	require.NoError(t, CheckInvariants(members))

	byID := ByID(members)
	_, exists := byID["jane"]
	assert.False(t, exists)
	assert.False(t, byID["john"].HasPartner("jane"))
	assert.Equal(t, []string{"john"}, byID["mary"].Parents)
}

func TestDeleteBatchMutualReference(t *testing.T) {
	a := mkMember("a", "A")
	a.Partners = []string{"b"}
	b := mkMember("b", "B")
	b.Partners = []string{"a"}
	seed := []model.Member{a, b}

	ops := DeleteBatch(seed, "a")
	members := commitAndList(t, seed, ops)
	require.NoError(t, CheckInvariants(members))
	require.Len(t, members, 1)
	assert.Empty(t, members[0].Partners)
}

func TestCheckInvariantsDetectsOrphanLink(t *testing.T) {
	a := mkMember("a", "A")
	a.Partners = []string{"b"}
	b := mkMember("b", "B") // missing the mirror link

	assert.Error(t, CheckInvariants([]model.Member{a, b}))
}
