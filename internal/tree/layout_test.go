package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree_go/internal/model"
)

// sampleFamily is the starter family shape: Jane and John are partnered
// roots, Peter and Mary their children, Mary partnered with Robert, Chris
// the child of Mary and Robert.
func sampleFamily() []model.Member {
	return []model.Member{
		{ID: "jane", FirstName: "Jane", Children: []string{"peter", "mary"}, Partners: []string{"john"}},
		{ID: "john", FirstName: "John", Children: []string{"peter", "mary"}, Partners: []string{"jane"}},
		{ID: "peter", FirstName: "Peter", Parents: []string{"jane", "john"}},
		{ID: "mary", FirstName: "Mary", Parents: []string{"jane", "john"}, Children: []string{"chris"}, Partners: []string{"robert"}},
		{ID: "robert", FirstName: "Robert", Children: []string{"chris"}, Partners: []string{"mary"}},
		{ID: "chris", FirstName: "Chris", Parents: []string{"mary", "robert"}},
	}
}

// rowIDs flattens a layout into comparable id groups.
func rowIDs(rows []Row) [][][]string {
	out := make([][][]string, len(rows))
	for i, row := range rows {
		out[i] = make([][]string, len(row))
		for j, group := range row {
			ids := make([]string, len(group))
			for k, m := range group {
				ids[k] = m.ID
			}
			out[i][j] = ids
		}
	}
	return out
}

func TestComputeRowsSampleFamily(t *testing.T) {
	rows := ComputeRows(sampleFamily())
	got := rowIDs(rows)

	require.Len(t, got, 3)
	assert.Equal(t, [][]string{{"jane", "john"}}, got[0])
	assert.Equal(t, [][]string{{"mary", "robert"}, {"peter"}}, got[1])
	assert.Equal(t, [][]string{{"chris"}}, got[2])
}

func TestComputeRowsOrderIndependent(t *testing.T) {
	base := sampleFamily()
	want := rowIDs(ComputeRows(base))

	// Reversed and rotated input orders must produce the same structure.
	reversed := make([]model.Member, len(base))
	for i, m := range base {
		reversed[len(base)-1-i] = m
	}
	assert.Equal(t, want, rowIDs(ComputeRows(reversed)))

	rotated := append(append([]model.Member{}, base[3:]...), base[:3]...)
	assert.Equal(t, want, rowIDs(ComputeRows(rotated)))
}

func TestComputeRowsSingleMembers(t *testing.T) {
	members := []model.Member{
		{ID: "a", FirstName: "A"},
		{ID: "b", FirstName: "B"},
	}
	rows := ComputeRows(members)
	require.Len(t, rows, 1)
	assert.Equal(t, [][]string{{"a"}, {"b"}}, rowIDs(rows)[0])
}

func TestComputeRowsCycleTerminates(t *testing.T) {
	// Malformed data: a and b list each other as children. Neither is a
	// root, so nothing is placed, and the traversal must not loop.
	members := []model.Member{
		{ID: "a", Children: []string{"b"}, Parents: []string{"b"}},
		{ID: "b", Children: []string{"a"}, Parents: []string{"a"}},
		{ID: "c"},
	}
	rows := ComputeRows(members)
	require.Len(t, rows, 1)
	assert.Equal(t, [][]string{{"c"}}, rowIDs(rows)[0])
}

func TestComputeRowsSharedChildPlacedOnce(t *testing.T) {
	// Chris descends from two separate root couples; he must be placed in
	// exactly one row, once.
	members := []model.Member{
		{ID: "a", Children: []string{"chris"}},
		{ID: "b", Children: []string{"chris"}},
		{ID: "chris", Parents: []string{"a", "b"}},
	}
	rows := ComputeRows(members)
	got := rowIDs(rows)
	require.Len(t, got, 2)
	assert.Equal(t, [][]string{{"chris"}}, got[1])
}

func TestComputeRowsEmpty(t *testing.T) {
	assert.Empty(t, ComputeRows(nil))
}

func TestSiblings(t *testing.T) {
	members := sampleFamily()
	var peter model.Member
	for _, m := range members {
		if m.ID == "peter" {
			peter = m
		}
	}

	sibs := Siblings(members, peter)
	require.Len(t, sibs, 1)
	assert.Equal(t, "mary", sibs[0].ID)
}

func TestSiblingsNoneWithoutParents(t *testing.T) {
	members := sampleFamily()
	assert.Empty(t, Siblings(members, members[0]), "roots share no parents")
}

func TestSiblingsHalfSiblings(t *testing.T) {
	members := []model.Member{
		{ID: "p1", Children: []string{"a", "b"}},
		{ID: "p2", Children: []string{"b", "c"}},
		{ID: "a", Parents: []string{"p1"}},
		{ID: "b", Parents: []string{"p1", "p2"}},
		{ID: "c", Parents: []string{"p2"}},
	}
	sibs := Siblings(members, members[3]) // b
	require.Len(t, sibs, 2, "half-siblings on either side count")
	assert.Equal(t, "a", sibs[0].ID)
	assert.Equal(t, "c", sibs[1].ID)
}
