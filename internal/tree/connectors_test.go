package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree_go/internal/model"
)

func partnerSegments(segs []Segment) []Segment {
	var out []Segment
	for _, s := range segs {
		if s.Kind == SegmentPartner {
			out = append(out, s)
		}
	}
	return out
}

func childSegments(segs []Segment) []Segment {
	var out []Segment
	for _, s := range segs {
		if s.Kind == SegmentChild {
			out = append(out, s)
		}
	}
	return out
}

func TestComputeConnectorsPartnerLine(t *testing.T) {
	members := []model.Member{
		{ID: "a", Partners: []string{"b"}},
		{ID: "b", Partners: []string{"a"}},
	}
	positions := map[string]Position{
		"a": {X: 100, Y: 50, Top: 0, Bottom: 100},
		"b": {X: 300, Y: 50, Top: 0, Bottom: 100},
	}

	segs := ComputeConnectors(members, positions)
	partners := partnerSegments(segs)
	require.Len(t, partners, 1)
	assert.Equal(t, Segment{Kind: SegmentPartner, X1: 100, Y1: 50, X2: 300, Y2: 50}, partners[0])
}

func TestComputeConnectorsPartnerLineAveragesY(t *testing.T) {
	members := []model.Member{
		{ID: "a", Partners: []string{"b"}},
		{ID: "b", Partners: []string{"a"}},
	}
	positions := map[string]Position{
		"a": {X: 100, Y: 40, Top: 0, Bottom: 80},
		"b": {X: 300, Y: 60, Top: 20, Bottom: 100},
	}

	partners := partnerSegments(ComputeConnectors(members, positions))
	require.Len(t, partners, 1)
	assert.Equal(t, 50.0, partners[0].Y1)
	assert.Equal(t, 50.0, partners[0].Y2)
}

func TestComputeConnectorsOrdersByX(t *testing.T) {
	// b sits left of a on screen; the segment still runs left to right.
	members := []model.Member{
		{ID: "a", Partners: []string{"b"}},
		{ID: "b", Partners: []string{"a"}},
	}
	positions := map[string]Position{
		"a": {X: 300, Y: 50},
		"b": {X: 100, Y: 50},
	}

	partners := partnerSegments(ComputeConnectors(members, positions))
	require.Len(t, partners, 1)
	assert.Equal(t, 100.0, partners[0].X1)
	assert.Equal(t, 300.0, partners[0].X2)
}

func TestComputeConnectorsChildLines(t *testing.T) {
	members := []model.Member{
		{ID: "a", Partners: []string{"b"}, Children: []string{"c"}},
		{ID: "b", Partners: []string{"a"}, Children: []string{"c"}},
		{ID: "c", Parents: []string{"a", "b"}},
	}
	positions := map[string]Position{
		"a": {X: 100, Y: 50, Top: 0, Bottom: 100},
		"b": {X: 300, Y: 50, Top: 0, Bottom: 100},
		"c": {X: 200, Y: 250, Top: 200, Bottom: 300, Height: 100},
	}

	children := childSegments(ComputeConnectors(members, positions))
	require.Len(t, children, 2, "one drop, one riser, no bus for a single child")

	junctionY := 100.0 + JunctionOffset
	drop := children[0]
	assert.Equal(t, Segment{Kind: SegmentChild, X1: 200, Y1: 50, X2: 200, Y2: junctionY}, drop)

	riser := children[1]
	assert.Equal(t, 200.0, riser.X1)
	assert.Equal(t, junctionY, riser.Y1)
	assert.Equal(t, 200.0, riser.Y2, "riser ends at the child's top edge, not its center")
}

func TestComputeConnectorsBusSpansChildren(t *testing.T) {
	members := []model.Member{
		{ID: "a", Partners: []string{"b"}, Children: []string{"c", "d"}},
		{ID: "b", Partners: []string{"a"}, Children: []string{"c", "d"}},
		{ID: "c", Parents: []string{"a", "b"}},
		{ID: "d", Parents: []string{"a", "b"}},
	}
	positions := map[string]Position{
		"a": {X: 100, Y: 50, Bottom: 100},
		"b": {X: 300, Y: 50, Bottom: 100},
		"c": {X: 120, Y: 250, Top: 200},
		"d": {X: 280, Y: 250, Top: 200},
	}

	children := childSegments(ComputeConnectors(members, positions))
	require.Len(t, children, 4, "drop, bus, two risers")

	junctionY := 100.0 + JunctionOffset
	bus := children[1]
	assert.Equal(t, Segment{Kind: SegmentChild, X1: 120, Y1: junctionY, X2: 280, Y2: junctionY}, bus)
}

func TestComputeConnectorsSkipsUnmeasuredGroup(t *testing.T) {
	members := []model.Member{
		{ID: "a", Partners: []string{"b"}},
		{ID: "b", Partners: []string{"a"}},
	}
	// Only one partner measured: the page is still settling, draw nothing.
	positions := map[string]Position{
		"a": {X: 100, Y: 50},
	}
	assert.Empty(t, ComputeConnectors(members, positions))
}

func TestComputeConnectorsNoLinesForMixedParents(t *testing.T) {
	// c's parents are a and x; the partner group {a,b} is not c's full
	// parent set, so the group gets no child lines.
	members := []model.Member{
		{ID: "a", Partners: []string{"b"}, Children: []string{"c"}},
		{ID: "b", Partners: []string{"a"}},
		{ID: "x", Children: []string{"c"}},
		{ID: "c", Parents: []string{"a", "x"}},
	}
	positions := map[string]Position{
		"a": {X: 100, Y: 50, Bottom: 100},
		"b": {X: 300, Y: 50, Bottom: 100},
		"c": {X: 200, Y: 250, Top: 200},
	}

	for _, s := range childSegments(ComputeConnectors(members, positions)) {
		assert.NotEqual(t, 200.0, s.X1, "no group fans out to c from the couple")
	}
}

func TestComputeConnectorsEmptyInputs(t *testing.T) {
	assert.Empty(t, ComputeConnectors(nil, nil))
	assert.Empty(t, ComputeConnectors([]model.Member{{ID: "a"}}, map[string]Position{}))
}
