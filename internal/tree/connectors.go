package tree

import (
	"sort"
	"strings"

	"familytree_go/internal/model"
)

// JunctionOffset is the fixed distance in pixels between the bottom of a
// partner group and the junction its child lines fan out from.
const JunctionOffset = 32

// Position is the measured on-screen placement of one member card, supplied
// by the presentation layer after it has rendered the rows.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Height float64 `json:"height"`
}

// SegmentKind separates partner lines (drawn behind cards) from
// parent-child lines (drawn in front).
type SegmentKind string

const (
	SegmentPartner SegmentKind = "partner"
	SegmentChild   SegmentKind = "child"
)

// Segment is one straight connector line.
type Segment struct {
	Kind SegmentKind `json:"kind"`
	X1   float64     `json:"x1"`
	Y1   float64     `json:"y1"`
	X2   float64     `json:"x2"`
	Y2   float64     `json:"y2"`
}

// ComputeConnectors derives the connector lines from the member set and the
// measured card positions.
//
// For each partner group: a horizontal segment between every adjacent pair
// of partners ordered by x, at the average of their y centers. For each
// group with at least one child (a member whose parents include every group
// member): a drop from the group's horizontal midpoint to a junction below
// the row, a bus spanning the leftmost to rightmost child, and a riser from
// the junction to each child's measured top edge.
//
// Positions arrive over several frames while the page settles, so the map
// may be incomplete. A group whose members are not all measured is skipped
// entirely; unmeasured children are skipped individually.
func ComputeConnectors(members []model.Member, positions map[string]Position) []Segment {
	var segments []Segment
	for _, group := range partnerGroups(members) {
		pts := make([]Position, 0, len(group))
		complete := true
		for _, id := range group {
			p, ok := positions[id]
			if !ok {
				complete = false
				break
			}
			pts = append(pts, p)
		}
		if !complete {
			continue
		}
		sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })

		for i := 0; i+1 < len(pts); i++ {
			a, b := pts[i], pts[i+1]
			y := (a.Y + b.Y) / 2
			segments = append(segments, Segment{Kind: SegmentPartner, X1: a.X, Y1: y, X2: b.X, Y2: y})
		}

		children := childrenOfGroup(members, group)
		if len(children) == 0 {
			continue
		}
		childPts := make([]Position, 0, len(children))
		for _, c := range children {
			if p, ok := positions[c.ID]; ok {
				childPts = append(childPts, p)
			}
		}
		if len(childPts) == 0 {
			continue
		}
		sort.Slice(childPts, func(i, j int) bool { return childPts[i].X < childPts[j].X })

		midX := (pts[0].X + pts[len(pts)-1].X) / 2
		lineY := avgY(pts)
		junctionY := maxBottom(pts) + JunctionOffset

		segments = append(segments, Segment{Kind: SegmentChild, X1: midX, Y1: lineY, X2: midX, Y2: junctionY})
		if len(childPts) > 1 {
			segments = append(segments, Segment{
				Kind: SegmentChild,
				X1:   childPts[0].X, Y1: junctionY,
				X2: childPts[len(childPts)-1].X, Y2: junctionY,
			})
		}
		for _, p := range childPts {
			segments = append(segments, Segment{Kind: SegmentChild, X1: p.X, Y1: junctionY, X2: p.X, Y2: p.Top})
		}
	}
	return segments
}

// partnerGroups returns every distinct group of mutually partnered members,
// including single members with no partners, ordered canonically. Each group
// is a sorted id list.
func partnerGroups(members []model.Member) [][]string {
	seen := make(map[string]bool)
	var groups [][]string
	for _, m := range members {
		group := append([]string{m.ID}, m.Partners...)
		sort.Strings(group)
		group = dedupe(group)
		key := strings.Join(group, "-")
		if seen[key] {
			continue
		}
		seen[key] = true
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return strings.Join(groups[i], "-") < strings.Join(groups[j], "-")
	})
	return groups
}

// childrenOfGroup returns the members whose parent set contains every member
// of the group.
func childrenOfGroup(members []model.Member, group []string) []model.Member {
	var out []model.Member
	for _, m := range members {
		all := true
		for _, pid := range group {
			if !m.HasParent(pid) {
				all = false
				break
			}
		}
		if all {
			out = append(out, m)
		}
	}
	return out
}

func avgY(pts []Position) float64 {
	var sum float64
	for _, p := range pts {
		sum += p.Y
	}
	return sum / float64(len(pts))
}

func maxBottom(pts []Position) float64 {
	max := pts[0].Bottom
	for _, p := range pts[1:] {
		if p.Bottom > max {
			max = p.Bottom
		}
	}
	return max
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	var prev string
	for i, v := range sorted {
		if i == 0 || v != prev {
			out = append(out, v)
		}
		prev = v
	}
	return out
}
