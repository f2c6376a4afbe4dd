// Package tree turns a flat member set into a generational layout: ordered
// rows of partner groups, plus the connector geometry drawn between them.
// Generation is derived structurally from the relationship edges on every
// call and never stored, so it cannot drift out of sync with the data.
package tree

import (
	"sort"

	"familytree_go/internal/model"
)

// Group is one cell of a row: a single member, or several members who are
// mutually partnered and co-located.
type Group []model.Member

// Row is one generational layer, ordered left to right.
type Row []Group

// ComputeRows partitions members into rows by generational depth.
//
// Roots form row zero: members no other member lists as a child, excluding
// those partnered to someone who is a child (a spouse who married into the
// family belongs to the partner's generation, not the top row). Each
// subsequent row is the union of the previous row's children plus the
// partners of those children, skipping ids already placed so cycles and
// shared children cannot loop or duplicate. Within a row, a member and its
// partners present in the same row merge into one group. Members
// unreachable from any root are not placed.
//
// The traversal orders each row canonically by id, so the result does not
// depend on the input ordering.
func ComputeRows(members []model.Member) []Row {
	byID := make(map[string]model.Member, len(members))
	isChild := make(map[string]bool)
	for _, m := range members {
		byID[m.ID] = m
		for _, c := range m.Children {
			isChild[c] = true
		}
	}

	marriedIn := func(m model.Member) bool {
		for _, pid := range m.Partners {
			if isChild[pid] {
				return true
			}
		}
		return false
	}

	var current []model.Member
	for _, m := range members {
		if !isChild[m.ID] && !marriedIn(m) {
			current = append(current, m)
		}
	}
	sortByID(current)

	seen := make(map[string]bool, len(members))
	for _, m := range current {
		seen[m.ID] = true
	}

	place := func(next []model.Member, id string) []model.Member {
		if seen[id] {
			return next
		}
		m, ok := byID[id]
		if !ok {
			return next
		}
		seen[id] = true
		return append(next, m)
	}

	var rows []Row
	for len(current) > 0 {
		rows = append(rows, groupPartnersInRow(current, byID))

		var next []model.Member
		for _, m := range current {
			for _, c := range m.Children {
				if seen[c] {
					continue
				}
				child, ok := byID[c]
				if !ok {
					continue
				}
				next = place(next, c)
				// Pull the child's partners into the same generation so
				// couples stay co-located even when one side has no
				// recorded ancestry.
				for _, pid := range child.Partners {
					next = place(next, pid)
				}
			}
		}
		sortByID(next)
		current = next
	}
	return rows
}

// groupPartnersInRow merges each member with its partners that landed in the
// same row. The partner relation is treated as same-generation equivalence
// for layout only.
func groupPartnersInRow(row []model.Member, byID map[string]model.Member) Row {
	inRow := make(map[string]bool, len(row))
	for _, m := range row {
		inRow[m.ID] = true
	}

	var groups Row
	used := make(map[string]bool, len(row))
	for _, m := range row {
		if used[m.ID] {
			continue
		}
		group := Group{m}
		used[m.ID] = true
		partnerIDs := append([]string(nil), m.Partners...)
		sort.Strings(partnerIDs)
		for _, pid := range partnerIDs {
			if used[pid] || !inRow[pid] {
				continue
			}
			p, ok := byID[pid]
			if !ok {
				continue
			}
			group = append(group, p)
			used[pid] = true
		}
		groups = append(groups, group)
	}
	return groups
}

// Siblings derives the siblings of one member at read time: every other
// member sharing at least one parent. Siblings are never stored.
func Siblings(members []model.Member, m model.Member) []model.Member {
	if len(m.Parents) == 0 {
		return nil
	}
	var out []model.Member
	for _, other := range members {
		if other.ID == m.ID {
			continue
		}
		for _, p := range other.Parents {
			if m.HasParent(p) {
				out = append(out, other)
				break
			}
		}
	}
	sortByID(out)
	return out
}

func sortByID(members []model.Member) {
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
}
