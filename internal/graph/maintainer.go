// Package graph maintains the bidirectional relationship invariants of the
// member collection. Relationships are stored denormalized on both sides
// (partner mirrors partner, parent mirrors child), so every edit of one
// member must patch its companions in the same atomic batch. The functions
// here are pure: member snapshot in, batch of store operations out.
package graph

import (
	"fmt"
	"time"

	"familytree_go/internal/model"
	"familytree_go/internal/store"
)

// Validate checks the save preconditions. A violation is reported as a
// validation error before any write is attempted.
func Validate(m model.Member) error {
	if m.FirstName == "" || m.LastName == "" {
		return model.NewValidationError("first name and last name are required")
	}
	birth, err := parseOptionalDate(m.BirthDate)
	if err != nil {
		return model.NewValidationError("birth date must be a valid date (YYYY-MM-DD)")
	}
	death, err := parseOptionalDate(m.DeathDate)
	if err != nil {
		return model.NewValidationError("death date must be a valid date (YYYY-MM-DD)")
	}
	if birth != nil && death != nil && death.Before(*birth) {
		return model.NewValidationError("death date cannot be before birth date")
	}
	if m.ID != "" && (m.HasParent(m.ID) || m.HasChild(m.ID)) {
		return model.NewValidationError("a person cannot be their own parent or child")
	}
	if m.ID != "" && m.HasPartner(m.ID) {
		return model.NewValidationError("a person cannot be their own partner")
	}
	for _, p := range m.Parents {
		if m.HasChild(p) {
			return model.NewValidationError("a person cannot be both a parent and a child of the same individual")
		}
	}
	return nil
}

// SaveBatch computes the atomic batch for saving one member: companion
// patches that keep every relationship symmetric, then the member's own
// document. prev is the member's last persisted state (nil for a new
// member); byID is the current snapshot of the collection, read just before
// the commit.
//
// Only members present in the snapshot are patched. The record itself must
// already carry its id.
func SaveBatch(rec model.Member, prev *model.Member, byID map[string]model.Member) ([]store.Op, error) {
	if rec.ID == "" {
		return nil, model.NewPersistenceError("member id must be assigned before batching", nil)
	}

	var old model.Member
	if prev != nil {
		old = *prev
	}

	var ops []store.Op
	patch := func(companionID, field string, include bool) {
		companion, ok := byID[companionID]
		if !ok {
			return
		}
		var current []string
		switch field {
		case "partners":
			current = companion.Partners
		case "parents":
			current = companion.Parents
		case "children":
			current = companion.Children
		}
		var next []string
		if include {
			next = addID(current, rec.ID)
		} else {
			next = removeID(current, rec.ID)
		}
		ops = append(ops, store.UpdateOp(companionID, map[string]interface{}{field: next}))
	}

	added, removed := diffIDs(old.Partners, rec.Partners)
	for _, id := range added {
		patch(id, "partners", true)
	}
	for _, id := range removed {
		patch(id, "partners", false)
	}

	// A new parent gains this member as a child; a dropped parent loses it.
	added, removed = diffIDs(old.Parents, rec.Parents)
	for _, id := range added {
		patch(id, "children", true)
	}
	for _, id := range removed {
		patch(id, "children", false)
	}

	// Mirror for children: the child's parent set tracks this member.
	added, removed = diffIDs(old.Children, rec.Children)
	for _, id := range added {
		patch(id, "parents", true)
	}
	for _, id := range removed {
		patch(id, "parents", false)
	}

	ops = append(ops, store.SetOp(rec))
	return ops, nil
}

// DeleteBatch computes the cascade for removing one member: strip its id
// from every other member's relationship sets, then delete the document
// itself. Removal is idempotent per document, so mutual references need no
// special casing.
func DeleteBatch(members []model.Member, id string) []store.Op {
	var ops []store.Op
	for _, m := range members {
		if m.ID == id {
			continue
		}
		fields := make(map[string]interface{})
		if m.HasParent(id) {
			fields["parents"] = removeID(m.Parents, id)
		}
		if m.HasChild(id) {
			fields["children"] = removeID(m.Children, id)
		}
		if m.HasPartner(id) {
			fields["partners"] = removeID(m.Partners, id)
		}
		if len(fields) > 0 {
			ops = append(ops, store.UpdateOp(m.ID, fields))
		}
	}
	ops = append(ops, store.DeleteOp(id))
	return ops
}

// CheckInvariants verifies relationship symmetry, referential integrity and
// the no-self/no-overlap rules across a full member set. Used by tests and
// available as a consistency probe.
func CheckInvariants(members []model.Member) error {
	byID := ByID(members)
	for _, m := range members {
		if m.HasParent(m.ID) || m.HasChild(m.ID) || m.HasPartner(m.ID) {
			return fmt.Errorf("member %s references itself", m.ID)
		}
		for _, p := range m.Parents {
			if m.HasChild(p) {
				return fmt.Errorf("member %s has %s as both parent and child", m.ID, p)
			}
			other, ok := byID[p]
			if !ok {
				return fmt.Errorf("member %s references missing parent %s", m.ID, p)
			}
			if !other.HasChild(m.ID) {
				return fmt.Errorf("parent link %s->%s is not mirrored", m.ID, p)
			}
		}
		for _, c := range m.Children {
			other, ok := byID[c]
			if !ok {
				return fmt.Errorf("member %s references missing child %s", m.ID, c)
			}
			if !other.HasParent(m.ID) {
				return fmt.Errorf("child link %s->%s is not mirrored", m.ID, c)
			}
		}
		for _, p := range m.Partners {
			other, ok := byID[p]
			if !ok {
				return fmt.Errorf("member %s references missing partner %s", m.ID, p)
			}
			if !other.HasPartner(m.ID) {
				return fmt.Errorf("partner link %s->%s is not mirrored", m.ID, p)
			}
		}
	}
	return nil
}

// ByID indexes a member set by id.
func ByID(members []model.Member) map[string]model.Member {
	byID := make(map[string]model.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	return byID
}

// diffIDs returns the ids present only in next (added) and only in prev
// (removed).
func diffIDs(prev, next []string) (added, removed []string) {
	prevSet := toSet(prev)
	nextSet := toSet(next)
	for _, id := range next {
		if !prevSet[id] {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if !nextSet[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func addID(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return append([]string(nil), ids...)
		}
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
