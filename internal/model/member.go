package model

import (
	"time"
)

// DateLayout is the calendar date format used for birth and death dates.
const DateLayout = "2006-01-02"

// Member is one person document in a user's family collection.
//
// Relationship fields hold ids of other members and are stored denormalized
// in both directions: B in A.Partners implies A in B.Partners, and P in
// A.Parents implies A in P.Children. The graph package maintains the mirror
// side on every write.
type Member struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Alias     string `json:"alias"`
	Gender    string `json:"gender"`
	BirthDate string `json:"birthDate" binding:"omitempty,isodate"`
	DeathDate string `json:"deathDate" binding:"omitempty,isodate"`
	PhotoURL  string `json:"photoUrl"`
	Bio       string `json:"bio"`

	Parents  []string `json:"parents"`
	Children []string `json:"children"`
	Partners []string `json:"partners"`
}

// FullName returns the display name.
func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// HasParent reports whether id is in the member's parent set.
func (m Member) HasParent(id string) bool { return containsID(m.Parents, id) }

// HasChild reports whether id is in the member's child set.
func (m Member) HasChild(id string) bool { return containsID(m.Children, id) }

// HasPartner reports whether id is in the member's partner set.
func (m Member) HasPartner(id string) bool { return containsID(m.Partners, id) }

// Clone returns a deep copy of the member, including relationship slices.
func (m Member) Clone() Member {
	c := m
	c.Parents = append([]string(nil), m.Parents...)
	c.Children = append([]string(nil), m.Children...)
	c.Partners = append([]string(nil), m.Partners...)
	return c
}

// AgeAt computes the member's age in whole years at the given time, using
// the death date instead when one is recorded. Returns false when the birth
// date is missing or unparseable.
func (m Member) AgeAt(now time.Time) (int, bool) {
	if m.BirthDate == "" {
		return 0, false
	}
	start, err := time.Parse(DateLayout, m.BirthDate)
	if err != nil {
		return 0, false
	}
	end := now
	if m.DeathDate != "" {
		if d, err := time.Parse(DateLayout, m.DeathDate); err == nil {
			end = d
		}
	}
	age := end.Year() - start.Year()
	if end.Month() < start.Month() || (end.Month() == start.Month() && end.Day() < start.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age, true
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
