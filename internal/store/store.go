// Package store defines the member document store boundary: batched
// all-or-nothing writes and a realtime subscription that pushes the full
// member set on every change.
package store

import (
	"context"
	"encoding/json"

	"familytree_go/internal/model"
)

// OpType is the kind of a single write inside a batch.
type OpType string

const (
	OpSet    OpType = "set"    // write the full document
	OpUpdate OpType = "update" // patch the named fields of an existing document
	OpDelete OpType = "delete" // remove the document
)

// Op is one write in a batch. Set carries the full document in Data; Update
// carries only the changed fields; Delete carries just the id.
type Op struct {
	Type   OpType
	ID     string
	Data   *model.Member
	Fields map[string]interface{}
}

// MemberStore is the external document collection that holds one user's
// family members. A batch passed to Commit either applies entirely or not
// at all; the store is the only atomicity primitive the system relies on.
type MemberStore interface {
	// NewID returns a fresh document id, assigned before the document is
	// first written.
	NewID() string

	// List reads the full member set of one user.
	List(ctx context.Context, userID string) ([]model.Member, error)

	// GetOne reads a single document. Returns (nil, nil) when absent.
	GetOne(ctx context.Context, userID, id string) (*model.Member, error)

	// Commit applies a batch atomically and notifies subscribers.
	Commit(ctx context.Context, userID string, ops []Op) error

	// Subscribe registers a realtime listener. onChange receives the full
	// current member set immediately and again after every committed batch;
	// onError receives subscription failures. The returned function stops
	// the subscription.
	Subscribe(ctx context.Context, userID string, onChange func([]model.Member), onError func(error)) (func(), error)
}

// SetOp builds a full-document write.
func SetOp(m model.Member) Op {
	c := m.Clone()
	return Op{Type: OpSet, ID: m.ID, Data: &c}
}

// UpdateOp builds a field patch for an existing document.
func UpdateOp(id string, fields map[string]interface{}) Op {
	return Op{Type: OpUpdate, ID: id, Fields: fields}
}

// DeleteOp builds a document removal.
func DeleteOp(id string) Op {
	return Op{Type: OpDelete, ID: id}
}

// applyFields merges a field patch into a member document via its JSON
// representation, so patch values use the same field names as the wire shape.
func applyFields(m model.Member, fields map[string]interface{}) (model.Member, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return m, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return m, err
	}
	for k, v := range fields {
		doc[k] = v
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return m, err
	}
	var out model.Member
	if err := json.Unmarshal(merged, &out); err != nil {
		return m, err
	}
	return out, nil
}
