// Package models contains the data types shared across the engine.
package models

// FilterLock is a confirmed, session-scoped filter value for one dimension.
// Exact is true when the value was verified against the warehouse (single
// candidate or an explicit user pick); false for best-effort unverified locks.
type FilterLock struct {
	Value  string `json:"value"`
	Locked bool   `json:"locked"`
	Exact  bool   `json:"exact"`
}

// PDFUser identifies the user a generated report is attributed to.
type PDFUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ChatContext is the per-session conversation state. It is owned by the
// chatstate store; mutation is whole-value replace (read-modify-write by the
// caller).
type ChatContext struct {
	// Filters maps dimension key to its active lock. At most one lock per
	// dimension key.
	Filters    map[string]FilterLock `json:"filters"`
	LastPerson string                `json:"last_person,omitempty"`
	PDFUser    *PDFUser              `json:"pdf_user,omitempty"`
}

// NewChatContext returns an empty context with an initialized filter map.
func NewChatContext() *ChatContext {
	return &ChatContext{Filters: make(map[string]FilterLock)}
}

// Clone returns a deep copy, used to snapshot pre-turn state for rollback.
func (c *ChatContext) Clone() *ChatContext {
	if c == nil {
		return NewChatContext()
	}
	out := &ChatContext{
		Filters:    make(map[string]FilterLock, len(c.Filters)),
		LastPerson: c.LastPerson,
	}
	for k, v := range c.Filters {
		out.Filters[k] = v
	}
	if c.PDFUser != nil {
		u := *c.PDFUser
		out.PDFUser = &u
	}
	return out
}

// SetLock records a filter lock for a dimension, replacing any previous one.
func (c *ChatContext) SetLock(dimKey, value string, exact bool) {
	if c.Filters == nil {
		c.Filters = make(map[string]FilterLock)
	}
	c.Filters[dimKey] = FilterLock{Value: value, Locked: true, Exact: exact}
}

// ClearLock drops the lock for a dimension, if any.
func (c *ChatContext) ClearLock(dimKey string) {
	delete(c.Filters, dimKey)
}

// PickOption is one entry of a disambiguation option list.
type PickOption struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
	Sub   string `json:"sub,omitempty"`
	Value string `json:"value"`
}

// PendingPick is an outstanding disambiguation question. It is created when a
// candidate search returns two or more matches and consumed by the next reply.
type PendingPick struct {
	Type            string       `json:"type"`
	Prompt          string       `json:"prompt"`
	Options         []PickOption `json:"options"`
	DimKey          string       `json:"dim_key"`
	OriginalMessage string       `json:"original_message"`
	OriginalMode    string       `json:"original_mode,omitempty"`
}

// Candidate is one fuzzy-match result for a dimension value, ranked by how
// often it appears in recent records.
type Candidate struct {
	Value string
	Count int
}
