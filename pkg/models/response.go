package models

// KPISummary is the aggregate block computed alongside every answered
// question: total matching records plus a per-status breakdown for the same
// period and locked filters.
type KPISummary struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status,omitempty"`
}

// QuickAction is a follow-up shortcut offered with a response.
type QuickAction struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// ChatResponse is the outcome of one handled message.
type ChatResponse struct {
	Answer        string        `json:"answer"`
	CorrelationID string        `json:"correlation_id"`
	Status        TurnStatus    `json:"status"`
	Pick          *PendingPick  `json:"pick,omitempty"`
	Result        *QueryResult  `json:"result,omitempty"`
	KPI           *KPISummary   `json:"kpi,omitempty"`
	QuickActions  []QuickAction `json:"quick_actions,omitempty"`

	// SQL and Detail expose the executed statement and raw engine errors.
	// Only populated when the debug flag is on.
	SQL    string `json:"sql,omitempty"`
	Detail string `json:"detail,omitempty"`
}
