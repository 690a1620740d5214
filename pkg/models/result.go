package models

import (
	"time"

	"github.com/google/uuid"
)

// ResultKind tags the shape of an execution result so consumers never have to
// sniff field names to tell a KPI summary from a row series.
type ResultKind string

const (
	// ResultKindSeries is a multi-row detail or grouped result.
	ResultKindSeries ResultKind = "series"
	// ResultKindKPI is a single aggregate summary row for a time window.
	ResultKindKPI ResultKind = "kpi"
)

// QueryResult is the outcome of one guarded SQL execution.
type QueryResult struct {
	Kind    ResultKind       `json:"kind"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// RowCount returns the number of rows in the result.
func (r *QueryResult) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// ChatTurn is the persisted record of one completed (or failed) chat turn.
type ChatTurn struct {
	ID            uuid.UUID  `json:"id"`
	SessionID     string     `json:"session_id"`
	CorrelationID string     `json:"correlation_id"`
	Question      string     `json:"question"`
	Lang          string     `json:"lang"`
	SQLText       string     `json:"sql_text"`
	RowCount      int        `json:"row_count"`
	Status        TurnStatus `json:"status"`
	ErrorDetail   string     `json:"error_detail,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TurnStatus describes how a chat turn ended.
type TurnStatus string

const (
	TurnStatusOK        TurnStatus = "ok"
	TurnStatusRejected  TurnStatus = "rejected"
	TurnStatusFailed    TurnStatus = "failed"
	TurnStatusAmbiguous TurnStatus = "ambiguous"
	TurnStatusExpired   TurnStatus = "expired"
)
