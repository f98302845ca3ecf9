package models

import "time"

// Submission identifies one row a user submitted into a dynamic table.
type Submission struct {
	Table     string    `json:"table,omitempty"`
	RecordID  int64     `json:"record_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableBlock is one table of an export: header plus stringified rows.
type TableBlock struct {
	Table  string     `json:"table"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

type SummaryRow struct {
	Table string `json:"table"`
	Count int64  `json:"count"`
}
