package models

import "time"

// Record is one row of kv_records.
type Record struct {
	Key       string    `db:"record_key"`
	Value     string    `db:"record_value"`
	UpdatedAt time.Time `db:"updated_at"`
}
