package models

import "time"

// IdempotencyKey stores the first completed response for a client-supplied key.
// A record with a zero StatusCode is claimed by a request still running.
type IdempotencyKey struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	Key          string    `db:"key"`
	Method       string    `db:"method"`
	Path         string    `db:"path"`
	StatusCode   int       `db:"status_code"`
	ResponseBody []byte    `db:"response_body"`
	CreatedAt    time.Time `db:"created_at"`
}

func (k *IdempotencyKey) Pending() bool {
	return k.StatusCode == 0
}
