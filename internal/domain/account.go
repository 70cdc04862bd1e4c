package domain

import "time"

// Account is the scoping boundary for all aggregation. Accounts share no
// state with each other.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
