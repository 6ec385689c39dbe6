package domain

import "time"

// Member is a registered account. Email is the canonical identity key and is
// unique in the store. A member with a non-empty password hash registered
// locally; an empty password marks the account as provisioned by a federated
// OAuth login.
type Member struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Username  string    `json:"username" db:"username"`
	Password  string    `json:"-" db:"password"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Federated reports whether the member was provisioned by an OAuth login
// rather than the local join form.
func (m Member) Federated() bool {
	return m.Password == ""
}
