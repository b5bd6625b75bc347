// Package model defines domain entities used by services, repositories and clients.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects an issued access token and its expiry.
type Tokens struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"` // access token expiry
}

// User is the application-level profile keyed by email.
type User struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Email     string    `json:"email"` // unique
}

// CreateUser is the input for creating a user.
type CreateUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Board is a named workspace owned by one user.
type Board struct {
	ID        uuid.UUID      `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Title     string         `json:"title"`
	OwnerID   uuid.UUID      `json:"owner_id"`
	Columns   Nested[Column] `json:"columns"`
}

// CreateBoard is the input for creating a board.
type CreateBoard struct {
	Title   string    `json:"title"`
	OwnerID uuid.UUID `json:"owner_id"`
}

// UpdateBoard carries a partial board update; nil fields are left unchanged.
type UpdateBoard struct {
	Title *string `json:"title,omitempty"`
}

// Column is an ordered lane within a board.
type Column struct {
	ID        uuid.UUID    `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Title     string       `json:"title"`
	BoardID   uuid.UUID    `json:"board_id"`
	Order     int          `json:"order"`
	Tasks     Nested[Task] `json:"tasks"`
	Color     string       `json:"color,omitempty"` // presentation only, never stored
}

// CreateColumn is the input for creating a column.
type CreateColumn struct {
	Title   string    `json:"title"`
	BoardID uuid.UUID `json:"board_id"`
	Order   int       `json:"order"`
}

// UpdateColumn carries a partial column update.
type UpdateColumn struct {
	Title *string `json:"title,omitempty"`
	Order *int    `json:"order,omitempty"`
}

// Task is a card placed in exactly one column.
type Task struct {
	ID          uuid.UUID `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	ColumnID    uuid.UUID `json:"column_id"`
	Order       *int      `json:"order"`
	Priority    *Priority `json:"priority"`
}

// CreateTask is the input for creating a task. A nil Order means "append".
type CreateTask struct {
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	ColumnID    uuid.UUID `json:"column_id"`
	Order       *int      `json:"order,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
}

// UpdateTask carries a partial task update.
type UpdateTask struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	ColumnID    *uuid.UUID `json:"column_id,omitempty"`
	Order       *int       `json:"order,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
}

// MoveTask relocates a task; a nil Order appends to the destination column.
type MoveTask struct {
	ColumnID uuid.UUID `json:"column_id"`
	Order    *int      `json:"order,omitempty"`
}

// Identity is an account known to the identity provider.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name,omitempty"` // display name from signup metadata
}

// Session is an authenticated identity plus its bearer token.
type Session struct {
	Tokens
	Identity Identity `json:"user"`
}

// Account is the identity provider's credential record.
type Account struct {
	ID        uuid.UUID
	Email     string // unique
	Name      string
	PwdHash   []byte // Argon2id(password, SaltAuth)
	SaltAuth  []byte
	CreatedAt time.Time
}
