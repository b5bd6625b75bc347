package model

import (
	"regexp"
	"time"

	"github.com/gofrs/uuid/v5"
)

// EventKind names a structural change on a board.
type EventKind string

// Board change kinds.
const (
	EventBoardCreated  EventKind = "board.created"
	EventBoardUpdated  EventKind = "board.updated"
	EventBoardDeleted  EventKind = "board.deleted"
	EventColumnCreated EventKind = "column.created"
	EventColumnUpdated EventKind = "column.updated"
	EventColumnDeleted EventKind = "column.deleted"
	EventTaskCreated   EventKind = "task.created"
	EventTaskUpdated   EventKind = "task.updated"
	EventTaskMoved     EventKind = "task.moved"
	EventTaskDeleted   EventKind = "task.deleted"
)

// BoardEvent tells subscribers that a board changed and should be refetched.
type BoardEvent struct {
	Kind     EventKind `json:"kind"`
	BoardID  uuid.UUID `json:"board_id"`
	EntityID uuid.UUID `json:"entity_id"`
	OwnerID  uuid.UUID `json:"-"` // routing only
	At       time.Time `json:"at"`
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool { return emailRe.MatchString(s) }

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 6
