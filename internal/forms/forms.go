// Package forms holds the short-lived input of the client dialogs. Each form
// validates locally before any remote call and is reset when its dialog closes.
package forms

import (
	"errors"
	"strings"

	"github.com/and161185/dittokanban/internal/model"
	"github.com/gofrs/uuid/v5"
)

// Validation messages.
const (
	MsgTitleRequired      = "Título é obrigatório"
	MsgCredentialsMissing = "Email e senha são obrigatórios"
	MsgInvalidEmail       = "Email inválido"
	MsgWeakPassword       = "A senha deve ter pelo menos 6 caracteres"
	MsgNameRequired       = "Nome é obrigatório para cadastro"
	MsgPasswordMismatch   = "As senhas não coincidem"
	MsgInvalidPriority    = "Prioridade inválida"
)

// Error is a validation failure carrying the message to show.
type Error struct{ Message string }

func (e *Error) Error() string { return e.Message }

func invalid(msg string) error { return &Error{Message: msg} }

// Message returns the user-facing text of a validation error.
func Message(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func requireTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", invalid(MsgTitleRequired)
	}
	return t, nil
}

// BoardForm is the create/rename board dialog.
type BoardForm struct {
	Title string
}

func (f *BoardForm) Validate() error {
	_, err := requireTitle(f.Title)
	return err
}

func (f *BoardForm) Reset() { *f = BoardForm{} }

// Create returns the create input for owner.
func (f *BoardForm) Create(owner uuid.UUID) (model.CreateBoard, error) {
	t, err := requireTitle(f.Title)
	if err != nil {
		return model.CreateBoard{}, err
	}
	return model.CreateBoard{Title: t, OwnerID: owner}, nil
}

// Update returns the rename input.
func (f *BoardForm) Update() (model.UpdateBoard, error) {
	t, err := requireTitle(f.Title)
	if err != nil {
		return model.UpdateBoard{}, err
	}
	return model.UpdateBoard{Title: &t}, nil
}

// ColumnForm is the create/rename column dialog.
type ColumnForm struct {
	Title string
}

func (f *ColumnForm) Validate() error {
	_, err := requireTitle(f.Title)
	return err
}

func (f *ColumnForm) Reset() { *f = ColumnForm{} }

// Create returns the input for appending a column to b.
func (f *ColumnForm) Create(b *model.Board) (model.CreateColumn, error) {
	t, err := requireTitle(f.Title)
	if err != nil {
		return model.CreateColumn{}, err
	}
	return model.CreateColumn{Title: t, BoardID: b.ID, Order: model.NextColumnOrder(b)}, nil
}

// Update returns the rename input.
func (f *ColumnForm) Update() (model.UpdateColumn, error) {
	t, err := requireTitle(f.Title)
	if err != nil {
		return model.UpdateColumn{}, err
	}
	return model.UpdateColumn{Title: &t}, nil
}

// TaskForm is the create/edit task dialog.
type TaskForm struct {
	Title       string
	Description string
	Priority    model.Priority // zero means unset
}

// LoadTask fills the form from an existing task.
func (f *TaskForm) LoadTask(t model.Task) {
	f.Title = t.Title
	f.Description = ""
	if t.Description != nil {
		f.Description = *t.Description
	}
	f.Priority = 0
	if t.Priority != nil {
		f.Priority = *t.Priority
	}
}

func (f *TaskForm) Validate() error {
	if _, err := requireTitle(f.Title); err != nil {
		return err
	}
	if f.Priority != 0 && !f.Priority.Valid() {
		return invalid(MsgInvalidPriority)
	}
	return nil
}

func (f *TaskForm) Reset() { *f = TaskForm{} }

func (f *TaskForm) fields() (string, *string, *model.Priority, error) {
	if err := f.Validate(); err != nil {
		return "", nil, nil, err
	}
	t := strings.TrimSpace(f.Title)
	var desc *string
	if d := strings.TrimSpace(f.Description); d != "" {
		desc = &d
	}
	var prio *model.Priority
	if f.Priority != 0 {
		p := f.Priority
		prio = &p
	}
	return t, desc, prio, nil
}

// Create returns the input for appending a task to column.
func (f *TaskForm) Create(column uuid.UUID) (model.CreateTask, error) {
	t, desc, prio, err := f.fields()
	if err != nil {
		return model.CreateTask{}, err
	}
	return model.CreateTask{Title: t, Description: desc, ColumnID: column, Priority: prio}, nil
}

// Update returns the edit input. An emptied description is sent as "".
func (f *TaskForm) Update() (model.UpdateTask, error) {
	t, desc, prio, err := f.fields()
	if err != nil {
		return model.UpdateTask{}, err
	}
	if desc == nil {
		empty := ""
		desc = &empty
	}
	return model.UpdateTask{Title: &t, Description: desc, Priority: prio}, nil
}

// AuthMode selects which fields AuthForm requires.
type AuthMode int

const (
	SignIn AuthMode = iota
	SignUp
)

// AuthForm is the sign-in / sign-up dialog.
type AuthForm struct {
	Mode            AuthMode
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

func (f *AuthForm) Validate() error {
	email := strings.TrimSpace(f.Email)
	if email == "" || f.Password == "" {
		return invalid(MsgCredentialsMissing)
	}
	if !model.ValidEmail(email) {
		return invalid(MsgInvalidEmail)
	}
	if len(f.Password) < model.MinPasswordLen {
		return invalid(MsgWeakPassword)
	}
	if f.Mode == SignUp {
		if strings.TrimSpace(f.Name) == "" {
			return invalid(MsgNameRequired)
		}
		if f.Password != f.ConfirmPassword {
			return invalid(MsgPasswordMismatch)
		}
	}
	return nil
}

// Reset clears every field but keeps the mode.
func (f *AuthForm) Reset() { *f = AuthForm{Mode: f.Mode} }
