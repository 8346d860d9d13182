// Package apperr definiert die Fehlerklassen, die bis zur API durchgereicht werden.
package apperr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ValidationError: fehlende oder ungültige Eingaben, ohne Seiteneffekte
type ValidationError struct {
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

// Validation erstellt einen ValidationError
func Validation(message string, fields map[string]string) error {
	return &ValidationError{Message: message, Fields: fields}
}

// Field erstellt einen ValidationError für genau ein Feld
func Field(field, problem string) error {
	return &ValidationError{Message: "invalid request", Fields: map[string]string{field: problem}}
}

// NotFoundError: unbekannte Dokument-, Sitzungs- oder Seiten-ID
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// NotFound erstellt einen NotFoundError
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// PersistenceError: Schreib- oder Lesefehler der Datenbank
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Cause() error { return e.Err }

// Persistence umhüllt einen Storage-Fehler mit der Operation
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation prüft, ob err (auch umhüllt) ein ValidationError ist
func IsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	v, ok := errors.Cause(err).(*ValidationError)
	return v, ok
}

// IsNotFound prüft, ob err (auch umhüllt) ein NotFoundError ist
func IsNotFound(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}
