package enem

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is matching on the typed errors below.
var (
	ErrConfig       = errors.New("configuration error")
	ErrInvalidEntry = errors.New("invalid entry")
	ErrSchema       = errors.New("schema error")
	ErrType         = errors.New("type error")
	ErrDomain       = errors.New("domain error")
)

// ConfigError indicates a malformed rule or option. It is never retried.
type ConfigError struct {
	Column string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("invalid configuration for column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// InvalidEntryError reports the first column holding out-of-domain values.
// Values are the unique offending raw values in order of appearance.
type InvalidEntryError struct {
	Column string
	Values []string
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("invalid entries found in column %q: [%s]", e.Column, strings.Join(e.Values, ", "))
}

func (e *InvalidEntryError) Is(target error) bool { return target == ErrInvalidEntry }

// SchemaError indicates required columns are absent from a table.
type SchemaError struct {
	Op      string
	Columns []string
}

func (e *SchemaError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: missing required columns: %s", e.Op, strings.Join(e.Columns, ", "))
	}
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// TypeError indicates a non-numeric column where arithmetic is required.
type TypeError struct {
	Op     string
	Column string
	Type   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: column %q must be numeric, got %s", e.Op, e.Column, e.Type)
}

func (e *TypeError) Is(target error) bool { return target == ErrType }

// DomainError indicates a request for values that do not exist in the data or in
// a fixed domain (unknown region, state absent from the table).
type DomainError struct {
	Field  string
	Values []string
	Reason string
}

func (e *DomainError) Error() string {
	if len(e.Values) > 0 {
		return fmt.Sprintf("%s %s: %s", e.Field, strings.Join(e.Values, ", "), e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *DomainError) Is(target error) bool { return target == ErrDomain }
