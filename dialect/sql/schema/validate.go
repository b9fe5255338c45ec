package schema

import (
	"fmt"
	"strings"

	"github.com/syssam/fluentdb"
)

// ValidationError represents a blueprint validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of blueprint validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err returns the errors as a single configuration error, or nil.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fluentdb.NewConfigError("validate table", strings.Join(msgs, "; "), fluentdb.ErrInvalidArgument)
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - " + e.Error() + "\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - " + w.Error() + "\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateTable validates a table blueprint after its implied commands
// were added. Index and foreign key columns are checked only for
// blueprints that create the table, since altered tables have columns the
// blueprint does not know about.
func ValidateTable(t *Table) *ValidationResult {
	result := &ValidationResult{}
	errorf := func(column, format string, args ...any) {
		result.Errors = append(result.Errors, &ValidationError{Table: t.name, Column: column, Message: fmt.Sprintf(format, args...)})
	}

	colNames := make(map[string]bool, len(t.columns))
	var primaries int
	for _, c := range t.columns {
		if colNames[c.name] {
			errorf(c.name, "duplicate column name")
		}
		colNames[c.name] = true
		if c.autoIncrement() {
			primaries++
		}
	}

	idxNames := make(map[string]bool)
	for _, cmd := range t.commands {
		switch cmd.typ {
		case CommandPrimary, CommandUnique, CommandIndex, CommandFulltext, CommandForeign:
		default:
			continue
		}
		if cmd.typ == CommandPrimary {
			primaries++
		}
		if idxNames[cmd.name] {
			errorf("", "duplicate index name: %s", cmd.name)
		}
		idxNames[cmd.name] = true
		if len(cmd.columns) == 0 {
			errorf("", "index %q has no columns", cmd.name)
		}
		if cmd.typ == CommandForeign && (cmd.on == "" || len(cmd.references) == 0) {
			errorf("", "foreign key %q needs References and On", cmd.name)
		}
		if !t.creating {
			continue
		}
		for _, col := range cmd.columns {
			if !colNames[col] {
				errorf("", "index %q references non-existent column %q", cmd.name, col)
			}
		}
	}

	if t.creating {
		switch {
		case primaries > 1:
			errorf("", "table has %d primary keys", primaries)
		case primaries == 0:
			result.Warnings = append(result.Warnings, &ValidationError{Table: t.name, Message: "table has no primary key"})
		}
	}
	return result
}
