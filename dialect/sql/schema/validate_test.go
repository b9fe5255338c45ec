package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/fluentdb"
)

func validated(fn func(*Table)) *ValidationResult {
	t := NewTable("users")
	fn(t)
	t.addImpliedCommands()
	return ValidateTable(t)
}

func TestValidateTable(t *testing.T) {
	tests := []struct {
		name     string
		build    func(*Table)
		errors   []string
		warnings []string
	}{
		{
			name: "valid",
			build: func(t *Table) {
				t.Create()
				t.Increments("id")
				t.String("email").Unique()
			},
		},
		{
			name: "no primary key",
			build: func(t *Table) {
				t.Create()
				t.String("email")
			},
			warnings: []string{"users: table has no primary key"},
		},
		{
			name: "two primary keys",
			build: func(t *Table) {
				t.Create()
				t.Increments("id")
				t.String("code").Primary()
			},
			errors: []string{"users: table has 2 primary keys"},
		},
		{
			name: "duplicate column",
			build: func(t *Table) {
				t.Create()
				t.Increments("id")
				t.String("name")
				t.Text("name")
			},
			errors: []string{"users.name: duplicate column name"},
		},
		{
			name: "duplicate index name",
			build: func(t *Table) {
				t.Index("a").Named("idx")
				t.Index("b").Named("idx")
			},
			errors: []string{"users: duplicate index name: idx"},
		},
		{
			name: "unknown index column",
			build: func(t *Table) {
				t.Create()
				t.Increments("id")
				t.Index("missing")
			},
			errors: []string{`users: index "users_missing_index" references non-existent column "missing"`},
		},
		{
			name: "altered table index column",
			build: func(t *Table) {
				t.Index("existing")
			},
		},
		{
			name: "empty index and foreign key",
			build: func(t *Table) {
				t.Unique().Named("uq")
				t.Foreign("team_id")
			},
			errors: []string{
				`users: index "uq" has no columns`,
				`users: foreign key "users_team_id_foreign" needs References and On`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validated(tt.build)
			var errs, warns []string
			for _, e := range r.Errors {
				errs = append(errs, e.Error())
			}
			for _, w := range r.Warnings {
				warns = append(warns, w.Error())
			}
			assert.Equal(t, tt.errors, errs)
			assert.Equal(t, tt.warnings, warns)
		})
	}
}

func TestValidationResult(t *testing.T) {
	r := validated(func(t *Table) {
		t.Create()
		t.Increments("id")
	})
	assert.NoError(t, r.Err())
	assert.Equal(t, "No issues found", r.String())

	r = validated(func(t *Table) {
		t.Create()
		t.String("a")
		t.String("a")
	})
	require.True(t, r.HasErrors())
	require.True(t, r.HasWarnings())
	err := r.Err()
	assert.ErrorIs(t, err, fluentdb.ErrInvalidArgument)
	assert.Equal(t, "fluentdb: validate table: users.a: duplicate column name", err.Error())
	assert.Equal(t, "Errors:\n  - users.a: duplicate column name\nWarnings:\n  - users: table has no primary key\n", r.String())
}
