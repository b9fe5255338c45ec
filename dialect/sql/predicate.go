package sql

// Predicate applies a condition to a Builder.
type Predicate func(*Builder)

// Filter applies the predicates as AND conditions.
func (b *Builder) Filter(ps ...Predicate) *Builder {
	for _, p := range ps {
		p(b)
	}
	return b
}

// And groups the predicates in parentheses joined by AND.
func And(ps ...Predicate) Predicate {
	return func(b *Builder) {
		b.WhereGroup(func(q *Builder) { q.Filter(ps...) })
	}
}

// Or groups the predicates in parentheses joined by OR.
func Or(ps ...Predicate) Predicate {
	return func(b *Builder) {
		b.WhereGroup(func(q *Builder) {
			for _, p := range ps {
				q.OrWhereGroup(func(g *Builder) { p(g) })
			}
		})
	}
}

// Not negates the grouped predicates.
func Not(ps ...Predicate) Predicate {
	return func(b *Builder) {
		b.addNested("AND", whereNotNested, func(q *Builder) { q.Filter(ps...) })
	}
}

// FieldEQ returns a predicate comparing column = v.
func FieldEQ(column string, v any) Predicate {
	return func(b *Builder) { b.Where(column, "=", v) }
}

// FieldNEQ returns a predicate comparing column <> v.
func FieldNEQ(column string, v any) Predicate {
	return func(b *Builder) { b.Where(column, "<>", v) }
}

// FieldGT returns a predicate comparing column > v.
func FieldGT(column string, v any) Predicate {
	return func(b *Builder) { b.Where(column, ">", v) }
}

// FieldGTE returns a predicate comparing column >= v.
func FieldGTE(column string, v any) Predicate {
	return func(b *Builder) { b.Where(column, ">=", v) }
}

// FieldLT returns a predicate comparing column < v.
func FieldLT(column string, v any) Predicate {
	return func(b *Builder) { b.Where(column, "<", v) }
}

// FieldLTE returns a predicate comparing column <= v.
func FieldLTE(column string, v any) Predicate {
	return func(b *Builder) { b.Where(column, "<=", v) }
}

// FieldLike returns a LIKE predicate.
func FieldLike(column, pattern string) Predicate {
	return func(b *Builder) { b.Where(column, "like", pattern) }
}

// FieldIsNull returns an IS NULL predicate.
func FieldIsNull(column string) Predicate {
	return func(b *Builder) { b.WhereNull(column) }
}

// FieldNotNull returns an IS NOT NULL predicate.
func FieldNotNull(column string) Predicate {
	return func(b *Builder) { b.WhereNotNull(column) }
}

// Field is a typed column reference that builds predicates.
//
// Usage:
//
//	var Age = sql.Field[int]("age")
//	db.Table("users").Filter(Age.GTE(18), Age.NotNull())
type Field[T any] string

// Name returns the column name.
func (f Field[T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals the given value.
func (f Field[T]) EQ(v T) Predicate { return FieldEQ(string(f), v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f Field[T]) NEQ(v T) Predicate { return FieldNEQ(string(f), v) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f Field[T]) GT(v T) Predicate { return FieldGT(string(f), v) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f Field[T]) GTE(v T) Predicate { return FieldGTE(string(f), v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f Field[T]) LT(v T) Predicate { return FieldLT(string(f), v) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f Field[T]) LTE(v T) Predicate { return FieldLTE(string(f), v) }

// In returns a predicate that checks if the field value is in the given list.
func (f Field[T]) In(vs ...T) Predicate {
	return func(b *Builder) { b.WhereIn(string(f), toAny(vs)...) }
}

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f Field[T]) NotIn(vs ...T) Predicate {
	return func(b *Builder) { b.WhereNotIn(string(f), toAny(vs)...) }
}

// Between returns a predicate that checks if the field is within [low, high].
func (f Field[T]) Between(low, high T) Predicate {
	return func(b *Builder) { b.WhereBetween(string(f), low, high) }
}

// IsNull returns a predicate that checks if the field is NULL.
func (f Field[T]) IsNull() Predicate { return FieldIsNull(string(f)) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f Field[T]) NotNull() Predicate { return FieldNotNull(string(f)) }

func toAny[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
