// Package gen synthesizes Go migration files from a live database.
//
// The generator reads every base table through a schema.Inspector, maps the
// raw engine types onto portable column kinds and renders one migration per
// table:
//
//	live database
//	        ↓
//	   schema.Inspector (tables, columns, indexes, definition)
//	        ↓
//	   Migration (typed model: columns, modifiers, indexes, seed rows)
//	        ↓
//	   jennifer rendering
//	        ↓
//	   <Y_m_d_His>_create_<table>_table.go
//
// # Usage
//
//	drv, _ := sql.Open("mysql", dsn)
//	g, err := gen.New(drv, gen.WithPackage("migrations"))
//	if err != nil {
//		return err
//	}
//	files, err := g.Generate(ctx, "database/migrations", gen.WithSeed(), gen.Exclude("sessions"))
//
// Each file declares a Create<Table>Table type that implements
// schema.Migration and, when seeding was requested, schema.Seeder:
//
//	type CreateUsersTable struct{}
//
//	func (CreateUsersTable) Up(ctx context.Context, b *schema.Builder) error {
//		return b.Create(ctx, "users", func(t *schema.Table) {
//			t.Increments("id")
//			t.String("email", 191).Unique()
//		})
//	}
//
// # Type mapping
//
// Raw types are lower-cased and looked up in a fixed table; unknown types
// pass through unchanged and are rendered with Table.AddColumn. Parameters
// are kept only for kinds that take them (string and char lengths, numeric
// precision and scale). An auto-incrementing column named id, no or num
// becomes an increments column. The created_at and updated_at columns are
// never emitted.
package gen
