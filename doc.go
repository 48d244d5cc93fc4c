// Package netql is a fluent SQL builder and lightweight record mapper on top of
// database/sql.
//
// Statements are composed through chained calls, rendered once into dialect
// specific SQL with named bind parameters, compiled into the placeholder form
// the driver expects and executed inside a scoped unit of work that commits or
// rolls back and always leaves the builder clean for the next statement.
//
// # Quick Start
//
//	db, err := netql.Connect("mysql", "user:pass@tcp(localhost:3306)/app?parseTime=true")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
// The dialect is resolved from the driver name; WithDialect overrides it.
//
// # Select Queries
//
//	users, err := netql.ReadAsList[User](ctx, db.Select("id,name,email", "users").
//	    Where("status", "active").
//	    OrWhereOp("age", ">", 18).
//	    Desc("created_at").
//	    Limit(10))
//
// Read iterates rows by hand:
//
//	n, err := db.From("users").Read(func(r *netql.Row) error {
//	    name, err := netql.Get[string](r, "name")
//	    ...
//	})
//
// # Subqueries
//
// Nested builders get their own identity, so their parameters never collide
// with the outer statement. Every parameter of a nested builder is bound exactly
// once to the statement that runs.
//
//	db.Select("*", "users").WhereIn("id", func(sub *netql.Builder) {
//	    sub.Select("user_id", "orders").WhereOp("total", ">", 100)
//	})
//
// # Insert, Update, Delete
//
//	_, err := db.Insert("users").AddValue("name", "Ann").AddValue("age", 30).Execute(nil)
//	_, err = db.Update("users").SetValue("active", false).Where("id", 7).Execute(nil)
//	_, err = db.Delete("users").WhereNull("email").Execute(nil)
//
//	// one VALUES tuple per record; fields tagged or named "_..." are skipped
//	_, err = db.Insert("users").Bulk(users).Execute(nil)
//
// # Transactions
//
// Writes run in their own transaction unless the builder holds one:
//
//	b := db.Builder().Transaction(true)
//	b.Insert("accounts").AddValue("id", 1).Execute(nil)
//	b.Update("accounts").SetValue("balance", 10).Where("id", 1).Execute(nil)
//	err := b.Commit()
//
// DB.Transaction and DB.Begin give a caller-managed *Transaction instead.
//
// # Raw SQL
//
// Text prefixed with "!!" (see Raw) is inserted verbatim wherever an identifier
// or a value is expected. WhereInLiteral writes its values into the SQL text
// without binding or escaping them; never feed it untrusted input.
//
// # Thread Safety
//
// DB is safe for concurrent use. Builder and Mutation are not; create one per
// goroutine.
//
// # Supported Databases
//
//   - SQL Server ([name], @param)
//   - MySQL / MariaDB (`name`, ?)
//   - PostgreSQL ("name", $n)
//   - Oracle ("name", :param)
//   - SQLite ("name", ?)
package netql
