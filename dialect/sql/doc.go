// Package sql compiles statement descriptors into parameterized PostgreSQL
// and provides the database/sql plumbing used to run them.
//
// # Statements
//
// A statement is one of four plain descriptors:
//
//	sql.Insert{Table: "users", Sets: []sql.Set{sql.Assign("name", "a8m")}}
//	sql.Select{Table: "users", Fields: sql.Columns("id", "name"), Wheres: []sql.Where{sql.EQ("id", 5)}}
//	sql.Update{Table: "users", Sets: []sql.Set{sql.Assign("name", "b")}, Wheres: []sql.Where{sql.GT("age", 18)}}
//	sql.Delete{Table: "users", Wheres: []sql.Where{sql.In("id", []int{1, 2, 3})}}
//
// Compile turns a descriptor into a Query. Every value reaches the database
// as a bound parameter; identifiers are double-quoted:
//
//	q, _ := sql.Compile(sql.Select{Table: "accounts", Fields: sql.Columns("id", "name"), Wheres: []sql.Where{sql.EQ("id", 5)}})
//	q.SQL    // SELECT "id", "name" FROM "accounts" WHERE "id" = $1;
//	q.Params // map[p1:5]
//
// # Conditions
//
//	sql.EQ("name", "john")                      // "name" = $1
//	sql.NEQ("status", "deleted")                // "status" <> $1
//	sql.GT("age", 18)                           // "age" > $1
//	sql.Like("email", "%@example.com")          // "email" LIKE $1
//	sql.In("status", []string{"a", "b"})        // "status" = ANY($1)
//
// Conditions of one statement are combined with its Join, AND by default.
//
// # Catalog tables
//
// Selects from the names in Compiler.Catalog (CatalogTables by default) are
// written unquoted, so "information_schema.columns" resolves to the view
// instead of a table literally named that way.
//
// # Existence checks
//
//	q, err := sql.Exists("users", sql.And, sql.MatchAny("id", 1, 2), sql.MatchAny("org", 7))
//	// SELECT EXISTS (SELECT * FROM users WHERE (id = $1 OR id = $2) AND org = $3);
//
// # Connections
//
// A Connector hands out one Driver per statement. DialConnector opens a new
// connection every time; PoolConnector borrows one from a *sql.DB.
package sql
