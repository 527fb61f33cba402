package cli

import (
	"fmt"

	"github.com/syssam/pgstmt/dialect/sql/sqlgraph"
)

// Describe renders err for the terminal, naming the violated constraint
// class when the server reported one.
func Describe(err error) string {
	var class string
	switch {
	case sqlgraph.Code(err) == "":
	case sqlgraph.IsUniqueConstraintError(err):
		class = "unique violation"
	case sqlgraph.IsForeignKeyConstraintError(err):
		class = "foreign key violation"
	case sqlgraph.IsNotNullConstraintError(err):
		class = "not null violation"
	case sqlgraph.IsCheckConstraintError(err):
		class = "check violation"
	}
	if class == "" {
		return err.Error()
	}
	return fmt.Sprintf("%v [%s]", err, class)
}
