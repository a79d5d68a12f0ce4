package sqlite

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/sekhmet/sekhmet/dbschema/types"
)

func TestColumnDef(t *testing.T) {
	c := qt.New(t)

	fkTable := "users"

	tests := []struct {
		name string
		col  types.DBColumn
		want string
	}{
		{
			name: "primary key",
			col:  types.DBColumn{Name: "id", TypeKind: types.KindInteger, IsPrimaryKey: true},
			want: `"id" INTEGER PRIMARY KEY`,
		},
		{
			name: "foreign key defaults to id column",
			col:  types.DBColumn{Name: "user_id", TypeKind: types.KindInteger, ForeignTable: &fkTable},
			want: `"user_id" INTEGER NOT NULL REFERENCES "users" ("id")`,
		},
		{
			name: "json keeps its declared type",
			col:  types.DBColumn{Name: "payload", TypeKind: types.KindJSON, IsNullable: true},
			want: `"payload" JSON`,
		},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			c.Assert(columnDef(tt.col), qt.Equals, tt.want)
		})
	}
}
