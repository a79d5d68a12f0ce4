package postgres

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/sekhmet/sekhmet/dbschema/types"
)

func TestColumnDef(t *testing.T) {
	c := qt.New(t)

	fkTable := "users"
	fkCol := "id"

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
			name: "not null string",
			col:  types.DBColumn{Name: "email", TypeKind: types.KindString},
			want: `"email" VARCHAR(255) NOT NULL`,
		},
		{
			name: "nullable text",
			col:  types.DBColumn{Name: "bio", TypeKind: types.KindText, IsNullable: true},
			want: `"bio" TEXT`,
		},
		{
			name: "foreign key",
			col:  types.DBColumn{Name: "user_id", TypeKind: types.KindInteger, ForeignTable: &fkTable, ForeignColumn: &fkCol},
			want: `"user_id" INTEGER NOT NULL REFERENCES "users" ("id")`,
		},
		{
			name: "json column",
			col:  types.DBColumn{Name: "payload", TypeKind: types.KindJSON, IsNullable: true},
			want: `"payload" JSONB`,
		},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			c.Assert(columnDef(tt.col), qt.Equals, tt.want)
		})
	}
}

func TestTypeForKind(t *testing.T) {
	c := qt.New(t)

	c.Assert(typeForKind(types.KindDateTime), qt.Equals, "TIMESTAMP")
	c.Assert(typeForKind(types.KindBinary), qt.Equals, "BYTEA")
	c.Assert(typeForKind(types.KindUnknown), qt.Equals, "TEXT")
	c.Assert(typeForKind("something-else"), qt.Equals, "TEXT")
}
