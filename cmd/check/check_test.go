package check

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestParseLegacyMap(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name    string
		input   string
		want    map[int]int
		wantErr string
	}{
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:  "single pair",
			input: "17=2",
			want:  map[int]int{17: 2},
		},
		{
			name:  "multiple pairs with spaces",
			input: "17=2, 18=3",
			want:  map[int]int{17: 2, 18: 3},
		},
		{
			name:    "missing separator",
			input:   "17",
			wantErr: `invalid legacy-map entry "17" .*`,
		},
		{
			name:    "non-numeric revision",
			input:   "abc=2",
			wantErr: `invalid legacy revision "abc": .*`,
		},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			got, err := parseLegacyMap(tt.input)
			if tt.wantErr != "" {
				c.Assert(err, qt.ErrorMatches, tt.wantErr)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.DeepEquals, tt.want)
		})
	}
}

func TestLoadExpectedSchema(t *testing.T) {
	c := qt.New(t)

	writeSchema := func(c *qt.C, data string) string {
		path := filepath.Join(c.TB.TempDir(), "schema.json")
		err := os.WriteFile(path, []byte(data), 0o644)
		c.Assert(err, qt.IsNil)
		return path
	}

	c.Run("valid schema file", func(c *qt.C) {
		path := writeSchema(c, `{"tables":[{"name":"users","columns":[
			{"name":"id","type":"integer","primary_key":true},
			{"name":"email","type":"string","indexed":true}]}]}`)

		schema, err := loadExpectedSchema(path)
		c.Assert(err, qt.IsNil)
		c.Assert(schema.Tables, qt.HasLen, 1)
		c.Assert(schema.Tables[0].Name, qt.Equals, "users")
		c.Assert(schema.Tables[0].Columns[0].IsPrimaryKey, qt.IsTrue)
		c.Assert(schema.Tables[0].Columns[1].IsIndexed, qt.IsTrue)
	})

	c.Run("missing file", func(c *qt.C) {
		_, err := loadExpectedSchema("nonexistent.json")
		c.Assert(err, qt.ErrorMatches, "failed to read expected schema: .*")
	})

	c.Run("empty table set", func(c *qt.C) {
		path := writeSchema(c, `{"tables":[]}`)
		_, err := loadExpectedSchema(path)
		c.Assert(err, qt.ErrorMatches, ".*has no tables")
	})

	c.Run("duplicate column name rejected", func(c *qt.C) {
		path := writeSchema(c, `{"tables":[{"name":"users","columns":[
			{"name":"id","type":"integer"},
			{"name":"id","type":"string"}]}]}`)
		_, err := loadExpectedSchema(path)
		c.Assert(err, qt.ErrorMatches, `invalid expected schema .*: table users: duplicate column name: id`)
	})

	c.Run("unknown type kind rejected", func(c *qt.C) {
		path := writeSchema(c, `{"tables":[{"name":"users","columns":[
			{"name":"id","type":"varchar2"}]}]}`)
		_, err := loadExpectedSchema(path)
		c.Assert(err, qt.ErrorMatches, `invalid expected schema .*: table users, column id: unknown type kind "varchar2"`)
	})
}
