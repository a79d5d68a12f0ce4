package types_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/sekhmet/sekhmet/dbschema/types"
)

func TestNormalizeTypeKind(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		dataType string
		want     string
	}{
		{"integer", types.KindInteger},
		{"BIGINT", types.KindInteger},
		{"tinyint(1) unsigned", types.KindInteger},
		{"bigint unsigned", types.KindInteger},
		{"double", types.KindFloat},
		{"double precision", types.KindFloat},
		{"numeric(20,6)", types.KindNumeric},
		{"varchar(255)", types.KindString},
		{"character varying", types.KindString},
		{"character varying(100)", types.KindString},
		{"text", types.KindText},
		{"bool", types.KindBoolean},
		{"timestamp without time zone", types.KindDateTime},
		{"timestamp with time zone", types.KindDateTime},
		{"datetime", types.KindDateTime},
		{"date", types.KindDate},
		{"bytea", types.KindBinary},
		{"jsonb", types.KindJSON},
		{"geometry", types.KindUnknown},
		{"", types.KindUnknown},
	}

	for _, tt := range tests {
		c.Run(tt.dataType, func(c *qt.C) {
			c.Assert(types.NormalizeTypeKind(tt.dataType), qt.Equals, tt.want)
		})
	}
}
