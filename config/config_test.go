package config_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/sekhmet/sekhmet/config"
	"github.com/sekhmet/sekhmet/migration/compare"
)

func TestDefaultVerifyOptions(t *testing.T) {
	c := qt.New(t)

	opts := config.DefaultVerifyOptions()

	c.Assert(opts, qt.IsNotNil)
	c.Assert(opts.ColumnAttributes, qt.DeepEquals, []string{
		compare.AttrNullable,
		compare.AttrPrimaryKey,
		compare.AttrIndexed,
	})
	c.Assert(opts.TypeAttributes, qt.DeepEquals, []string{compare.AttrTypeKind})
}

func TestWithColumnAttributes(t *testing.T) {
	tests := []struct {
		name     string
		attrs    []string
		expected []string
	}{
		{
			name:     "single attribute",
			attrs:    []string{compare.AttrNullable},
			expected: []string{compare.AttrNullable},
		},
		{
			name:     "multiple attributes",
			attrs:    []string{compare.AttrNullable, compare.AttrForeignKey},
			expected: []string{compare.AttrNullable, compare.AttrForeignKey},
		},
		{
			name:     "empty set disables column verification",
			attrs:    []string{},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			opts := config.WithColumnAttributes(tt.attrs...)
			c.Assert(opts.ColumnAttributes, qt.DeepEquals, tt.expected)
			// Type attributes keep their defaults.
			c.Assert(opts.TypeAttributes, qt.DeepEquals, []string{compare.AttrTypeKind})
		})
	}
}

func TestWithTypeAttributes(t *testing.T) {
	c := qt.New(t)

	opts := config.WithTypeAttributes()
	c.Assert(opts.TypeAttributes, qt.HasLen, 0)
	c.Assert(opts.ColumnAttributes, qt.DeepEquals, config.DefaultVerifyOptions().ColumnAttributes)
}

func TestVerifiesColumnAttribute(t *testing.T) {
	c := qt.New(t)

	opts := config.DefaultVerifyOptions()
	c.Assert(opts.VerifiesColumnAttribute(compare.AttrNullable), qt.IsTrue)
	c.Assert(opts.VerifiesColumnAttribute(compare.AttrForeignKey), qt.IsFalse)
}
