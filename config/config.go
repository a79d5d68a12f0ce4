// Package config provides configuration options for the Sekhmet schema guard.
//
// This package provides a simple, programmatic API for configuring schema
// verification behavior when using Sekhmet as a library. It focuses on
// providing clean Go APIs rather than external configuration file management.
package config

import "github.com/sekhmet/sekhmet/migration/compare"

// VerifyOptions names which attributes participate in structural schema
// verification. The two sets are passed explicitly to every comparison call:
// attributes outside them are intentionally ignored, which allows tolerating
// divergence that is expected to vary between storage engines (e.g. string
// lengths) without weakening the contract silently.
type VerifyOptions struct {
	// ColumnAttributes are the column-level attributes to verify.
	ColumnAttributes []string

	// TypeAttributes are the type-level attributes to verify.
	TypeAttributes []string
}

// DefaultVerifyOptions returns the canonical attribute sets: nullability,
// primary key and indexing for columns, and the semantic type kind for types.
// Foreign key targets are not verified by default because reflected foreign
// key support differs between storage engines.
func DefaultVerifyOptions() *VerifyOptions {
	return &VerifyOptions{
		ColumnAttributes: []string{
			compare.AttrNullable,
			compare.AttrPrimaryKey,
			compare.AttrIndexed,
		},
		TypeAttributes: []string{
			compare.AttrTypeKind,
		},
	}
}

// WithColumnAttributes returns a new VerifyOptions with the given column
// attribute set and the default type attribute set.
func WithColumnAttributes(attrs ...string) *VerifyOptions {
	opts := DefaultVerifyOptions()
	opts.ColumnAttributes = attrs
	return opts
}

// WithTypeAttributes returns a new VerifyOptions with the given type
// attribute set and the default column attribute set.
func WithTypeAttributes(attrs ...string) *VerifyOptions {
	opts := DefaultVerifyOptions()
	opts.TypeAttributes = attrs
	return opts
}

// VerifiesColumnAttribute reports whether the given column attribute
// participates in verification under this configuration.
func (o *VerifyOptions) VerifiesColumnAttribute(attr string) bool {
	for _, a := range o.ColumnAttributes {
		if a == attr {
			return true
		}
	}
	return false
}
