// SPDX-License-Identifier: MIT

package media

// Fields describes a partial update to a record. Nil members are left
// untouched by the store so concurrent writers never clobber each other's
// columns.
type Fields struct {
	SourcePath             *string
	PreferredRenditionPath *string
	HeroImagePath          *string
	ThumbnailImagePath     *string
	DurationSeconds        *int
	Renditions             *[]Rendition
}

// IsZero reports whether the update would touch nothing.
func (f Fields) IsZero() bool {
	return f.SourcePath == nil &&
		f.PreferredRenditionPath == nil &&
		f.HeroImagePath == nil &&
		f.ThumbnailImagePath == nil &&
		f.DurationSeconds == nil &&
		f.Renditions == nil
}

// String returns a pointer to s, for building Fields literals.
func String(s string) *string { return &s }

// Int returns a pointer to i, for building Fields literals.
func Int(i int) *int { return &i }
