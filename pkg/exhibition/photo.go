// Package exhibition runs a photo slideshow over an indexed photo library.
package exhibition

import (
	"time"
)

// Photo is one indexed photo. Optional fields are nil when the source did not provide them.
type Photo struct {
	// Locator re-opens the photo through the Source that produced it.
	Locator string
	// FilePath is only used for display.
	FilePath string

	// DateTaken is in epoch milliseconds.
	DateTaken *int64

	Exposure *float64
	Aperture *string
	ISO      *int
}

// Taken returns when the photo was taken, if known.
func (p Photo) Taken() (time.Time, bool) {
	if p.DateTaken == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*p.DateTaken), true
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
