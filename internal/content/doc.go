// Package content filters, sorts and pages catalog slices held in memory.
//
// Every function returns a new slice and leaves its input untouched, so
// callers can hand in slices shared with a store.
package content
