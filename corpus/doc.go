// Package corpus loads raw text records, normalizes them into core.Record
// values and persists the prepared result as CSV.
//
// Normalization is a pure string transform: whitespace is collapsed,
// combining marks are stripped for the text that gets embedded, and the
// publication date is lifted from the URL path when it has the form
// /YYYY/MM/DD/.
package corpus
