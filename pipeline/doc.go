// Package pipeline runs the ordered stages of a search build, skipping any
// stage whose output artifact is already on disk.
package pipeline
