// Package windowing trims a transcript to an input token budget without
// separating a tool call from its results.
package windowing
