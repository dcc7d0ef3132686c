// Package dom holds the node helpers the engine uses on top of
// golang.org/x/net/html: attribute and class manipulation, traversal,
// ancestor lookup, a small selector subset, and fragment parsing.
package dom
