// Package field implements the editor adapters bound to data-plugin nodes.
//
// Every adapter satisfies Field: it exposes the values held by its node as a
// list of strings, distinguishes data-source loads from user updates, and
// tracks the modified and optional (set/unset) flags through the shared
// Meaningful predicate. Plugins and filters are resolved by name through a
// Registry so pages can declare new ones without touching the installer.
package field
