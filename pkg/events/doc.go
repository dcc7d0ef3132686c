// Package events implements the node-scoped notification channel used by
// commands, bindings and editors. Events bubble from their target node to
// the document root, so a subscription on a node observes its whole subtree.
package events
