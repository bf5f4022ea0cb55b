// Package ident implements a single tagged-union identifier value that
// can name a module, element, sub-element, API, event, or notification,
// and that carries enough information to validate itself against the
// loaded module table's bounds at every boundary crossing.
package ident
