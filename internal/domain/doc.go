// Package domain defines the core domain types and interfaces.
//
// This package contains concept-oriented files (errors.go, rules.go, rumor.go, vote.go, store.go, etc.)
// with shared types and cross-cutting interfaces. Apart from the pure rule functions there is no
// implementation code here, just contracts. Interfaces live on the consumer side to prevent circular imports.
package domain
