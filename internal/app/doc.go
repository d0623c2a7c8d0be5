// Package app provides the application service layer.
//
// Orchestrates the rumor lifecycle: posting, the weighted vote ledger, the kill switch, lazy
// promotion and settlement, and reputation redistribution. Sits between HTTP handlers and the
// domain store. Depends on domain interfaces, not concrete implementations.
package app
