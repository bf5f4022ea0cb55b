// Package arch defines the platform boundary the core depends on: a
// small interface standing between the core and whatever messy
// platform-specific implementation backs it on real hardware. Sim plays
// the role a test double plays for any other external dependency — a
// software stand-in that satisfies the same interface for tests and the
// demo harness.
package arch
