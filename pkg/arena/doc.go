// Package arena implements a fixed-size bump allocator: a single buffer
// carved up once at startup so nothing in the running system calls make
// or new after boot. No third-party allocator library targets
// bump/arena allocation, so this stays on unsafe plus the standard
// library by necessity rather than preference.
package arena
