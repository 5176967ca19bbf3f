// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports). Implementations live under
// internal/adapters/driven and internal/loaders.
package driven
