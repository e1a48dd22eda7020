// Package workspace manages scratch directories for builds and publishes,
// supporting both ephemeral (timestamped) and persistent (fixed-path) modes.
//
// Ephemeral mode creates unique timestamped directories (e.g.
// docpub-20260830-122336-1234) that are removed on Cleanup. Persistent mode
// uses a fixed directory that survives across builds.
package workspace
