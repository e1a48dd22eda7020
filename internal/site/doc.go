// Package site renders the configured pages into a static HTML site.
//
// The generator is deliberately deterministic: given the same configuration
// and the same page sources it produces byte-identical output, which keeps
// publish commits free of noise. Anything time-dependent (build stamps,
// link-check results) lives outside this package.
package site
