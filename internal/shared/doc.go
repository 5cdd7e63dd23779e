// Package shared holds cross-cutting helpers that belong to no single
// domain package.
//
// The testutil subpackage provides the slog recorder used by tests that
// assert on what a component logged. Code here must stay free of business
// logic and of dependencies on other internal packages.
package shared
