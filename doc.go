// Package analyzer is the semantic core of an incremental Rust source-code
// analysis engine. Given a workspace of files grouped into source roots and
// crates, it maintains a semantic model — module trees, definition identity,
// per-module name scopes, and path resolution — that interactive tooling
// (completion, navigation, diagnostics) queries.
//
// # Host and snapshots
//
// [AnalysisHost] owns all inputs. The only way to mutate it is
// [AnalysisHost.Apply] with a [Change] batch; each applied batch establishes
// a new revision. [AnalysisHost.Analysis] returns an immutable [Analysis]
// snapshot pinned to the revision current at that moment:
//
//	host := analyzer.NewAnalysisHost()
//	change := analyzer.NewChange()
//	change.AddRoot(0, true)
//	change.AddFile(0, 1, "lib.rs", "mod foo;\npub struct S;")
//	change.AddFile(0, 2, "foo.rs", "use crate::S;")
//	g := analyzer.NewCrateGraph()
//	g.AddCrate(1)
//	change.SetCrateGraph(g)
//	host.Apply(change)
//
//	a := host.Analysis()
//	m, err := a.ModuleForFile(1)
//	per, err := m.ResolvePath(analyzer.MustParsePath("foo::S"))
//
// # Cancellation
//
// Reads run concurrently against a snapshot. When a new change batch lands,
// every query still in flight against an older snapshot aborts at its next
// internal checkpoint and returns [ErrCanceled]. Callers discard the partial
// result and, if still interested, retry on a fresh snapshot. Cancellation
// is driven purely by revision comparison; there are no timeouts.
//
// # Failure channels
//
// A name that does not resolve is data, not an error: an empty [PerNs], a
// nil entity, an empty slice. Structural module-layout issues (a `mod foo;`
// with no matching file, a declaration in a file that cannot own a
// directory) surface as [Problem] values on the owning module, never as
// errors. The only error ordinary queries return is [ErrCanceled].
package analyzer
