// Package asyncclient derives an asynchronous client from the synchronous
// client.Client contract.
//
// Every contract operation gets a same-named wrapper that submits the
// synchronous call to a shared worker pool and immediately returns a
// promise.Promise settling with the call's outcome. The wrappers are thin
// and uniform: all dispatch flows through one generic submit helper, and a
// reflection test enforces that the wrapper set stays in lockstep with the
// contract. The only exceptions are the trivial accessors named in
// ExcludedOperations, which delegate directly.
//
// Cube releases get a managed path on top: ReleaseManaged caches fetched
// releases forever (releases are immutable) and coalesces concurrent fetches
// for the same id, so any number of callers racing on an uncached release
// cost exactly one request and observe the identical instance.
//
// Wrap a client configured for static pagination; promises for list
// operations then resolve to fully materialized pages instead of lazy
// sequences that would block on later access.
package asyncclient
