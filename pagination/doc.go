// Package pagination presents remote paginated collections as fixed-length
// Go values.
//
// The package is agnostic to the transport: it consumes an Endpoint, a
// function from (offset, limit) to a raw page payload, and a Serializer, a
// function from one raw record to a typed entity. Two implementations of the
// Response interface are provided:
//
//   - Sequence resolves lazily. Construction costs one fetch (to learn the
//     total count); every other page is fetched on first access to one of its
//     indices and memoized. Overlapping fetches merge idempotently, so
//     concurrent access never clobbers an already resolved element.
//
//   - StaticPage is one eagerly fetched window, used by the asynchronous
//     client so that a resolved promise carries data that involves no further
//     network I/O.
//
// Element equality for Contains defaults to reflect.DeepEqual and should
// usually be narrowed with WithEquality to the entity's id-based Equal.
package pagination
