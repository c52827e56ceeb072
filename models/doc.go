// Package models defines the domain entities served by a cube-catalog
// service: versioned cubes and their releases, patches, limited sessions
// with their pools and decks, tournaments, and rating maps.
//
// Entities decode directly from the service's JSON wire format. Deep card
// collection payloads (cubes, node collections, decks) belong to the card
// database layer and are carried opaquely as raw JSON; everything the client
// navigates by (ids, names, timestamps, relations) is typed.
//
// The service returns some entities in partial form, omitting expensive
// sub-payloads. Partial entities expose an explicit EnsureLoaded (or
// similarly named) method taking a narrow source interface; nothing is
// fetched behind a field access.
package models
