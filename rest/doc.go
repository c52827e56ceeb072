// Package rest implements the client.Client contract over the service's
// HTTP API.
//
// All request plumbing lives in one place: URL construction under the /api/
// prefix, token authentication, per-request ids, structured request logging
// and metrics. Operations above it are thin: issue a request, decode JSON
// into package models types, and for list endpoints hand the page endpoint
// to package pagination.
package rest
