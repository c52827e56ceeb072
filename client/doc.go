// Package client defines the synchronous contract against a cube-catalog
// service, its configuration surface, and the metrics hooks shared by all
// implementations.
//
// The Client interface is the single source of truth for the service's
// operation set: the REST implementation in package rest satisfies it, and
// the asynchronous facade in package asyncclient derives its promise-based
// counterpart from it method by method.
package client
