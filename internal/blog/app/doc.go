// Package server composes and runs the blog process boundary.
//
// It hosts the gRPC API plus the HTTP/JSON API over one SQLite store so both
// transports make identical domain decisions.
package server
