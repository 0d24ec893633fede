// Package blogv1 contains the Go bindings for the blog.v1 wire contract
// defined in api/proto/blog/v1/blog.proto.
//
// The message types use the legacy struct-tag form and are adapted to the
// protobuf runtime through protoadapt, so they marshal identically to
// generated proto3 messages. The files are maintained by hand and must be
// kept in sync with the .proto source.
package blogv1
