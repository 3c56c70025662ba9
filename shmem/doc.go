// Package shmem implements a lock-free allocator over a family of named
// operating-system shared-memory segments, and a small library of typed
// structures layered on top of it: owning and reference-counted boxes, an
// atomic optional cell, a fixed-length vector, and a growable multi-producer
// multi-consumer channel.
//
// Two or more unrelated processes open the same named bootstrap segment and
// thereafter allocate from it. Any address handed out by AllocBytes in one
// process can be serialized (it is just a uint64), sent to another process
// by whatever means, and resolved back to the same underlying bytes there.
//
// SharedBox, SharedVec and the option cells reach shared memory through
// VolatileCell. SharedRc's count and payload and the allocator's bootstrap
// header are reached through plain typed pointers into mapped memory.
package shmem

// Version of this module, reported by cmd/shmtool.
const Version = `0.1.0`
