// Package filesystem implements the filesystem tool service.
//
// Read, list, and search results of unbounded size are delivered across
// multiple stateless calls through the size-budgeted chunking engine
// (internal/budget, internal/chunk) and continuation tokens
// (internal/continuation). Writes of arbitrary size go through the atomic
// write pipeline (internal/atomicwrite). Every handler resolves
// client-supplied paths through the injected path guard before touching
// the filesystem.
package filesystem
