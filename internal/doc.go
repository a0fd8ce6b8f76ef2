// Package internal holds primitives shared by the engine and its subpackages:
// opaque refresh-token generation and hashing. Nothing here performs I/O.
package internal
