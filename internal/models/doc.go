// Package models provides the bounded, least-recently-used cache of named
// model handles.
//
// The cache never exceeds its configured capacity: eviction happens inside
// the same critical section as insertion, so concurrent callers racing on
// misses for different names cannot overshoot. What a "model handle" is stays
// opaque to the daemon; the cache only transports it.
package models
