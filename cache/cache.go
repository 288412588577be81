// Package cache provides node output cache backends consumed by
// engine.Scheduler through its CacheBackend contract: keyed
// by a function or gate node's definition hash plus a digest of its resolved
// inputs. Backends here satisfy that contract structurally; nothing in this
// package imports engine.
package cache

import "github.com/gilad-rubin/hypergraph-sub004/node"

// Backend is the shape engine.CacheBackend expects: Get/Put keyed by
// (node definition hash, canonical input digest). A route node's cached
// decision is stored the same way, under a sentinel "__targets__" entry in
// the returned node.Values.
type Backend interface {
	Get(nodeHash, inputDigest string) (node.Values, bool)
	Put(nodeHash, inputDigest string, out node.Values)
}
