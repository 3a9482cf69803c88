// Package domain holds the core types of a generation graph: nodes and their
// kind-specific payloads, edges, resolved inputs, run states and change events.
//
// A node's payload is a closed tagged union. Every payload reports its Kind and
// a node is never built with a payload whose Kind disagrees with the node's own.
package domain
