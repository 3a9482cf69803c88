// Package graph implements the graph store and the resolution engine.
//
// The store owns the canonical node and edge collections and applies
// structural mutations atomically:
//   - AddNode / AddEdge / DeleteNode / DeleteEdge / PatchNodeData
//   - ApplyNodeChanges / ApplyEdgeChanges for batches sent by the canvas
//
// Deleting a node removes its incident edges in the same critical section.
// Patching a node that no longer exists is a silent no-op, which is how late
// generation responses for deleted nodes are discarded.
//
// Resolution follows incoming edges in insertion order and reads each
// source's emitted value; sources without a value contribute nothing.
package graph
