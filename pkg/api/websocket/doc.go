// Package websocket provides real-time graph streaming via WebSocket.
//
// Clients connect to /api/v1/graph/ws. The first frame carries a full graph
// snapshot; every following frame carries one graph or run event.
package websocket
