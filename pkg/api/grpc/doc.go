// Package grpc serves the standard gRPC health service.
//
// Both the server-wide status and the genflow.Engine service report SERVING
// while every worker of the pool is running.
package grpc
