// Package server implements the WebSocket transport and per-connection
// sessions for the Parley chat service.
//
// The implementation is organized into specialized files for configuration,
// hub management, clients, sessions, the event protocol, routing, and HTTP
// handlers to keep the codebase maintainable and testable as the project
// grows. Chat-level state (names, rooms, messages) lives in internal/chat;
// this package decides the address of each emission and moves the bytes.
package server
