package singleinstance

// This file defines the API for single-instance ownership and capture delegation.

import (
	"context"
	"errors"
)

// ErrServerClosed is returned by Next after Close.
var ErrServerClosed = errors.New("singleinstance: server closed")

// Server owns the TCP endpoint and hands delegated requests to the resident.
type Server interface {
	// Start begins listening on the first port of the configured range.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted request, or ctx error / ErrServerClosed.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	// Request returns the parsed client request.
	Request() Request
	// RespondSuccess tells the client the request was accepted.
	RespondSuccess() error
	// RespondError sends an error with human-readable message.
	RespondError(msg string) error
	// Close closes the underlying connection.
	Close() error
}

// Command is a request understood by the resident.
type Command string

// CommandCapture asks the resident to start a capture session.
const CommandCapture Command = "CAPTURE"

// Request represents a single delegated request.
type Request struct {
	Command Command
}

// Client delegates work to a resident server.
type Client interface {
	// TryTrigger scans the port range, performs the PING handshake and asks the
	// resident to capture. If no resident is found, returns delegated=false, err=nil.
	TryTrigger(ctx context.Context) (delegated bool, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
