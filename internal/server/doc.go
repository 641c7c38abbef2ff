// Package server exposes the file-operation contract over HTTP for
// tool-calling layers that live out of process. One endpoint per
// contract operation, plus a raw download endpoint with a sniffed
// Content-Type, health, and Prometheus metrics.
//
// The server holds a backend.Backend interface value; which substrate
// is behind it is wiring, not API.
package server
