//go:build integration

// Package integration runs the publish and install paths against a real
// OCI registry.
//
// These tests require Docker and spin up a registry:2 container using testcontainers.
// Run with: go test -tags=integration ./integration/...
package integration
