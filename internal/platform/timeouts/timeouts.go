// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// DirectoryRequest caps the time allowed for a single directory lookup
// against the teams service.
const DirectoryRequest = 2 * time.Second

// EmailSend caps the time allowed for one outbound SMTP delivery.
const EmailSend = 10 * time.Second
