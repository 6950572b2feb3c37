// Package timeouts defines shared timeout constants used across the service.
// Centralizing these values prevents drift between boundaries and makes the
// durations discoverable.
package timeouts

import "time"

// Extractor caps the wait for one candidate-extraction call against the
// local language model.
const Extractor = 60 * time.Second

// CalendarRequest caps the time allowed for a single external calendar call.
const CalendarRequest = 10 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
