package kafka_client

import "time"

const (
	MAX_RETRIES  = 5
	RETRY_DELAY  = 2 * time.Second
	READ_TIMEOUT = 500 * time.Millisecond

	// Flush timeout in milliseconds when the producer shuts down.
	FLUSH_TIMEOUT_MS = 5000
)
