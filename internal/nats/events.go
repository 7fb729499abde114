package nats

import "time"

// FetchTimeout is the default timeout for batch fetching messages from consumers.
const FetchTimeout = 2 * time.Second

// Stream names.
const (
	StreamEvents = "STUDYQ_EVENTS"
)

// Subject constants.
const (
	SubjectUsageRecorded = "studyq.events.usage"
)
