// Structure of Server-Side-Events (SSE) Model in Quorum.

package entity

// Event type sent once to a freshly subscribed client.
const SSETypeConnected = "connected"

// Event type broadcasted to every client when a question is submitted.
const SSETypeNewQuestion = "new-question"

// A discrete message pushed to stream clients.
// Serialized as data: <JSON>\n\n on the wire.
type SSEEvent struct {
	Type      string    `json:"type"`
	Question  *Question `json:"question,omitempty"`
	Timestamp string    `json:"timestamp"`
}

// Body of the internal publish trigger POST on the stream endpoint.
type SSEPublishRequest struct {
	Question *Question `json:"question"`
}
