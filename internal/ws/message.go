package ws

// controlMessage is the only message a client is expected to send on an
// open detections socket: {"type":"cancel"} tells the
// server to stop the in-flight analysis early, the same outcome as the
// client simply closing the connection.
type controlMessage struct {
	Type string `json:"type"`
}

const controlTypeCancel = "cancel"
