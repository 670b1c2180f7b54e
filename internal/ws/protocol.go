package ws

// Ack answers every frame the client sends.
type Ack struct {
	Ok     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
}

const (
	errInvalidEnvelope = "invalid_envelope"
	errTextOnly        = "text_frames_only"
	errEngineStopped   = "engine_stopped"
)
