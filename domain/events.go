package domain

// Mode is the coarse session state visible to the client. It reflects
// whose turn it is: idle (nothing happening), listening (accumulating
// user audio or ready for it), speaking (agent audio is being streamed).
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeListening Mode = "listening"
	ModeSpeaking  Mode = "speaking"
)

// Event is one element of a turn's outbound stream. Events are immutable
// once constructed and are delivered to the client in production order.
type Event interface {
	isEvent()
}

// TranscriptEvent carries the recognized user utterance.
type TranscriptEvent struct {
	Text  string
	Final bool
}

// AgentTextEvent carries one chunk of the agent's reply text.
type AgentTextEvent struct {
	Text  string
	Final bool
}

// AgentAudioEvent carries one synthesized audio segment. Final marks a
// self-contained, independently playable segment.
type AgentAudioEvent struct {
	Audio []byte
	Final bool
}

// ModeChangeEvent announces a session mode transition.
type ModeChangeEvent struct {
	Mode Mode
}

// ErrorEvent surfaces a turn-scoped failure to the client.
type ErrorEvent struct {
	Message string
}

func (TranscriptEvent) isEvent() {}
func (AgentTextEvent) isEvent()  {}
func (AgentAudioEvent) isEvent() {}
func (ModeChangeEvent) isEvent() {}
func (ErrorEvent) isEvent()      {}
