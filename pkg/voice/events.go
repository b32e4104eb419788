// Package voice is the client side of the realtime voice channel: a
// websocket carrying base64 PCM16 audio out and transcripts, audio and
// search results back.
package voice

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Event types exchanged on the voice socket
const (
	TypeAudioAppend     = "input_audio_buffer.append"
	TypeSpeechStarted   = "input_audio_buffer.speech_started"
	TypeSpeechStopped   = "input_audio_buffer.speech_stopped"
	TypeAudioDelta      = "response.audio.delta"
	TypeAudioDone       = "response.audio.done"
	TypeTranscriptDelta = "response.audio_transcript.delta"
	TypeTranscriptDone  = "response.audio_transcript.done"
	TypeInputTranscript = "conversation.item.input_audio_transcription.completed"
	TypeResponseDone    = "response.done"
	TypeConversation    = "conversation_created"
	TypeSearchResults   = "search_results"
	TypeError           = "error"
)

// Event is one JSON message on the socket. Only the fields of its type are
// set.
type Event struct {
	Type           string          `json:"type"`
	Audio          string          `json:"audio,omitempty"`
	Delta          string          `json:"delta,omitempty"`
	Transcript     string          `json:"transcript,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Query          string          `json:"query,omitempty"`
	URLs           []string        `json:"urls,omitempty"`
	Tables         json.RawMessage `json:"tables,omitempty"`
	Error          *EventError     `json:"error,omitempty"`
}

// EventError is the payload of an error event
type EventError struct {
	Message string `json:"message"`
}

// AppendAudio builds an outbound audio chunk event
func AppendAudio(pcm []byte) Event {
	return Event{Type: TypeAudioAppend, Audio: base64.StdEncoding.EncodeToString(pcm)}
}

// AudioBytes decodes the base64 PCM16 payload of an audio delta
func (e Event) AudioBytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(e.Delta)
	if err != nil {
		return nil, fmt.Errorf("invalid audio delta: %w", err)
	}
	return data, nil
}

// ErrorMessage returns the server's error text
func (e Event) ErrorMessage() string {
	if e.Error != nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return "voice session error"
}
