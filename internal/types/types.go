package types

import "github.com/DoyleJ11/crowd-maze/internal/session"

// ClientMessage is what a websocket client may send. The only type is
// "Chat"; renderers normally send nothing.
type ClientMessage struct {
	Type     string `json:"type"`
	SenderID string `json:"sender_id,omitempty"`
	Text     string `json:"text,omitempty"`
}

type ServerMessage struct {
	Type     string            `json:"type"` // "StateSnapshot" | "Error"
	Version  int               `json:"version,omitempty"`
	Snapshot *session.Snapshot `json:"snapshot,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// ChatRequest is the body of POST /sessions/{code}/chat.
type ChatRequest struct {
	SenderID string `json:"sender_id"`
	Text     string `json:"text"`
}

type CreateSessionResponse struct {
	Code string `json:"code"`
}

type ListSessionsResponse struct {
	Codes []string `json:"codes"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
