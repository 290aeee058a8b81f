package live

import (
	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/sampler"
)

// Client message types.
const (
	TypeStart     = "start"
	TypeFrame     = "frame"
	TypeDetection = "detection"
	TypeEnd       = "end"
)

// Server message types.
const (
	TypeReady  = "ready"
	TypeEvents = "events"
	TypeResult = "result"
	TypeError  = "error"
)

// ClientMessage is one text frame sent by the browser or capture client.
// A session opens with start, streams frame or detection messages in time
// order and closes with end.
type ClientMessage struct {
	Type       string                  `json:"type"`
	Transcript string                  `json:"transcript,omitempty"`
	Frame      *model.Frame            `json:"frame,omitempty"`
	Detection  *sampler.TimedDetection `json:"detection,omitempty"`
	Partial    bool                    `json:"partial,omitempty"`
	Enrich     bool                    `json:"enrich,omitempty"`
}

// ServerMessage is one text frame sent back to the client.
type ServerMessage struct {
	Type     string             `json:"type"`
	Session  string             `json:"session,omitempty"`
	Events   []model.IssueEvent `json:"events,omitempty"`
	Analysis *model.Analysis    `json:"analysis,omitempty"`
	Message  string             `json:"message,omitempty"`
}
