// Package protocol defines the websocket payloads exchanged on the command channel.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeCommand       MessageType = "command"
	TypeCommandResult MessageType = "command_result"
	TypeSystemEvent   MessageType = "system_event"
	TypeErrorEvent    MessageType = "error_event"
)

// Input sources a command may arrive from.
const (
	SourceText  = "text"
	SourceVoice = "voice"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ClientCommand carries one utterance from a text box or a speech recogniser.
type ClientCommand struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id,omitempty"`
	Text      string      `json:"text"`
	Source    string      `json:"source,omitempty"`
}

type CommandResult struct {
	Type      MessageType `json:"type"`
	ID        string      `json:"id"`
	RequestID string      `json:"request_id,omitempty"`
	Response  string      `json:"response"`
	Tier      string      `json:"tier"`
	Action    string      `json:"action"`
	TSMs      int64       `json:"ts_ms"`
}

type SystemEvent struct {
	Type         MessageType `json:"type"`
	ConnectionID string      `json:"connection_id"`
	Code         string      `json:"code"`
	Detail       string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id,omitempty"`
	Code      string      `json:"code"`
	Source    string      `json:"source"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeCommand:
		var msg ClientCommand
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, errors.New("invalid command: text is required")
		}
		switch msg.Source {
		case "":
			msg.Source = SourceText
		case SourceText, SourceVoice:
		default:
			return nil, fmt.Errorf("invalid command: unknown source %q", msg.Source)
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
