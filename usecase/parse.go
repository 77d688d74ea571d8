package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danhartono/amara/server/domain/entities"
)

// messagesEnvelope matches the {"messages": [...]} wrapper some models
// emit around the reply array.
type messagesEnvelope struct {
	Messages json.RawMessage `json:"messages"`
}

// parseStrategy attempts to extract reply messages from a raw model response.
type parseStrategy func(raw string) ([]entities.ReplyMessage, error)

var parseStrategies = []parseStrategy{
	parseEnvelope,
	parseDirect,
	parseEmbeddedObject,
}

// parseReplyMessages runs the ordered recovery strategies over the raw
// model output. The second return value is false only when every strategy
// failed and the caller must substitute the canned fallback message; a
// well-formed empty array parses successfully and passes through as zero
// messages.
func parseReplyMessages(raw string) ([]entities.ReplyMessage, bool) {
	for _, strategy := range parseStrategies {
		if messages, err := strategy(raw); err == nil {
			if messages == nil {
				messages = []entities.ReplyMessage{}
			}
			return messages, true
		}
	}
	return nil, false
}

// parseEnvelope handles a top-level object carrying a messages field.
// Only an absent field is an error; an empty messages array is a valid
// parse.
func parseEnvelope(raw string) ([]entities.ReplyMessage, error) {
	var envelope messagesEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, err
	}
	if envelope.Messages == nil {
		return nil, fmt.Errorf("no messages field")
	}
	return decodeMessages(envelope.Messages)
}

// parseDirect handles a bare array or a bare message object.
func parseDirect(raw string) ([]entities.ReplyMessage, error) {
	return decodeMessages(json.RawMessage(raw))
}

// parseEmbeddedObject extracts the outermost {...} substring from prose or
// code-fenced output and retries the other strategies on it.
func parseEmbeddedObject(raw string) ([]entities.ReplyMessage, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no embedded JSON object")
	}

	candidate := raw[start : end+1]
	if messages, err := parseEnvelope(candidate); err == nil {
		return messages, nil
	}
	return decodeMessages(json.RawMessage(candidate))
}

// decodeMessages decodes either an array of messages or a single message
// object, which is coerced into a one-element array.
func decodeMessages(raw json.RawMessage) ([]entities.ReplyMessage, error) {
	var messages []entities.ReplyMessage
	if err := json.Unmarshal(raw, &messages); err == nil {
		return messages, nil
	}

	var single entities.ReplyMessage
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, err
	}
	return []entities.ReplyMessage{single}, nil
}
