package llm

import (
	"context"
	"fmt"

	"github.com/danhartono/amara/server/domain/repositories"
)

// MockLanguageModel is a scripted LanguageModel for tests. Each call to
// Complete consumes the next response in order; running out of scripted
// responses is an error so tests notice unexpected extra calls.
type MockLanguageModel struct {
	Responses []string
	Err       error

	Requests []repositories.CompletionRequest
}

// Ensure MockLanguageModel implements the LanguageModel interface
var _ repositories.LanguageModel = (*MockLanguageModel)(nil)

// Complete implements repositories.LanguageModel
func (m *MockLanguageModel) Complete(ctx context.Context, req repositories.CompletionRequest) (string, error) {
	m.Requests = append(m.Requests, req)

	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Requests) > len(m.Responses) {
		return "", fmt.Errorf("no scripted response for call %d", len(m.Requests))
	}

	return m.Responses[len(m.Requests)-1], nil
}
