package tts

import (
	"context"
	"fmt"
	"os"

	"github.com/danhartono/amara/server/domain/repositories"
)

// MockSynthesizer is a file-writing SpeechSynthesizer for tests.
type MockSynthesizer struct {
	Audio     []byte
	Err       error // returned on every synthesis call when set
	ErrOnce   error // returned on the first synthesis call only
	VoiceList []map[string]interface{}
	VoicesErr error

	Texts        []string
	HadDeadlines []bool
	calls        int
}

// Ensure MockSynthesizer implements the SpeechSynthesizer interface
var _ repositories.SpeechSynthesizer = (*MockSynthesizer)(nil)

// SynthesizeToFile writes the scripted audio bytes to filePath
func (m *MockSynthesizer) SynthesizeToFile(ctx context.Context, text string, filePath string) error {
	m.calls++
	m.Texts = append(m.Texts, text)
	_, hasDeadline := ctx.Deadline()
	m.HadDeadlines = append(m.HadDeadlines, hasDeadline)

	if m.Err != nil {
		return m.Err
	}
	if m.ErrOnce != nil && m.calls == 1 {
		return m.ErrOnce
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("synthesis cancelled: %w", err)
	}

	return os.WriteFile(filePath, m.Audio, 0o644)
}

// Voices returns the scripted voice list
func (m *MockSynthesizer) Voices(ctx context.Context) ([]map[string]interface{}, error) {
	if m.VoicesErr != nil {
		return nil, m.VoicesErr
	}
	return m.VoiceList, nil
}
