package repositories

import "context"

// SpeechSynthesizer abstracts a text-to-speech provider.
type SpeechSynthesizer interface {
	// SynthesizeToFile renders text as speech audio at filePath.
	SynthesizeToFile(ctx context.Context, text string, filePath string) error
	// Voices lists the voices the provider can speak with.
	Voices(ctx context.Context) ([]map[string]interface{}, error)
}
