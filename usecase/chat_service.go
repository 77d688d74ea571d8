package usecase

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danhartono/amara/server/domain/entities"
	"github.com/danhartono/amara/server/domain/repositories"
	"github.com/danhartono/amara/server/internal/knowledge"
)

const (
	synthesisTimeout = 10 * time.Second

	generationMaxTokens   = 1000
	generationTemperature = 0.6

	relevanceMaxTokens = 10

	introAudioFile   = "intro_0.wav"
	introLipsyncFile = "intro_0.json"
)

// ChatService runs the chat turn pipeline: relevance gating, reply
// generation, and per-message speech synthesis. A nil language model or
// synthesizer marks the corresponding credential as missing and degrades
// every turn to the canned apology.
type ChatService struct {
	llm      repositories.LanguageModel
	tts      repositories.SpeechSynthesizer
	base     *knowledge.Base
	audioDir string
	logger   *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	llm repositories.LanguageModel,
	tts repositories.SpeechSynthesizer,
	base *knowledge.Base,
	audioDir string,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		llm:      llm,
		tts:      tts,
		base:     base,
		audioDir: audioDir,
		logger:   logger,
	}
}

// Chat executes one turn and returns the ordered reply messages. Only a
// language-model transport failure returns an error; every other failure
// degrades the affected message and the turn still succeeds.
func (s *ChatService) Chat(ctx context.Context, userMessage string) ([]entities.ReplyMessage, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return []entities.ReplyMessage{s.greetingMessage()}, nil
	}

	if s.llm == nil || s.tts == nil {
		s.logger.Warn("Provider credentials missing, returning degraded reply",
			zap.Bool("llmConfigured", s.llm != nil),
			zap.Bool("ttsConfigured", s.tts != nil))
		return []entities.ReplyMessage{{
			Text:             missingKeysText,
			FacialExpression: entities.ExpressionAngry,
			Animation:        entities.AnimationAngry,
			Audio:            "",
			Lipsync:          entities.DefaultLipsync(),
		}}, nil
	}

	relevant, err := s.classifyRelevance(ctx, userMessage)
	if err != nil {
		return nil, err
	}
	if !relevant {
		message := entities.ReplyMessage{
			Text:             refusalText,
			FacialExpression: entities.ExpressionDefault,
			Animation:        entities.AnimationTalking0,
			Lipsync:          entities.DefaultLipsync(),
		}
		message.Audio = s.synthesize(ctx, message.Text)
		return []entities.ReplyMessage{message}, nil
	}

	raw, err := s.llm.Complete(ctx, repositories.CompletionRequest{
		System:      generationPrompt(s.base.Text()),
		User:        userMessage,
		MaxTokens:   generationMaxTokens,
		Temperature: generationTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generation call failed: %w", err)
	}

	messages, ok := parseReplyMessages(raw)
	if !ok {
		s.logger.Warn("Model reply was not parseable, substituting fallback",
			zap.String("raw", preview(raw)))
		messages = []entities.ReplyMessage{{
			Text:             confusedText,
			FacialExpression: entities.ExpressionSad,
			Animation:        entities.AnimationIdle,
		}}
	}

	// Sequential by design: one slow or failing synthesis degrades its own
	// message and never aborts the rest of the batch.
	for i := range messages {
		messages[i].Audio = s.synthesize(ctx, messages[i].Text)
		messages[i].Lipsync = entities.DefaultLipsync()
	}

	return messages, nil
}

// ErrorMessage returns the single fixed reply served with HTTP 500 when a
// turn fails outright.
func ErrorMessage() entities.ReplyMessage {
	return entities.ReplyMessage{
		Text:             serverErrorText,
		FacialExpression: entities.ExpressionSad,
		Animation:        entities.AnimationCrying,
		Audio:            "",
		Lipsync:          entities.DefaultLipsync(),
	}
}

// classifyRelevance asks the model whether the message concerns the
// knowledge base. An empty base skips the gate entirely, and a verdict
// without a recognizable keyword fails open so a confused classifier
// never blocks generation.
func (s *ChatService) classifyRelevance(ctx context.Context, userMessage string) (bool, error) {
	if !s.base.Loaded() {
		return true, nil
	}

	verdict, err := s.llm.Complete(ctx, repositories.CompletionRequest{
		System:      relevancePrompt(s.base.Text()),
		User:        userMessage,
		MaxTokens:   relevanceMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		return false, fmt.Errorf("relevance check failed: %w", err)
	}

	if strings.Contains(strings.ToUpper(verdict), relevanceVerdictIrrelevant) {
		s.logger.Info("Message classified as out of domain",
			zap.String("verdict", preview(verdict)))
		return false, nil
	}
	return true, nil
}

// synthesize renders text to speech through a transient file and returns
// the audio base64-encoded. Any failure, including the 10s timeout,
// degrades to an empty string.
func (s *ChatService) synthesize(ctx context.Context, text string) string {
	filePath := filepath.Join(s.audioDir, fmt.Sprintf("message_%s.mp3", uuid.New().String()))

	ttsCtx, cancel := context.WithTimeout(ctx, synthesisTimeout)
	defer cancel()

	if err := s.tts.SynthesizeToFile(ttsCtx, text, filePath); err != nil {
		s.logger.Warn("Speech synthesis failed, sending silent message",
			zap.String("file", filePath),
			zap.Error(err))
		return ""
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		s.logger.Warn("Failed to read synthesized audio",
			zap.String("file", filePath),
			zap.Error(err))
		return ""
	}

	if err := os.Remove(filePath); err != nil {
		s.logger.Warn("Failed to remove transient audio file",
			zap.String("file", filePath),
			zap.Error(err))
	}

	return base64.StdEncoding.EncodeToString(data)
}

// greetingMessage builds the fixed empty-input greeting from the
// pre-recorded intro assets, falling back to silence and the default
// track when they are missing.
func (s *ChatService) greetingMessage() entities.ReplyMessage {
	message := entities.ReplyMessage{
		Text:             greetingText,
		FacialExpression: entities.ExpressionSmile,
		Animation:        entities.AnimationTalking1,
		Audio:            "",
		Lipsync:          entities.DefaultLipsync(),
	}

	audioPath := filepath.Join(s.audioDir, introAudioFile)
	if data, err := os.ReadFile(audioPath); err == nil {
		message.Audio = base64.StdEncoding.EncodeToString(data)
	} else {
		s.logger.Warn("Pre-recorded intro audio unavailable",
			zap.String("file", audioPath),
			zap.Error(err))
	}

	lipsyncPath := filepath.Join(s.audioDir, introLipsyncFile)
	if data, err := os.ReadFile(lipsyncPath); err == nil {
		var track entities.LipsyncTrack
		if err := json.Unmarshal(data, &track); err == nil {
			message.Lipsync = track
		} else {
			s.logger.Warn("Pre-recorded intro lipsync unreadable",
				zap.String("file", lipsyncPath),
				zap.Error(err))
		}
	} else {
		s.logger.Warn("Pre-recorded intro lipsync unavailable",
			zap.String("file", lipsyncPath),
			zap.Error(err))
	}

	return message
}

// preview truncates raw model output for log fields, cutting on a rune
// boundary so multi-byte characters are never split.
func preview(raw string) string {
	const limit = 120
	if len(raw) <= limit {
		return raw
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(raw[cut]) {
		cut--
	}
	return raw[:cut] + "..."
}
