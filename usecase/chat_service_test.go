package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/danhartono/amara/server/adapters/llm"
	"github.com/danhartono/amara/server/adapters/tts"
	"github.com/danhartono/amara/server/domain/entities"
	"github.com/danhartono/amara/server/domain/repositories"
	"github.com/danhartono/amara/server/internal/knowledge"
)

const testKnowledge = "Amara lives in a lighthouse by the sea and collects shells."

func TestChatEmptyInputReturnsGreeting(t *testing.T) {
	logger := zaptest.NewLogger(t)
	service := NewChatService(nil, nil, knowledge.NewBase(""), t.TempDir(), logger)

	for _, input := range []string{"", "   ", "\n\t"} {
		messages, err := service.Chat(context.Background(), input)
		if err != nil {
			t.Fatalf("Chat(%q) failed: %v", input, err)
		}
		if len(messages) != 1 {
			t.Fatalf("Expected exactly 1 greeting message, got %d", len(messages))
		}
		if messages[0].Animation != entities.AnimationTalking1 {
			t.Errorf("Expected greeting animation Talking_1, got %s", messages[0].Animation)
		}
		if len(messages[0].Lipsync.MouthCues) == 0 {
			t.Error("Expected greeting to carry a lipsync track")
		}
	}
}

func TestChatGreetingUsesPrerecordedAssets(t *testing.T) {
	logger := zaptest.NewLogger(t)
	audioDir := t.TempDir()

	introAudio := []byte("RIFF-intro-audio")
	if err := os.WriteFile(filepath.Join(audioDir, "intro_0.wav"), introAudio, 0o644); err != nil {
		t.Fatalf("Failed to write intro audio: %v", err)
	}
	track := entities.LipsyncTrack{
		Metadata:  entities.LipsyncMetadata{SoundFile: "intro_0.wav", Duration: 2.5},
		MouthCues: []entities.MouthCue{{Start: 0, End: 2.5, Value: "A"}},
	}
	trackJSON, _ := json.Marshal(track)
	if err := os.WriteFile(filepath.Join(audioDir, "intro_0.json"), trackJSON, 0o644); err != nil {
		t.Fatalf("Failed to write intro lipsync: %v", err)
	}

	service := NewChatService(nil, nil, knowledge.NewBase(""), audioDir, logger)
	messages, err := service.Chat(context.Background(), "")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(messages[0].Audio)
	if err != nil {
		t.Fatalf("Greeting audio is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, introAudio) {
		t.Error("Greeting audio does not round-trip the pre-recorded bytes")
	}
	if messages[0].Lipsync.Metadata.SoundFile != "intro_0.wav" {
		t.Errorf("Expected pre-recorded lipsync track, got %s", messages[0].Lipsync.Metadata.SoundFile)
	}
}

func TestChatMissingCredentials(t *testing.T) {
	logger := zaptest.NewLogger(t)

	cases := []struct {
		name string
		llm  *llm.MockLanguageModel
		tts  *tts.MockSynthesizer
	}{
		{name: "no llm", llm: nil, tts: &tts.MockSynthesizer{}},
		{name: "no tts", llm: &llm.MockLanguageModel{}, tts: nil},
		{name: "neither", llm: nil, tts: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := newServiceForTest(t, tc.llm, tc.tts, testKnowledge, logger)
			messages, err := service.Chat(context.Background(), "hello")
			if err != nil {
				t.Fatalf("Chat failed: %v", err)
			}
			if len(messages) != 1 {
				t.Fatalf("Expected exactly 1 message, got %d", len(messages))
			}
			if messages[0].Animation != entities.AnimationAngry {
				t.Errorf("Expected animation Angry, got %s", messages[0].Animation)
			}
			if messages[0].Audio != "" {
				t.Errorf("Expected empty audio, got %d bytes of base64", len(messages[0].Audio))
			}
		})
	}
}

func TestChatIrrelevantMessageReturnsRefusal(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := &llm.MockLanguageModel{Responses: []string{"IRRELEVANT"}}
	synth := &tts.MockSynthesizer{Audio: []byte("refusal-speech")}
	service := newServiceForTest(t, model, synth, testKnowledge, logger)

	messages, err := service.Chat(context.Background(), "what is the weather on Mars?")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Expected exactly 1 refusal message, got %d", len(messages))
	}
	if messages[0].Text != refusalText {
		t.Errorf("Expected fixed refusal text, got %q", messages[0].Text)
	}

	decoded, err := base64.StdEncoding.DecodeString(messages[0].Audio)
	if err != nil {
		t.Fatalf("Refusal audio is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, synth.Audio) {
		t.Error("Refusal audio does not round-trip the synthesized bytes")
	}
	if len(model.Requests) != 1 {
		t.Errorf("Expected generation to be skipped, got %d model calls", len(model.Requests))
	}
}

func TestChatRelevanceGateSkippedWhenKnowledgeEmpty(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := &llm.MockLanguageModel{Responses: []string{
		`[{"text":"Direct answer.","facialExpression":"smile","animation":"Talking_0"}]`,
	}}
	synth := &tts.MockSynthesizer{Audio: []byte("speech")}
	service := newServiceForTest(t, model, synth, "", logger)

	messages, err := service.Chat(context.Background(), "tell me anything")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(model.Requests) != 1 {
		t.Fatalf("Expected a single generation call with empty base, got %d", len(model.Requests))
	}
	if messages[0].Text != "Direct answer." {
		t.Errorf("Expected generated text, got %q", messages[0].Text)
	}
}

func TestChatGenerationAttachesAudioAndLipsync(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := &llm.MockLanguageModel{Responses: []string{
		"RELEVANT",
		`{"messages":[{"text":"First.","facialExpression":"smile","animation":"Talking_0"},{"text":"Second.","facialExpression":"default","animation":"Talking_2"}]}`,
	}}
	audio := []byte{0x49, 0x44, 0x33, 0x04, 0x00, 0xFF}
	synth := &tts.MockSynthesizer{Audio: audio}
	service := newServiceForTest(t, model, synth, testKnowledge, logger)

	messages, err := service.Chat(context.Background(), "tell me about your lighthouse")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}

	want := entities.DefaultLipsync()
	for i, message := range messages {
		decoded, err := base64.StdEncoding.DecodeString(message.Audio)
		if err != nil {
			t.Fatalf("Message %d audio is not valid base64: %v", i, err)
		}
		if !bytes.Equal(decoded, audio) {
			t.Errorf("Message %d audio does not round-trip the synthesized bytes", i)
		}
		if len(message.Lipsync.MouthCues) != len(want.MouthCues) {
			t.Errorf("Message %d missing the default lipsync track", i)
		}
	}

	if len(synth.Texts) != 2 || synth.Texts[0] != "First." || synth.Texts[1] != "Second." {
		t.Errorf("Expected sequential synthesis of both texts, got %v", synth.Texts)
	}
}

func TestChatGenerationCarriesKnowledgeInPrompt(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := &llm.MockLanguageModel{Responses: []string{
		"RELEVANT",
		`[{"text":"Ok.","facialExpression":"default","animation":"Idle"}]`,
	}}
	synth := &tts.MockSynthesizer{Audio: []byte("speech")}
	service := newServiceForTest(t, model, synth, testKnowledge, logger)

	if _, err := service.Chat(context.Background(), "shells?"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(model.Requests) != 2 {
		t.Fatalf("Expected relevance + generation calls, got %d", len(model.Requests))
	}
	for i, req := range model.Requests {
		if !strings.Contains(req.System, testKnowledge) {
			t.Errorf("Call %d system prompt does not embed the knowledge base", i)
		}
	}
	if model.Requests[1].MaxTokens != generationMaxTokens {
		t.Errorf("Expected generation max tokens %d, got %d", generationMaxTokens, model.Requests[1].MaxTokens)
	}
}

func TestChatEmptyGenerationArrayPassesThrough(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := &llm.MockLanguageModel{Responses: []string{
		"RELEVANT",
		"[]",
	}}
	synth := &tts.MockSynthesizer{Audio: []byte("speech")}
	service := newServiceForTest(t, model, synth, testKnowledge, logger)

	messages, err := service.Chat(context.Background(), "anything to add?")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("Expected a well-formed empty array to pass through, got %d messages: %v", len(messages), messages)
	}
	if len(synth.Texts) != 0 {
		t.Errorf("Expected no synthesis calls for an empty batch, got %v", synth.Texts)
	}
}

func TestChatUnparseableGenerationFallsBack(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := &llm.MockLanguageModel{Responses: []string{
		"RELEVANT",
		"I am terribly sorry, JSON eludes me today.",
	}}
	synth := &tts.MockSynthesizer{Audio: []byte("speech")}
	service := newServiceForTest(t, model, synth, testKnowledge, logger)

	messages, err := service.Chat(context.Background(), "tell me about shells")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("Expected exactly 1 fallback message, got %d", len(messages))
	}
	if messages[0].Animation != entities.AnimationIdle {
		t.Errorf("Expected fallback animation Idle, got %s", messages[0].Animation)
	}
	if messages[0].FacialExpression != entities.ExpressionSad {
		t.Errorf("Expected fallback expression sad, got %s", messages[0].FacialExpression)
	}
}

func TestChatSynthesisFailureDoesNotAbortBatch(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := &llm.MockLanguageModel{Responses: []string{
		"RELEVANT",
		`[{"text":"Broken.","facialExpression":"sad","animation":"Idle"},{"text":"Fine.","facialExpression":"smile","animation":"Talking_0"}]`,
	}}
	synth := &tts.MockSynthesizer{
		Audio:   []byte("speech"),
		ErrOnce: fmt.Errorf("voice service hiccup"),
	}
	service := newServiceForTest(t, model, synth, testKnowledge, logger)

	messages, err := service.Chat(context.Background(), "two messages please")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected both messages despite synthesis failure, got %d", len(messages))
	}
	if messages[0].Audio != "" {
		t.Error("Expected first message audio to degrade to empty string")
	}
	if messages[1].Audio == "" {
		t.Error("Expected second message audio to survive")
	}
	if len(messages[0].Lipsync.MouthCues) == 0 {
		t.Error("Expected degraded message to still carry the default lipsync track")
	}
}

func TestChatSynthesisContextCarriesDeadline(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := &llm.MockLanguageModel{Responses: []string{
		"RELEVANT",
		`[{"text":"One.","facialExpression":"default","animation":"Idle"},{"text":"Two.","facialExpression":"smile","animation":"Talking_0"}]`,
	}}
	synth := &tts.MockSynthesizer{Audio: []byte("speech")}
	service := newServiceForTest(t, model, synth, testKnowledge, logger)

	if _, err := service.Chat(context.Background(), "two messages please"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(synth.HadDeadlines) != 2 {
		t.Fatalf("Expected 2 synthesis calls, got %d", len(synth.HadDeadlines))
	}
	for i, hadDeadline := range synth.HadDeadlines {
		if !hadDeadline {
			t.Errorf("Synthesis call %d ran without a deadline", i)
		}
	}
}

func TestChatSynthesisTimeoutDegradesOnlyThatMessage(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := &llm.MockLanguageModel{Responses: []string{
		"RELEVANT",
		`[{"text":"Slow.","facialExpression":"default","animation":"Idle"},{"text":"Quick.","facialExpression":"smile","animation":"Talking_0"}]`,
	}}
	synth := &tts.MockSynthesizer{
		Audio:   []byte("speech"),
		ErrOnce: context.DeadlineExceeded,
	}
	service := newServiceForTest(t, model, synth, testKnowledge, logger)

	messages, err := service.Chat(context.Background(), "two messages please")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected both messages despite the timeout, got %d", len(messages))
	}
	if messages[0].Audio != "" {
		t.Error("Expected timed-out message audio to degrade to empty string")
	}
	if messages[1].Audio == "" {
		t.Error("Expected the following message to still carry audio")
	}
}

func TestChatLLMTransportFailureAbortsTurn(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := &llm.MockLanguageModel{Err: fmt.Errorf("connection refused")}
	synth := &tts.MockSynthesizer{Audio: []byte("speech")}
	service := newServiceForTest(t, model, synth, testKnowledge, logger)

	if _, err := service.Chat(context.Background(), "hello"); err == nil {
		t.Fatal("Expected error when the language model is unreachable")
	}
}

func TestChatTransientFilesAreRemoved(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := &llm.MockLanguageModel{Responses: []string{
		"RELEVANT",
		`[{"text":"Tidy.","facialExpression":"default","animation":"Idle"}]`,
	}}
	synth := &tts.MockSynthesizer{Audio: []byte("speech")}
	audioDir := t.TempDir()
	service := NewChatService(model, synth, knowledge.NewBase(testKnowledge), audioDir, logger)

	if _, err := service.Chat(context.Background(), "leave no files behind"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	entries, err := os.ReadDir(audioDir)
	if err != nil {
		t.Fatalf("Failed to read audio dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no transient files left, found %d", len(entries))
	}
}

func TestPreviewCutsOnRuneBoundary(t *testing.T) {
	// leading ASCII byte puts every 2-byte rune on an odd offset, so the
	// 120-byte limit lands inside a rune
	raw := "a" + strings.Repeat("é", 100)

	got := preview(raw)
	if !utf8.ValidString(got) {
		t.Errorf("Expected preview to stay valid UTF-8, got %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Expected truncated preview to end with ellipsis, got %q", got)
	}

	short := "short output"
	if preview(short) != short {
		t.Errorf("Expected short output to pass through unchanged")
	}
}

// newServiceForTest wires a service around mocks. Nil mocks become nil
// interfaces so the credential-check state can be exercised.
func newServiceForTest(t *testing.T, model *llm.MockLanguageModel, synth *tts.MockSynthesizer, knowledgeText string, logger *zap.Logger) *ChatService {
	t.Helper()

	var languageModel repositories.LanguageModel
	if model != nil {
		languageModel = model
	}
	var synthesizer repositories.SpeechSynthesizer
	if synth != nil {
		synthesizer = synth
	}

	return NewChatService(languageModel, synthesizer, knowledge.NewBase(knowledgeText), t.TempDir(), logger)
}