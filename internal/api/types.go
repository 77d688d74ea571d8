package api

import "github.com/danhartono/amara/server/domain/entities"

// ChatRequest is the inbound payload for POST /chat. An absent or blank
// message triggers the fixed greeting reply.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse wraps the ordered reply messages for the avatar frontend.
type ChatResponse struct {
	Messages []entities.ReplyMessage `json:"messages"`
}

// VoicesResponse mirrors the TTS provider's voice list.
type VoicesResponse struct {
	Voices []map[string]interface{} `json:"voices"`
}

// HealthResponse reports credential presence and collaborator status.
type HealthResponse struct {
	LLMKeyPresent       bool   `json:"llm_key_present"`
	TTSKeyPresent       bool   `json:"tts_key_present"`
	KnowledgeBaseLoaded bool   `json:"knowledge_base_loaded"`
	TTSReachable        bool   `json:"tts_reachable"`
	Timestamp           string `json:"timestamp"`
}

// ErrorResponse is the error body for failed proxy calls.
type ErrorResponse struct {
	Error string `json:"error"`
}
