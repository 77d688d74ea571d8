package usecase

import "fmt"

// Fixed reply copy for the canned pipeline states.
const (
	greetingText    = "Hey there! I missed you... How was your day?"
	missingKeysText = "Please don't forget to add your API keys, my dear!"
	refusalText     = "I'm sorry, but that's outside the things I know about. Ask me something from my world!"
	confusedText    = "I'm sorry, I got a little confused. Could you say that again?"
	serverErrorText = "Oh no, something went wrong on my side. Give me a moment and try again!"
)

const relevanceVerdictIrrelevant = "IRRELEVANT"

// relevancePrompt builds the classification instruction for the relevance
// gate. The model is asked for a single-word verdict.
func relevancePrompt(knowledgeText string) string {
	return fmt.Sprintf(`You are a strict topic classifier for a virtual companion.
The companion only talks about subjects covered by the knowledge base below.

Knowledge base:
%s

Decide whether the user's message concerns the knowledge base above.
Answer with exactly one word: RELEVANT or IRRELEVANT.`, knowledgeText)
}

// generationPrompt builds the system instruction for the reply generation
// call, embedding the full knowledge base and the wire-format constraints
// the avatar frontend depends on.
func generationPrompt(knowledgeText string) string {
	return fmt.Sprintf(`You are Amara, a warm virtual companion rendered as a 3D avatar.
Ground every answer in the knowledge base below and stay in character.

Knowledge base:
%s

You will always reply with a JSON array of messages, with a maximum of 3 messages.
Each message has a text, facialExpression, and animation property.
The different facial expressions are: smile, sad, angry, surprised, funnyFace, and default.
The different animations are: Talking_0, Talking_1, Talking_2, Crying, Laughing, Rumba, Idle, Terrified, and Angry.`, knowledgeText)
}
