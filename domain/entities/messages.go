package entities

// FacialExpression selects one of the avatar's rigged facial poses.
type FacialExpression string

const (
	ExpressionSmile     FacialExpression = "smile"
	ExpressionSad       FacialExpression = "sad"
	ExpressionAngry     FacialExpression = "angry"
	ExpressionSurprised FacialExpression = "surprised"
	ExpressionFunnyFace FacialExpression = "funnyFace"
	ExpressionDefault   FacialExpression = "default"
)

// Animation selects one of the avatar's body animation clips.
type Animation string

const (
	AnimationTalking0  Animation = "Talking_0"
	AnimationTalking1  Animation = "Talking_1"
	AnimationTalking2  Animation = "Talking_2"
	AnimationCrying    Animation = "Crying"
	AnimationLaughing  Animation = "Laughing"
	AnimationRumba     Animation = "Rumba"
	AnimationIdle      Animation = "Idle"
	AnimationTerrified Animation = "Terrified"
	AnimationAngry     Animation = "Angry"
)

// ReplyMessage is one unit of the avatar's answer: the text to display,
// the expression and animation to play, base64-encoded speech audio
// (empty string when synthesis was unavailable) and the mouth-cue track
// that drives lip movement.
type ReplyMessage struct {
	Text             string           `json:"text"`
	FacialExpression FacialExpression `json:"facialExpression"`
	Animation        Animation        `json:"animation"`
	Audio            string           `json:"audio"`
	Lipsync          LipsyncTrack     `json:"lipsync"`
}

// LipsyncMetadata describes the audio a cue track was derived from.
type LipsyncMetadata struct {
	SoundFile string  `json:"soundFile"`
	Duration  float64 `json:"duration"`
}

// MouthCue maps a time interval of the audio to a viseme code
// (Rhubarb-style letters A-H plus X for silence).
type MouthCue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Value string  `json:"value"`
}

// LipsyncTrack is an ordered, non-overlapping sequence of mouth cues.
type LipsyncTrack struct {
	Metadata  LipsyncMetadata `json:"metadata"`
	MouthCues []MouthCue      `json:"mouthCues"`
}

// DefaultLipsync returns the fixed fallback cue track used whenever real
// viseme analysis is unavailable. A fresh copy is returned on every call
// so callers can never mutate shared state.
func DefaultLipsync() LipsyncTrack {
	return LipsyncTrack{
		Metadata: LipsyncMetadata{
			SoundFile: "default.wav",
			Duration:  1.2,
		},
		MouthCues: []MouthCue{
			{Start: 0.0, End: 0.3, Value: "X"},
			{Start: 0.3, End: 0.6, Value: "A"},
			{Start: 0.6, End: 0.9, Value: "B"},
			{Start: 0.9, End: 1.2, Value: "X"},
		},
	}
}
