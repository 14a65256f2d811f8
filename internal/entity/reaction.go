// Structure of Synchronized Reaction Model in Reelo.

package entity

// ReactionType is one of the five fixed reaction kinds a viewer may broadcast.
type ReactionType string

const (
	ReactionWave      ReactionType = "wave"
	ReactionCheer     ReactionType = "cheer"
	ReactionFire      ReactionType = "fire"
	ReactionLove      ReactionType = "love"
	ReactionMindBlown ReactionType = "mind_blown"
)

// ReactionStyle is the fixed (emoji, color) pair rendered for a reaction type.
type ReactionStyle struct {
	Emoji string
	Color string
}

// ReactionStyles maps every known reaction type to its fixed visual pair.
// Unknown types have no fallback, inbound reactions outside this table are dropped.
var ReactionStyles = map[ReactionType]ReactionStyle{
	ReactionWave:      {Emoji: "👋", Color: "#3B82F6"},
	ReactionCheer:     {Emoji: "🎉", Color: "#10B981"},
	ReactionFire:      {Emoji: "🔥", Color: "#EF4444"},
	ReactionLove:      {Emoji: "❤️", Color: "#EC4899"},
	ReactionMindBlown: {Emoji: "🤯", Color: "#8B5CF6"},
}
