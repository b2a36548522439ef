package domain

// NPCDisposition describes how a character relates to the player.
type NPCDisposition string

const (
	NPCFriendly NPCDisposition = "Friendly"
	NPCHostile  NPCDisposition = "Hostile"
	NPCNeutral  NPCDisposition = "Neutral"
	NPCUnknown  NPCDisposition = "Unknown"
)

// NPC is a non-player character the story has introduced. Condition is
// narrative-controlled free text such as "Healthy", "Injured", "Dying"
// or "Dead".
type NPC struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Type        NPCDisposition `json:"type"`
	Condition   string         `json:"condition"`
}
