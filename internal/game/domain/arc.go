package domain

// MainQuestStatus tracks progression through the campaign's acts.
type MainQuestStatus string

const (
	MainQuestPending   MainQuestStatus = "pending"
	MainQuestActive    MainQuestStatus = "active"
	MainQuestCompleted MainQuestStatus = "completed"
)

// MainQuest is one act of the campaign outline. TurnCount counts
// turns spent while the act was active, used to pace the narrative.
type MainQuest struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      MainQuestStatus `json:"status"`
	TurnCount   int             `json:"turnCount,omitempty"`
}

// MainStoryArc is the campaign outline generated at world creation.
type MainStoryArc struct {
	CampaignTitle  string      `json:"campaignTitle"`
	BackgroundLore string      `json:"backgroundLore"`
	MainQuests     []MainQuest `json:"mainQuests"`
	FinalObjective string      `json:"finalObjective"`
}

// ActiveQuest returns the currently active act, or nil when every act
// is finished.
func (a *MainStoryArc) ActiveQuest() *MainQuest {
	for i := range a.MainQuests {
		if a.MainQuests[i].Status == MainQuestActive {
			return &a.MainQuests[i]
		}
	}
	return nil
}

// AllActsCompleted reports whether every act has been finished.
func (a *MainStoryArc) AllActsCompleted() bool {
	for _, q := range a.MainQuests {
		if q.Status != MainQuestCompleted {
			return false
		}
	}
	return len(a.MainQuests) > 0
}

// AdvanceAct completes the active act and activates the next pending
// one. It reports whether an act was actually advanced.
func (a *MainStoryArc) AdvanceAct() bool {
	for i := range a.MainQuests {
		if a.MainQuests[i].Status == MainQuestActive {
			a.MainQuests[i].Status = MainQuestCompleted
			if i+1 < len(a.MainQuests) {
				a.MainQuests[i+1].Status = MainQuestActive
			}
			return true
		}
	}
	return false
}
