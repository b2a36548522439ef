package domain

// QuestType determines how a side quest's progress is tracked.
type QuestType string

const (
	QuestRollStreak     QuestType = "roll_streak"
	QuestTurnCount      QuestType = "turn_count"
	QuestHPThreshold    QuestType = "hp_threshold"
	QuestInventoryCount QuestType = "inventory_count"
	QuestAnySuccess     QuestType = "any_success_roll"
	QuestStatSuccess    QuestType = "stat_success_count"
	QuestNatural20      QuestType = "natural_20"
	QuestCloseCall      QuestType = "close_call"
	QuestFullyEquipped  QuestType = "fully_equipped"
)

// QuestRewardType determines what collecting a completed quest grants.
type QuestRewardType string

const (
	RewardLevelUp         QuestRewardType = "level_up"
	RewardHealHP          QuestRewardType = "heal_hp"
	RewardRestoreHeroic   QuestRewardType = "restore_custom_choice"
	RewardItem            QuestRewardType = "item"
	RewardMaxHPBoost      QuestRewardType = "max_hp_boost"
	RewardRerollToken     QuestRewardType = "reroll_token"
	RewardUpgradeEquipped QuestRewardType = "upgrade_equipped"
	RewardLegendaryItem   QuestRewardType = "legendary_item"
	RewardHeroicRefill    QuestRewardType = "heroic_refill"
	RewardStatBoost       QuestRewardType = "stat_boost"
)

// QuestStatus tracks a side quest through its lifecycle. Quests start
// available, must be accepted to become active, and only active quests
// accumulate progress.
type QuestStatus string

const (
	QuestAvailable QuestStatus = "available"
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
)

// SideQuest is an optional objective with a mechanical reward.
type SideQuest struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Type        QuestType       `json:"type"`
	Target      int             `json:"target"`
	Progress    int             `json:"progress"`
	Reward      QuestRewardType `json:"reward"`
	RewardValue int             `json:"rewardValue,omitempty"`
	StatTarget  StatType        `json:"statTarget,omitempty"`
	RewardItem  *Item           `json:"rewardItem,omitempty"`
	Status      QuestStatus     `json:"status"`
}
