// Package errors provides structured error handling for Fabled.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeInvalidRequest represents an unparseable client request.
	CodeInvalidRequest Code = "INVALID_REQUEST"

	// Game state errors
	CodeGamePhaseDisallowsOp Code = "GAME_PHASE_DISALLOWS_OPERATION"
	CodeGameAlreadyOver      Code = "GAME_ALREADY_OVER"
	CodeGameTurnInFlight     Code = "GAME_TURN_IN_FLIGHT"

	// Inventory errors
	CodeInventoryFull     Code = "INVENTORY_FULL"
	CodeItemNotFound      Code = "ITEM_NOT_FOUND"
	CodeItemNotEquippable Code = "ITEM_NOT_EQUIPPABLE"
	CodeItemNotConsumable Code = "ITEM_NOT_CONSUMABLE"
	CodeItemNotEquipped   Code = "ITEM_NOT_EQUIPPED"
	CodeHealthAlreadyFull Code = "HEALTH_ALREADY_FULL"
	CodeNoWeaponEquipped  Code = "NO_WEAPON_EQUIPPED"

	// Progression errors
	CodeNoPendingLevelUps    Code = "NO_PENDING_LEVEL_UPS"
	CodeNoRerollTokens       Code = "NO_REROLL_TOKENS"
	CodeNoHeroicActionsLeft  Code = "NO_HEROIC_ACTIONS_LEFT"
	CodeHeroicActionsBlocked Code = "HEROIC_ACTIONS_BLOCKED"
	CodeNoPendingRoll        Code = "NO_PENDING_ROLL"
	CodeRollAlreadyPending   Code = "ROLL_ALREADY_PENDING"
	CodeStatUnknown          Code = "STAT_UNKNOWN"
	CodeChoiceMissingCheck   Code = "CHOICE_MISSING_CHECK"

	// Side-quest errors
	CodeQuestNotFound     Code = "QUEST_NOT_FOUND"
	CodeQuestNotCompleted Code = "QUEST_NOT_COMPLETED"
	CodeQuestNotAvailable Code = "QUEST_NOT_AVAILABLE"

	// Narrative boundary errors
	CodeNarrativeUnavailable Code = "NARRATIVE_UNAVAILABLE"
	CodeNarrativeMalformed   Code = "NARRATIVE_MALFORMED"
	CodeMissingAPIKey        Code = "MISSING_API_KEY"

	// Dice/randomness errors
	CodeDiceInvalidSides Code = "DICE_INVALID_SIDES"
	CodeSeedUnavailable  Code = "SEED_UNAVAILABLE"

	// Auth/user errors
	CodeUserEmptyName       Code = "USER_EMPTY_NAME"
	CodeUserExists          Code = "USER_EXISTS"
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeSessionInvalid      Code = "SESSION_INVALID"
	CodeInsufficientCredits Code = "INSUFFICIENT_CREDITS"

	// Storage errors
	CodeNotFound        Code = "NOT_FOUND"
	CodeSaveMalformed   Code = "SAVE_MALFORMED"
	CodeSaveUnsupported Code = "SAVE_UNSUPPORTED_VERSION"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeInvalidRequest,
		CodeItemNotEquippable,
		CodeItemNotConsumable,
		CodeStatUnknown,
		CodeChoiceMissingCheck,
		CodeDiceInvalidSides,
		CodeUserEmptyName,
		CodeSaveMalformed,
		CodeSaveUnsupported:
		return http.StatusBadRequest

	// Conflict - state doesn't allow the operation
	case CodeGamePhaseDisallowsOp,
		CodeGameAlreadyOver,
		CodeGameTurnInFlight,
		CodeInventoryFull,
		CodeHealthAlreadyFull,
		CodeNoWeaponEquipped,
		CodeNoPendingLevelUps,
		CodeNoRerollTokens,
		CodeNoHeroicActionsLeft,
		CodeHeroicActionsBlocked,
		CodeNoPendingRoll,
		CodeRollAlreadyPending,
		CodeQuestNotCompleted,
		CodeQuestNotAvailable,
		CodeUserExists:
		return http.StatusConflict

	// Not found
	case CodeNotFound,
		CodeItemNotFound,
		CodeItemNotEquipped,
		CodeQuestNotFound:
		return http.StatusNotFound

	// Unauthorized
	case CodeInvalidCredentials,
		CodeSessionInvalid:
		return http.StatusUnauthorized

	// Payment required - the credit gate
	case CodeInsufficientCredits:
		return http.StatusPaymentRequired

	// Upstream narrative failures are retryable
	case CodeNarrativeUnavailable,
		CodeNarrativeMalformed:
		return http.StatusBadGateway

	// Server misconfiguration
	case CodeMissingAPIKey,
		CodeSeedUnavailable:
		return http.StatusInternalServerError
	}

	return http.StatusInternalServerError
}

// Retryable reports whether the failure is transient and the same turn can be
// resubmitted with identical parameters.
func (c Code) Retryable() bool {
	switch c {
	case CodeNarrativeUnavailable, CodeNarrativeMalformed:
		return true
	}
	return false
}
