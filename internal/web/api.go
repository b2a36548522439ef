package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/louisbranch/fabled/internal/game/domain"
	"github.com/louisbranch/fabled/internal/game/engine"
	apperrors "github.com/louisbranch/fabled/internal/platform/errors"
	"github.com/louisbranch/fabled/internal/platform/id"
	"github.com/louisbranch/fabled/internal/storage"
)

var errSessionRequired = apperrors.New(apperrors.CodeSessionInvalid, "sign in to continue")

// userView is the account payload returned by auth endpoints.
type userView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Credits int64  `json:"credits"`
}

func viewOf(user storage.UserRecord) userView {
	return userView{ID: user.ID, Name: user.Name, Credits: user.Credits}
}

func (h *handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.auth.Register(r.Context(), payload.Name, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := h.auth.MintToken(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSessionCookie(w, r, token)
	writeJSON(w, http.StatusCreated, viewOf(user))
}

func (h *handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.auth.Login(r.Context(), payload.Name, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := h.auth.MintToken(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSessionCookie(w, r, token)
	writeJSON(w, http.StatusOK, viewOf(user))
}

func (h *handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewOf(requestUser(r)))
}

func (h *handler) handleState(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.UpdateSettings(settings)
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *handler) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	events, err := h.emitter.Recent(r.Context(), requestUser(r).ID, 100)
	if err != nil {
		writeError(w, err)
		return
	}
	type eventView struct {
		Kind      string `json:"kind"`
		Message   string `json:"message"`
		Timestamp int64  `json:"timestamp"`
	}
	out := make([]eventView, 0, len(events))
	for _, evt := range events {
		out = append(out, eventView{Kind: evt.Kind, Message: evt.Message, Timestamp: evt.CreatedAt.UnixMilli()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

func (h *handler) handleNewGame(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.StartNewGame()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *handler) handleGenre(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Genre  string            `json:"genre"`
		Length domain.GameLength `json:"length"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.SelectGenre(payload.Genre, payload.Length); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *handler) handleStats(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Stats domain.CharacterStats `json:"stats"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.chargeCredit(w, r); err != nil {
		return
	}
	if err := sess.CompleteStats(r.Context(), payload.Stats); err != nil {
		h.refundCredit(r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *handler) handleChoice(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Index int `json:"index"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	// Skill-checked choices park a roll instead of calling the
	// narrator, so only plain choices cost a credit here.
	snap := sess.Snapshot()
	charged := false
	if payload.Index >= 0 && payload.Index < len(snap.Choices) {
		choice := snap.Choices[payload.Index]
		rolls := snap.Settings.EnableDiceRolls && choice.RequiresCheck() && choice.Difficulty > 0
		if !rolls {
			if err := h.chargeCredit(w, r); err != nil {
				return
			}
			charged = true
		}
	}
	roll, err := sess.ChooseOption(r.Context(), payload.Index)
	if err != nil {
		if charged {
			h.refundCredit(r, err)
		}
		writeError(w, err)
		return
	}
	result := sess.Snapshot()
	if roll != nil {
		result.PendingRoll = roll
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleProceed(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.chargeCredit(w, r); err != nil {
		return
	}
	if err := sess.Proceed(r.Context()); err != nil {
		h.refundCredit(r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *handler) handleReroll(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	roll, err := sess.Reroll()
	if err != nil {
		writeError(w, err)
		return
	}
	result := sess.Snapshot()
	result.PendingRoll = roll
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) handleHeroic(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text   string `json:"text"`
		ItemID string `json:"itemId"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.chargeCredit(w, r); err != nil {
		return
	}
	if err := sess.PerformHeroicAction(r.Context(), payload.Text, payload.ItemID); err != nil {
		h.refundCredit(r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *handler) handleStop(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.Stop()
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.chargeCredit(w, r); err != nil {
		return
	}
	if err := sess.Retry(r.Context()); err != nil {
		h.refundCredit(r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *handler) handleEquip(w http.ResponseWriter, r *http.Request) {
	h.itemOp(w, r, func(sess *engine.Session, itemID string) error {
		return sess.Equip(itemID)
	})
}

func (h *handler) handleUseItem(w http.ResponseWriter, r *http.Request) {
	h.itemOp(w, r, func(sess *engine.Session, itemID string) error {
		return sess.UseItem(itemID)
	})
}

func (h *handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	h.itemOp(w, r, func(sess *engine.Session, itemID string) error {
		return sess.DiscardItem(itemID)
	})
}

// itemOp runs one inventory mutation identified by item id.
func (h *handler) itemOp(w http.ResponseWriter, r *http.Request, op func(*engine.Session, string) error) {
	var payload struct {
		ItemID string `json:"itemId"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := op(sess, payload.ItemID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *handler) handleUnequip(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Slot domain.GearSlot `json:"slot"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Unequip(payload.Slot); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *handler) handleLevelUp(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Stat domain.StatType `json:"stat"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	event, err := sess.SpendLevelUp(payload.Stat)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"levelUp":  event,
		"snapshot": sess.Snapshot(),
	})
}

func (h *handler) handleAcceptQuest(w http.ResponseWriter, r *http.Request) {
	h.questOp(w, r, func(sess *engine.Session, questID string) error {
		return sess.AcceptQuest(questID)
	})
}

func (h *handler) handleCollectQuest(w http.ResponseWriter, r *http.Request) {
	h.questOp(w, r, func(sess *engine.Session, questID string) error {
		return sess.CollectQuestReward(questID)
	})
}

func (h *handler) questOp(w http.ResponseWriter, r *http.Request, op func(*engine.Session, string) error) {
	var payload struct {
		QuestID string `json:"questId"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := op(sess, payload.QuestID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *handler) handleEpilogue(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	summary, storyboard, err := sess.Epilogue(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"summary":    summary,
		"storyboard": storyboard,
	})
}

func (h *handler) handleStoryboard(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.chargeCredit(w, r); err != nil {
		return
	}
	storyboard, err := sess.RegenerateStoryboard(r.Context())
	if err != nil {
		h.refundCredit(r, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"storyboard": storyboard})
}

func (h *handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="adventure-log.txt"`)
	_, _ = w.Write([]byte(sess.Transcript()))
}

// saveView is the cloud save payload returned by the saves endpoints.
type saveView struct {
	ID        string `json:"id"`
	UpdatedAt int64  `json:"updatedAt"`
}

func (h *handler) handleListSaves(w http.ResponseWriter, r *http.Request) {
	saves, err := h.store.ListSaves(r.Context(), requestUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]saveView, 0, len(saves))
	for _, save := range saves {
		out = append(out, saveView{ID: save.ID, UpdatedAt: save.UpdatedAt.UnixMilli()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"saves": out})
}

func (h *handler) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	now := h.now().UTC()
	payload, err := sess.Save(now)
	if err != nil {
		writeError(w, err)
		return
	}
	saveID, err := id.NewID()
	if err != nil {
		writeError(w, fmt.Errorf("generate save id: %w", err))
		return
	}
	record := storage.SaveRecord{
		ID:        saveID,
		UserID:    requestUser(r).ID,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.PutSave(r.Context(), record); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, saveView{ID: record.ID, UpdatedAt: record.UpdatedAt.UnixMilli()})
}

func (h *handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SaveID string `json:"saveId"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	userID := requestUser(r).ID

	var record storage.SaveRecord
	var err error
	if payload.SaveID == "" {
		record, err = h.store.LatestSave(r.Context(), userID)
	} else {
		record, err = h.findSave(r, userID, payload.SaveID)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	sess, err := h.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Load(record.Payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *handler) findSave(r *http.Request, userID, saveID string) (storage.SaveRecord, error) {
	saves, err := h.store.ListSaves(r.Context(), userID)
	if err != nil {
		return storage.SaveRecord{}, err
	}
	for _, save := range saves {
		if save.ID == saveID {
			return save, nil
		}
	}
	return storage.SaveRecord{}, storage.ErrNotFound
}

func (h *handler) handleDeleteSave(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteSave(r.Context(), requestUser(r).ID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// session returns the live game session for the request's user.
func (h *handler) session(r *http.Request) (*engine.Session, error) {
	return h.sessions.For(requestUser(r).ID)
}

// chargeCredit spends one credit before a narrator call. When the
// balance is empty it writes the error response and reports failure,
// leaving the game state untouched.
func (h *handler) chargeCredit(w http.ResponseWriter, r *http.Request) error {
	_, err := h.store.SpendCredit(r.Context(), requestUser(r).ID)
	if err != nil {
		writeError(w, err)
		return err
	}
	return nil
}

// refundCredit returns a charged credit when the engine rejects the
// turn before reaching the narrator. Retryable failures keep the
// charge; the narrator was already paid for.
func (h *handler) refundCredit(r *http.Request, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Code.Retryable() {
		return
	}
	_, _ = h.store.AddCredits(r.Context(), requestUser(r).ID, 1)
}

func decodeJSON(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidRequest, "decode request body", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := map[string]any{"error": "internal error"}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		status = appErr.Code.HTTPStatus()
		body = map[string]any{
			"error": appErr.Message,
			"code":  appErr.Code,
		}
		if appErr.Code.Retryable() {
			body["retryable"] = true
		}
	}
	writeJSON(w, status, body)
}
