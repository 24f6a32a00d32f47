package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Chungws/lmarena-clone/internal/llm"
	"github.com/Chungws/lmarena-clone/internal/models"
	"github.com/Chungws/lmarena-clone/internal/registry"
	"github.com/Chungws/lmarena-clone/internal/repository"
	"github.com/Chungws/lmarena-clone/pkg/logger"
)

// Dispatcher issues one chat-completion call to one backend. A fake can be
// substituted per test; no global client exists.
type Dispatcher interface {
	Complete(ctx context.Context, model registry.Model, history []llm.Message) (*llm.Completion, error)
}

// ModelRegistry resolves model ids and selects battle pairs.
type ModelRegistry interface {
	Get(id string) (registry.Model, bool)
	SelectPair() (registry.Model, registry.Model, error)
}

type SessionStore interface {
	FindBySessionID(ctx context.Context, sessionID string) (*models.Session, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Session, error)
	CountByUserID(ctx context.Context, userID string) (int, error)
}

type BattleStore interface {
	CreateWithSession(ctx context.Context, session *models.Session, battle *models.Battle) error
	CreateInSession(ctx context.Context, battle *models.Battle) error
	FindByBattleID(ctx context.Context, battleID string) (*models.Battle, error)
	AppendEntries(ctx context.Context, battleID string, entries []models.ConversationEntry, updatedAt time.Time) error
	ListBySessionID(ctx context.Context, sessionID string) ([]*models.Battle, error)
}

type VoteStore interface {
	CreateAndMarkVoted(ctx context.Context, vote *models.Vote) error
	FindByBattleID(ctx context.Context, battleID string) (*models.Vote, error)
}

// BattleService owns session/battle state and every mutation rule on a
// conversation: creation, follow-up appends and the vote transition that
// reveals model identities.
type BattleService struct {
	sessions        SessionStore
	battles         BattleStore
	votes           VoteStore
	registry        ModelRegistry
	dispatcher      Dispatcher
	maxUserMessages int
}

func NewBattleService(
	sessions SessionStore,
	battles BattleStore,
	votes VoteStore,
	modelRegistry ModelRegistry,
	dispatcher Dispatcher,
	maxUserMessages int,
) *BattleService {
	if maxUserMessages <= 0 {
		maxUserMessages = 6
	}
	return &BattleService{
		sessions:        sessions,
		battles:         battles,
		votes:           votes,
		registry:        modelRegistry,
		dispatcher:      dispatcher,
		maxUserMessages: maxUserMessages,
	}
}

// selectSlots picks a random distinct pair and then flips a fair coin for
// the left/right assignment so position carries no signal.
func (s *BattleService) selectSlots() (left, right registry.Model, err error) {
	a, b, err := s.registry.SelectPair()
	if err != nil {
		return registry.Model{}, registry.Model{}, err
	}

	if rand.IntN(2) == 0 {
		return a, b, nil
	}
	return b, a, nil
}

// dispatchBoth runs the two slot dispatches concurrently and fails fast:
// if either errors, the other result is discarded and nothing is persisted
// by the caller.
func (s *BattleService) dispatchBoth(
	ctx context.Context,
	leftModel, rightModel registry.Model,
	leftHistory, rightHistory []llm.Message,
) (leftResp, rightResp *llm.Completion, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp, err := s.dispatcher.Complete(gctx, leftModel, leftHistory)
		if err != nil {
			return err
		}
		leftResp = resp
		return nil
	})

	g.Go(func() error {
		resp, err := s.dispatcher.Complete(gctx, rightModel, rightHistory)
		if err != nil {
			return err
		}
		rightResp = resp
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return leftResp, rightResp, nil
}

func buildConversation(prompt string, leftModel, rightModel registry.Model, leftResp, rightResp *llm.Completion, at time.Time) []models.ConversationEntry {
	return []models.ConversationEntry{
		{
			Role:      models.RoleUser,
			Content:   prompt,
			Timestamp: at,
		},
		{
			Role:      models.RoleAssistant,
			ModelID:   leftModel.ID,
			Position:  models.SlotLeft,
			Content:   leftResp.Content,
			LatencyMS: leftResp.LatencyMS,
			Timestamp: at,
		},
		{
			Role:      models.RoleAssistant,
			ModelID:   rightModel.ID,
			Position:  models.SlotRight,
			Content:   rightResp.Content,
			LatencyMS: rightResp.LatencyMS,
			Timestamp: at,
		},
	}
}

func slotResponses(leftResp, rightResp *llm.Completion) []models.SlotResponse {
	return []models.SlotResponse{
		{Position: models.SlotLeft, Text: leftResp.Content, LatencyMS: leftResp.LatencyMS},
		{Position: models.SlotRight, Text: rightResp.Content, LatencyMS: rightResp.LatencyMS},
	}
}

// CreateSession creates a session and its first battle in one unit of
// work. On any dispatch failure nothing is persisted and the error
// surfaces to the caller.
func (s *BattleService) CreateSession(ctx context.Context, prompt string, userID *string) (*models.BattleResponse, error) {
	leftModel, rightModel, err := s.selectSlots()
	if err != nil {
		return nil, fmt.Errorf("failed to select models: %w", err)
	}

	history := []llm.Message{{Role: models.RoleUser, Content: prompt}}
	leftResp, rightResp, err := s.dispatchBoth(ctx, leftModel, rightModel, history, history)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &models.Session{
		SessionID:    models.NewSessionID(),
		Title:        models.SessionTitle(prompt),
		UserID:       userID,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	battle := &models.Battle{
		BattleID:     models.NewBattleID(),
		SessionID:    session.SessionID,
		LeftModelID:  leftModel.ID,
		RightModelID: rightModel.ID,
		Conversation: buildConversation(prompt, leftModel, rightModel, leftResp, rightResp, now),
		Status:       models.BattleStatusOngoing,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.battles.CreateWithSession(ctx, session, battle); err != nil {
		return nil, err
	}

	logger.Info("Session created with first battle",
		"sessionId", session.SessionID,
		"battleId", battle.BattleID,
		"leftModel", leftModel.ID,
		"rightModel", rightModel.ID,
	)

	return &models.BattleResponse{
		SessionID: session.SessionID,
		BattleID:  battle.BattleID,
		MessageID: "msg_1",
		Responses: slotResponses(leftResp, rightResp),
	}, nil
}

// CreateBattle starts a fresh battle in an existing session with a newly
// selected model pair and a fresh slot assignment.
func (s *BattleService) CreateBattle(ctx context.Context, sessionID, prompt string) (*models.BattleResponse, error) {
	session, err := s.sessions.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	leftModel, rightModel, err := s.selectSlots()
	if err != nil {
		return nil, fmt.Errorf("failed to select models: %w", err)
	}

	history := []llm.Message{{Role: models.RoleUser, Content: prompt}}
	leftResp, rightResp, err := s.dispatchBoth(ctx, leftModel, rightModel, history, history)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	battle := &models.Battle{
		BattleID:     models.NewBattleID(),
		SessionID:    sessionID,
		LeftModelID:  leftModel.ID,
		RightModelID: rightModel.ID,
		Conversation: buildConversation(prompt, leftModel, rightModel, leftResp, rightResp, now),
		Status:       models.BattleStatusOngoing,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.battles.CreateInSession(ctx, battle); err != nil {
		return nil, err
	}

	logger.Info("Battle created in session",
		"sessionId", sessionID,
		"battleId", battle.BattleID,
		"leftModel", leftModel.ID,
		"rightModel", rightModel.ID,
	)

	return &models.BattleResponse{
		SessionID: sessionID,
		BattleID:  battle.BattleID,
		MessageID: "msg_1",
		Responses: slotResponses(leftResp, rightResp),
	}, nil
}

func historyToMessages(entries []models.ConversationEntry) []llm.Message {
	messages := make([]llm.Message, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, llm.Message{Role: e.Role, Content: e.Content})
	}
	return messages
}

// AddFollowUp appends a user turn plus both slot answers to an ongoing
// battle. Each slot's model only sees its own side of the conversation.
// The configured maximum user-turn count is returned to the caller as a
// soft limit; enforcement policy belongs to the boundary layer.
func (s *BattleService) AddFollowUp(ctx context.Context, battleID, prompt string) (*models.FollowUpResponse, error) {
	battle, err := s.battles.FindByBattleID(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if battle == nil {
		return nil, ErrBattleNotFound
	}
	if battle.Status != models.BattleStatusOngoing {
		return nil, &InvalidStateError{BattleID: battleID, Status: battle.Status}
	}

	leftModel, ok := s.registry.Get(battle.LeftModelID)
	if !ok {
		return nil, fmt.Errorf("model %s not in registry", battle.LeftModelID)
	}
	rightModel, ok := s.registry.Get(battle.RightModelID)
	if !ok {
		return nil, fmt.Errorf("model %s not in registry", battle.RightModelID)
	}

	newTurn := llm.Message{Role: models.RoleUser, Content: prompt}
	leftHistory := append(historyToMessages(battle.SlotHistory(models.SlotLeft)), newTurn)
	rightHistory := append(historyToMessages(battle.SlotHistory(models.SlotRight)), newTurn)

	leftResp, rightResp, err := s.dispatchBoth(ctx, leftModel, rightModel, leftHistory, rightHistory)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entries := buildConversation(prompt, leftModel, rightModel, leftResp, rightResp, now)
	if err := s.battles.AppendEntries(ctx, battleID, entries, now); err != nil {
		return nil, err
	}

	messageCount := battle.UserTurnCount() + 1

	logger.Info("Follow-up appended",
		"battleId", battleID,
		"messageCount", messageCount,
		"maxMessages", s.maxUserMessages,
	)

	return &models.FollowUpResponse{
		BattleID:     battleID,
		MessageID:    fmt.Sprintf("msg_%d", messageCount),
		Responses:    slotResponses(leftResp, rightResp),
		MessageCount: messageCount,
		MaxMessages:  s.maxUserMessages,
	}, nil
}

// RecordVote records the blind preference, transitions the battle to its
// terminal voted state and returns the real model identities. This is the
// single point where anonymity is lifted.
func (s *BattleService) RecordVote(ctx context.Context, battleID string, choice models.VoteChoice) (*models.VoteResponse, error) {
	if !choice.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidVote, choice)
	}

	battle, err := s.battles.FindByBattleID(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if battle == nil {
		return nil, ErrBattleNotFound
	}
	if battle.Status != models.BattleStatusOngoing {
		return nil, &InvalidStateError{BattleID: battleID, Status: battle.Status}
	}

	vote := &models.Vote{
		VoteID:           models.NewVoteID(),
		BattleID:         battleID,
		SessionID:        battle.SessionID,
		Vote:             choice,
		LeftModelID:      battle.LeftModelID,
		RightModelID:     battle.RightModelID,
		ProcessingStatus: models.VotePending,
		VotedAt:          time.Now().UTC(),
	}

	if err := s.votes.CreateAndMarkVoted(ctx, vote); err != nil {
		// A concurrent vote can win the race between our status check and
		// the insert; report it the same way as a sequential double vote.
		if errors.Is(err, repository.ErrBattleAlreadyDecided) {
			status := models.BattleStatusVoted
			if current, ferr := s.battles.FindByBattleID(ctx, battleID); ferr == nil && current != nil && current.Status != models.BattleStatusOngoing {
				status = current.Status
			}
			return nil, &InvalidStateError{BattleID: battleID, Status: status}
		}
		return nil, err
	}

	logger.Info("Vote recorded",
		"battleId", battleID,
		"vote", choice,
	)

	return &models.VoteResponse{
		BattleID: battleID,
		Vote:     choice,
		RevealedModels: models.RevealedModels{
			Left:  battle.LeftModelID,
			Right: battle.RightModelID,
		},
	}, nil
}

// ListSessions returns a user's sessions ordered by last activity with the
// total count for pagination.
func (s *BattleService) ListSessions(ctx context.Context, userID string, limit, offset int) ([]models.SessionListItem, int, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	sessions, err := s.sessions.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.sessions.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	items := make([]models.SessionListItem, 0, len(sessions))
	for _, sess := range sessions {
		items = append(items, models.SessionListItem{
			SessionID:    sess.SessionID,
			Title:        sess.Title,
			CreatedAt:    sess.CreatedAt,
			LastActiveAt: sess.LastActiveAt,
		})
	}

	return items, total, nil
}

// ListBattles returns a session's battles with vote information attached
// to the voted ones.
func (s *BattleService) ListBattles(ctx context.Context, sessionID string) ([]models.BattleListItem, error) {
	session, err := s.sessions.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	battles, err := s.battles.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items := make([]models.BattleListItem, 0, len(battles))
	for _, b := range battles {
		item := models.BattleListItem{
			BattleID:     b.BattleID,
			LeftModelID:  b.LeftModelID,
			RightModelID: b.RightModelID,
			Conversation: b.Conversation,
			Status:       b.Status,
			CreatedAt:    b.CreatedAt,
		}

		if b.Status == models.BattleStatusVoted {
			vote, err := s.votes.FindByBattleID(ctx, b.BattleID)
			if err != nil {
				return nil, err
			}
			if vote != nil {
				item.Vote = &vote.Vote
			}
		}

		items = append(items, item)
	}

	return items, nil
}
