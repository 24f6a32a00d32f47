package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Chungws/lmarena-clone/internal/models"
	"github.com/Chungws/lmarena-clone/internal/registry"
	"github.com/Chungws/lmarena-clone/pkg/logger"
)

// AggregatorWorkerName is the worker_status row key for vote aggregation.
const AggregatorWorkerName = "elo_aggregator"

type PendingVoteStore interface {
	FindPending(ctx context.Context) ([]*models.Vote, error)
	MarkFailed(ctx context.Context, voteID, errorMessage string) error
}

type StatsStore interface {
	GetOrCreate(ctx context.Context, modelID, organization, license string, initialELO int, initialCI float64) (*models.ModelStats, error)
	CommitVoteResult(ctx context.Context, left, right *models.ModelStats, voteID string, processedAt time.Time) error
}

type WorkerStatusStore interface {
	Upsert(ctx context.Context, ws *models.WorkerStatus) error
}

// RunGuard is the single-flight guard around one aggregation run. The
// Redis-backed implementation prevents overlap across processes; a nil
// guard disables the check for single-instance deployments and tests.
type RunGuard interface {
	TryAcquire(ctx context.Context) (release func(), ok bool, err error)
}

// Broadcaster pushes an event to connected clients. Nil disables pushes.
type Broadcaster interface {
	Broadcast(eventType string, payload any)
}

// AggregatorService drains pending votes on a schedule and folds them into
// per-model rating state. Runs are idempotent: a vote's rating effects and
// its processed flag commit together, and only pending votes are selected,
// so re-running over the same set changes nothing.
type AggregatorService struct {
	votes        PendingVoteStore
	stats        StatsStore
	workerStatus WorkerStatusStore
	elo          *ELOService
	modelMeta    map[string]registry.ModelMeta
	guard        RunGuard
	hub          Broadcaster
	interval     time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

func NewAggregatorService(
	votes PendingVoteStore,
	stats StatsStore,
	workerStatus WorkerStatusStore,
	elo *ELOService,
	modelMeta map[string]registry.ModelMeta,
	guard RunGuard,
	hub Broadcaster,
	interval time.Duration,
) *AggregatorService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &AggregatorService{
		votes:        votes,
		stats:        stats,
		workerStatus: workerStatus,
		elo:          elo,
		modelMeta:    modelMeta,
		guard:        guard,
		hub:          hub,
		interval:     interval,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the periodic aggregation loop.
func (s *AggregatorService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	logger.Info("Starting AggregatorService", "interval", s.interval)

	s.wg.Add(1)
	go s.aggregationLoop()
}

// Stop shuts the loop down and waits for an in-flight run to finish.
func (s *AggregatorService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	logger.Info("Stopping AggregatorService")
	close(s.stopChan)
	s.wg.Wait()
	logger.Info("AggregatorService stopped")
}

func (s *AggregatorService) aggregationLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run once at startup so a restart does not wait a full interval.
	s.runScheduled()

	for {
		select {
		case <-ticker.C:
			s.runScheduled()
		case <-s.stopChan:
			return
		}
	}
}

func (s *AggregatorService) runScheduled() {
	ctx := context.Background()

	processed, err := s.RunOnce(ctx)
	if err != nil {
		logger.Error("Aggregation run failed", "error", err)
		return
	}

	if processed > 0 {
		logger.Info("Aggregation run complete", "votesProcessed", processed)
	}
}

// RunOnce executes one aggregation pass. It is safe to call while another
// pass runs elsewhere: the guard skips the run, and even without a guard
// the pending-only selection keeps double processing out.
func (s *AggregatorService) RunOnce(ctx context.Context) (int, error) {
	if s.guard != nil {
		release, ok, err := s.guard.TryAcquire(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to acquire aggregation lock: %w", err)
		}
		if !ok {
			logger.Info("Aggregation already running elsewhere, skipping")
			return 0, nil
		}
		defer release()
	}

	pending, err := s.votes.FindPending(ctx)
	if err != nil {
		s.recordRun(ctx, models.WorkerOutcomeFailed, 0, err)
		return 0, fmt.Errorf("failed to read pending votes: %w", err)
	}

	if len(pending) == 0 {
		s.recordRun(ctx, models.WorkerOutcomeSuccess, 0, nil)
		return 0, nil
	}

	logger.Info("Processing pending votes", "count", len(pending))

	processed := 0
	failed := 0
	var lastVoteErr error

	for _, vote := range pending {
		if err := s.processVote(ctx, vote); err != nil {
			logger.Error("Failed to process vote", "voteId", vote.VoteID, "error", err)

			if markErr := s.votes.MarkFailed(ctx, vote.VoteID, err.Error()); markErr != nil {
				logger.Error("Failed to mark vote failed", "voteId", vote.VoteID, "error", markErr)
			}

			failed++
			lastVoteErr = err
			continue
		}
		processed++
	}

	// Per-vote failures are recorded on the votes and surfaced in the
	// status row's error text. A run that made no progress at all is a
	// failed run; partial progress still counts as success.
	var runErr error
	if failed > 0 {
		runErr = fmt.Errorf("%d of %d votes failed, last error: %v", failed, len(pending), lastVoteErr)
	}
	outcome := models.WorkerOutcomeSuccess
	if processed == 0 && failed > 0 {
		outcome = models.WorkerOutcomeFailed
	}
	s.recordRun(ctx, outcome, processed, runErr)

	if processed > 0 && s.hub != nil {
		s.hub.Broadcast("leaderboard_updated", map[string]any{
			"votes_processed": processed,
		})
	}

	return processed, nil
}

// processVote folds one vote into both models' stats. All reads use
// pre-update ratings; the commit is atomic with the processed flag.
func (s *AggregatorService) processVote(ctx context.Context, vote *models.Vote) error {
	leftStats, err := s.getOrCreateStats(ctx, vote.LeftModelID)
	if err != nil {
		return err
	}
	rightStats, err := s.getOrCreateStats(ctx, vote.RightModelID)
	if err != nil {
		return err
	}

	leftScore, rightScore, err := ScoreForVote(vote.Vote)
	if err != nil {
		return err
	}

	newLeft, newRight := s.elo.NewRatings(leftStats.ELOScore, rightStats.ELOScore, leftScore, rightScore)
	leftStats.ELOScore = newLeft
	rightStats.ELOScore = newRight

	leftStats.VoteCount++
	rightStats.VoteCount++

	switch vote.Vote {
	case models.VoteLeftBetter:
		leftStats.WinCount++
		rightStats.LossCount++
	case models.VoteRightBetter:
		rightStats.WinCount++
		leftStats.LossCount++
	case models.VoteTie, models.VoteBothBad:
		leftStats.TieCount++
		rightStats.TieCount++
	}

	leftStats.WinRate = float64(leftStats.WinCount) / float64(leftStats.VoteCount)
	rightStats.WinRate = float64(rightStats.WinCount) / float64(rightStats.VoteCount)

	leftStats.ELOCI = ConfidenceInterval(leftStats.VoteCount)
	rightStats.ELOCI = ConfidenceInterval(rightStats.VoteCount)

	now := time.Now().UTC()
	leftStats.UpdatedAt = now
	rightStats.UpdatedAt = now

	return s.stats.CommitVoteResult(ctx, leftStats, rightStats, vote.VoteID, now)
}

func (s *AggregatorService) getOrCreateStats(ctx context.Context, modelID string) (*models.ModelStats, error) {
	meta, ok := s.modelMeta[modelID]
	if !ok {
		meta = registry.ModelMeta{Organization: "Unknown", License: "Unknown"}
	}

	return s.stats.GetOrCreate(ctx, modelID, meta.Organization, meta.License, s.elo.InitialRating(), InitialCI)
}

// recordRun writes the worker status row, success or failure. Best-effort:
// a status write failure is logged, never escalated.
func (s *AggregatorService) recordRun(ctx context.Context, outcome models.WorkerOutcome, processed int, runErr error) {
	ws := &models.WorkerStatus{
		WorkerName:     AggregatorWorkerName,
		LastRunAt:      time.Now().UTC(),
		Status:         outcome,
		VotesProcessed: processed,
	}

	if runErr != nil {
		msg := runErr.Error()
		if len(msg) > 1000 {
			msg = msg[:1000]
		}
		ws.ErrorMessage = &msg
	}

	if err := s.workerStatus.Upsert(ctx, ws); err != nil {
		logger.Error("Failed to record worker status", "error", err)
	}
}
