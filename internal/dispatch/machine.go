package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"runmatch/internal/offer"
	"runmatch/internal/ranking"
	"runmatch/internal/task"
	"runmatch/pkg/types"
)

const (
	resolveAttempts = 3
	resolveBackoff  = 50 * time.Millisecond
)

// State is the machine state for one task's dispatch sequence.
type State string

const (
	StateUnassigned  State = "unassigned"
	StateOffering    State = "offering"
	StateAccepted    State = "accepted"
	StateUnfulfilled State = "unfulfilled"
	StateCancelled   State = "cancelled"
)

// signal is an accept or decline delivered for a specific offer.
type signal struct {
	offerID     string
	performerID string
	outcome     offer.State
}

// Machine runs the offer/timeout/reassignment loop for one task. Each
// iteration re-ranks against a live snapshot, offers to the top
// remaining candidate, then suspends until the first of accept,
// decline or expiry. A candidate is never offered the same task twice.
type Machine struct {
	task      *task.Task
	ranker    *ranking.Ranker
	offers    offer.Repository
	tasks     task.Repository
	publisher publisher
	offerTTL  time.Duration
	log       *zap.Logger

	signals chan signal
	done    chan struct{}

	mu    sync.Mutex
	state State
}

type publisher interface {
	Publish(ctx context.Context, ev types.Event) error
}

func newMachine(t *task.Task, ranker *ranking.Ranker, offers offer.Repository, tasks task.Repository, pub publisher, offerTTL time.Duration, log *zap.Logger) *Machine {
	return &Machine{
		task:      t,
		ranker:    ranker,
		offers:    offers,
		tasks:     tasks,
		publisher: pub,
		offerTTL:  offerTTL,
		log:       log.With(zap.String("task_id", t.ID)),
		signals:   make(chan signal, 8),
		done:      make(chan struct{}),
		state:     StateUnassigned,
	}
}

// State returns the machine's current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// deliver hands a signal to the running machine. Once the machine has
// finished every signal is stale by definition.
func (m *Machine) deliver(sig signal) error {
	select {
	case m.signals <- sig:
		return nil
	case <-m.done:
		return offer.ErrStaleTransition
	}
}

// Run drives the dispatch sequence to a terminal state. Cancelling ctx
// withdraws the task: the active offer is force-expired and the
// machine ends Cancelled without re-ranking. Store failures that would
// leave an offer in limbo stop the machine with the task still
// pending; the periodic scan re-dispatches it once the store recovers.
func (m *Machine) Run(ctx context.Context) State {
	defer close(m.done)

	attempted, err := m.recoverPriorOffers(ctx)
	if err != nil {
		m.log.Error("prior offer recovery failed, leaving task pending", zap.Error(err))
		return StateUnassigned
	}

	for {
		m.setState(StateUnassigned)

		if ctx.Err() != nil {
			return m.finishCancelled(ctx)
		}

		ranked, err := m.ranker.Rank(ctx, m.task, attempted)
		if err != nil {
			if ctx.Err() != nil {
				return m.finishCancelled(ctx)
			}
			// A failed snapshot read says nothing about the real pool;
			// leave the task pending so the next scan retries it.
			m.log.Warn("ranking pass failed, leaving task pending", zap.Error(err))
			return StateUnassigned
		}
		if len(ranked) == 0 {
			return m.finishUnfulfilled(ctx)
		}

		top := ranked[0]
		now := time.Now().UTC()
		of := &offer.Offer{
			ID:          uuid.NewString(),
			TaskID:      m.task.ID,
			PerformerID: top.PerformerID,
			OfferedAt:   now,
			ExpiresAt:   now.Add(m.offerTTL),
			State:       offer.StatePending,
		}
		attempted[top.PerformerID] = true

		if err := m.offers.Create(ctx, of); err != nil {
			if ctx.Err() != nil {
				return m.finishCancelled(ctx)
			}
			m.log.Error("offer create failed, skipping candidate",
				zap.String("performer_id", top.PerformerID), zap.Error(err))
			continue
		}

		m.setState(StateOffering)
		m.log.Info("offer created",
			zap.String("offer_id", of.ID),
			zap.String("performer_id", of.PerformerID),
			zap.Float64("score", top.Score),
			zap.Time("expires_at", of.ExpiresAt))
		m.publish(ctx, types.NewEvent(types.EventOfferCreated, types.OfferCreated{
			OfferID:     of.ID,
			TaskID:      of.TaskID,
			PerformerID: of.PerformerID,
			ExpiresAt:   of.ExpiresAt,
		}))

		outcome, withdrawn, rerr := m.awaitResolution(ctx, of)
		if withdrawn {
			return m.finishCancelled(ctx)
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return m.finishCancelled(ctx)
			}
			// The offer may still be pending in the store. Offering the
			// next candidate now could put two live offers on one task,
			// so stop here; re-dispatch settles the orphan first.
			m.log.Error("offer resolution failed, leaving task pending",
				zap.String("offer_id", of.ID), zap.Error(rerr))
			return StateUnassigned
		}
		switch outcome {
		case offer.StateAccepted:
			return m.finishAssigned(ctx, of.PerformerID)
		case offer.StateDeclined, offer.StateExpired:
			// Candidate is out of the running for this task; loop
			// back to re-rank the remaining live pool.
		}
	}
}

// recoverPriorOffers rebuilds the attempted set from offers already
// made for this task and settles any offer a previous run left
// pending, so a restarted dispatch can neither repeat a candidate nor
// stack a second live offer on the task.
func (m *Machine) recoverPriorOffers(ctx context.Context) (map[string]bool, error) {
	prior, err := m.offers.ListByTask(ctx, m.task.ID)
	if err != nil {
		return nil, fmt.Errorf("dispatch: listing prior offers: %w", err)
	}

	attempted := make(map[string]bool, len(prior))
	for _, of := range prior {
		attempted[of.PerformerID] = true
		if of.State != offer.StatePending {
			continue
		}
		m.log.Warn("expiring offer orphaned by an earlier run", zap.String("offer_id", of.ID))
		if _, rerr := m.resolve(ctx, of.ID, offer.StateExpired); rerr != nil {
			return nil, rerr
		}
	}
	return attempted, nil
}

// awaitResolution is the single suspension point per offer: it blocks
// until the first of accept, decline, timer expiry or withdrawal and
// resolves the offer accordingly. The repository CAS guarantees only
// one outcome wins; losers surface here as stale no-ops. A non-nil
// error means the offer could not be confirmed resolved.
func (m *Machine) awaitResolution(ctx context.Context, of *offer.Offer) (offer.State, bool, error) {
	timer := time.NewTimer(time.Until(of.ExpiresAt))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			// Withdrawn while offering: force-expire so a late accept
			// cannot win the task afterwards.
			if _, err := m.resolve(context.WithoutCancel(ctx), of.ID, offer.StateExpired); err != nil {
				m.log.Error("force-expire on withdrawal failed",
					zap.String("offer_id", of.ID), zap.Error(err))
			}
			return offer.StateExpired, true, nil

		case <-timer.C:
			st, err := m.resolve(ctx, of.ID, offer.StateExpired)
			return st, false, err

		case sig := <-m.signals:
			if sig.offerID != of.ID {
				m.log.Debug("signal for resolved offer ignored",
					zap.String("offer_id", sig.offerID),
					zap.String("outcome", string(sig.outcome)))
				continue
			}
			if sig.performerID != of.PerformerID {
				m.log.Debug("signal from non-offered performer ignored",
					zap.String("offer_id", sig.offerID),
					zap.String("performer_id", sig.performerID))
				continue
			}
			st, err := m.resolve(ctx, of.ID, sig.outcome)
			return st, false, err
		}
	}
}

// resolve applies the CAS transition, retrying transient store
// failures, and returns the state the offer actually ended in. A lost
// race is logged and the winner's state returned, so duplicate signals
// collapse into the first outcome. When the offer cannot be confirmed
// out of pending the error is returned: assuming the attempted outcome
// won would let the machine advance while the offer is still live.
func (m *Machine) resolve(ctx context.Context, offerID string, to offer.State) (offer.State, error) {
	var lastErr error
	for attempt := 1; attempt <= resolveAttempts; attempt++ {
		err := m.offers.Resolve(ctx, offerID, to)
		if err == nil {
			return to, nil
		}
		if errors.Is(err, offer.ErrStaleTransition) {
			m.log.Debug("stale offer transition ignored",
				zap.String("offer_id", offerID), zap.String("attempted", string(to)))
			if current, gerr := m.offers.Get(ctx, offerID); gerr == nil {
				return current.State, nil
			}
			// Stale means some outcome already won, just not which one.
			return to, nil
		}

		lastErr = err
		m.log.Warn("offer resolve failed, retrying",
			zap.String("offer_id", offerID), zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(resolveBackoff):
		}
	}
	return "", fmt.Errorf("dispatch: resolving offer %s as %s: %w", offerID, to, lastErr)
}

func (m *Machine) finishAssigned(ctx context.Context, performerID string) State {
	ctx = context.WithoutCancel(ctx)
	if err := m.tasks.Assign(ctx, m.task.ID, performerID); err != nil {
		m.log.Error("task assign failed", zap.Error(err))
	}
	m.setState(StateAccepted)
	m.log.Info("task assigned", zap.String("performer_id", performerID))
	m.publish(ctx, types.NewEvent(types.EventTaskAssigned, types.TaskAssigned{
		TaskID:      m.task.ID,
		PerformerID: performerID,
	}))
	return StateAccepted
}

func (m *Machine) finishUnfulfilled(ctx context.Context) State {
	ctx = context.WithoutCancel(ctx)
	if err := m.tasks.MarkUnfulfilled(ctx, m.task.ID); err != nil {
		m.log.Error("task unfulfilled mark failed", zap.Error(err))
	}
	m.setState(StateUnfulfilled)
	m.log.Info("candidate pool exhausted, task unfulfilled")
	m.publish(ctx, types.NewEvent(types.EventTaskUnfulfilled, types.TaskUnfulfilled{
		TaskID: m.task.ID,
	}))
	return StateUnfulfilled
}

func (m *Machine) finishCancelled(ctx context.Context) State {
	ctx = context.WithoutCancel(ctx)
	if err := m.tasks.MarkCancelled(ctx, m.task.ID); err != nil && !errors.Is(err, task.ErrStatusConflict) {
		m.log.Error("task cancel mark failed", zap.Error(err))
	}
	m.setState(StateCancelled)
	m.log.Info("task withdrawn while dispatching")
	m.publish(ctx, types.NewEvent(types.EventTaskCancelled, types.TaskCancelled{
		TaskID: m.task.ID,
	}))
	return StateCancelled
}

func (m *Machine) publish(ctx context.Context, ev types.Event) {
	if err := m.publisher.Publish(ctx, ev); err != nil {
		m.log.Warn("event publish failed", zap.String("event", string(ev.Type)), zap.Error(err))
	}
}
