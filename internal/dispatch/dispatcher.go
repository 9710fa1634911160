package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"runmatch/internal/offer"
	"runmatch/internal/ranking"
	"runmatch/internal/task"
	"runmatch/pkg/types"
)

// ErrAlreadyDispatching indicates a machine is already running for the task.
var ErrAlreadyDispatching = errors.New("dispatch: task already dispatching")

// Dispatcher owns the running machines: one goroutine per task, no
// lock spanning tasks. It also scans for pending tasks on an interval
// so tasks created while the engine was busy still get dispatched.
type Dispatcher struct {
	tasks        task.Repository
	offers       offer.Repository
	ranker       *ranking.Ranker
	publisher    publisher
	offerTTL     time.Duration
	scanInterval time.Duration
	log          *zap.Logger

	mu      sync.Mutex
	running map[string]*runningMachine
	wg      sync.WaitGroup
}

type runningMachine struct {
	machine *Machine
	cancel  context.CancelFunc
}

// NewDispatcher wires the engine together.
func NewDispatcher(tasks task.Repository, offers offer.Repository, ranker *ranking.Ranker, pub publisher, offerTTL, scanInterval time.Duration, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		tasks:        tasks,
		offers:       offers,
		ranker:       ranker,
		publisher:    pub,
		offerTTL:     offerTTL,
		scanInterval: scanInterval,
		log:          log,
		running:      make(map[string]*runningMachine),
	}
}

// Dispatch starts the offer sequence for one pending task. Invalid
// tasks are rejected before any offer is attempted. The machine runs
// detached from the caller's context; withdrawal goes through Cancel.
func (d *Dispatcher) Dispatch(ctx context.Context, taskID string) error {
	t, err := d.tasks.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	if t.Status != task.StatusPending {
		return task.ErrStatusConflict
	}

	d.mu.Lock()
	if _, ok := d.running[taskID]; ok {
		d.mu.Unlock()
		return ErrAlreadyDispatching
	}
	mctx, cancel := context.WithCancel(context.Background())
	m := newMachine(t, d.ranker, d.offers, d.tasks, d.publisher, d.offerTTL, d.log)
	d.running[taskID] = &runningMachine{machine: m, cancel: cancel}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer cancel()
		final := m.Run(mctx)
		d.log.Info("dispatch finished",
			zap.String("task_id", taskID), zap.String("state", string(final)))
		d.mu.Lock()
		delete(d.running, taskID)
		d.mu.Unlock()
	}()
	return nil
}

// Accept delivers a performer's acceptance for an offer.
func (d *Dispatcher) Accept(ctx context.Context, offerID, performerID string) error {
	return d.signal(ctx, offerID, performerID, offer.StateAccepted)
}

// Decline delivers a performer's explicit decline for an offer.
func (d *Dispatcher) Decline(ctx context.Context, offerID, performerID string) error {
	return d.signal(ctx, offerID, performerID, offer.StateDeclined)
}

// signal routes an outcome to the machine owning the offer's task.
// Signals against resolved offers, finished machines or the wrong
// performer come back as ErrStaleTransition: an idempotent no-op.
func (d *Dispatcher) signal(ctx context.Context, offerID, performerID string, outcome offer.State) error {
	of, err := d.offers.Get(ctx, offerID)
	if err != nil {
		return err
	}
	if of.State != offer.StatePending {
		return offer.ErrStaleTransition
	}
	if performerID != "" && of.PerformerID != performerID {
		return offer.ErrStaleTransition
	}

	d.mu.Lock()
	rm, ok := d.running[of.TaskID]
	d.mu.Unlock()
	if !ok {
		return offer.ErrStaleTransition
	}
	return rm.machine.deliver(signal{offerID: offerID, performerID: of.PerformerID, outcome: outcome})
}

// Cancel withdraws a task. A running machine is cancelled and
// force-expires its active offer; a pending task that never started
// dispatching is cancelled directly.
func (d *Dispatcher) Cancel(ctx context.Context, taskID string) error {
	d.mu.Lock()
	rm, ok := d.running[taskID]
	d.mu.Unlock()
	if ok {
		rm.cancel()
		return nil
	}

	if err := d.tasks.MarkCancelled(ctx, taskID); err != nil {
		return err
	}
	return d.publisher.Publish(ctx, types.NewEvent(types.EventTaskCancelled, types.TaskCancelled{
		TaskID: taskID,
	}))
}

// Status is the observable dispatch state for one task: the task
// record, the realized offer sequence and the machine state if one is
// still running.
type Status struct {
	Task     *task.Task    `json:"task"`
	Offers   []offer.Offer `json:"offers"`
	Running  bool          `json:"running"`
	Machine  State         `json:"machine_state,omitempty"`
	Attempts int           `json:"attempts"`
}

// Status reports the dispatch progress of one task.
func (d *Dispatcher) Status(ctx context.Context, taskID string) (*Status, error) {
	t, err := d.tasks.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	offers, err := d.offers.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	st := &Status{Task: t, Offers: offers, Attempts: len(offers)}
	d.mu.Lock()
	if rm, ok := d.running[taskID]; ok {
		st.Running = true
		st.Machine = rm.machine.State()
	}
	d.mu.Unlock()
	return st, nil
}

// RunningCount reports how many machines are currently dispatching.
func (d *Dispatcher) RunningCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.running)
}

// Run scans for pending tasks on the configured interval and starts a
// machine for each one not already dispatching. It returns when ctx is
// cancelled; running machines are left to Shutdown.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.scanOnce(ctx)
		}
	}
}

func (d *Dispatcher) scanOnce(ctx context.Context) {
	pending, err := d.tasks.ListPending(ctx, "")
	if err != nil {
		d.log.Warn("pending scan failed", zap.Error(err))
		return
	}
	for i := range pending {
		t := &pending[i]
		err := d.Dispatch(ctx, t.ID)
		switch {
		case err == nil:
		case errors.Is(err, ErrAlreadyDispatching):
		case errors.Is(err, task.ErrInvalidTask):
			d.log.Debug("skipping invalid pending task", zap.String("task_id", t.ID))
		default:
			d.log.Warn("pending dispatch failed", zap.String("task_id", t.ID), zap.Error(err))
		}
	}
}

// Shutdown cancels every running machine and waits for them to settle,
// bounded by ctx.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	for _, rm := range d.running {
		rm.cancel()
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
