// workers/finalize_worker.go
package workers

import (
	"context"
	"sync"
	"time"

	"three-card-game/services"
	"three-card-game/utils"

	"go.uber.org/zap"
)

const (
	DefaultFinalizeQueueSize = 256
	DefaultFinalizeTimeout   = 10 * time.Second
)

// MatchRecorder persists a finished match. *services.StatsService satisfies it.
type MatchRecorder interface {
	RecordMatch(ctx context.Context, ev services.MatchFinalized, profiles map[string]services.Profile) error
}

// Archiver stores a JSON document under a key. *utils.Archive satisfies it.
type Archiver interface {
	PutJSON(ctx context.Context, key string, v any) error
}

type FinalizeOptions struct {
	QueueSize int
	Timeout   time.Duration
	Profiles  services.ProfileLookup // optional
	Archive   Archiver               // optional
	Logger    *zap.Logger
}

// FinalizeWorker takes completed matches off the game path and writes them to
// the stats store and the history archive.
type FinalizeWorker struct {
	queue    chan services.MatchFinalized
	recorder MatchRecorder
	profiles services.ProfileLookup
	archive  Archiver
	timeout  time.Duration
	logger   *zap.Logger
	done     chan struct{}

	mu      sync.RWMutex
	stopped bool
}

func NewFinalizeWorker(recorder MatchRecorder, opts FinalizeOptions) *FinalizeWorker {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultFinalizeQueueSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFinalizeTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &FinalizeWorker{
		queue:    make(chan services.MatchFinalized, opts.QueueSize),
		recorder: recorder,
		profiles: opts.Profiles,
		archive:  opts.Archive,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		done:     make(chan struct{}),
	}
}

// Publish enqueues ev without blocking. A full queue or a stopped worker
// drops the event.
func (w *FinalizeWorker) Publish(ev services.MatchFinalized) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		w.logger.Error("❌ [FINALIZE] worker stopped, dropping match result",
			zap.String("match_id", ev.MatchID))
		return
	}
	select {
	case w.queue <- ev:
	default:
		w.logger.Error("❌ [FINALIZE] queue full, dropping match result",
			zap.String("match_id", ev.MatchID),
			zap.Int("capacity", cap(w.queue)))
	}
}

func (w *FinalizeWorker) Start(ctx context.Context) {
	w.logger.Info("🔁 [FINALIZE] starting finalize worker", zap.Int("queue_size", cap(w.queue)))
	go w.run(ctx)
}

// Done is closed once the worker has stopped and drained its queue.
func (w *FinalizeWorker) Done() <-chan struct{} {
	return w.done
}

func (w *FinalizeWorker) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case ev := <-w.queue:
			w.process(ctx, ev)
		case <-ctx.Done():
			w.mu.Lock()
			w.stopped = true
			w.mu.Unlock()
			w.drain(context.WithoutCancel(ctx))
			w.logger.Info("⏹️ [FINALIZE] finalize worker stopped")
			return
		}
	}
}

func (w *FinalizeWorker) drain(ctx context.Context) {
	for {
		select {
		case ev := <-w.queue:
			w.process(ctx, ev)
		default:
			return
		}
	}
}

func (w *FinalizeWorker) process(parent context.Context, ev services.MatchFinalized) {
	ctx, cancel := context.WithTimeout(parent, w.timeout)
	defer cancel()

	profiles := w.lookupProfiles(ctx, ev)
	if err := w.recorder.RecordMatch(ctx, ev, profiles); err != nil {
		w.logger.Error("❌ [FINALIZE] failed to record match",
			zap.String("match_id", ev.MatchID), zap.Error(err))
	}

	if w.archive == nil {
		return
	}
	key := utils.MatchArchiveKey(ev.MatchID, ev.CompletedAt)
	if err := w.archive.PutJSON(ctx, key, ev); err != nil {
		w.logger.Error("❌ [FINALIZE] failed to archive match history",
			zap.String("match_id", ev.MatchID), zap.String("key", key), zap.Error(err))
		return
	}
	w.logger.Debug("📦 [FINALIZE] match history archived",
		zap.String("match_id", ev.MatchID), zap.String("key", key))
}

// lookupProfiles leaves Username empty when a profile cannot be resolved, so
// the stored display name is kept.
func (w *FinalizeWorker) lookupProfiles(ctx context.Context, ev services.MatchFinalized) map[string]services.Profile {
	out := make(map[string]services.Profile, 2)
	for _, id := range ev.Participants() {
		p := services.Profile{UserID: id}
		if w.profiles != nil {
			resolved, err := w.profiles.Profile(ctx, id)
			if err != nil {
				w.logger.Warn("⚠️ [FINALIZE] profile lookup failed, keeping stored name",
					zap.String("user_id", id), zap.Error(err))
			} else {
				p = resolved
				p.UserID = id
			}
		}
		out[id] = p
	}
	return out
}
