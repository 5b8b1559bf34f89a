package syncer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Mepiyou/myfirstfront/internal/api"
	"github.com/Mepiyou/myfirstfront/internal/models"
	"github.com/Mepiyou/myfirstfront/internal/notify"
	"github.com/Mepiyou/myfirstfront/internal/queue"
)

// probeTimeout bounds only the connectivity probe. Replayed requests
// themselves carry no timeout, like every other remote call the client
// makes.
const probeTimeout = 5 * time.Second

// Options tune the trigger schedule.
type Options struct {
	// StartupDelay is the fixed pause before the first pass after Start.
	StartupDelay time.Duration
	// ProbeInterval is how often connectivity is re-checked.
	ProbeInterval time.Duration
	// OnSynced runs after a pass that replayed at least one operation,
	// so the shell can refresh the displayed product list.
	OnSynced func()
}

// Syncer opportunistically replays queued operations when the system
// believes connectivity is available. Passes are sequential,
// best-effort, at-least-once: no backoff, no per-item retry cap, and a
// permanently failing operation simply stays queued.
type Syncer struct {
	queue    *queue.Store
	notifier notify.Notifier
	log      *zap.Logger

	// client issues replays; probe checks connectivity against the
	// public products endpoint, the closest analog to navigator.onLine.
	client   *http.Client
	probe    *http.Client
	probeURL string

	opts Options

	online  atomic.Bool
	syncing atomic.Bool
}

func New(q *queue.Store, probeURL string, notifier notify.Notifier, log *zap.Logger, opts Options) *Syncer {
	s := &Syncer{
		queue:    q,
		notifier: notifier,
		log:      log,
		client:   &http.Client{},
		probe:    &http.Client{Timeout: probeTimeout},
		probeURL: probeURL,
		opts:     opts,
	}
	// Assume online until a probe or a failed call says otherwise,
	// matching the browser's default.
	s.online.Store(true)
	return s
}

// Online reports the last known connectivity state.
func (s *Syncer) Online() bool { return s.online.Load() }

// SetOnline overrides the connectivity state. The handlers use it to
// mark the system offline when a call fails at the transport level; the
// monitor corrects it on the next probe.
func (s *Syncer) SetOnline(online bool) {
	was := s.online.Swap(online)
	if was != online {
		s.log.Info("connectivity changed", zap.Bool("online", online))
	}
}

// Start launches the two automatic triggers: a fixed short delay after
// startup, and the offline-to-online transition observed by the
// connectivity monitor. Both tolerate an empty queue and concurrent
// firing. Start returns immediately; ctx cancellation stops the
// monitor.
func (s *Syncer) Start(ctx context.Context) {
	go func() {
		select {
		case <-time.After(s.opts.StartupDelay):
			s.Sync(ctx)
		case <-ctx.Done():
		}
	}()

	go s.monitor(ctx)
}

func (s *Syncer) monitor(ctx context.Context) {
	interval := s.opts.ProbeInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			wasOnline := s.online.Load()
			nowOnline := s.checkConnectivity(ctx)
			s.SetOnline(nowOnline)
			if nowOnline && !wasOnline {
				s.Sync(ctx)
			}
		}
	}
}

// checkConnectivity probes the remote API. Any HTTP response at all
// counts as online; only a transport-level failure means offline.
func (s *Syncer) checkConnectivity(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.probeURL, nil)
	if err != nil {
		return false
	}
	resp, err := s.probe.Do(req)
	if err != nil {
		return false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return true
}

// Sync runs one replay pass. A pass that fires while another is running
// is a no-op: the running pass already drains the snapshot, and any
// operation enqueued meanwhile is picked up by a later pass, never lost.
func (s *Syncer) Sync(ctx context.Context) error {
	if !s.syncing.CompareAndSwap(false, true) {
		s.log.Debug("sync already in progress, skipping trigger")
		return nil
	}
	defer s.syncing.Store(false)

	if !s.online.Load() {
		s.log.Debug("offline, not syncing")
		return nil
	}

	ops, err := s.queue.ListPending()
	if err != nil {
		return fmt.Errorf("list pending operations: %w", err)
	}
	if len(ops) == 0 {
		return nil
	}

	s.notifier.Notify(fmt.Sprintf("Back online — syncing %d pending action(s)", len(ops)), true)

	var replayed int
	for _, op := range ops {
		if err := s.replay(ctx, op); err != nil {
			// One failing item must not block the rest of the pass.
			s.log.Warn("replay failed, operation kept",
				zap.Uint64("id", op.ID),
				zap.String("method", op.Method),
				zap.String("url", op.URL),
				zap.Error(err),
			)
			continue
		}
		if err := s.queue.Remove(op.ID); err != nil {
			s.log.Error("remove replayed operation", zap.Uint64("id", op.ID), zap.Error(err))
			continue
		}
		replayed++
	}

	if replayed == len(ops) {
		s.notifier.Notify("Sync complete — all pending actions applied", true)
	} else {
		s.notifier.Notify(fmt.Sprintf("Sync finished — %d of %d actions applied", replayed, len(ops)), false)
	}

	if replayed > 0 && s.opts.OnSynced != nil {
		s.opts.OnSynced()
	}
	return nil
}

// replay re-issues one queued operation exactly as captured: stored
// method, url and headers, with the body rebuilt from its serialized
// form. Success means any 2xx response.
func (s *Syncer) replay(ctx context.Context, op models.QueuedOperation) error {
	var body io.Reader
	contentType := ""

	if op.Body.IsMultipart() {
		raw, ct, err := api.BuildMultipart(op.Body.Fields, op.Body.Files)
		if err != nil {
			return fmt.Errorf("rebuild multipart body: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = ct
	} else if len(op.Body.JSON) > 0 {
		body = bytes.NewReader(op.Body.JSON)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, op.URL, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range op.Headers {
		req.Header.Set(k, v)
	}
	// The multipart boundary is regenerated per replay, so the rebuilt
	// content type wins over whatever was captured.
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("replay rejected: status %d", resp.StatusCode)
	}
	return nil
}
