package service

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Qiymii/remnawave-STEALTHNET-Panel/internal/config"
)

const syncQueueSize = 64

// SyncWorker pushes fire-and-forget panel resync requests to the bot
// integration API from a bounded queue, so webhook latency is decoupled from
// the bot. On shutdown the already-queued requests are still delivered.
type SyncWorker struct {
	cfg   config.BotAPIConfig
	queue chan string
	httpc *http.Client
	log   *zap.Logger
}

func NewSyncWorker(cfg config.BotAPIConfig, log *zap.Logger) *SyncWorker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &SyncWorker{
		cfg:   cfg,
		queue: make(chan string, syncQueueSize),
		httpc: &http.Client{Timeout: timeout},
		log:   log,
	}
}

// Enqueue schedules a resync without blocking. Returns false when the bot API
// is not configured or the queue is full.
func (w *SyncWorker) Enqueue(remnawaveUUID string) bool {
	if w.cfg.URL == "" || w.cfg.Token == "" {
		return false
	}
	select {
	case w.queue <- remnawaveUUID:
		return true
	default:
		w.log.Warn("resync queue full, dropping request",
			zap.String("remnawave_uuid", remnawaveUUID))
		return false
	}
}

func (w *SyncWorker) Start(ctx context.Context) {
	w.log.Info("sync worker started")
	for {
		select {
		case <-ctx.Done():
			w.drain()
			w.log.Info("sync worker stopped")
			return
		case uuid := <-w.queue:
			w.sync(uuid)
		}
	}
}

// drain delivers whatever is already queued at shutdown. Each request carries
// its own timeout, so a dead bot API cannot wedge the stop for longer than
// queue length times the client timeout.
func (w *SyncWorker) drain() {
	for {
		select {
		case uuid := <-w.queue:
			w.sync(uuid)
		default:
			return
		}
	}
}

func (w *SyncWorker) sync(remnawaveUUID string) {
	ctx, cancel := context.WithTimeout(context.Background(), w.httpc.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		w.cfg.URL+"/remnawave/sync/from-panel", bytes.NewReader([]byte("{}")))
	if err != nil {
		w.log.Error("resync request build failed", zap.Error(err))
		return
	}
	req.Header.Set("X-API-Key", w.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpc.Do(req)
	if err != nil {
		w.log.Error("panel resync failed",
			zap.String("remnawave_uuid", remnawaveUUID), zap.Error(err))
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.log.Warn("panel resync rejected",
			zap.String("remnawave_uuid", remnawaveUUID),
			zap.Int("status", resp.StatusCode))
		return
	}
	w.log.Info("panel resync triggered", zap.String("remnawave_uuid", remnawaveUUID))
}
