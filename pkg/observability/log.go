package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug-level log lines.
// `skyavatar serve --verbose` registers it.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks that log through logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{Logger: logger}
}

// Register installs h for every hook category.
func (h *LogHooks) Register() {
	SetRenderHooks(h)
	SetPublishHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnRenderStart(_ context.Context, shape string) {
	h.Logger.Debug("render start", "shape", shape)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, shape string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("render failed", "shape", shape, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("render done", "shape", shape, "duration", d)
}

func (h *LogHooks) OnPathSkipped(_ context.Context, shape string, count int) {
	h.Logger.Debug("path commands skipped", "shape", shape, "count", count)
}

func (h *LogHooks) OnStage(_ context.Context, did, stage string) {
	h.Logger.Debug("publish stage", "did", did, "stage", stage)
}

func (h *LogHooks) OnCooldownBlocked(_ context.Context, did string, remaining time.Duration) {
	h.Logger.Debug("publish blocked by cooldown", "did", did, "remaining", remaining)
}

func (h *LogHooks) OnPublishComplete(_ context.Context, did, stage string, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("publish failed", "did", did, "stage", stage, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("publish done", "did", did, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("xrpc request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("xrpc response", "method", method, "path", path, "status", status, "duration", d)
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Debug("xrpc error", "method", method, "host", host, "path", path, "err", err)
}

var (
	_ RenderHooks  = (*LogHooks)(nil)
	_ PublishHooks = (*LogHooks)(nil)
	_ CacheHooks   = (*LogHooks)(nil)
	_ HTTPHooks    = (*LogHooks)(nil)
)
