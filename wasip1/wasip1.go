package wasip1

import (
	"context"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/experimental"

	"github.com/foxxorcat/wazero-sched/manager/clock"
	"github.com/foxxorcat/wazero-sched/manager/poll"
	"github.com/foxxorcat/wazero-sched/manager/table"
)

// ModuleName 是 WASI preview1 的导入模块名。
const ModuleName = "wasi_snapshot_preview1"

// DefaultLoggerCacheSize 是缓存的 guest 模块日志器数量上限。
const DefaultLoggerCacheSize = 64

// Implementation 是导出到宿主模块中的一组函数。
type Implementation interface {
	// Name 返回实现的名称，用于日志，例如 "poll_oneoff"。
	Name() string
	// Instantiate 将函数导出到宿主模块。
	Instantiate(context.Context, *Host, wazero.HostModuleBuilder) error
}

// Host 持有所有实现共享的状态：时钟、poller 以及每个 guest 模块的句柄表。
// 句柄表只在模块关闭时释放；LRU 里只有可以重建的日志器。
type Host struct {
	clock           clock.Monotonic
	poller          poll.Poller
	logger          *slog.Logger
	moduleName      string
	loggerCacheSize int
	pollInterval    time.Duration

	mu      sync.Mutex
	tables  map[string]*table.Table
	loggers *lru.Cache[string, *slog.Logger]

	implementations []Implementation
}

// ModuleOption 是用于配置 Host 的选项函数。
type ModuleOption func(*Host)

func WithClock(c clock.Monotonic) ModuleOption {
	return func(h *Host) { h.clock = c }
}

func WithPoller(p poll.Poller) ModuleOption {
	return func(h *Host) { h.poller = p }
}

func WithLogger(logger *slog.Logger) ModuleOption {
	return func(h *Host) { h.logger = logger }
}

// WithModuleName 修改导出的宿主模块名，便于与 wazero 自带的
// wasi_snapshot_preview1 同时使用。
func WithModuleName(name string) ModuleOption {
	return func(h *Host) { h.moduleName = name }
}

// WithLoggerCacheSize 设置模块日志器缓存容量，非正值被忽略。
func WithLoggerCacheSize(size int) ModuleOption {
	return func(h *Host) {
		if size > 0 {
			h.loggerCacheSize = size
		}
	}
}

// NewHost 创建一个新的 Host 实例，并应用所有提供的模块选项。
func NewHost(opts ...ModuleOption) *Host {
	h := &Host{
		clock:           clock.Real(),
		logger:          slog.Default(),
		moduleName:      ModuleName,
		loggerCacheSize: DefaultLoggerCacheSize,
		tables:          make(map[string]*table.Table),
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.poller == nil {
		pollOpts := []poll.Option{poll.WithLogger(h.logger), poll.WithInterval(h.pollInterval)}
		if timers, ok := h.clock.(clock.Timers); ok {
			pollOpts = append(pollOpts, poll.WithTimers(timers))
		}
		h.poller = poll.New(pollOpts...)
	}

	// 只有 size <= 0 时才会返回错误，上面已经保证了这一点。
	h.loggers, _ = lru.New[string, *slog.Logger](h.loggerCacheSize)
	return h
}

func (h *Host) AddImplementation(impl Implementation) {
	h.implementations = append(h.implementations, impl)
}

// Instantiate 将所有已配置的实现导出到同一个宿主模块中。
func (h *Host) Instantiate(ctx context.Context, r wazero.Runtime) error {
	builder := r.NewHostModuleBuilder(h.moduleName)
	for _, impl := range h.implementations {
		if err := impl.Instantiate(ctx, h, builder); err != nil {
			return err
		}
		h.logger.Debug("exported host function", slog.String("module", h.moduleName), slog.String("name", impl.Name()))
	}
	_, err := builder.Instantiate(ctx)
	return err
}

// Table 返回 guest 模块的句柄表，不存在时创建。表一直保留到 CloseModule、
// 模块关闭通知或 Close。
func (h *Host) Table(moduleName string) *table.Table {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.tables[moduleName]; ok {
		return t
	}
	t := table.New(table.CloseFile)
	h.tables[moduleName] = t
	return t
}

// ModuleLogger 返回带 module 属性的日志器。
func (h *Host) ModuleLogger(moduleName string) *slog.Logger {
	if l, ok := h.loggers.Get(moduleName); ok {
		return l
	}
	l := h.logger.With(slog.String("module", moduleName))
	h.loggers.Add(moduleName, l)
	return l
}

// ModuleContext 返回用于实例化 guest 模块的 context：模块关闭时自动调用
// CloseModule。它会覆盖 ctx 中已有的 CloseNotifier。
func (h *Host) ModuleContext(ctx context.Context, moduleName string) context.Context {
	return experimental.WithCloseNotifier(ctx, experimental.CloseNotifyFunc(func(context.Context, uint32) {
		h.CloseModule(moduleName)
	}))
}

// CloseModule 丢弃 guest 模块的句柄表并关闭其中的文件。
func (h *Host) CloseModule(moduleName string) {
	h.mu.Lock()
	t, ok := h.tables[moduleName]
	delete(h.tables, moduleName)
	h.mu.Unlock()
	h.loggers.Remove(moduleName)
	if ok {
		h.logger.Debug("dropping handle table", slog.String("module", moduleName), slog.Int("handles", t.Len()))
		t.Close()
	}
}

// Close 丢弃所有句柄表。
func (h *Host) Close() {
	h.mu.Lock()
	tables := h.tables
	h.tables = make(map[string]*table.Table)
	h.mu.Unlock()
	h.loggers.Purge()
	for _, t := range tables {
		t.Close()
	}
}

func (h *Host) Clock() clock.Monotonic { return h.clock }

func (h *Host) Poller() poll.Poller { return h.poller }

func (h *Host) Logger() *slog.Logger { return h.logger }

func (h *Host) ModuleName() string { return h.moduleName }
