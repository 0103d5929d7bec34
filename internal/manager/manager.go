package manager

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"sentimentd/internal/pipeline"
	"sentimentd/internal/telemetry"
)

// timeNow is swapped in tests.
var timeNow = time.Now

type Manager struct {
	mu      sync.RWMutex
	state   State
	lastErr string
	loadDur time.Duration

	modelID   string
	backend   string
	loader    pipeline.Loader
	recorder  telemetry.Recorder
	publisher EventPublisher
	log       zerolog.Logger
	serialize bool

	// startOnce guards the single construction; loaded is closed when it ends,
	// after handle and loadErr are set.
	startOnce sync.Once
	loaded    chan struct{}
	handle    *ModelHandle
	loadErr   error

	loads     atomic.Uint64
	requests  atomic.Uint64
	startTime time.Time
}

// New constructs a Manager for modelID using loader.
func New(modelID string, loader pipeline.Loader) *Manager {
	return NewWithConfig(ManagerConfig{ModelID: modelID, Loader: loader})
}

// ModelID returns the configured model identifier.
func (m *Manager) ModelID() string { return m.modelID }

// Loads returns how many construction attempts were made (0 or 1),
// successful or not.
func (m *Manager) Loads() uint64 { return m.loads.Load() }

// SetEventPublisher installs a publisher. Must be called before first use.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	m.publisher = p
}
