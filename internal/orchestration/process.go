package orchestration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	defaultStartTimeout = 10 * time.Second
	readyPollInterval   = 10 * time.Millisecond
)

// LogBuffer is an io.Writer collecting a process's log output.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// ProcessConfig describes an in-process Environment.
type ProcessConfig struct {
	Name string
	// Run blocks until ctx is cancelled.
	Run func(ctx context.Context) error
	// Logs receives the process output; Run's logger should write to it.
	Logs *LogBuffer
	// ReadyLog is a log fragment that marks the process as started.
	ReadyLog string
	// Ready, when set, is closed once the process is started. It takes
	// precedence over ReadyLog.
	Ready func() <-chan struct{}
	// StartTimeout defaults to ten seconds.
	StartTimeout time.Duration
}

// Process runs a function in a goroutine and exposes it as an Environment,
// the in-process counterpart of a container.
type Process struct {
	cfg ProcessConfig

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan error
	err    error
}

// NewProcess returns a stopped Process.
func NewProcess(cfg ProcessConfig) *Process {
	if cfg.Logs == nil {
		cfg.Logs = &LogBuffer{}
	}
	if cfg.StartTimeout <= 0 {
		cfg.StartTimeout = defaultStartTimeout
	}
	return &Process{cfg: cfg}
}

func (p *Process) Name() string { return p.cfg.Name }

// Start launches Run and waits until the process is ready, fails or times out.
func (p *Process) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.done != nil {
		p.mu.Unlock()
		return fmt.Errorf("%s: already started", p.cfg.Name)
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan error, 1)
	p.cancel, p.done = cancel, done
	p.mu.Unlock()

	go func() { done <- p.cfg.Run(runCtx) }()

	timeout := time.NewTimer(p.cfg.StartTimeout)
	defer timeout.Stop()

	var ready <-chan struct{}
	if p.cfg.Ready != nil {
		ready = p.cfg.Ready()
	}
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ready:
			return nil
		case err := <-done:
			p.finish(err)
			if err == nil {
				err = errors.New("exited before becoming ready")
			}
			return fmt.Errorf("%s: %w", p.cfg.Name, err)
		case <-timeout.C:
			return fmt.Errorf("%s: not ready after %s", p.cfg.Name, p.cfg.StartTimeout)
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if ready == nil && (p.cfg.ReadyLog == "" || strings.Contains(p.cfg.Logs.String(), p.cfg.ReadyLog)) {
				return nil
			}
		}
	}
}

// Stop cancels Run and waits for it to return. Stopping a process that never
// started is a no-op.
func (p *Process) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case err, ok := <-done:
		if ok {
			p.finish(err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil && !errors.Is(p.err, context.Canceled) {
		return p.err
	}
	return nil
}

func (p *Process) Logs(context.Context) (string, error) {
	return p.cfg.Logs.String(), nil
}

// finish stores Run's result and closes done so later Stops do not block.
func (p *Process) finish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil {
		p.err = err
	}
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}
