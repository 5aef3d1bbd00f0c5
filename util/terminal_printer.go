package util

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// TerminalPrinter redraws the latest line of each of its outputs in place
// every interval until stopped.
type TerminalPrinter struct {
	interval time.Duration
	writer   *uilive.Writer

	mtx     sync.Mutex
	lines   []*ProgressLine
	targets []io.Writer

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
}

func NewTerminalPrinter(interval time.Duration) *TerminalPrinter {
	return &TerminalPrinter{
		interval:  interval,
		writer:    uilive.New(),
		lines:     make([]*ProgressLine, 0),
		targets:   make([]io.Writer, 0),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// NewOutput adds a line to the display. The first line uses the writer
// itself, later ones get their own uilive line.
func (p *TerminalPrinter) NewOutput() *ProgressLine {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	line := &ProgressLine{}
	var target io.Writer = p.writer
	if len(p.lines) > 0 {
		target = p.writer.Newline()
	}
	p.lines = append(p.lines, line)
	p.targets = append(p.targets, target)
	return line
}

// Start redraws until Stop is called or ctx is done.
func (p *TerminalPrinter) Start(ctx context.Context) {
	p.writer.Start()
	go func() {
		defer close(p.stoppedCh)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stopCh:
				p.redraw()
				p.writer.Stop()
				return
			case <-ctx.Done():
				p.writer.Stop()
				return
			case <-ticker.C:
				p.redraw()
			}
		}
	}()
}

// Stop draws the final state of every line and waits for the printer to
// release the terminal.
func (p *TerminalPrinter) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.stoppedCh
}

func (p *TerminalPrinter) redraw() {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	for i, line := range p.lines {
		fmt.Fprintln(p.targets[i], line.Get())
	}
}

// ProgressLine holds the last line written to it. It is an io.Writer so
// it can be handed to an experiment as its progress output.
type ProgressLine struct {
	mtx  sync.Mutex
	text string
}

func (l *ProgressLine) Write(b []byte) (int, error) {
	s := strings.TrimRight(string(b), "\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	l.mtx.Lock()
	l.text = s
	l.mtx.Unlock()
	return len(b), nil
}

func (l *ProgressLine) Get() string {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.text
}
