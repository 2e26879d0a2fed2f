// Package sync keeps a few pieces of client state approximately fresh
// without a server push channel: unread counts on a fixed 30-second
// interval, waiting-room admission on a fixed 3-second interval while
// the waiting screen is shown, and a one-shot session pre-expiry
// refresh. This is a deliberately naive fixed-interval design; there is
// no adaptivity and no back-pressure handling beyond dropping results
// when the channel is full.
package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bheem-platform/workspace-cli/internal/logging"
	"github.com/bheem-platform/workspace-cli/internal/model"
	"github.com/bheem-platform/workspace-cli/internal/session"
	"github.com/bheem-platform/workspace-cli/internal/store"
)

// Default polling intervals.
const (
	UnreadInterval    = 30 * time.Second
	AdmissionInterval = 3 * time.Second
)

// UnreadMsg is a tea.Msg carrying freshly fetched unread counts.
type UnreadMsg struct {
	Counts model.UnreadCounts
}

// AdmissionMsg is a tea.Msg reporting a waiting-room admission check.
type AdmissionMsg struct {
	Admitted bool
	Err      error
}

// SessionRefreshMsg is a tea.Msg reporting the outcome of the one-shot
// pre-expiry session refresh. On OK the app reschedules; on failure the
// session has been cleared and the login view takes over.
type SessionRefreshMsg struct {
	OK bool
}

// AdmissionChecker is the waiting-room surface the poller needs.
type AdmissionChecker interface {
	Check(ctx context.Context) (bool, error)
}

// Poller orchestrates the background refresh goroutines and adapts
// their results into Bubble Tea messages.
type Poller struct {
	mail     *store.MailStore
	sessions *session.Manager
	log      logging.Logger

	unreadInterval    time.Duration
	admissionInterval time.Duration

	resultCh chan tea.Msg
	stopCh   chan struct{}

	mu          gosync.Mutex
	running     bool
	admitStopCh chan struct{}
}

// New creates a Poller over the given stores.
func New(mail *store.MailStore, sessions *session.Manager, log logging.Logger) *Poller {
	return &Poller{
		mail:              mail,
		sessions:          sessions,
		log:               log,
		unreadInterval:    UnreadInterval,
		admissionInterval: AdmissionInterval,
		resultCh:          make(chan tea.Msg, 16),
	}
}

// SetIntervals overrides the fixed intervals. Tests shrink them.
func (p *Poller) SetIntervals(unread, admission time.Duration) {
	p.unreadInterval = unread
	p.admissionInterval = admission
}

// Start launches the unread-count loop and returns the subscription
// command that feeds results to the Bubble Tea runtime. A stopped
// poller can be started again (logout and back in).
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	stopCh := make(chan struct{})
	p.stopCh = stopCh
	p.mu.Unlock()

	go p.pollUnread(stopCh)

	return p.waitForResult()
}

// Stop halts all polling goroutines.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	if p.admitStopCh != nil {
		close(p.admitStopCh)
		p.admitStopCh = nil
	}
	p.running = false
}

// StartWaitingRoom begins the 3-second admission poll for the given
// checker. Stops any previous admission poll first; StopWaitingRoom
// cancels it when the waiting screen unmounts.
func (p *Poller) StartWaitingRoom(checker AdmissionChecker) {
	p.mu.Lock()
	if p.admitStopCh != nil {
		close(p.admitStopCh)
	}
	stopCh := make(chan struct{})
	p.admitStopCh = stopCh
	p.mu.Unlock()

	go p.pollAdmission(checker, stopCh)
}

// StopWaitingRoom cancels the admission poll, if one is running.
func (p *Poller) StopWaitingRoom() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.admitStopCh != nil {
		close(p.admitStopCh)
		p.admitStopCh = nil
	}
}

// ScheduleSessionRefresh arms the one-shot pre-expiry refresh through
// the session manager. The timer fires once at 90% of the remaining
// TTL and is not re-armed here; the app reschedules when it receives a
// successful SessionRefreshMsg.
func (p *Poller) ScheduleSessionRefresh() bool {
	return p.sessions.ScheduleRefresh(func() {
		ok := p.sessions.Refresh(context.Background())
		p.sendResult(SessionRefreshMsg{OK: ok})
	})
}

// pollUnread runs the unread-count loop with an immediate first fetch.
func (p *Poller) pollUnread(stopCh chan struct{}) {
	ticker := time.NewTicker(p.unreadInterval)
	defer ticker.Stop()

	p.fetchUnread()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			p.fetchUnread()
		}
	}
}

func (p *Poller) fetchUnread() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	p.mail.FetchUnread(ctx)
	p.sendResult(UnreadMsg{Counts: p.mail.Unread()})
}

// pollAdmission runs the waiting-room loop until admitted or stopped.
func (p *Poller) pollAdmission(checker AdmissionChecker, stopCh chan struct{}) {
	ticker := time.NewTicker(p.admissionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			admitted, err := checker.Check(ctx)
			cancel()

			p.sendResult(AdmissionMsg{Admitted: admitted, Err: err})
			if admitted {
				return
			}
		}
	}
}

// sendResult sends a message without blocking; full channel drops.
func (p *Poller) sendResult(msg tea.Msg) {
	select {
	case p.resultCh <- msg:
	default:
	}
}

// waitForResult returns a tea.Cmd that waits for the next poller
// message. The app calls WaitForNextResult after handling each message
// to keep the subscription alive.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return msg
	}
}

// WaitForNextResult re-subscribes after a poller message was handled.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
