package server

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/momentics/hioload-ftpd/api"
	"github.com/momentics/hioload-ftpd/internal/session"
	"github.com/momentics/hioload-ftpd/metrics"
	"github.com/momentics/hioload-ftpd/reactor"
	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listenerFd = 3

type fakeConn struct {
	fd       int
	closes   int
	written  []byte
	writeErr error
}

func (c *fakeConn) Fd() int                    { return c.fd }
func (c *fakeConn) Close() error               { c.closes++; return nil }
func (c *fakeConn) Read(p []byte) (int, error) { return 0, nil }
func (c *fakeConn) Write(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.written = append(c.written, p...)
	return len(p), nil
}

type fakeAcceptor struct {
	pending []*fakeConn
	err     error
}

func (a *fakeAcceptor) Fd() int { return listenerFd }

func (a *fakeAcceptor) Accept() (session.Conn, netip.AddrPort, error) {
	if a.err != nil {
		err := a.err
		a.err = nil
		return nil, netip.AddrPort{}, err
	}
	if len(a.pending) == 0 {
		return nil, netip.AddrPort{}, nil
	}
	c := a.pending[0]
	a.pending = a.pending[1:]
	return c, netip.MustParseAddrPort("127.0.0.1:50000"), nil
}

// step fills Revents for one Wait call and returns its error.
type step func(eps []reactor.Endpoint) error

// scriptedPoller replays steps, then shuts the server down.
type scriptedPoller struct {
	steps []step
	srv   *Server
	waits int
	wakes int
}

func (p *scriptedPoller) Wait(eps []reactor.Endpoint) (int, error) {
	for i := range eps {
		eps[i].Revents = 0
	}
	if p.waits >= len(p.steps) {
		_ = p.srv.Shutdown()
		return 0, reactor.ErrWoken
	}
	st := p.steps[p.waits]
	p.waits++
	return 0, st(eps)
}

func (p *scriptedPoller) Wake() error  { p.wakes++; return nil }
func (p *scriptedPoller) Close() error { return nil }

func listenerReady(eps []reactor.Endpoint) error {
	eps[0].Revents = reactor.EventRead
	return nil
}

func ready(events map[int]reactor.EventMask) step {
	return func(eps []reactor.Endpoint) error {
		for slot, ev := range events {
			eps[slot].Revents = ev
		}
		return nil
	}
}

func fail(err error) step {
	return func([]reactor.Endpoint) error { return err }
}

type recordingExecutor struct {
	visited []int
	verdict map[int]Status
}

func (e *recordingExecutor) ProcessOneRound(s *session.Session) Status {
	fd := s.Control.Fd()
	e.visited = append(e.visited, fd)
	return e.verdict[fd]
}

func newTestServer(t *testing.T, acc *fakeAcceptor, exec Executor, steps []step, opts ...ServerOption) (*Server, *scriptedPoller) {
	t.Helper()
	p := &scriptedPoller{steps: steps}
	srv, err := NewServer(acc, exec, append([]ServerOption{WithPoller(p)}, opts...)...)
	require.NoError(t, err)
	p.srv = srv
	return srv, p
}

func counter(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var m io_prometheus_client.Metric
	require.NoError(t, (<-ch).Write(&m))
	return m.GetCounter().GetValue()
}

func conns(fds ...int) []*fakeConn {
	out := make([]*fakeConn, len(fds))
	for i, fd := range fds {
		out[i] = &fakeConn{fd: fd}
	}
	return out
}

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(nil, &recordingExecutor{})
	assert.ErrorIs(t, err, ErrNoAcceptor)
	_, err = NewServer(&fakeAcceptor{}, nil)
	assert.ErrorIs(t, err, ErrNoExecutor)
	_, err = NewServer(&fakeAcceptor{}, &recordingExecutor{}, WithPoller(&scriptedPoller{}), WithMaxClients(0))
	assert.Error(t, err)
}

func TestServe_CapacityRejectsExtraConnection(t *testing.T) {
	cs := conns(10, 11, 12)
	acc := &fakeAcceptor{pending: cs}
	m := metrics.NewServerMetrics(prometheus.NewRegistry())
	var observed []int
	srv, _ := newTestServer(t, acc, &recordingExecutor{},
		[]step{listenerReady, listenerReady, listenerReady},
		WithMaxClients(2), WithMetrics(m),
		WithObserver(func(active, capacity int) {
			assert.Equal(t, 2, capacity)
			observed = append(observed, active)
		}))

	// Keep the table populated after the loop to inspect it.
	var snapshot []int
	srv.observers = append(srv.observers, func(active, _ int) {
		if active == 2 {
			snapshot = nil
			for _, ep := range srv.table.Endpoints()[1:] {
				snapshot = append(snapshot, ep.Fd)
			}
		}
	})

	require.NoError(t, srv.Serve(context.Background()))

	assert.Equal(t, []int{10, 11}, snapshot)
	assert.Equal(t, DefaultGreeting, string(cs[0].written))
	assert.Equal(t, DefaultGreeting, string(cs[1].written))
	assert.Empty(t, cs[2].written)
	assert.Equal(t, 1, cs[2].closes)
	assert.Equal(t, 1.0, counter(t, m.Rejected))
	assert.Equal(t, 2.0, counter(t, m.Accepted))
	// 1, 2, then 0 on cleanup
	assert.Equal(t, []int{1, 2, 0}, observed)
	for _, c := range cs {
		assert.Equal(t, 1, c.closes)
	}
}

func TestServe_InterruptedWaitIsRetried(t *testing.T) {
	cs := conns(10)
	m := metrics.NewServerMetrics(nil)
	srv, p := newTestServer(t, &fakeAcceptor{pending: cs}, &recordingExecutor{},
		[]step{fail(reactor.ErrInterrupted), fail(reactor.ErrInterrupted), listenerReady},
		WithMetrics(m))

	require.NoError(t, srv.Serve(context.Background()))
	assert.Equal(t, 3, p.waits)
	assert.Equal(t, 2.0, counter(t, m.WaitInterrupts))
	assert.Equal(t, DefaultGreeting, string(cs[0].written))
}

func TestServe_FatalWaitClosesEverything(t *testing.T) {
	cs := conns(10, 11)
	boom := errors.New("boom")
	srv, _ := newTestServer(t, &fakeAcceptor{pending: cs}, &recordingExecutor{},
		[]step{listenerReady, listenerReady, fail(boom)})

	err := srv.Serve(context.Background())
	var fatal *api.LoopFatalError
	require.ErrorAs(t, err, &fatal)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, api.ErrCodeLoopFatal, api.CodeOf(err))
	for _, c := range cs {
		assert.Equal(t, 1, c.closes)
	}
	assert.Equal(t, 0, srv.Active())
}

func TestServe_RemovalReexaminesShiftedSlot(t *testing.T) {
	cs := conns(10, 11, 12, 13)
	exec := &recordingExecutor{verdict: map[int]Status{}}
	var remaining []int
	srv, _ := newTestServer(t, &fakeAcceptor{pending: cs}, exec, []step{
		listenerReady, listenerReady, listenerReady, listenerReady,
		ready(map[int]reactor.EventMask{
			1: reactor.EventHangup,
			2: reactor.EventError,
			3: reactor.EventRead,
			4: reactor.EventRead | reactor.EventHangup,
		}),
	})
	exec.verdict[13] = StatusClose
	srv.observers = append(srv.observers, func(active, _ int) {
		remaining = remaining[:0]
		for _, ep := range srv.table.Endpoints()[1:] {
			remaining = append(remaining, ep.Fd)
		}
	})

	require.NoError(t, srv.Serve(context.Background()))

	// fd 12 reached slot 1 after two removals and was still dispatched.
	assert.Equal(t, []int{12, 13}, exec.visited)
	assert.Empty(t, remaining)
	for _, c := range cs {
		assert.Equal(t, 1, c.closes)
	}
}

func TestServe_ExecutorCloseTearsDownOnlyThatSession(t *testing.T) {
	cs := conns(10, 11, 12)
	exec := &recordingExecutor{verdict: map[int]Status{11: StatusClose}}
	m := metrics.NewServerMetrics(nil)
	var order []int
	srv, _ := newTestServer(t, &fakeAcceptor{pending: cs}, exec, []step{
		listenerReady, listenerReady, listenerReady,
		ready(map[int]reactor.EventMask{2: reactor.EventRead}),
		ready(map[int]reactor.EventMask{1: reactor.EventRead, 2: reactor.EventRead}),
	}, WithMetrics(m))
	srv.observers = append(srv.observers, func(active, _ int) {
		if active == 2 {
			order = order[:0]
			for _, ep := range srv.table.Endpoints()[1:] {
				order = append(order, ep.Fd)
			}
		}
	})

	require.NoError(t, srv.Serve(context.Background()))
	assert.Equal(t, []int{10, 12}, order)
	assert.Equal(t, []int{11, 10, 12}, exec.visited)
	assert.Equal(t, 1, cs[1].closes)

	closed, err := m.SessionsClosed.GetMetricWithLabelValues(metrics.ReasonClientClose)
	require.NoError(t, err)
	assert.Equal(t, 1.0, counter(t, closed))
}

// loginExecutor marks every session it sees as logged in under a name
// derived from its descriptor.
type loginExecutor struct{}

func (loginExecutor) ProcessOneRound(s *session.Session) Status {
	s.Authenticated = true
	s.SetUsername(fmt.Sprintf("user%d", s.Control.Fd()))
	return StatusContinue
}

func TestServe_ShiftedSessionsKeepTheirState(t *testing.T) {
	cs := conns(10, 11, 12)
	type snapshot struct {
		fd   int
		auth bool
		user string
	}
	var after []snapshot
	srv, _ := newTestServer(t, &fakeAcceptor{pending: cs}, loginExecutor{}, []step{
		listenerReady, listenerReady, listenerReady,
		ready(map[int]reactor.EventMask{1: reactor.EventRead, 2: reactor.EventRead, 3: reactor.EventRead}),
		ready(map[int]reactor.EventMask{2: reactor.EventHangup}),
	})
	srv.observers = append(srv.observers, func(active, _ int) {
		if active != 2 {
			return
		}
		after = after[:0]
		for i := 1; i < srv.table.Slots(); i++ {
			sess := srv.table.Session(i)
			after = append(after, snapshot{sess.Control.Fd(), sess.Authenticated, sess.Username()})
			assert.Equal(t, srv.table.Endpoints()[i].Fd, sess.Control.Fd(), "slot %d", i)
		}
	})

	require.NoError(t, srv.Serve(context.Background()))
	assert.Equal(t, []snapshot{{10, true, "user10"}, {12, true, "user12"}}, after)
	assert.Equal(t, 1, cs[1].closes)
}

func TestServe_GreetingFailureRemovesSessionImmediately(t *testing.T) {
	bad := &fakeConn{fd: 10, writeErr: errors.New("broken pipe")}
	good := &fakeConn{fd: 11}
	exec := &recordingExecutor{}
	m := metrics.NewServerMetrics(nil)
	var observed []int
	srv, _ := newTestServer(t, &fakeAcceptor{pending: []*fakeConn{bad, good}}, exec, []step{
		listenerReady, listenerReady,
		ready(map[int]reactor.EventMask{1: reactor.EventRead}),
	}, WithMetrics(m), WithObserver(func(active, _ int) { observed = append(observed, active) }))

	require.NoError(t, srv.Serve(context.Background()))
	assert.Equal(t, 1, bad.closes)
	assert.Equal(t, []int{11}, exec.visited)
	assert.Equal(t, []int{1, 0}, observed)
	assert.Equal(t, 1.0, counter(t, m.GreetingFailures))
	assert.Equal(t, 1.0, counter(t, m.Accepted))
}

func TestServe_AcceptErrorDoesNotStopLoop(t *testing.T) {
	c := &fakeConn{fd: 10}
	acc := &fakeAcceptor{pending: []*fakeConn{c}, err: errors.New("emfile")}
	srv, p := newTestServer(t, acc, &recordingExecutor{}, []step{listenerReady, listenerReady})

	require.NoError(t, srv.Serve(context.Background()))
	assert.Equal(t, 2, p.waits)
	assert.Equal(t, DefaultGreeting, string(c.written))
}

func TestServe_CustomGreeting(t *testing.T) {
	c := &fakeConn{fd: 10}
	srv, _ := newTestServer(t, &fakeAcceptor{pending: []*fakeConn{c}}, &recordingExecutor{},
		[]step{listenerReady}, WithGreeting("220 hi\r\n"))
	assert.Equal(t, "220 hi\r\n", srv.Greeting())

	require.NoError(t, srv.Serve(context.Background()))
	assert.Equal(t, "220 hi\r\n", string(c.written))
}

func TestServe_RejectsSecondRun(t *testing.T) {
	srv, _ := newTestServer(t, &fakeAcceptor{}, &recordingExecutor{}, nil)
	srv.running.Store(true)
	assert.ErrorIs(t, srv.Serve(context.Background()), ErrAlreadyRunning)
}

// blockingPoller blocks in Wait until Wake is called.
type blockingPoller struct {
	wake chan struct{}
}

func newBlockingPoller() *blockingPoller {
	return &blockingPoller{wake: make(chan struct{}, 1)}
}

func (p *blockingPoller) Wait(eps []reactor.Endpoint) (int, error) {
	<-p.wake
	return 0, reactor.ErrWoken
}

func (p *blockingPoller) Wake() error {
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

func (p *blockingPoller) Close() error { return nil }

func TestServe_ContextCancelStopsLoop(t *testing.T) {
	srv, err := NewServer(&fakeAcceptor{}, &recordingExecutor{}, WithPoller(newBlockingPoller()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestShutdown_BeforeServe(t *testing.T) {
	srv, err := NewServer(&fakeAcceptor{}, &recordingExecutor{}, WithPoller(newBlockingPoller()))
	require.NoError(t, err)
	require.NoError(t, srv.Shutdown())
	assert.NoError(t, srv.Serve(context.Background()))
}

func TestServe_UnusableLoopCPUStillServes(t *testing.T) {
	c := &fakeConn{fd: 10}
	srv, _ := newTestServer(t, &fakeAcceptor{pending: []*fakeConn{c}}, &recordingExecutor{},
		[]step{listenerReady}, WithLoopCPU(1<<20))

	require.NoError(t, srv.Serve(context.Background()))
	assert.Equal(t, DefaultGreeting, string(c.written))
	assert.Equal(t, 1, c.closes)
}

// orderingPoller fails its first wait after cancelling the serve context and
// records the order of Wake and Close calls.
type orderingPoller struct {
	cancel context.CancelFunc

	mu     sync.Mutex
	events []string
}

func (p *orderingPoller) record(e string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *orderingPoller) Wait(eps []reactor.Endpoint) (int, error) {
	p.cancel()
	time.Sleep(10 * time.Millisecond)
	return 0, errors.New("ebadf")
}

func (p *orderingPoller) Wake() error {
	p.record("wake-start")
	time.Sleep(50 * time.Millisecond)
	p.record("wake-end")
	return nil
}

func (p *orderingPoller) Close() error {
	p.record("close")
	return nil
}

func TestServe_OwnedPollerClosedAfterPendingWake(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &orderingPoller{cancel: cancel}
	srv, err := NewServer(&fakeAcceptor{}, &recordingExecutor{}, WithPoller(p))
	require.NoError(t, err)
	srv.ownPoller = true

	var fatal *api.LoopFatalError
	require.ErrorAs(t, srv.Serve(ctx), &fatal)

	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.events)
	assert.Equal(t, "close", p.events[len(p.events)-1])
	if len(p.events) > 1 {
		assert.Equal(t, []string{"wake-start", "wake-end", "close"}, p.events)
	}
}
