package adapters_test

import (
	"net/netip"
	"testing"

	"github.com/momentics/hioload-ftpd/adapters"
	"github.com/momentics/hioload-ftpd/internal/ftp"
	"github.com/momentics/hioload-ftpd/internal/session"
	"github.com/momentics/hioload-ftpd/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlAdapter_StatsAndObserver(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	ctrl.RegisterDebugProbe("custom", func() any { return "ok" })

	ctrl.Observer()(2, 10)
	stats := ctrl.Stats()

	assert.Equal(t, 2, stats[adapters.StateActive])
	assert.Equal(t, 10, stats[adapters.StateCapacity])
	assert.Equal(t, "ok", stats["debug.custom"])
	assert.Contains(t, stats, "debug.platform.cpus")
	assert.Contains(t, stats, "state.updated")
}

func TestControlAdapter_Reload(t *testing.T) {
	ctrl := adapters.NewControlAdapter()
	called := 0
	ctrl.OnReload(func() { called++ })
	ctrl.Reload()
	assert.Equal(t, 1, called)
	assert.Equal(t, 1, ctrl.ReloadHooks().Len())
}

type eofConn struct{ closes int }

func (c *eofConn) Fd() int                     { return 5 }
func (c *eofConn) Close() error                { c.closes++; return nil }
func (c *eofConn) Read(p []byte) (int, error)  { return 0, nil }
func (c *eofConn) Write(p []byte) (int, error) { return len(p), nil }

type lineConn struct {
	eofConn
	line string
}

func (c *lineConn) Read(p []byte) (int, error) { return copy(p, c.line), nil }

func TestExecutorAdapter_MapsResults(t *testing.T) {
	exec := adapters.NewExecutorAdapter(ftp.NewInterpreter(ftp.NewUserStore(nil, false)))
	tb := session.NewTable(2, 3)

	_, closing, err := tb.Add(&eofConn{}, netip.AddrPort{})
	require.NoError(t, err)
	assert.Equal(t, server.StatusClose, exec.ProcessOneRound(closing))

	_, alive, err := tb.Add(&lineConn{line: "NOOP\r\n"}, netip.AddrPort{})
	require.NoError(t, err)
	assert.Equal(t, server.StatusContinue, exec.ProcessOneRound(alive))
}
