// File: internal/ftp/commands.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ftp

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/momentics/hioload-ftpd/internal/logger"
	"github.com/momentics/hioload-ftpd/internal/session"
)

type commandFunc func(in *Interpreter, s *session.Session, st *connState, arg string) Result

type command struct {
	fn      commandFunc
	noLogin bool // allowed before authentication
}

var commandHandlers = map[string]command{
	"USER": {fn: handleUSER, noLogin: true},
	"PASS": {fn: handlePASS, noLogin: true},
	"QUIT": {fn: handleQUIT, noLogin: true},
	"NOOP": {fn: fixedReply(replyCommandOK), noLogin: true},
	"SYST": {fn: fixedReply(replySystem), noLogin: true},
	"FEAT": {fn: fixedReply(replyFeatures), noLogin: true},
	"HELP": {fn: fixedReply(replyHelp), noLogin: true},
	"TYPE": {fn: handleTYPE},
	"PWD":  {fn: fixedReply(replyPwd)},
	"XPWD": {fn: fixedReply(replyPwd)},
	"PORT": {fn: handlePORT},
	"PASV": {fn: handlePASV},
}

// verbLabel bounds the metric label set to known verbs.
func verbLabel(cmd string) string {
	if _, ok := commandHandlers[cmd]; ok {
		return cmd
	}
	return "OTHER"
}

// execute runs a single command line.
func (in *Interpreter) execute(s *session.Session, st *connState, line string) Result {
	line = strings.TrimSpace(line)
	if line == "" {
		return ResultContinue
	}

	cmd, arg, _ := strings.Cut(line, " ")
	cmd = strings.ToUpper(cmd)
	arg = strings.TrimSpace(arg)

	logArg := arg
	if cmd == "PASS" {
		logArg = "***"
	}
	logger.Debug("Command received",
		logger.SessionID(s.ID), logger.KeyCommand, cmd, "arg", logArg, logger.KeyUsername, s.Username())
	in.metrics.RecordCommand(verbLabel(cmd))

	h, known := commandHandlers[cmd]
	if (!known || !h.noLogin) && !s.Authenticated {
		return replyResult(s, replyNotLoggedIn)
	}
	if !known {
		return replyResult(s, replyNotImplemented)
	}
	return h.fn(in, s, st, arg)
}

func replyResult(s *session.Session, text string) Result {
	if !reply(s, text) {
		return ResultClose
	}
	return ResultContinue
}

func fixedReply(text string) commandFunc {
	return func(_ *Interpreter, s *session.Session, _ *connState, _ string) Result {
		return replyResult(s, text)
	}
}

func handleUSER(in *Interpreter, s *session.Session, _ *connState, arg string) Result {
	if arg == "" {
		return replyResult(s, replySyntaxError)
	}
	s.Authenticated = false
	s.SetUsername(arg)
	if IsAnonymous(arg) && in.users.Load().AnonymousAllowed() {
		return replyResult(s, replyAnonymousPassword)
	}
	return replyResult(s, replyNeedPassword)
}

func handlePASS(in *Interpreter, s *session.Session, _ *connState, arg string) Result {
	if s.Username() == "" {
		return replyResult(s, replyBadSequence)
	}
	if s.Authenticated {
		return replyResult(s, replyLoggedIn)
	}
	if !in.users.Load().Authenticate(s.Username(), arg) {
		logger.Warn("Authentication failed",
			append(logger.Peer(s.Peer), logger.SessionID(s.ID), logger.KeyUsername, s.Username())...)
		return replyResult(s, replyLoginIncorrect)
	}
	s.Authenticated = true
	logger.Info("User logged in",
		append(logger.Peer(s.Peer), logger.SessionID(s.ID), logger.KeyUsername, s.Username())...)
	return replyResult(s, replyLoggedIn)
}

func handleQUIT(_ *Interpreter, s *session.Session, _ *connState, _ string) Result {
	reply(s, replyGoodbye)
	return ResultClose
}

func handleTYPE(_ *Interpreter, s *session.Session, st *connState, arg string) Result {
	switch strings.ToUpper(arg) {
	case "A", "A N":
		st.transferType = 'A'
		return replyResult(s, replyTypeA)
	case "I", "L 8":
		st.transferType = 'I'
		return replyResult(s, replyTypeI)
	case "":
		return replyResult(s, replySyntaxError)
	default:
		return replyResult(s, replyTypeNotImplemented)
	}
}

// handlePORT records the client's active-mode endpoint. Only the client's own
// address is accepted.
func handlePORT(_ *Interpreter, s *session.Session, _ *connState, arg string) Result {
	ep, err := parseHostPort(arg)
	if err != nil {
		return replyResult(s, replySyntaxError)
	}
	if s.Peer.IsValid() && ep.Addr() != s.Peer.Addr().Unmap() {
		return replyResult(s, replyIllegalPort)
	}
	if err := s.CloseData(); err != nil {
		logger.Debug("Closing previous data socket failed", logger.SessionID(s.ID), logger.Err(err))
	}
	s.DataEndpoint = ep
	return replyResult(s, replyPortOK)
}

// handlePASV opens a passive listener and makes it the session's data socket.
func handlePASV(in *Interpreter, s *session.Session, _ *connState, _ string) Result {
	if err := s.CloseData(); err != nil {
		logger.Debug("Closing previous data socket failed", logger.SessionID(s.ID), logger.Err(err))
	}
	s.DataEndpoint = netip.AddrPort{}

	ip := in.passiveIP
	if !ip.IsValid() {
		if la, ok := s.Control.(interface{ LocalAddr() netip.AddrPort }); ok {
			ip = la.LocalAddr().Addr()
		}
	}
	if !ip.Is4() {
		return replyResult(s, replyCantOpenData)
	}

	l, err := in.listenPassive(ip)
	if err != nil {
		logger.Warn("Passive listener failed", logger.SessionID(s.ID), logger.Err(err))
		return replyResult(s, replyCantOpenData)
	}
	s.Data = l
	s.DataEndpoint = netip.AddrPortFrom(ip, l.Addr().Port())
	return replyResult(s, formatPassive(s.DataEndpoint))
}

// parseHostPort decodes the h1,h2,h3,h4,p1,p2 argument of PORT.
func parseHostPort(arg string) (netip.AddrPort, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 6 {
		return netip.AddrPort{}, fmt.Errorf("want 6 fields, got %d", len(parts))
	}
	var b [6]byte
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return netip.AddrPort{}, fmt.Errorf("field %d out of range: %q", i, p)
		}
		b[i] = byte(v)
	}
	port := uint16(b[4])<<8 | uint16(b[5])
	if port == 0 {
		return netip.AddrPort{}, fmt.Errorf("port 0")
	}
	return netip.AddrPortFrom(netip.AddrFrom4([4]byte{b[0], b[1], b[2], b[3]}), port), nil
}

func formatPassive(ep netip.AddrPort) string {
	a := ep.Addr().As4()
	p := ep.Port()
	return fmt.Sprintf(replyPassiveFmt, a[0], a[1], a[2], a[3], p>>8, p&0xff)
}
