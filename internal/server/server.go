// Package server serves workbench sessions over SSH. An interactive session
// gets the TUI; a session with a command runs that command and exits.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/johan-st/sqlhelper/internal/config"
	"github.com/johan-st/sqlhelper/internal/history"
	"go.uber.org/zap"
)

// TUIHandler builds the interactive program for one session.
type TUIHandler func(s ssh.Session, session *Session) (tea.Model, []tea.ProgramOption)

// CLIHandler runs the command of one session.
type CLIHandler func(s ssh.Session, session *Session)

// Server is the SSH server.
type Server struct {
	logger        *zap.Logger
	sessionMgr    *SessionManager
	authenticator *Authenticator
	sshServer     *ssh.Server
	tuiHandler    TUIHandler
	cliHandler    CLIHandler

	mu     sync.RWMutex
	config config.Config
}

// New creates a new SSH server. store may be nil.
func New(cfg config.Config, store *history.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("ssh")
	s := &Server{
		config:     cfg,
		logger:     logger,
		sessionMgr: NewSessionManager(store, logger),
	}
	s.authenticator = NewAuthenticator(func() config.SSHConfig { return s.Config().Server.SSH }, logger)
	return s
}

// Config returns the config new sessions start with.
func (s *Server) Config() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SetConfig replaces the config for sessions opened from now on. The listen
// address and timeouts only change on restart.
func (s *Server) SetConfig(cfg config.Config) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	s.logger.Info("config updated for new sessions")
}

// SetTUIHandler sets the handler for interactive sessions.
func (s *Server) SetTUIHandler(handler TUIHandler) {
	s.tuiHandler = handler
}

// SetCLIHandler sets the handler for commands.
func (s *Server) SetCLIHandler(handler CLIHandler) {
	s.cliHandler = handler
}

func (s *Server) build() (*ssh.Server, error) {
	cfg := s.Config().Server.SSH

	keyDir := filepath.Dir(cfg.HostKeyPath)
	if err := os.MkdirAll(keyDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create host key directory: %w", err)
	}

	// The last middleware runs first.
	middleware := []wish.Middleware{
		s.routingMiddleware(),
		SessionMiddleware(s.sessionMgr),
		LoggingMiddleware(s.logger),
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Listen),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithPublicKeyAuth(s.authenticator.PublicKeyHandler()),
		wish.WithMiddleware(middleware...),
	}
	if cfg.AllowKeyless {
		opts = append(opts, wish.WithKeyboardInteractiveAuth(s.authenticator.KeyboardInteractiveHandler()))
	}
	if d := cfg.GetIdleTimeout(); d > 0 {
		opts = append(opts, wish.WithIdleTimeout(d))
	}
	if d := cfg.GetMaxTimeout(); d > 0 {
		opts = append(opts, wish.WithMaxTimeout(d))
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH server: %w", err)
	}
	s.sshServer = server
	return server, nil
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	server, err := s.build()
	if err != nil {
		return err
	}

	s.logger.Info("starting SSH server", zap.String("listen", server.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	errc := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-done:
	}
	s.logger.Info("shutting down SSH server", zap.Int("sessions", s.sessionMgr.Count()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// ListenAndServe serves without signal handling.
func (s *Server) ListenAndServe() error {
	server, err := s.build()
	if err != nil {
		return err
	}
	return server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.sshServer != nil {
		return s.sshServer.Shutdown(ctx)
	}
	return nil
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessionMgr
}

// routingMiddleware routes requests to either TUI or CLI handler.
func (s *Server) routingMiddleware() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			session := GetSessionFromSSH(sess)

			if len(sess.Command()) > 0 {
				if s.cliHandler == nil {
					wish.Fatalln(sess, "commands are not available")
					return
				}
				s.cliHandler(sess, session)
				return
			}

			if _, _, hasPty := sess.Pty(); !hasPty {
				wish.Fatalln(sess, "PTY required for interactive mode. Use -t or run a command.")
				return
			}
			if s.tuiHandler == nil {
				wish.Fatalln(sess, "interactive mode is not available")
				return
			}
			bubbletea.Middleware(func(ss ssh.Session) (tea.Model, []tea.ProgramOption) {
				return s.tuiHandler(ss, session)
			})(next)(sess)
		}
	}
}
