package server

import (
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"go.uber.org/zap"
)

// Context keys for middleware values
type ctxKey string

const (
	ctxKeySession ctxKey = "session"
	ctxKeyUser    ctxKey = "user"
)

// SessionMiddleware creates a session for each connection and ends it when
// the handler returns.
func SessionMiddleware(sessionMgr *SessionManager) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			user := GetUserFromContext(s.Context())
			if user == nil {
				user = newGuest("")
			}

			session := sessionMgr.CreateSession(user, s.RemoteAddr().String())
			s.Context().SetValue(ctxKeySession, session)
			defer sessionMgr.EndSession(session.ID)

			next(s)
		}
	}
}

// LoggingMiddleware logs connections.
func LoggingMiddleware(logger *zap.Logger) wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(s ssh.Session) {
			user := GetUserFromContext(s.Context())
			logger.Info("connection",
				zap.String("remote", s.RemoteAddr().String()),
				zap.String("user", user.DisplayName()),
				zap.Strings("command", s.Command()))

			next(s)

			logger.Info("disconnected", zap.String("remote", s.RemoteAddr().String()))
		}
	}
}

// GetSessionFromSSH retrieves the session from the SSH session context.
func GetSessionFromSSH(s ssh.Session) *Session {
	if session, ok := s.Context().Value(ctxKeySession).(*Session); ok {
		return session
	}
	return nil
}
