package server

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/charmbracelet/ssh"
	"github.com/google/uuid"
	"github.com/johan-st/sqlhelper/internal/config"
	"go.uber.org/zap"
	gossh "golang.org/x/crypto/ssh"
)

// Identity is who an SSH session belongs to.
type Identity struct {
	Name        string
	Guest       bool
	Fingerprint string
}

// DisplayName returns the name shown in logs and the status bar.
func (i *Identity) DisplayName() string {
	if i == nil {
		return "unknown"
	}
	return i.Name
}

func newGuest(fingerprint string) *Identity {
	return &Identity{
		Name:        "guest-" + uuid.NewString()[:8],
		Guest:       true,
		Fingerprint: fingerprint,
	}
}

// Authenticator handles SSH authentication against the configured users.
type Authenticator struct {
	ssh    func() config.SSHConfig
	logger *zap.Logger
}

// NewAuthenticator creates an authenticator reading the current SSH config
// on every attempt, so reloaded user lists apply to new connections.
func NewAuthenticator(cfg func() config.SSHConfig, logger *zap.Logger) *Authenticator {
	return &Authenticator{ssh: cfg, logger: logger}
}

// PublicKeyHandler returns a handler for public key authentication.
func (a *Authenticator) PublicKeyHandler() ssh.PublicKeyHandler {
	return func(ctx ssh.Context, key ssh.PublicKey) bool {
		cfg := a.ssh()
		fingerprint := FingerprintKey(key)

		if user := cfg.FindUser(keyMatcher(key, fingerprint)); user != nil {
			ctx.SetValue(ctxKeyUser, &Identity{Name: user.Name, Fingerprint: fingerprint})
			a.logger.Info("authenticated",
				zap.String("user", user.Name),
				zap.String("remote", ctx.RemoteAddr().String()))
			return true
		}

		if cfg.AllowKeyless {
			guest := newGuest(fingerprint)
			ctx.SetValue(ctxKeyUser, guest)
			a.logger.Info("guest access",
				zap.String("user", guest.Name),
				zap.String("remote", ctx.RemoteAddr().String()))
			return true
		}

		a.logger.Warn("authentication failed",
			zap.String("fingerprint", fingerprint),
			zap.String("remote", ctx.RemoteAddr().String()))
		return false
	}
}

// KeyboardInteractiveHandler admits keyless guests when configured.
func (a *Authenticator) KeyboardInteractiveHandler() ssh.KeyboardInteractiveHandler {
	return func(ctx ssh.Context, _ gossh.KeyboardInteractiveChallenge) bool {
		if !a.ssh().AllowKeyless {
			return false
		}
		guest := newGuest("")
		ctx.SetValue(ctxKeyUser, guest)
		a.logger.Info("keyless guest access",
			zap.String("user", guest.Name),
			zap.String("remote", ctx.RemoteAddr().String()))
		return true
	}
}

// keyMatcher matches an authorized_keys line or a bare fingerprint.
func keyMatcher(key ssh.PublicKey, fingerprint string) func(string) bool {
	return func(authorized string) bool {
		parsed, _, _, _, err := ssh.ParseAuthorizedKey([]byte(authorized))
		if err != nil {
			return authorized == fingerprint
		}
		return ssh.KeysEqual(parsed, key)
	}
}

// GetUserFromContext retrieves the identity set during authentication.
func GetUserFromContext(ctx ssh.Context) *Identity {
	if user, ok := ctx.Value(ctxKeyUser).(*Identity); ok {
		return user
	}
	return nil
}

// FingerprintKey returns the SHA256 fingerprint of a public key.
func FingerprintKey(key ssh.PublicKey) string {
	hash := sha256.Sum256(key.Marshal())
	return fmt.Sprintf("SHA256:%s", base64.RawStdEncoding.EncodeToString(hash[:]))
}
