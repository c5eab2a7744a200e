package config

import "strings"

// User is an SSH user allowed to open a workbench session.
type User struct {
	Name       string   `yaml:"name"`
	PublicKeys []string `yaml:"public_keys"`
}

// FindUser returns the user owning an authorized key line, matched either by
// exact key text or by fingerprint.
func (s SSHConfig) FindUser(match func(authorizedKey string) bool) *User {
	for i := range s.Users {
		for _, key := range s.Users[i].PublicKeys {
			if match(strings.TrimSpace(key)) {
				return &s.Users[i]
			}
		}
	}
	return nil
}
