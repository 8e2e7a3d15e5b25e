package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/coop-console/internal/config"
	"github.com/spec-kit/coop-console/internal/domain"
)

// ErrInvalidDemoCredentials is returned when no demo account matches.
var ErrInvalidDemoCredentials = errors.New("invalid demo credentials")

type demoAccount struct {
	hash string
	role domain.Role
}

// DemoDirectory holds the static accounts of the offline login path.
// Plaintext passwords from configuration are hashed once at construction.
type DemoDirectory struct {
	accounts map[string]demoAccount
}

// NewDemoDirectory hashes every configured account with the given bcrypt cost.
func NewDemoDirectory(accounts []config.DemoAccount, cost int) (*DemoDirectory, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	dir := &DemoDirectory{accounts: make(map[string]demoAccount, len(accounts))}
	for _, acc := range accounts {
		hashed, err := bcrypt.GenerateFromPassword([]byte(acc.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash demo account %s: %w", acc.Username, err)
		}
		dir.accounts[strings.ToLower(acc.Username)] = demoAccount{
			hash: string(hashed),
			role: domain.Role(acc.Role),
		}
	}
	return dir, nil
}

// Len returns the number of configured accounts.
func (d *DemoDirectory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.accounts)
}

// Verify returns the account's role tag when username and password match.
// Usernames are case-insensitive; the role tag is returned as configured.
func (d *DemoDirectory) Verify(username, password string) (domain.Role, error) {
	if d == nil {
		return "", ErrInvalidDemoCredentials
	}
	acc, ok := d.accounts[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return "", ErrInvalidDemoCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.hash), []byte(password)); err != nil {
		return "", ErrInvalidDemoCredentials
	}
	return acc.role, nil
}
