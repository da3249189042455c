package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/voyagen/gonet/internal/models"
	"github.com/voyagen/gonet/internal/store"
)

// Built-in administrator account values.
const (
	AdminAccountID = "admin-master"
	AdminExpiry    = "دائم"
)

// Auth resolves activation codes to sessions.
type Auth struct {
	store     *store.Store
	adminCode string
	log       zerolog.Logger
}

// NewAuth creates an Auth that accepts adminCode for the administrator.
func NewAuth(s *store.Store, adminCode string, log zerolog.Logger) *Auth {
	return &Auth{store: s, adminCode: adminCode, log: log.With().Str("component", "auth").Logger()}
}

// AdminAccount is the account the admin code logs in as.
func AdminAccount() models.UserAccount {
	return models.UserAccount{
		ID:       AdminAccountID,
		Username: models.AdminUsername,
		Plan:     models.PlanPremium,
		Expiry:   AdminExpiry,
		Status:   models.UserStatusActive,
	}
}

// Login matches code against the admin code (case-insensitive) and then
// against each stored account's activation code (exact). The matching
// account's session is persisted.
func (a *Auth) Login(ctx context.Context, code string) (models.Session, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.Session{}, ErrInvalidCode
	}
	acct, ok := a.match(ctx, code)
	if !ok {
		a.log.Info().Msg("login rejected")
		return models.Session{}, ErrInvalidCode
	}
	sess := models.SessionFor(acct)
	if err := a.store.SetSession(ctx, sess); err != nil {
		return models.Session{}, fmt.Errorf("SetSession: %w", err)
	}
	a.log.Info().Str("username", sess.Username).Msg("login")
	return sess, nil
}

func (a *Auth) match(ctx context.Context, code string) (models.UserAccount, bool) {
	if a.adminCode != "" && strings.EqualFold(code, a.adminCode) {
		return AdminAccount(), true
	}
	for _, u := range a.store.Users(ctx) {
		if u.Password == code {
			return u, true
		}
	}
	return models.UserAccount{}, false
}

// Logout deletes the persisted session.
func (a *Auth) Logout(ctx context.Context) error {
	if err := a.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("ClearSession: %w", err)
	}
	return nil
}

// CurrentSession returns the persisted session, or nil.
func (a *Auth) CurrentSession(ctx context.Context) *models.Session {
	return a.store.Session(ctx)
}

// IsAdmin reports whether sess belongs to the administrator.
func IsAdmin(sess *models.Session) bool { return sess.IsAdmin() }
