package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/validate"
	"github.com/rs/zerolog"

	"github.com/voyagen/gonet/internal/models"
	"github.com/voyagen/gonet/internal/store"
)

// ExpiryLayout is the display format of an account's expiry date.
const ExpiryLayout = "2006-01-02"

// NewUser is the input to CreateUser. Password is generated when empty.
type NewUser struct {
	Username string `json:"username" validate:"required|maxLen:64"`
	Password string `json:"password" validate:"maxLen:64"`
	Plan     string `json:"plan" validate:"required|in:Basic,Premium,Gold,Trial"`
	Years    int    `json:"years" validate:"min:0|max:10"`
	Months   int    `json:"months" validate:"min:0|max:11"`
}

// Stats summarizes the catalog and the user base.
type Stats struct {
	Users     int                      `json:"users"`
	Items     int                      `json:"items"`
	Playlists int                      `json:"playlists"`
	ByType    map[models.MediaType]int `json:"byType"`
}

// Admin implements the administrator operations.
type Admin struct {
	store *store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewAdmin creates an Admin over s.
func NewAdmin(s *store.Store, log zerolog.Logger) *Admin {
	return &Admin{store: s, log: log.With().Str("component", "admin").Logger(), now: time.Now}
}

// CreateUser adds an active account expiring Years and Months from now.
func (a *Admin) CreateUser(ctx context.Context, in NewUser) (models.UserAccount, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Password = strings.TrimSpace(in.Password)
	if err := check(&in); err != nil {
		return models.UserAccount{}, err
	}
	if in.Password == "" {
		code, err := ActivationCode()
		if err != nil {
			return models.UserAccount{}, fmt.Errorf("ActivationCode: %w", err)
		}
		in.Password = code
	}
	now := a.now()
	u := models.UserAccount{
		ID:        models.UserIDPrefix + uuid.NewString(),
		Username:  in.Username,
		Password:  in.Password,
		Expiry:    now.AddDate(in.Years, in.Months, 0).Format(ExpiryLayout),
		Plan:      in.Plan,
		Status:    models.UserStatusActive,
		CreatedAt: now.UTC().Format(time.RFC3339),
	}
	users := append(a.store.Users(ctx), u)
	if err := a.store.SetUsers(ctx, users); err != nil {
		return models.UserAccount{}, fmt.Errorf("SetUsers: %w", err)
	}
	a.log.Info().Str("user", u.ID).Str("plan", u.Plan).Str("expiry", u.Expiry).Msg("user created")
	return u, nil
}

// Users lists every account.
func (a *Admin) Users(ctx context.Context) []models.UserAccount {
	return a.store.Users(ctx)
}

// Playlists lists every ingestion record.
func (a *Admin) Playlists(ctx context.Context) []models.Playlist {
	return a.store.Playlists(ctx)
}

// UpdateTicker validates and saves t.
func (a *Admin) UpdateTicker(ctx context.Context, t models.TickerConfig) (models.TickerConfig, error) {
	t.Color = strings.ToLower(strings.TrimSpace(t.Color))
	if err := check(&t); err != nil {
		return models.TickerConfig{}, err
	}
	if err := a.store.SetTicker(ctx, t); err != nil {
		return models.TickerConfig{}, fmt.Errorf("SetTicker: %w", err)
	}
	return t, nil
}

// SendNotification prepends a notification to the history. An empty title
// or message does nothing and reports false.
func (a *Admin) SendNotification(ctx context.Context, title, message, kind string) (bool, error) {
	title, message = strings.TrimSpace(title), strings.TrimSpace(message)
	if title == "" || message == "" {
		return false, nil
	}
	switch kind {
	case models.NotificationInfo, models.NotificationWarning, models.NotificationSuccess, models.NotificationAlert:
	case "":
		kind = models.NotificationInfo
	default:
		return false, fmt.Errorf("%w: unknown notification type %q", ErrInvalid, kind)
	}
	n := models.AppNotification{
		ID:        models.NotificationIDPrefix + uuid.NewString(),
		Title:     title,
		Message:   message,
		Timestamp: a.now().UTC().Format(time.RFC3339),
		Type:      kind,
	}
	ns := append([]models.AppNotification{n}, a.store.Notifications(ctx)...)
	if err := a.store.SetNotifications(ctx, ns); err != nil {
		return false, fmt.Errorf("SetNotifications: %w", err)
	}
	return true, nil
}

// Reset wipes every persisted key.
func (a *Admin) Reset(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("Clear: %w", err)
	}
	a.log.Warn().Msg("store reset")
	return nil
}

// Stats counts users, playlists and catalog items per type.
func (a *Admin) Stats(ctx context.Context) Stats {
	items := a.store.MediaItems(ctx)
	st := Stats{
		Users:     len(a.store.Users(ctx)),
		Items:     len(items),
		Playlists: len(a.store.Playlists(ctx)),
		ByType:    make(map[models.MediaType]int, len(models.MediaTypes)),
	}
	for _, t := range models.MediaTypes {
		st.ByType[t] = 0
	}
	for _, it := range items {
		st.ByType[it.Type]++
	}
	return st
}

// ActivationCode returns a random 10-digit code with no leading zero.
func ActivationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9_000_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1_000_000_000), nil
}

func check(v any) error {
	vd := validate.Struct(v)
	if !vd.Validate() {
		return fmt.Errorf("%w: %s", ErrInvalid, vd.Errors.One())
	}
	return nil
}
