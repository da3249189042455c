package models

// Plans and account statuses.
const (
	PlanBasic   = "Basic"
	PlanPremium = "Premium"
	PlanGold    = "Gold"
	PlanTrial   = "Trial"

	UserStatusActive   = "Active"
	UserStatusExpired  = "Expired"
	UserStatusDisabled = "Disabled"

	// AdminUsername is the username of the built-in administrator account.
	AdminUsername = "admin"
)

// UserAccount is a subscriber. Password holds the activation code the user
// logs in with; Expiry is a display string and is never compared as a date.
type UserAccount struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Expiry    string `json:"expiry"`
	Plan      string `json:"plan"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

// Session is the subset of the logged-in account that is persisted.
type Session struct {
	Username string `json:"username"`
	Plan     string `json:"plan"`
	Expiry   string `json:"expiry"`
}

// IsAdmin reports whether the session belongs to the administrator.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Username == AdminUsername
}

// SessionFor returns the persisted subset of u.
func SessionFor(u UserAccount) Session {
	return Session{Username: u.Username, Plan: u.Plan, Expiry: u.Expiry}
}
