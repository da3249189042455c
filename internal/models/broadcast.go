package models

import "slices"

// Ticker colors.
const (
	TickerColorBlue  = "blue"
	TickerColorRed   = "red"
	TickerColorGreen = "green"
	TickerColorGold  = "gold"
)

// TickerColors is the ticker palette.
var TickerColors = []string{TickerColorBlue, TickerColorRed, TickerColorGreen, TickerColorGold}

// Ticker speed bounds.
const (
	MinTickerSpeed = 1
	MaxTickerSpeed = 10
)

// TickerConfig configures the scrolling news ticker.
type TickerConfig struct {
	Text    string `json:"text"`
	Speed   int    `json:"speed" validate:"required|min:1|max:10"`
	Enabled bool   `json:"enabled"`
	Color   string `json:"color" validate:"required|in:blue,red,green,gold"`
}

// DefaultTicker is returned when no ticker has been saved or the stored value is unreadable.
func DefaultTicker() TickerConfig {
	return TickerConfig{Text: "", Speed: 5, Enabled: false, Color: TickerColorBlue}
}

// Normalized returns t with an out-of-range speed or a color outside the
// palette replaced by the default.
func (t TickerConfig) Normalized() TickerConfig {
	def := DefaultTicker()
	if t.Speed < MinTickerSpeed || t.Speed > MaxTickerSpeed {
		t.Speed = def.Speed
	}
	if !slices.Contains(TickerColors, t.Color) {
		t.Color = def.Color
	}
	return t
}

// Notification types.
const (
	NotificationInfo    = "info"
	NotificationWarning = "warning"
	NotificationSuccess = "success"
	NotificationAlert   = "alert"
)

// MaxNotifications is the number of notifications kept in history.
const MaxNotifications = 5

// AppNotification is a message pushed to every viewer.
type AppNotification struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}
