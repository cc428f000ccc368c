package app

import (
	"time"

	"github.com/j-veylop/quota-watch-tui/internal/services"
)

// TickMsg is sent periodically to expire notifications and re-render
// reset countdowns.
type TickMsg struct {
	Time time.Time
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// RefreshMsg requests a manual snapshot refresh.
type RefreshMsg struct{}

// AutoRefreshToggledMsg reports the new auto-refresh setting.
type AutoRefreshToggledMsg struct {
	Enabled bool
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
