package enums

import "fmt"

// NotificationKind identifies which email a notification request renders.
type NotificationKind string

const (
	NotificationOrderConfirmation NotificationKind = "order_confirmation"
	NotificationStockAlert        NotificationKind = "stock_alert"
	NotificationWeeklyReport      NotificationKind = "weekly_report"
	NotificationMonthlyReport     NotificationKind = "monthly_report"
)

var validNotificationKinds = []NotificationKind{
	NotificationOrderConfirmation,
	NotificationStockAlert,
	NotificationWeeklyReport,
	NotificationMonthlyReport,
}

func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
