package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// Notifier prints a message and mirrors it to the desktop when supported
type Notifier struct {
	sender NotificationSender
}

// NewNotifier picks a sender for the current platform. With desktop false,
// or on other platforms, messages are only printed.
func NewNotifier(desktop bool) *Notifier {
	if !desktop {
		return &Notifier{}
	}
	switch runtime.GOOS {
	case "linux":
		return &Notifier{sender: &LinuxNotificationSender{}}
	case "darwin":
		return &Notifier{sender: &MacOSNotificationSender{}}
	default:
		return &Notifier{}
	}
}

// NewNotifierWithSender creates a Notifier over sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// NotifyRefresh reports the outcome of one refresh cycle
func (n *Notifier) NotifyRefresh(total, succeeded int) {
	failed := total - succeeded
	title := "igtracker refresh"
	message := fmt.Sprintf("%d of %d profiles refreshed", succeeded, total)

	if failed > 0 {
		message = fmt.Sprintf("%s, %d failed", message, failed)
		PrintWarning(title, message)
	} else {
		PrintSuccess(title + ": " + message)
	}

	if n.sender != nil {
		// best effort
		_ = n.sender.Send(title, message)
	}
}
