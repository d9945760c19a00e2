// Package notify defines the change-notification collaborator invoked
// after each committed mutation with the affected resource URI(s).
package notify

import "go.uber.org/zap"

// Notifier is told which resource URIs changed. The wire transport and
// any client-push mechanism are external collaborators (spec's scope
// boundary); this package only defines the seam.
type Notifier interface {
	Notify(uris ...string)
}

// LogNotifier logs each change at debug level. It is the default
// notifier when no richer collaborator (e.g. an MCP resource-subscription
// push) is wired in.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

// Notify logs the changed URIs.
func (n *LogNotifier) Notify(uris ...string) {
	n.logger.Debug("resource changed", zap.Strings("uris", uris))
}
