package notify

import (
	"context"

	"admin-rbac/internal/ports"
)

// LogNotifier hands the bootstrap credentials to the operator through the
// process log. The core calls it at most once per created administrator.
type LogNotifier struct {
	logger ports.Logger
}

func NewLogNotifier(logger ports.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) AdminCreated(ctx context.Context, email, password string) error {
	n.logger.Warn(ctx, "initial administrator credentials; change the password after first login",
		"email", email,
		"password", password,
	)
	return nil
}
