package tui

import (
	"context"

	"signal-deck/internal/demo"
	"signal-deck/internal/query"
)

// AdviceFeed is the polling advice query the TUI subscribes to.
type AdviceFeed interface {
	Subscribe() *query.Subscription
	Refetch(ctx context.Context) (query.State, error)
}

// AdvisorQuerier provides LLM advisor access to the TUI.
type AdvisorQuerier interface {
	Ask(ctx context.Context, chatID int64, message string) (string, error)
	Reset(chatID int64)
}

// SSHChatIDOffset is the base offset for generating synthetic chat IDs
// for SSH users. The final chat ID is SSHChatIDOffset - user.ID.
// This avoids collisions with Telegram chat IDs.
const SSHChatIDOffset int64 = -1_000_000

// Services bundles all service dependencies injected into the TUI.
type Services struct {
	Feed     AdviceFeed
	Demo     *demo.Generator
	Advisor  AdvisorQuerier
	UserID   int64
	Username string
}

// ChatID returns the synthetic chat ID for this session.
func (s Services) ChatID() int64 {
	return SSHChatIDOffset - s.UserID
}
