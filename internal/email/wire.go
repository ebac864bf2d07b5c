package email

import (
	"github.com/google/wire"

	"grandpa/config"
	"grandpa/internal/user"
)

// ProvideNotifier returns nil when SMTP is not configured, so registration
// skips the welcome mail.
func ProvideNotifier(cfg *config.Config) user.Notifier {
	if cfg.SMTPHost == "" {
		return nil
	}
	return NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
}

var Set = wire.NewSet(ProvideNotifier)
