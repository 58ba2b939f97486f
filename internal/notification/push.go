package notification

import (
	"errors"
	"fmt"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
	"go.uber.org/zap"

	"github.com/jmakela/herdguard-go/internal/alerting"
)

// PushSender delivers one push message to one recipient.
type PushSender interface {
	Send(recipient string, msg alerting.PushMessage) error
}

// ShoutrrrSender sends push notifications through shoutrrr service URLs
// (ntfy://, telegram://, pushover://, ...). One router per recipient keeps
// sends independent: a broken recipient URL never affects the others.
type ShoutrrrSender struct {
	routers map[string]*router.ServiceRouter
	log     *zap.Logger
}

// NewShoutrrrSender builds a sender for the configured recipient URLs. A
// recipient whose URL fails to parse is logged and skipped; the remaining
// recipients stay deliverable. Each send carries its own bounded timeout so
// one slow push service cannot stall a whole sweep.
func NewShoutrrrSender(recipients []string, timeout time.Duration, log *zap.Logger) *ShoutrrrSender {
	routers := make(map[string]*router.ServiceRouter, len(recipients))
	for _, recipient := range recipients {
		sender, err := shoutrrr.CreateSender(recipient)
		if err != nil {
			log.Warn("skipping invalid push recipient URL", zap.Error(err))
			continue
		}
		sender.Timeout = timeout
		routers[recipient] = sender
	}
	return &ShoutrrrSender{routers: routers, log: log}
}

// Recipients returns the recipient identifiers this sender can deliver to.
func (s *ShoutrrrSender) Recipients() []string {
	out := make([]string, 0, len(s.routers))
	for recipient := range s.routers {
		out = append(out, recipient)
	}
	return out
}

// Send delivers the message to one recipient.
func (s *ShoutrrrSender) Send(recipient string, msg alerting.PushMessage) error {
	sender, ok := s.routers[recipient]
	if !ok {
		return fmt.Errorf("unknown push recipient")
	}

	params := types.Params{"title": msg.Title}
	if msg.Tag != "" {
		params["tag"] = msg.Tag
	}

	if errs := sender.Send(msg.Body, &params); len(errs) > 0 {
		return fmt.Errorf("push send failed: %w", errors.Join(errs...))
	}
	return nil
}
