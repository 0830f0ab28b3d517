package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/DevRickLin/matchmate/internal/biz/repo"
	"github.com/DevRickLin/matchmate/internal/logging"
)

// PostSender sends a titled message to a chat
type PostSender interface {
	SendPost(ctx context.Context, chatID, title, text string) error
}

// logNotifier writes notifications to the log
type logNotifier struct {
	log *logging.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier() repo.NotifierRepo {
	return &logNotifier{log: logging.New("Notify")}
}

func (n *logNotifier) Notify(ctx context.Context, title, message string) error {
	n.log.Infof("%s: %s", title, message)
	return nil
}

// chatNotifier posts notifications into a Feishu chat
type chatNotifier struct {
	sender PostSender
	chatID string
}

// NewChatNotifier creates a notifier posting to chatID
func NewChatNotifier(sender PostSender, chatID string) repo.NotifierRepo {
	return &chatNotifier{sender: sender, chatID: chatID}
}

func (n *chatNotifier) Notify(ctx context.Context, title, message string) error {
	if err := n.sender.SendPost(ctx, n.chatID, title, message); err != nil {
		return fmt.Errorf("notify chat %s: %w", n.chatID, err)
	}
	return nil
}

// multiNotifier delivers to every notifier and joins their errors
type multiNotifier []repo.NotifierRepo

// NewMultiNotifier fans a notification out to several notifiers
func NewMultiNotifier(notifiers ...repo.NotifierRepo) repo.NotifierRepo {
	var list multiNotifier
	for _, n := range notifiers {
		if n != nil {
			list = append(list, n)
		}
	}
	return list
}

func (m multiNotifier) Notify(ctx context.Context, title, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
