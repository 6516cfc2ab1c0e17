package communication

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Notifier delivers operational messages to supervisors.
type Notifier interface {
	Info(ctx context.Context, message string) error
	Alert(ctx context.Context, message string) error
}

type Slack struct {
	client  *slack.Client
	options SlackOption
}

type SlackOption struct {
	InfoChannelID  string
	AlertChannelID string
	// APIURL overrides the Slack endpoint, used in tests.
	APIURL string
}

func NewSlack(token string, options SlackOption) *Slack {
	var opts []slack.Option
	if options.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(options.APIURL))
	}
	if options.InfoChannelID == "" {
		options.InfoChannelID = options.AlertChannelID
	}
	return &Slack{client: slack.New(token, opts...), options: options}
}

func (s *Slack) postMessage(ctx context.Context, channelID, message string) error {
	_, _, err := s.client.PostMessageContext(
		ctx,
		channelID,
		slack.MsgOptionText(message, false),
	)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}
	return nil
}

func (s *Slack) Info(ctx context.Context, message string) error {
	return s.postMessage(ctx, s.options.InfoChannelID, message)
}

func (s *Slack) Alert(ctx context.Context, message string) error {
	return s.postMessage(ctx, s.options.AlertChannelID, ":rotating_light: "+message)
}

// LogNotifier writes messages to the log when no chat integration is set up.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Info(ctx context.Context, message string) error {
	n.log.Info("notification", zap.String("message", message))
	return nil
}

func (n *LogNotifier) Alert(ctx context.Context, message string) error {
	n.log.Warn("alert", zap.String("message", message))
	return nil
}
