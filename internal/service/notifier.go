package service

import "context"

// Notifier delivers short operational messages, e.g. to an ops chat.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string) error { return nil }
