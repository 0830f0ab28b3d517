package repo

import "context"

// NotifierRepo delivers best-effort notifications to the user
type NotifierRepo interface {
	Notify(ctx context.Context, title, message string) error
}
