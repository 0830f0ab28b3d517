package data

import (
	"github.com/DevRickLin/matchmate/internal/biz/repo"
)

// Options configures NewRepositories
type Options struct {
	SettingsPath string
	DedupDBPath  string // empty keeps the dedup store in memory

	Generation GenerationConfig

	CalendarBaseURL string
	Tokens          TokenBrokerConfig

	// Chat receives notifications when set
	Chat       PostSender
	ChatTarget string
}

// Repositories contains all repositories
type Repositories struct {
	Dedup       repo.DedupRepo
	Credentials repo.CredentialsRepo
	Generation  repo.GenerationRepo
	Calendar    repo.CalendarRepo
	Notifier    repo.NotifierRepo
}

// NewRepositories creates all repositories
func NewRepositories(opts Options) (*Repositories, error) {
	dedup := NewMemoryDedupRepo()
	if opts.DedupDBPath != "" {
		var err error
		dedup, err = NewDedupRepo(opts.DedupDBPath)
		if err != nil {
			return nil, err
		}
	}

	notifiers := []repo.NotifierRepo{NewLogNotifier()}
	if opts.Chat != nil && opts.ChatTarget != "" {
		notifiers = append(notifiers, NewChatNotifier(opts.Chat, opts.ChatTarget))
	}

	return &Repositories{
		Dedup:       dedup,
		Credentials: NewCredentialsRepo(opts.SettingsPath),
		Generation:  NewGenerationRepo(opts.Generation),
		Calendar:    NewCalendarRepo(opts.CalendarBaseURL, NewTokenBroker(opts.Tokens)),
		Notifier:    NewMultiNotifier(notifiers...),
	}, nil
}

// Close releases resources held by the repositories
func (r *Repositories) Close() error {
	return r.Dedup.Close()
}
