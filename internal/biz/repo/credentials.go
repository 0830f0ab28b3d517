package repo

import (
	"context"

	"github.com/DevRickLin/matchmate/internal/biz/domain"
)

// CredentialsRepo is the persistent key/value settings store
type CredentialsRepo interface {
	// Load reads the stored credentials. Missing keys come back empty.
	Load(ctx context.Context) (domain.Credentials, error)

	// Save replaces the stored credentials
	Save(ctx context.Context, creds domain.Credentials) error
}
