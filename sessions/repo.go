package sessions

import "context"

// Fixed storage keys. Every key is written on Save and removed on Clear.
const (
	KeyToken  = "token"
	KeyUser   = "user"
	KeyTenant = "tenant"
	KeyMeta   = "session_meta"
)

// Keys lists every key the store owns
var Keys = []string{KeyToken, KeyUser, KeyTenant, KeyMeta}

// Repo is the durable key/value storage the session store persists through.
type Repo interface {
	// GetAll returns the stored values for the keys that exist
	GetAll(ctx context.Context, keys []string) (map[string]string, error)

	// PutAll writes every value or none of them
	PutAll(ctx context.Context, values map[string]string) error

	// DeleteAll removes the keys; missing keys are not an error
	DeleteAll(ctx context.Context, keys []string) error
}
