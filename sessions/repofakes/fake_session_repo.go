package fakesessionrepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/condo-console/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// FakeSessionRepo keeps session keys in memory. Err, when set, is returned by every call;
// ReadErr only by GetAll.
type FakeSessionRepo struct {
	values  map[string]string
	lock    sync.RWMutex
	Err     error
	ReadErr error
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		values: make(map[string]string),
	}
}

func (sr *FakeSessionRepo) GetAll(_ context.Context, keys []string) (map[string]string, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	if sr.Err != nil {
		return nil, sr.Err
	}
	if sr.ReadErr != nil {
		return nil, sr.ReadErr
	}

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := sr.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (sr *FakeSessionRepo) PutAll(_ context.Context, values map[string]string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	if sr.Err != nil {
		return sr.Err
	}

	for k, v := range values {
		sr.values[k] = v
	}
	return nil
}

func (sr *FakeSessionRepo) DeleteAll(_ context.Context, keys []string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	if sr.Err != nil {
		return sr.Err
	}

	for _, k := range keys {
		delete(sr.values, k)
	}
	return nil
}

// Set writes a single raw value, bypassing the store (for corrupting state in tests)
func (sr *FakeSessionRepo) Set(key, value string) {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.values[key] = value
}

// Len returns the number of stored keys
func (sr *FakeSessionRepo) Len() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return len(sr.values)
}
