package session

import (
	"context"
	"fmt"

	"github.com/matzehuels/selgraph/pkg/errors"
	"github.com/matzehuels/selgraph/pkg/observability"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config selects and configures a session backend.
type Config struct {
	Backend    string // memory, file, redis or mongo; empty means file
	Dir        string // file: directory (default XDG state dir)
	URL        string // redis or mongo connection URL
	Prefix     string // redis: key prefix
	Database   string // mongo: database name
	Collection string // mongo: collection name
}

// Open creates the configured store wrapped with [Instrument].
func Open(ctx context.Context, cfg Config) (Store, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = BackendFile
	}

	var (
		store Store
		err   error
	)
	switch backend {
	case BackendMemory:
		store = NewMemoryStore()
	case BackendFile:
		store, err = NewFileStore(cfg.Dir)
	case BackendRedis:
		store, err = NewRedisStore(ctx, cfg.URL, cfg.Prefix)
	case BackendMongo:
		store, err = NewMongoStore(ctx, cfg.URL, cfg.Database, cfg.Collection)
	default:
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, ErrUnknownBackend, "session backend %q", backend)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "open %s session store", backend)
	}
	return Instrument(store, backend), nil
}

// Instrument reports loads and saves to the registered store hooks and
// tags backend failures with the STORE_ERROR code.
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

type instrumented struct {
	Store
	backend string
}

func (s *instrumented) Get(ctx context.Context, sessionID string) (*Session, error) {
	sess, err := s.Store.Get(ctx, sessionID)
	observability.Store().OnLoad(ctx, s.backend, sess != nil, err)
	if err != nil {
		return nil, s.wrap(err, "load session %s", sessionID)
	}
	return sess, nil
}

func (s *instrumented) Set(ctx context.Context, sess *Session) error {
	err := s.Store.Set(ctx, sess)
	observability.Store().OnSave(ctx, s.backend, err)
	if err != nil {
		return s.wrap(err, "save session %s", sess.ID)
	}
	return nil
}

func (s *instrumented) Delete(ctx context.Context, sessionID string) error {
	if err := s.Store.Delete(ctx, sessionID); err != nil {
		return s.wrap(err, "delete session %s", sessionID)
	}
	return nil
}

func (s *instrumented) wrap(err error, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeStore, err, "%s: %s", s.backend, fmt.Sprintf(format, args...))
}
