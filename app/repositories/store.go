package repositories

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Store bundles the badger handle with every repository built on it.
type Store struct {
	DB       *badger.DB
	Users    *BadgerUserRepository
	Groups   *BadgerGroupRepository
	Posts    *BadgerPostRepository
	Comments *BadgerCommentRepository
	Follows  *BadgerFollowRepository
}

// StoreOptions controls how the badger database is opened.
type StoreOptions struct {
	Path     string
	InMemory bool
	Logger   *zap.Logger
}

// OpenStore opens (or creates) the badger database described by opts.
func OpenStore(opts StoreOptions) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts = bopts.WithNumVersionsToKeep(1)
	if opts.Logger != nil {
		bopts = bopts.WithLogger(newBadgerLogger(opts.Logger))
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Path, err)
	}
	return NewStore(db), nil
}

// NewStore wires repositories around an already open database.
func NewStore(db *badger.DB) *Store {
	return &Store{
		DB:       db,
		Users:    NewBadgerUserRepository(db),
		Groups:   NewBadgerGroupRepository(db),
		Posts:    NewBadgerPostRepository(db),
		Comments: NewBadgerCommentRepository(db),
		Follows:  NewBadgerFollowRepository(db),
	}
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// badgerLogger adapts zap to badger.Logger.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func newBadgerLogger(l *zap.Logger) badger.Logger {
	return &badgerLogger{s: l.Named("badger").Sugar()}
}

func (l *badgerLogger) Errorf(f string, v ...interface{})   { l.s.Errorf(f, v...) }
func (l *badgerLogger) Warningf(f string, v ...interface{}) { l.s.Warnf(f, v...) }
func (l *badgerLogger) Infof(f string, v ...interface{})    { l.s.Debugf(f, v...) }
func (l *badgerLogger) Debugf(f string, v ...interface{})   { l.s.Debugf(f, v...) }

var (
	_ UserRepository    = (*BadgerUserRepository)(nil)
	_ GroupRepository   = (*BadgerGroupRepository)(nil)
	_ PostRepository    = (*BadgerPostRepository)(nil)
	_ CommentRepository = (*BadgerCommentRepository)(nil)
	_ FollowRepository  = (*BadgerFollowRepository)(nil)
)
