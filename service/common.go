package service

import (
	"errors"
	"fmt"
	"os"

	"yatube/app/config"
	"yatube/app/repositories"
)

// errInMemory is returned by maintenance commands that need a database on disk.
var errInMemory = errors.New("database.in_memory is set; there is nothing on disk to manage")

func databaseExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat database: %w", err)
	}
}

// openExisting opens the on-disk database, refusing to create a new one.
func openExisting(cfg *config.Config) (*repositories.Store, error) {
	if cfg.Database.InMemory {
		return nil, errInMemory
	}
	ok, err := databaseExists(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no database at %s; run init first", cfg.Database.Path)
	}
	return repositories.OpenStore(repositories.StoreOptions{Path: cfg.Database.Path})
}
