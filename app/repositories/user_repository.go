package repositories

import (
	"errors"

	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerUserRepository implements UserRepository using BadgerDB
type BadgerUserRepository struct {
	db *badger.DB
}

// NewBadgerUserRepository creates a new BadgerUserRepository
func NewBadgerUserRepository(db *badger.DB) *BadgerUserRepository {
	return &BadgerUserRepository{db: db}
}

// Create stores a new user, rejecting a username that is already taken.
func (r *BadgerUserRepository) Create(user *models.User) error {
	return update(r.db, func(txn *badger.Txn) error {
		nameKey := []byte(UsernameIndexPrefix + models.NormalizeUsername(user.Username))
		taken, err := exists(txn, nameKey)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicate
		}

		id, err := getNextID(txn, UserSeqKey)
		if err != nil {
			return err
		}
		user.ID = id

		if err := setEntity(txn, idKey(UserKeyPrefix, id), newUserRecord(user)); err != nil {
			return err
		}
		return txn.Set(nameKey, encodeID(id))
	})
}

// GetByID retrieves a user by ID
func (r *BadgerUserRepository) GetByID(id int) (*models.User, error) {
	var user *models.User
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByUsername resolves a username case-insensitively.
func (r *BadgerUserRepository) GetByUsername(username string) (*models.User, error) {
	var user *models.User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(UsernameIndexPrefix + models.NormalizeUsername(username)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var id int
		if err := item.Value(func(val []byte) error {
			id, err = decodeID(val)
			return err
		}); err != nil {
			return err
		}
		user, err = getUser(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByIDs loads several users at once; unknown ids are skipped.
func (r *BadgerUserRepository) GetByIDs(ids []int) (map[int]*models.User, error) {
	users := make(map[int]*models.User, len(ids))
	err := r.db.View(func(txn *badger.Txn) error {
		for _, id := range uniqueIDs(ids) {
			user, err := getUser(txn, id)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			users[id] = user
		}
		return nil
	})
	return users, err
}

// userRecord is the stored form of a user. The password hash is hidden
// from API responses but must survive a round trip through storage.
type userRecord struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

func newUserRecord(u *models.User) *userRecord {
	return &userRecord{User: *u, PasswordHash: u.PasswordHash}
}

func getUser(txn *badger.Txn, id int) (*models.User, error) {
	var rec userRecord
	if err := getEntity(txn, idKey(UserKeyPrefix, id), &rec); err != nil {
		return nil, err
	}
	user := rec.User
	user.PasswordHash = rec.PasswordHash
	return &user, nil
}
