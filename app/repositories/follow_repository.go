package repositories

import (
	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerFollowRepository implements FollowRepository using BadgerDB.
// follow:<user>:<author> holds the record; idx:follower:<author>:<user>
// lets an author's followers be counted without a scan.
type BadgerFollowRepository struct {
	db *badger.DB
}

func NewBadgerFollowRepository(db *badger.DB) *BadgerFollowRepository {
	return &BadgerFollowRepository{db: db}
}

// Create records the follow; following twice is a no-op.
func (r *BadgerFollowRepository) Create(follow *models.Follow) error {
	return update(r.db, func(txn *badger.Txn) error {
		key := pairKey(FollowKeyPrefix, follow.UserID, follow.AuthorID)
		found, err := exists(txn, key)
		if err != nil || found {
			return err
		}
		if err := setEntity(txn, key, follow); err != nil {
			return err
		}
		return txn.Set(pairKey(FollowerIndexPrefix, follow.AuthorID, follow.UserID), nil)
	})
}

// Delete removes the follow; a missing follow is not an error.
func (r *BadgerFollowRepository) Delete(userID, authorID int) error {
	return update(r.db, func(txn *badger.Txn) error {
		if err := txn.Delete(pairKey(FollowKeyPrefix, userID, authorID)); err != nil {
			return err
		}
		return txn.Delete(pairKey(FollowerIndexPrefix, authorID, userID))
	})
}

func (r *BadgerFollowRepository) Exists(userID, authorID int) (bool, error) {
	var found bool
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = exists(txn, pairKey(FollowKeyPrefix, userID, authorID))
		return err
	})
	return found, err
}

// ListFollowing returns the ids of the authors userID follows.
func (r *BadgerFollowRepository) ListFollowing(userID int) ([]int, error) {
	var ids []int
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		ids, err = collectIDs(txn, pairPrefix(FollowKeyPrefix, userID), false)
		return err
	})
	return ids, err
}

func (r *BadgerFollowRepository) CountFollowing(userID int) (int, error) {
	var n int
	err := r.db.View(func(txn *badger.Txn) error {
		n = countPrefix(txn, pairPrefix(FollowKeyPrefix, userID))
		return nil
	})
	return n, err
}

func (r *BadgerFollowRepository) CountFollowers(authorID int) (int, error) {
	var n int
	err := r.db.View(func(txn *badger.Txn) error {
		n = countPrefix(txn, pairPrefix(FollowerIndexPrefix, authorID))
		return nil
	})
	return n, err
}
