package repositories

import (
	"errors"

	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerGroupRepository implements GroupRepository using BadgerDB
type BadgerGroupRepository struct {
	db *badger.DB
}

// NewBadgerGroupRepository creates a new BadgerGroupRepository
func NewBadgerGroupRepository(db *badger.DB) *BadgerGroupRepository {
	return &BadgerGroupRepository{db: db}
}

// Create stores a new group; slugs are unique.
func (r *BadgerGroupRepository) Create(group *models.Group) error {
	return update(r.db, func(txn *badger.Txn) error {
		slugKey := []byte(SlugIndexPrefix + group.Slug)
		taken, err := exists(txn, slugKey)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicate
		}

		id, err := getNextID(txn, GroupSeqKey)
		if err != nil {
			return err
		}
		group.ID = id

		if err := setEntity(txn, idKey(GroupKeyPrefix, id), group); err != nil {
			return err
		}
		return txn.Set(slugKey, encodeID(id))
	})
}

func (r *BadgerGroupRepository) GetByID(id int) (*models.Group, error) {
	var group models.Group
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, idKey(GroupKeyPrefix, id), &group)
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *BadgerGroupRepository) GetBySlug(slug string) (*models.Group, error) {
	var group models.Group
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(SlugIndexPrefix + slug))
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
		return getEntity(txn, idKey(GroupKeyPrefix, id), &group)
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GetByIDs loads several groups at once; unknown ids are skipped.
func (r *BadgerGroupRepository) GetByIDs(ids []int) (map[int]*models.Group, error) {
	groups := make(map[int]*models.Group, len(ids))
	err := r.db.View(func(txn *badger.Txn) error {
		for _, id := range uniqueIDs(ids) {
			var group models.Group
			err := getEntity(txn, idKey(GroupKeyPrefix, id), &group)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			groups[id] = &group
		}
		return nil
	})
	return groups, err
}

// List returns all groups in creation order.
func (r *BadgerGroupRepository) List() ([]*models.Group, error) {
	var groups []*models.Group
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(GroupKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			var group models.Group
			if err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &group)
			}); err != nil {
				return err
			}
			groups = append(groups, &group)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groups, nil
}
