package repositories

import (
	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB.
// Besides the record itself each post owns an author index entry and,
// when grouped, a group index entry.
type BadgerPostRepository struct {
	db *badger.DB
}

// NewBadgerPostRepository creates a new BadgerPostRepository
func NewBadgerPostRepository(db *badger.DB) *BadgerPostRepository {
	return &BadgerPostRepository{db: db}
}

// Create creates a new post
func (r *BadgerPostRepository) Create(post *models.Post) error {
	return update(r.db, func(txn *badger.Txn) error {
		id, err := getNextID(txn, PostSeqKey)
		if err != nil {
			return err
		}
		post.ID = id

		if err := setEntity(txn, idKey(PostKeyPrefix, id), post.Record()); err != nil {
			return err
		}
		if err := txn.Set(pairKey(PostAuthorIndexPrefix, post.AuthorID, id), nil); err != nil {
			return err
		}
		if post.GroupID != nil {
			return txn.Set(pairKey(PostGroupIndexPrefix, *post.GroupID, id), nil)
		}
		return nil
	})
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(id int) (*models.Post, error) {
	var post models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		return getEntity(txn, idKey(PostKeyPrefix, id), &post)
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Update updates an existing post, moving its group index entry if the group changed.
func (r *BadgerPostRepository) Update(post *models.Post) error {
	return update(r.db, func(txn *badger.Txn) error {
		key := idKey(PostKeyPrefix, post.ID)

		var existing models.Post
		if err := getEntity(txn, key, &existing); err != nil {
			return err
		}

		if !sameGroup(existing.GroupID, post.GroupID) {
			if existing.GroupID != nil {
				if err := txn.Delete(pairKey(PostGroupIndexPrefix, *existing.GroupID, post.ID)); err != nil {
					return err
				}
			}
			if post.GroupID != nil {
				if err := txn.Set(pairKey(PostGroupIndexPrefix, *post.GroupID, post.ID), nil); err != nil {
					return err
				}
			}
		}

		return setEntity(txn, key, post.Record())
	})
}

// Delete removes a post together with its comments and index entries.
func (r *BadgerPostRepository) Delete(id int) error {
	return update(r.db, func(txn *badger.Txn) error {
		key := idKey(PostKeyPrefix, id)

		var post models.Post
		if err := getEntity(txn, key, &post); err != nil {
			return err
		}

		commentIDs, err := collectIDs(txn, pairPrefix(CommentPostIndexPrefix, id), false)
		if err != nil {
			return err
		}
		for _, cid := range commentIDs {
			if err := txn.Delete(idKey(CommentKeyPrefix, cid)); err != nil {
				return err
			}
			if err := txn.Delete(pairKey(CommentPostIndexPrefix, id, cid)); err != nil {
				return err
			}
		}

		if post.GroupID != nil {
			if err := txn.Delete(pairKey(PostGroupIndexPrefix, *post.GroupID, id)); err != nil {
				return err
			}
		}
		if err := txn.Delete(pairKey(PostAuthorIndexPrefix, post.AuthorID, id)); err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// List retrieves a paginated list of posts, newest first
func (r *BadgerPostRepository) List(limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(PostKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		count := 0
		for it.Seek(seekKey(opts.Prefix, true)); it.ValidForPrefix(opts.Prefix); it.Next() {
			if count < offset {
				count++
				continue
			}
			if count >= offset+limit {
				break
			}

			var post models.Post
			if err := it.Item().Value(func(val []byte) error {
				return unmarshalEntity(val, &post)
			}); err != nil {
				return err
			}
			posts = append(posts, &post)
			count++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *BadgerPostRepository) Count() (int, error) {
	var n int
	err := r.db.View(func(txn *badger.Txn) error {
		n = countPrefix(txn, []byte(PostKeyPrefix))
		return nil
	})
	return n, err
}

func (r *BadgerPostRepository) ListByAuthor(authorID, limit, offset int) ([]*models.Post, error) {
	return r.listIndexed(pairPrefix(PostAuthorIndexPrefix, authorID), limit, offset)
}

func (r *BadgerPostRepository) CountByAuthor(authorID int) (int, error) {
	return r.countIndexed(pairPrefix(PostAuthorIndexPrefix, authorID))
}

func (r *BadgerPostRepository) ListByGroup(groupID, limit, offset int) ([]*models.Post, error) {
	return r.listIndexed(pairPrefix(PostGroupIndexPrefix, groupID), limit, offset)
}

func (r *BadgerPostRepository) CountByGroup(groupID int) (int, error) {
	return r.countIndexed(pairPrefix(PostGroupIndexPrefix, groupID))
}

// ListByAuthors merges the author indexes of every given author.
func (r *BadgerPostRepository) ListByAuthors(authorIDs []int, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		var ids []int
		for _, authorID := range uniqueIDs(authorIDs) {
			authored, err := collectIDs(txn, pairPrefix(PostAuthorIndexPrefix, authorID), false)
			if err != nil {
				return err
			}
			ids = append(ids, authored...)
		}
		sortDesc(ids)

		var err error
		posts, err = loadPosts(txn, pageIDs(ids, limit, offset))
		return err
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *BadgerPostRepository) CountByAuthors(authorIDs []int) (int, error) {
	var n int
	err := r.db.View(func(txn *badger.Txn) error {
		for _, authorID := range uniqueIDs(authorIDs) {
			n += countPrefix(txn, pairPrefix(PostAuthorIndexPrefix, authorID))
		}
		return nil
	})
	return n, err
}

func (r *BadgerPostRepository) listIndexed(prefix []byte, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.View(func(txn *badger.Txn) error {
		ids, err := collectIDs(txn, prefix, true)
		if err != nil {
			return err
		}
		posts, err = loadPosts(txn, pageIDs(ids, limit, offset))
		return err
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *BadgerPostRepository) countIndexed(prefix []byte) (int, error) {
	var n int
	err := r.db.View(func(txn *badger.Txn) error {
		n = countPrefix(txn, prefix)
		return nil
	})
	return n, err
}

func loadPosts(txn *badger.Txn, ids []int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		var post models.Post
		if err := getEntity(txn, idKey(PostKeyPrefix, id), &post); err != nil {
			return nil, err
		}
		posts = append(posts, &post)
	}
	return posts, nil
}

func sameGroup(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
