package repositories

import (
	"yatube/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB
type BadgerCommentRepository struct {
	db *badger.DB
}

// NewBadgerCommentRepository creates a new BadgerCommentRepository
func NewBadgerCommentRepository(db *badger.DB) *BadgerCommentRepository {
	return &BadgerCommentRepository{db: db}
}

// Create creates a new comment. The parent post must exist.
func (r *BadgerCommentRepository) Create(comment *models.Comment) error {
	return update(r.db, func(txn *badger.Txn) error {
		found, err := exists(txn, idKey(PostKeyPrefix, comment.PostID))
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}

		id, err := getNextID(txn, CommentSeqKey)
		if err != nil {
			return err
		}
		comment.ID = id

		if err := setEntity(txn, idKey(CommentKeyPrefix, id), comment.Record()); err != nil {
			return err
		}
		return txn.Set(pairKey(CommentPostIndexPrefix, comment.PostID, id), nil)
	})
}

// ListByPost returns the comments of a post, oldest first
func (r *BadgerCommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.View(func(txn *badger.Txn) error {
		ids, err := collectIDs(txn, pairPrefix(CommentPostIndexPrefix, postID), false)
		if err != nil {
			return err
		}
		for _, id := range ids {
			var comment models.Comment
			if err := getEntity(txn, idKey(CommentKeyPrefix, id), &comment); err != nil {
				return err
			}
			comments = append(comments, &comment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *BadgerCommentRepository) CountByPost(postID int) (int, error) {
	var n int
	err := r.db.View(func(txn *badger.Txn) error {
		n = countPrefix(txn, pairPrefix(CommentPostIndexPrefix, postID))
		return nil
	})
	return n, err
}
