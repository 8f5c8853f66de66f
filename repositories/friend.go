//go:generate go run go.uber.org/mock/mockgen -source=friend.go -destination=../mocks/mock_friend_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"snappy-chat/domain"
	"snappy-chat/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	relationPrefix = "rel:"
	inboundPrefix  = "relin:"
)

type RelationStatus string

const (
	StatusPending  RelationStatus = "pending"
	StatusAccepted RelationStatus = "accepted"
	StatusBlocked  RelationStatus = "blocked"
)

// Relation is a directed link between two users.
// A pending or accepted relation goes from the requester to the requested,
// a blocked relation goes from the blocker to the blocked user.
type Relation struct {
	From      string
	To        string
	Status    RelationStatus
	CreatedAt time.Time
}

type IFriendRepository interface {
	Get(from, to string) (Relation, error)
	Save(relation Relation) error
	Delete(from, to string) error
	Outgoing(user string) ([]Relation, error)
	Incoming(user string) ([]Relation, error)
}

type FriendRepository struct {
	db *badger.DB
}

func NewFriendRepository(db *badger.DB) IFriendRepository {
	return &FriendRepository{db: db}
}

func relationKey(from, to string) []byte {
	return []byte(fmt.Sprintf("%s%q:%q", relationPrefix, domain.Normalize(from), domain.Normalize(to)))
}

// inboundKey mirrors relationKey with the endpoints swapped, it lets a user
// list the relations pointing at them.
func inboundKey(from, to string) []byte {
	return []byte(fmt.Sprintf("%s%q:%q", inboundPrefix, domain.Normalize(to), domain.Normalize(from)))
}

func (f FriendRepository) Get(from, to string) (Relation, error) {
	var relation Relation
	err := f.db.View(func(txn *badger.Txn) error {
		var err error
		relation, err = getRelation(txn, relationKey(from, to))
		return err
	})
	return relation, err
}

// Save inserts or replaces the relation from -> to.
func (f FriendRepository) Save(relation Relation) error {
	if relation.CreatedAt.IsZero() {
		relation.CreatedAt = time.Now().UTC()
	}
	data, err := encodeRecord(map[string]any{
		"from":       relation.From,
		"to":         relation.To,
		"status":     string(relation.Status),
		"created_at": formatTime(relation.CreatedAt),
	})
	if err != nil {
		return err
	}
	return f.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(relationKey(relation.From, relation.To), data); err != nil {
			return err
		}
		return txn.Set(inboundKey(relation.From, relation.To), relationKey(relation.From, relation.To))
	})
}

func (f FriendRepository) Delete(from, to string) error {
	return f.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(relationKey(from, to)); err != nil {
			return err
		}
		return txn.Delete(inboundKey(from, to))
	})
}

// Outgoing lists the relations the user originated.
func (f FriendRepository) Outgoing(user string) ([]Relation, error) {
	var relations []Relation
	err := f.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("%s%q:", relationPrefix, domain.Normalize(user)))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				relation, err := toRelation(val)
				if err != nil {
					return err
				}
				relations = append(relations, relation)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return relations, err
}

// Incoming lists the relations pointing at the user.
func (f FriendRepository) Incoming(user string) ([]Relation, error) {
	var relations []Relation
	err := f.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("%s%q:", inboundPrefix, domain.Normalize(user)))
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		var targets [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			target, err := it.Item().ValueCopy(nil)
			if err != nil {
				it.Close()
				return err
			}
			targets = append(targets, target)
		}
		it.Close()

		for _, key := range targets {
			relation, err := getRelation(txn, key)
			if err != nil {
				return err
			}
			relations = append(relations, relation)
		}
		return nil
	})
	return relations, err
}

func getRelation(txn *badger.Txn, key []byte) (Relation, error) {
	item, err := txn.Get(key)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return Relation{}, errors.ErrRequestNotFound
	}
	if err != nil {
		return Relation{}, err
	}
	var relation Relation
	err = item.Value(func(val []byte) error {
		relation, err = toRelation(val)
		return err
	})
	return relation, err
}

func toRelation(b []byte) (Relation, error) {
	r, err := decodeRecord(b)
	if err != nil {
		return Relation{}, err
	}
	return Relation{
		From:      r.str("from"),
		To:        r.str("to"),
		Status:    RelationStatus(r.str("status")),
		CreatedAt: r.timestamp("created_at"),
	}, nil
}
