//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"snappy-chat/domain"
	"snappy-chat/errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const userPrefix = "user:"

type IUserRepository interface {
	CreateUser(username, hashedPassword string) (User, error)
	GetUser(username string) (User, error)
	Exists(username string) (bool, error)
	ListUsers() ([]User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// User is an account as stored in badger.
// Username keeps the casing chosen at registration.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func userKey(username string) []byte {
	return []byte(userPrefix + domain.Normalize(username))
}

// CreateUser persists the user under its normalized name.
// Names differing only by case are the same account.
func (u UserRepository) CreateUser(username, hashedPassword string) (User, error) {
	user := User{
		Username:     username,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := encodeRecord(map[string]any{
		"username":      user.Username,
		"password_hash": user.PasswordHash,
		"created_at":    formatTime(user.CreatedAt),
	})
	if err != nil {
		return User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := userKey(username)
		if _, err = txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (u UserRepository) GetUser(username string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			user, err = toUser(val)
			return err
		})
	})
	return user, err
}

func (u UserRepository) Exists(username string) (bool, error) {
	_, err := u.GetUser(username)
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, errors.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// ListUsers returns every account, ordered by normalized name.
func (u UserRepository) ListUsers() ([]User, error) {
	var users []User
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte(userPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				user, err := toUser(val)
				if err != nil {
					return err
				}
				users = append(users, user)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return users, err
}

func toUser(b []byte) (User, error) {
	r, err := decodeRecord(b)
	if err != nil {
		return User{}, err
	}
	return User{
		Username:     r.str("username"),
		PasswordHash: r.str("password_hash"),
		CreatedAt:    r.timestamp("created_at"),
	}, nil
}
