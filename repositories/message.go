//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"snappy-chat/domain"
	"snappy-chat/errors"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	msgPrefix        = "msg:"
	pendingPrefix    = "pending:"
	historyPrefix    = "hist:"
	messageSeqKey    = "seq:msg"
	seqBandwidth     = 100
	drainBatchSize   = 256
	maxConflictRetry = 16
)

type IMessageRepository interface {
	Append(ctx context.Context, sender, recipient, content string, delivered bool) (uint64, error)
	DrainBacklog(ctx context.Context, recipient string) ([]domain.Message, error)
	History(ctx context.Context, identity string) ([]domain.Message, error)
	Get(ctx context.Context, id uint64) (domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
	seq *badger.Sequence
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte(messageSeqKey), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("acquire message sequence: %w", err)
	}
	return &MessageRepository{db: db, log: log, seq: seq}, nil
}

// Close hands the leased ids back to badger.
func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

// Keys are built as "{prefix}{identity}:{id padded to 20 digits}" so that a
// prefix scan returns rows in id order. The identity is quoted to keep
// prefixes of distinct identities disjoint.
func messageKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", msgPrefix, id))
}

func indexPrefix(prefix, identity string) []byte {
	return []byte(fmt.Sprintf("%s%q:", prefix, domain.Normalize(identity)))
}

func indexKey(prefix, identity string, id uint64) []byte {
	return append(indexPrefix(prefix, identity), []byte(fmt.Sprintf("%020d", id))...)
}

func idFromIndexKey(key []byte) (uint64, error) {
	s := string(key)
	return strconv.ParseUint(s[strings.LastIndexByte(s, ':')+1:], 10, 64)
}

// Append records a message and returns its id.
// Undelivered messages are also indexed under the recipient's pending
// prefix, which DrainBacklog consumes.
func (m *MessageRepository) Append(ctx context.Context, sender, recipient, content string, delivered bool) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	next, err := m.seq.Next()
	if err != nil {
		return 0, err
	}
	// Sequences start at zero, ids start at one.
	msg := domain.Message{
		ID:        next + 1,
		Sender:    sender,
		Recipient: recipient,
		Content:   content,
		Delivered: delivered,
		At:        time.Now().UTC(),
	}
	bytes, err := encodeMessage(msg)
	if err != nil {
		return 0, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(msg.ID), bytes); err != nil {
			return err
		}
		if !delivered {
			if err := txn.Set(indexKey(pendingPrefix, recipient, msg.ID), nil); err != nil {
				return err
			}
		}
		if err := txn.Set(indexKey(historyPrefix, sender, msg.ID), nil); err != nil {
			return err
		}
		return txn.Set(indexKey(historyPrefix, recipient, msg.ID), nil)
	})
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// DrainBacklog returns, oldest first, every undelivered message for the
// recipient and marks them delivered in the same transaction that read them.
// Concurrent drains conflict on the pending keys, the loser is retried and
// observes an empty backlog. Large backlogs are drained in batches, each
// committed on its own: a cancellation between batches returns what was
// already drained with a nil error and leaves the rest pending. When an error
// is returned alongside messages, those messages are already marked
// delivered and must still be handed to the recipient.
func (m *MessageRepository) DrainBacklog(ctx context.Context, recipient string) ([]domain.Message, error) {
	var drained []domain.Message
	for {
		if err := ctx.Err(); err != nil {
			if len(drained) == 0 {
				return nil, err
			}
			m.log.Info("Backlog drain interrupted, remainder kept pending",
				"recipient", recipient, "drained", len(drained), "error", err)
			return drained, nil
		}
		batch, scanned, err := m.drainBatchWithRetry(recipient)
		drained = append(drained, batch...)
		if err != nil {
			return drained, err
		}
		if scanned < drainBatchSize {
			return drained, nil
		}
	}
}

// drainBatchWithRetry also reports how many pending keys the batch consumed,
// orphans included, so the caller knows whether more may remain.
func (m *MessageRepository) drainBatchWithRetry(recipient string) ([]domain.Message, int, error) {
	var err error
	for attempt := 0; attempt < maxConflictRetry; attempt++ {
		var batch []domain.Message
		var orphans [][]byte
		var scanned int
		err = m.db.Update(func(txn *badger.Txn) error {
			var innerErr error
			batch, orphans, scanned, innerErr = drainBatch(txn, recipient)
			return innerErr
		})
		if stderrors.Is(err, badger.ErrConflict) {
			m.log.Debug("Backlog drain conflicted, retrying", "recipient", recipient, "attempt", attempt+1)
			continue
		}
		if err == nil {
			for _, key := range orphans {
				m.log.Warn("Pending index without message removed", "recipient", recipient, "key", string(key))
			}
		}
		return batch, scanned, err
	}
	return nil, 0, err
}

// drainBatch consumes up to drainBatchSize pending keys. A pending key whose
// message row is missing is deleted and reported as an orphan.
func drainBatch(txn *badger.Txn, recipient string) ([]domain.Message, [][]byte, int, error) {
	prefix := indexPrefix(pendingPrefix, recipient)
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	options.Prefix = prefix

	// Keys are collected first, badger forbids writes while an iterator is open.
	var pendingKeys [][]byte
	it := txn.NewIterator(options)
	for it.Seek(prefix); it.ValidForPrefix(prefix) && len(pendingKeys) < drainBatchSize; it.Next() {
		pendingKeys = append(pendingKeys, it.Item().KeyCopy(nil))
	}
	it.Close()

	batch := make([]domain.Message, 0, len(pendingKeys))
	var orphans [][]byte
	for _, key := range pendingKeys {
		id, err := idFromIndexKey(key)
		if err != nil {
			orphans = append(orphans, key)
			if err = txn.Delete(key); err != nil {
				return nil, nil, 0, err
			}
			continue
		}
		msg, err := getMessage(txn, id)
		if stderrors.Is(err, errors.ErrMessageNotFound) {
			orphans = append(orphans, key)
			if err = txn.Delete(key); err != nil {
				return nil, nil, 0, err
			}
			continue
		}
		if err != nil {
			return nil, nil, 0, err
		}
		msg.Delivered = true
		bytes, err := encodeMessage(msg)
		if err != nil {
			return nil, nil, 0, err
		}
		if err = txn.Set(messageKey(id), bytes); err != nil {
			return nil, nil, 0, err
		}
		if err = txn.Delete(key); err != nil {
			return nil, nil, 0, err
		}
		batch = append(batch, msg)
	}
	return batch, orphans, len(pendingKeys), nil
}

// History returns every message the identity sent or received, oldest first.
func (m *MessageRepository) History(ctx context.Context, identity string) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := indexPrefix(historyPrefix, identity)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id, err := idFromIndexKey(it.Item().Key())
			if err != nil {
				return err
			}
			msg, err := getMessage(txn, id)
			if err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	return messages, err
}

func (m *MessageRepository) Get(ctx context.Context, id uint64) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	var msg domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		var err error
		msg, err = getMessage(txn, id)
		return err
	})
	return msg, err
}

// ReadMessages scans every stored message in id order.
// It only needs a read-only handle.
func ReadMessages(db *badger.DB) ([]domain.Message, error) {
	var messages []domain.Message
	err := db.View(func(txn *badger.Txn) error {
		prefix := []byte(msgPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				msg, err := decodeMessage(val)
				if err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}

func getMessage(txn *badger.Txn, id uint64) (domain.Message, error) {
	item, err := txn.Get(messageKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, fmt.Errorf("%w: %d", errors.ErrMessageNotFound, id)
	}
	if err != nil {
		return domain.Message{}, err
	}
	var msg domain.Message
	err = item.Value(func(val []byte) error {
		msg, err = decodeMessage(val)
		return err
	})
	return msg, err
}

func encodeMessage(msg domain.Message) ([]byte, error) {
	return encodeRecord(map[string]any{
		"id":        strconv.FormatUint(msg.ID, 10),
		"sender":    msg.Sender,
		"recipient": msg.Recipient,
		"content":   msg.Content,
		"delivered": msg.Delivered,
		"at":        formatTime(msg.At),
	})
}

func decodeMessage(b []byte) (domain.Message, error) {
	r, err := decodeRecord(b)
	if err != nil {
		return domain.Message{}, err
	}
	id, err := strconv.ParseUint(r.str("id"), 10, 64)
	if err != nil {
		return domain.Message{}, fmt.Errorf("decode message id: %w", err)
	}
	return domain.Message{
		ID:        id,
		Sender:    r.str("sender"),
		Recipient: r.str("recipient"),
		Content:   r.str("content"),
		Delivered: r.boolean("delivered"),
		At:        r.timestamp("at"),
	}, nil
}
