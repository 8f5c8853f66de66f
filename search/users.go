// Package search keeps a full-text index of usernames.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"snappy-chat/domain"
	"sort"
	"strings"

	"github.com/blugelabs/bluge"
)

const (
	nameField    = "name"
	displayField = "display"
	DefaultLimit = 10
)

// UserIndex answers case-insensitive substring searches on usernames.
// Documents are keyed by normalized name, so re-indexing a user replaces it.
type UserIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewUserIndex(writer *bluge.Writer, log *slog.Logger) *UserIndex {
	return &UserIndex{writer: writer, log: log}
}

func userDocument(username string) *bluge.Document {
	key := domain.Normalize(username)
	return bluge.NewDocument(key).
		AddField(bluge.NewKeywordField(nameField, key)).
		AddField(bluge.NewStoredOnlyField(displayField, []byte(username)))
}

func (u *UserIndex) Index(username string) error {
	doc := userDocument(username)
	if err := u.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index user %s: %w", username, err)
	}
	return nil
}

// Rebuild indexes every given username, typically all accounts at start-up.
func (u *UserIndex) Rebuild(usernames []string) error {
	batch := bluge.NewBatch()
	for _, username := range usernames {
		doc := userDocument(username)
		batch.Update(doc.ID(), doc)
	}
	if err := u.writer.Batch(batch); err != nil {
		return fmt.Errorf("rebuild user index: %w", err)
	}
	u.log.Info("User index rebuilt", "users", len(usernames))
	return nil
}

// Search returns up to limit usernames containing query, ignoring case.
// An empty query matches nobody.
func (u *UserIndex) Search(ctx context.Context, query string, limit int) ([]string, error) {
	term := strings.NewReplacer("*", "", "?", "").Replace(domain.Normalize(query))
	if term == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	reader, err := u.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			u.log.Debug("User index reader not closed", "error", err)
		}
	}()

	q := bluge.NewWildcardQuery("*" + term + "*").SetField(nameField)
	request := bluge.NewTopNSearch(limit, q).SortBy([]string{"_id"})
	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	users := []string{}
	match, err := matches.Next()
	for err == nil && match != nil {
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == displayField {
				users = append(users, string(value))
				return false
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(users)
	return users, nil
}

func (u *UserIndex) Close() error {
	return u.writer.Close()
}
