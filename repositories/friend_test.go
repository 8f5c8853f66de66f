package repositories

import (
	"snappy-chat/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Save_And_List_Relations(t *testing.T) {
	req := require.New(t)
	repository := NewFriendRepository(openDB(t))

	req.NoError(repository.Save(Relation{From: "alice", To: "bob", Status: StatusPending}))
	req.NoError(repository.Save(Relation{From: "carol", To: "Bob", Status: StatusAccepted}))

	incoming, err := repository.Incoming("BOB")
	req.NoError(err)
	req.Len(incoming, 2)

	outgoing, err := repository.Outgoing("alice")
	req.NoError(err)
	req.Len(outgoing, 1)
	req.Equal(StatusPending, outgoing[0].Status)
	req.Equal("bob", outgoing[0].To)
}

func Test_Save_Replaces_Status(t *testing.T) {
	req := require.New(t)
	repository := NewFriendRepository(openDB(t))

	req.NoError(repository.Save(Relation{From: "alice", To: "bob", Status: StatusPending}))
	req.NoError(repository.Save(Relation{From: "alice", To: "bob", Status: StatusAccepted}))

	relation, err := repository.Get("Alice", "Bob")
	req.NoError(err)
	req.Equal(StatusAccepted, relation.Status)
}

func Test_Delete_Relation(t *testing.T) {
	req := require.New(t)
	repository := NewFriendRepository(openDB(t))

	req.NoError(repository.Save(Relation{From: "alice", To: "bob", Status: StatusBlocked}))
	req.NoError(repository.Delete("alice", "bob"))

	_, err := repository.Get("alice", "bob")
	req.ErrorIs(err, errors.ErrRequestNotFound)

	incoming, err := repository.Incoming("bob")
	req.NoError(err)
	req.Empty(incoming)
}
