package services

import (
	"context"
	"log/slog"
	"snappy-chat/domain"
	"snappy-chat/errors"
	"snappy-chat/mocks"
	"snappy-chat/repositories"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newFriendService(t *testing.T, notifier *mocks.MockNotifier, users ...string) *FriendService {
	t.Helper()
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	userRepository := repositories.NewUserRepository(db)
	for _, u := range users {
		_, err = userRepository.CreateUser(u, "hash")
		req.NoError(err)
	}
	return NewFriendService(slog.Default(), userRepository, repositories.NewFriendRepository(db), notifier)
}

func TestFriendService_SendRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("should store the request and notify the recipient", func(t *testing.T) {
		req := require.New(t)
		notifier := mocks.NewMockNotifier(gomock.NewController(t))
		svc := newFriendService(t, notifier, "alice", "bob")

		notifier.EXPECT().Notify(gomock.Any(), "bob", domain.NotificationFrame{
			Type:    domain.FrameFriendRequest,
			From:    "alice",
			Message: "alice sent you a friend request",
		}).Return(true)

		req.NoError(svc.SendRequest(ctx, "alice", "bob"))

		list, err := svc.List(ctx, "bob")
		req.NoError(err)
		req.Len(list.Pending, 1)
		req.Equal("alice", list.Pending[0].From)
		req.Empty(list.Friends)
	})

	t.Run("should reject invalid requests", func(t *testing.T) {
		req := require.New(t)
		notifier := mocks.NewMockNotifier(gomock.NewController(t))
		svc := newFriendService(t, notifier, "alice", "bob")
		notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).Return(false).Times(1)

		req.ErrorIs(svc.SendRequest(ctx, "", "bob"), errors.ErrMissingFields)
		req.ErrorIs(svc.SendRequest(ctx, "alice", "ALICE"), errors.ErrSelfFriendRequest)
		req.ErrorIs(svc.SendRequest(ctx, "alice", "ghost"), errors.ErrUserNotFound)

		req.NoError(svc.SendRequest(ctx, "alice", "bob"))
		req.ErrorIs(svc.SendRequest(ctx, "bob", "alice"), errors.ErrFriendRequestExists)
	})

	t.Run("should refuse a request between blocked users", func(t *testing.T) {
		req := require.New(t)
		notifier := mocks.NewMockNotifier(gomock.NewController(t))
		svc := newFriendService(t, notifier, "alice", "bob")

		req.NoError(svc.Block(ctx, "bob", "alice"))

		req.ErrorIs(svc.SendRequest(ctx, "alice", "bob"), errors.ErrRequestForbidden)
	})
}

func TestFriendService_Respond(t *testing.T) {
	ctx := context.Background()

	t.Run("should accept and notify the requester", func(t *testing.T) {
		req := require.New(t)
		notifier := mocks.NewMockNotifier(gomock.NewController(t))
		svc := newFriendService(t, notifier, "alice", "bob")
		notifier.EXPECT().Notify(gomock.Any(), "bob", gomock.Any()).Return(true)
		notifier.EXPECT().Notify(gomock.Any(), "alice", domain.NotificationFrame{
			Type:    domain.FrameFriendRequestAccepted,
			From:    "bob",
			Message: "bob accepted your friend request",
		}).Return(true)
		req.NoError(svc.SendRequest(ctx, "alice", "bob"))

		req.NoError(svc.Respond(ctx, "bob", "alice", ActionAccept))

		bobList, err := svc.List(ctx, "bob")
		req.NoError(err)
		req.Equal([]string{"alice"}, bobList.Friends)
		req.Empty(bobList.Pending)
		aliceList, err := svc.List(ctx, "alice")
		req.NoError(err)
		req.Equal([]string{"bob"}, aliceList.Friends)

		req.ErrorIs(svc.SendRequest(ctx, "bob", "alice"), errors.ErrAlreadyFriends)
	})

	t.Run("should reject invalid answers", func(t *testing.T) {
		req := require.New(t)
		svc := newFriendService(t, mocks.NewMockNotifier(gomock.NewController(t)), "alice", "bob")

		req.ErrorIs(svc.Respond(ctx, "bob", "alice", "maybe"), errors.ErrInvalidFriendAction)
		req.ErrorIs(svc.Respond(ctx, "", "alice", ActionAccept), errors.ErrMissingFields)
		req.ErrorIs(svc.Respond(ctx, "bob", "alice", ActionAccept), errors.ErrRequestNotFound)
	})

	t.Run("should block the requester on block", func(t *testing.T) {
		req := require.New(t)
		notifier := mocks.NewMockNotifier(gomock.NewController(t))
		svc := newFriendService(t, notifier, "alice", "bob")
		notifier.EXPECT().Notify(gomock.Any(), "bob", gomock.Any()).Return(true)
		req.NoError(svc.SendRequest(ctx, "alice", "bob"))

		req.NoError(svc.Respond(ctx, "bob", "alice", ActionBlock))

		blocked, err := svc.Blocked(ctx, "bob")
		req.NoError(err)
		req.Equal([]string{"alice"}, blocked)
		allowed, err := svc.CanMessage(ctx, "alice", "bob")
		req.NoError(err)
		req.False(allowed)
		list, err := svc.List(ctx, "bob")
		req.NoError(err)
		req.Empty(list.Pending)
	})
}

func TestFriendService_Remove_Block_Unblock(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	notifier := mocks.NewMockNotifier(gomock.NewController(t))
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any()).Return(true).AnyTimes()
	svc := newFriendService(t, notifier, "alice", "bob")

	// Given alice and bob are friends
	req.NoError(svc.SendRequest(ctx, "alice", "bob"))
	req.NoError(svc.Respond(ctx, "bob", "alice", ActionAccept))

	// When bob removes alice
	req.NoError(svc.Remove(ctx, "bob", "alice"))

	// Then neither lists the other
	list, err := svc.List(ctx, "alice")
	req.NoError(err)
	req.Empty(list.Friends)

	// And a block then unblock restores messaging
	req.NoError(svc.Block(ctx, "alice", "bob"))
	allowed, err := svc.CanMessage(ctx, "bob", "alice")
	req.NoError(err)
	req.False(allowed)
	allowed, err = svc.CanMessage(ctx, "alice", "bob")
	req.NoError(err)
	req.True(allowed)

	req.NoError(svc.Unblock(ctx, "alice", "bob"))
	allowed, err = svc.CanMessage(ctx, "bob", "alice")
	req.NoError(err)
	req.True(allowed)
	blocked, err := svc.Blocked(ctx, "alice")
	req.NoError(err)
	req.Empty(blocked)
}
