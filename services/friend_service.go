package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"snappy-chat/contract"
	"snappy-chat/domain"
	"snappy-chat/errors"
	"snappy-chat/repositories"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = validator.New()

type FriendAction string

const (
	ActionAccept FriendAction = "accept"
	ActionReject FriendAction = "reject"
	ActionBlock  FriendAction = "block"
)

type IFriendService interface {
	SendRequest(ctx context.Context, sender, recipient string) error
	Respond(ctx context.Context, recipient, sender string, action FriendAction) error
	List(ctx context.Context, username string) (FriendList, error)
	Remove(ctx context.Context, username, friend string) error
	Block(ctx context.Context, username, blocked string) error
	Unblock(ctx context.Context, username, blocked string) error
	Blocked(ctx context.Context, username string) ([]string, error)
	CanMessage(ctx context.Context, sender, recipient string) (bool, error)
}

type PendingRequest struct {
	From      string
	Timestamp time.Time
}

type FriendList struct {
	Pending []PendingRequest
	Friends []string
}

type pair struct {
	First  string `validate:"required"`
	Second string `validate:"required"`
}

type response struct {
	Recipient string `validate:"required"`
	Sender    string `validate:"required"`
	Action    string `validate:"required,oneof=accept reject block"`
}

// FriendService manages friend requests, friendships and blocks.
// It also acts as the directory the router consults before delivery.
type FriendService struct {
	log      *slog.Logger
	users    repositories.IUserRepository
	friends  repositories.IFriendRepository
	notifier contract.Notifier
}

func NewFriendService(log *slog.Logger, users repositories.IUserRepository,
	friends repositories.IFriendRepository, notifier contract.Notifier) *FriendService {
	return &FriendService{log: log, users: users, friends: friends, notifier: notifier}
}

// WithNotifier sets the hook used to tell online users about requests.
func (s *FriendService) WithNotifier(notifier contract.Notifier) *FriendService {
	s.notifier = notifier
	return s
}

func (s *FriendService) SendRequest(ctx context.Context, sender, recipient string) error {
	if err := validate.Struct(pair{sender, recipient}); err != nil {
		return errors.ErrMissingFields
	}
	if domain.SamePrincipal(sender, recipient) {
		return errors.ErrSelfFriendRequest
	}
	exists, err := s.users.Exists(recipient)
	if err != nil {
		return err
	}
	if !exists {
		return errors.ErrUserNotFound
	}

	// Any relation in either direction prevents a new request
	for _, link := range [][2]string{{sender, recipient}, {recipient, sender}} {
		relation, err := s.friends.Get(link[0], link[1])
		if stderrors.Is(err, errors.ErrRequestNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		switch relation.Status {
		case repositories.StatusAccepted:
			return errors.ErrAlreadyFriends
		case repositories.StatusPending:
			return errors.ErrFriendRequestExists
		case repositories.StatusBlocked:
			return errors.ErrRequestForbidden
		}
	}

	if err = s.friends.Save(repositories.Relation{From: sender, To: recipient, Status: repositories.StatusPending}); err != nil {
		return err
	}
	s.notify(ctx, recipient, domain.NotificationFrame{
		Type:    domain.FrameFriendRequest,
		From:    sender,
		Message: fmt.Sprintf("%s sent you a friend request", sender),
	})
	return nil
}

// Respond lets recipient answer the pending request sent by sender.
func (s *FriendService) Respond(ctx context.Context, recipient, sender string, action FriendAction) error {
	if err := validate.Struct(response{recipient, sender, string(action)}); err != nil {
		var validationErrors validator.ValidationErrors
		if stderrors.As(err, &validationErrors) && validationErrors[0].Tag() == "oneof" {
			return errors.ErrInvalidFriendAction
		}
		return errors.ErrMissingFields
	}

	pending, err := s.friends.Get(sender, recipient)
	hasPending := err == nil && pending.Status == repositories.StatusPending
	if err != nil && !stderrors.Is(err, errors.ErrRequestNotFound) {
		return err
	}

	switch action {
	case ActionAccept:
		if !hasPending {
			return errors.ErrRequestNotFound
		}
		pending.Status = repositories.StatusAccepted
		if err = s.friends.Save(pending); err != nil {
			return err
		}
		s.notify(ctx, sender, domain.NotificationFrame{
			Type:    domain.FrameFriendRequestAccepted,
			From:    recipient,
			Message: fmt.Sprintf("%s accepted your friend request", recipient),
		})
	case ActionReject:
		if !hasPending {
			return errors.ErrRequestNotFound
		}
		return s.friends.Delete(sender, recipient)
	case ActionBlock:
		if hasPending {
			if err = s.friends.Delete(sender, recipient); err != nil {
				return err
			}
		}
		return s.Block(ctx, recipient, sender)
	}
	return nil
}

// List returns incoming pending requests, newest first, and friends.
func (s *FriendService) List(_ context.Context, username string) (FriendList, error) {
	incoming, err := s.friends.Incoming(username)
	if err != nil {
		return FriendList{}, err
	}
	outgoing, err := s.friends.Outgoing(username)
	if err != nil {
		return FriendList{}, err
	}

	pending := lo.Filter(incoming, func(r repositories.Relation, _ int) bool {
		return r.Status == repositories.StatusPending
	})
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].CreatedAt.After(pending[j].CreatedAt) })

	friends := lo.FilterMap(incoming, func(r repositories.Relation, _ int) (string, bool) {
		return r.From, r.Status == repositories.StatusAccepted
	})
	friends = append(friends, lo.FilterMap(outgoing, func(r repositories.Relation, _ int) (string, bool) {
		return r.To, r.Status == repositories.StatusAccepted
	})...)

	return FriendList{
		Pending: lo.Map(pending, func(r repositories.Relation, _ int) PendingRequest {
			return PendingRequest{From: r.From, Timestamp: r.CreatedAt}
		}),
		Friends: lo.Uniq(friends),
	}, nil
}

// Remove deletes an accepted friendship whichever side created it.
func (s *FriendService) Remove(_ context.Context, username, friend string) error {
	if err := validate.Struct(pair{username, friend}); err != nil {
		return errors.ErrMissingFields
	}
	for _, link := range [][2]string{{username, friend}, {friend, username}} {
		if err := s.deleteWithStatus(link[0], link[1], repositories.StatusAccepted); err != nil {
			return err
		}
	}
	return nil
}

// Block records that username refuses anything from blocked,
// replacing whatever username had sent to blocked before.
func (s *FriendService) Block(_ context.Context, username, blocked string) error {
	if err := validate.Struct(pair{username, blocked}); err != nil {
		return errors.ErrMissingFields
	}
	return s.friends.Save(repositories.Relation{From: username, To: blocked, Status: repositories.StatusBlocked})
}

func (s *FriendService) Unblock(_ context.Context, username, blocked string) error {
	if err := validate.Struct(pair{username, blocked}); err != nil {
		return errors.ErrMissingFields
	}
	return s.deleteWithStatus(username, blocked, repositories.StatusBlocked)
}

func (s *FriendService) Blocked(_ context.Context, username string) ([]string, error) {
	outgoing, err := s.friends.Outgoing(username)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(outgoing, func(r repositories.Relation, _ int) (string, bool) {
		return r.To, r.Status == repositories.StatusBlocked
	}), nil
}

// CanMessage reports whether recipient accepts messages from sender.
func (s *FriendService) CanMessage(_ context.Context, sender, recipient string) (bool, error) {
	relation, err := s.friends.Get(recipient, sender)
	if stderrors.Is(err, errors.ErrRequestNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return relation.Status != repositories.StatusBlocked, nil
}

func (s *FriendService) deleteWithStatus(from, to string, status repositories.RelationStatus) error {
	relation, err := s.friends.Get(from, to)
	if stderrors.Is(err, errors.ErrRequestNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if relation.Status != status {
		return nil
	}
	return s.friends.Delete(from, to)
}

func (s *FriendService) notify(ctx context.Context, identity string, event domain.NotificationFrame) {
	if s.notifier == nil {
		return
	}
	if !s.notifier.Notify(ctx, identity, event) {
		s.log.Debug("Notification skipped, user offline", "identity", identity, "type", event.Type)
	}
}
