package domain

import "time"

const (
	FrameOnlineUsers           = "online_users"
	FrameForceLogout           = "force_logout"
	FrameFriendRequest         = "friend_request"
	FrameFriendRequestAccepted = "friend_request_accepted"
)

// Close statuses sent to clients. Values follow RFC 6455, 4000 is in the
// range reserved for applications.
const (
	CloseGoingAway   = 1001
	CloseAuthFailed  = 1008
	CloseReplaced    = 4000
	ReasonNoToken    = "Authentication required"
	ReasonBadToken   = "Invalid token"
	ReasonReplaced   = "Logged in elsewhere"
	ReasonShutdown   = "Server shutting down"
	ForceLogoutText  = "You have been logged in from another device"
	CatchupTimestamp = time.RFC3339
)

// InboundFrame is the only shape a client may send once active.
type InboundFrame struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// DeliveryFrame carries a message to its recipient, live or from the backlog.
type DeliveryFrame struct {
	From           string `json:"from"`
	Message        string `json:"message"`
	Timestamp      string `json:"timestamp,omitempty"`
	OfflineCatchup bool   `json:"offline_catchup,omitempty"`
}

type PresenceFrame struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

type ForceLogoutFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NotificationFrame is pushed by the directory, never persisted.
type NotificationFrame struct {
	Type    string `json:"type"`
	From    string `json:"from"`
	Message string `json:"message"`
}

func NewDeliveryFrame(from, content string) DeliveryFrame {
	return DeliveryFrame{From: from, Message: content}
}

// NewCatchupFrame builds the frame replayed for a message stored while its
// recipient was offline.
func NewCatchupFrame(m Message) DeliveryFrame {
	return DeliveryFrame{
		From:           m.Sender,
		Message:        m.Content,
		Timestamp:      m.At.UTC().Format(CatchupTimestamp),
		OfflineCatchup: true,
	}
}

func NewPresenceFrame(users []string) PresenceFrame {
	if users == nil {
		users = []string{}
	}
	return PresenceFrame{Type: FrameOnlineUsers, Users: users}
}

func NewForceLogoutFrame() ForceLogoutFrame {
	return ForceLogoutFrame{Type: FrameForceLogout, Message: ForceLogoutText}
}
