package main

import (
	"encoding/json"
	"fmt"
	"snappy-chat/domain"
	"strings"

	"github.com/gookit/color"
)

// Printer renders server frames as terminal lines.
type Printer struct {
	colours bool
}

func (p Printer) paint(style color.Style, s string) string {
	if !p.colours {
		return s
	}
	return style.Render(s)
}

// Render turns one raw websocket payload into a printable line.
// The boolean is true when the server asked the client to stop.
func (p Printer) Render(payload []byte) (string, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return p.paint(color.New(color.FgRed), fmt.Sprintf("unreadable frame: %s", payload)), false
	}

	if _, ok := raw["type"]; !ok {
		var frame domain.DeliveryFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			return p.paint(color.New(color.FgRed), err.Error()), false
		}
		if frame.OfflineCatchup {
			return p.paint(color.New(color.FgGray), fmt.Sprintf("[%s] %s: %s", frame.Timestamp, frame.From, frame.Message)), false
		}
		return p.paint(color.New(color.FgCyan), frame.From+": ") + frame.Message, false
	}

	var header struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(payload, &header)
	switch header.Type {
	case domain.FrameOnlineUsers:
		var frame domain.PresenceFrame
		_ = json.Unmarshal(payload, &frame)
		return p.paint(color.New(color.FgGreen), "online: "+strings.Join(frame.Users, ", ")), false
	case domain.FrameForceLogout:
		var frame domain.ForceLogoutFrame
		_ = json.Unmarshal(payload, &frame)
		return p.paint(color.New(color.BgRed, color.FgWhite), frame.Message), true
	case domain.FrameFriendRequest, domain.FrameFriendRequestAccepted:
		var frame domain.NotificationFrame
		_ = json.Unmarshal(payload, &frame)
		return p.paint(color.New(color.FgYellow), frame.Message), false
	default:
		return string(payload), false
	}
}
