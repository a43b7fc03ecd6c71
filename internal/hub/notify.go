package hub

import (
	"context"
	"log/slog"
	"time"

	"github.com/vhpooya/remotehub/internal/domain"
)

// smsPreviewLimit is the maximum number of characters of an SMS body carried
// in a NewSms event. The stored message is untouched; this is presentation.
const smsPreviewLimit = 50

// Peer is one connected client able to receive events. Send must never
// block: it queues the event on the peer's ordered outbound channel and
// reports false if the peer is gone or its buffer is full.
type Peer interface {
	ID() string
	Send(ev domain.Event) bool
}

// Directory resolves user profiles and communication permissions. It is the
// boundary to the external directory/identity collaborator.
type Directory interface {
	GetUser(ctx context.Context, userID int64) (*domain.User, error)
	CanCommunicate(ctx context.Context, fromUserID, toUserID int64, kind string) (bool, error)
}

type targetKind int

const (
	targetConnection targetKind = iota
	targetGroup
	targetAll
	targetAllExcept
)

// Target addresses a publish: one connection, a group, everyone, or
// everyone except one connection.
type Target struct {
	kind targetKind
	id   string
}

// ToConnection targets a single connection.
func ToConnection(connectionID string) Target {
	return Target{kind: targetConnection, id: connectionID}
}

// ToGroup targets every current member of a group.
func ToGroup(group string) Target {
	return Target{kind: targetGroup, id: group}
}

// Broadcast targets every connected peer.
func Broadcast() Target {
	return Target{kind: targetAll}
}

// BroadcastExcept targets every connected peer except one connection.
func BroadcastExcept(connectionID string) Target {
	return Target{kind: targetAllExcept, id: connectionID}
}

// Notifier fans events out to connected peers. Delivery is best-effort and
// at-most-once: a peer not attached at publish time never sees the event,
// and a peer with a full outbound buffer has the event dropped rather than
// blocking the publisher.
type Notifier struct {
	peers     *peerSet
	groups    *Groups
	directory Directory
}

// NewNotifier creates a fan-out engine over the given group directory and
// user directory.
func NewNotifier(groups *Groups, directory Directory) *Notifier {
	return &Notifier{
		peers:     newPeerSet(),
		groups:    groups,
		directory: directory,
	}
}

// Attach makes a peer reachable for fan-out.
func (n *Notifier) Attach(p Peer) {
	n.peers.add(p)
}

// Detach removes a peer from fan-out. Events published afterwards are
// silently dropped for it.
func (n *Notifier) Detach(connectionID string) {
	n.peers.remove(connectionID)
}

// Publish delivers an event to every peer the target resolves to right now.
// It returns the number of peers the event was queued for.
func (n *Notifier) Publish(t Target, ev domain.Event) int {
	var delivered int
	switch t.kind {
	case targetConnection:
		if p, ok := n.peers.get(t.id); ok && p.Send(ev) {
			delivered++
		}
	case targetGroup:
		for _, id := range n.groups.Members(t.id) {
			if p, ok := n.peers.get(id); ok && p.Send(ev) {
				delivered++
			}
		}
	case targetAll, targetAllExcept:
		for _, p := range n.peers.all() {
			if t.kind == targetAllExcept && p.ID() == t.id {
				continue
			}
			if p.Send(ev) {
				delivered++
			}
		}
	}
	return delivered
}

// SendDirected publishes a ReceiveNotification to the target user's group.
// The caller must have a resolved identity and permission to notify the
// target; otherwise the operation is silently dropped.
func (n *Notifier) SendDirected(ctx context.Context, caller domain.CallerContext, targetUserID int64, kind, title, message string) {
	if !n.mayContact(ctx, caller, targetUserID, domain.CommNotification) {
		return
	}
	n.Publish(ToGroup(domain.UserGroup(targetUserID)), domain.ReceiveNotification{
		Kind:       kind,
		Title:      title,
		Message:    message,
		FromUserID: caller.UserID,
		Timestamp:  time.Now(),
	})
}

// SendPhoneCall publishes an IncomingCall to the target user's group.
func (n *Notifier) SendPhoneCall(ctx context.Context, caller domain.CallerContext, targetUserID int64, callerName, callerPhone, callID string) {
	if !n.mayContact(ctx, caller, targetUserID, domain.CommCall) {
		return
	}
	n.Publish(ToGroup(domain.UserGroup(targetUserID)), domain.IncomingCall{
		CallID:            callID,
		CallerName:        callerName,
		CallerPhoneNumber: callerPhone,
		Timestamp:         time.Now(),
	})
}

// SendSms publishes a NewSms to the target user's group. The message body is
// truncated to a short preview before inclusion.
func (n *Notifier) SendSms(ctx context.Context, caller domain.CallerContext, targetUserID int64, senderName, senderPhone, message string) {
	if !n.mayContact(ctx, caller, targetUserID, domain.CommSms) {
		return
	}
	n.Publish(ToGroup(domain.UserGroup(targetUserID)), domain.NewSms{
		SenderName:        senderName,
		SenderPhoneNumber: senderPhone,
		Message:           truncate(message, smsPreviewLimit),
		Timestamp:         time.Now(),
	})
}

// SendTyping relays a typing indicator to the target user's group.
func (n *Notifier) SendTyping(caller domain.CallerContext, targetUserID int64, isTyping bool) {
	if !caller.Resolved() {
		return
	}
	n.Publish(ToGroup(domain.UserGroup(targetUserID)), domain.TypingIndicator{
		FromUserID: caller.UserID,
		IsTyping:   isTyping,
		Timestamp:  time.Now(),
	})
}

// UpdatePhoneStatus announces a change in the caller's phone availability to
// all connections.
func (n *Notifier) UpdatePhoneStatus(caller domain.CallerContext, isOnline bool) {
	if !caller.Resolved() {
		return
	}
	n.Publish(Broadcast(), domain.PhoneStatusChanged{
		UserID:    caller.UserID,
		IsOnline:  isOnline,
		Timestamp: time.Now(),
	})
}

// BroadcastSystem publishes a SystemNotification to every connection. Only
// callers whose directory record carries the admin role may broadcast;
// anyone else is silently dropped.
func (n *Notifier) BroadcastSystem(ctx context.Context, caller domain.CallerContext, title, message, kind string) {
	if !caller.Resolved() {
		return
	}
	user, err := n.directory.GetUser(ctx, caller.UserID)
	if err != nil {
		slog.Warn("Directory lookup failed for broadcast", "user_id", caller.UserID, "error", err)
		return
	}
	if user.Role != domain.RoleAdmin {
		return
	}
	n.Publish(Broadcast(), domain.SystemNotification{
		Title:     title,
		Message:   message,
		Kind:      kind,
		Timestamp: time.Now(),
	})
}

// NotifyPresence announces a user coming online or going offline to every
// connection except the one that caused the change.
func (n *Notifier) NotifyPresence(connectionID string, userID int64, online bool) {
	if userID == 0 {
		return
	}
	var ev domain.Event
	if online {
		ev = domain.UserOnline{UserID: userID}
	} else {
		ev = domain.UserOffline{UserID: userID}
	}
	n.Publish(BroadcastExcept(connectionID), ev)
}

// mayContact applies the shared guard for user-directed notifications: the
// caller must be resolved and the org-unit permission schema must allow the
// communication kind. Denials are silent.
func (n *Notifier) mayContact(ctx context.Context, caller domain.CallerContext, targetUserID int64, kind string) bool {
	if !caller.Resolved() || targetUserID == 0 {
		return false
	}
	ok, err := n.directory.CanCommunicate(ctx, caller.UserID, targetUserID, kind)
	if err != nil {
		slog.Warn("Communication permission check failed", "from", caller.UserID, "to", targetUserID, "kind", kind, "error", err)
		return false
	}
	return ok
}

// truncate shortens a message to at most limit characters, marking the cut
// with an ellipsis.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
