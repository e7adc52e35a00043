package model

import "time"

// Mailbox is the device-side folder a message was synced from.
type Mailbox int

const (
	MailboxInbox Mailbox = iota
	MailboxSent
	MailboxDrafts
)

var mailboxNames = map[Mailbox]string{
	MailboxInbox:  "inbox",
	MailboxSent:   "sent",
	MailboxDrafts: "drafts",
}

// MailboxFromCode maps a raw device mailbox code onto the enum. Unknown codes
// return ok=false and are dropped by callers rather than treated as errors.
func MailboxFromCode(code int) (Mailbox, bool) {
	mbox := Mailbox(code)
	_, ok := mailboxNames[mbox]
	return mbox, ok
}

func (m Mailbox) String() string {
	if name, ok := mailboxNames[m]; ok {
		return name
	}
	return "unknown"
}

// VisibleMailboxCodes are the raw mailbox codes counted as conversation
// content. Code 3 is an alternate "sent" code some devices emit and is folded
// into visible traffic on purpose. Drafts (2) are excluded.
var VisibleMailboxCodes = []int{0, 1, 3}

// MessageType is the wider device-side classification, independent from the
// mailbox a message sits in.
type MessageType int

const (
	TypeAll MessageType = iota
	TypeInbox
	TypeSent
	TypeDrafts
	TypeOutbox
	TypeFailed
	TypeQueued
)

// Message is a stored message row, owned exclusively by UserID.
type Message struct {
	UserID       string    `db:"user_id"`
	SmsID        int64     `db:"sms_id"`
	Address      string    `db:"sms_address"`
	Date         int64     `db:"sms_date"`
	Body         string    `db:"sms_msg"`
	Mailbox      int       `db:"sms_mailbox"`
	Type         int       `db:"sms_type"`
	Flags        string    `db:"sms_flags"`
	Added        time.Time `db:"added"`
	LastModified time.Time `db:"lastmodified"`
}

// MessageInput is one validated record of a push or replace batch.
type MessageInput struct {
	ID      int64
	Address string
	Date    int64
	Body    string
	Mailbox int
	Type    int
	Read    bool
	Seen    bool
}

// PackedFlags packs the read and seen bits the way the device reports them.
func (m MessageInput) PackedFlags() string {
	flags := [2]byte{'0', '0'}
	if m.Read {
		flags[0] = '1'
	}
	if m.Seen {
		flags[1] = '1'
	}
	return string(flags[:])
}

// ConversationMessage is one transcript entry, keyed externally by timestamp.
type ConversationMessage struct {
	Body string `json:"msg"`
	Type int    `json:"type"`
}

// PagedMessage is one entry of an incremental fetch page.
type PagedMessage struct {
	Address string `json:"address"`
	Mailbox int    `json:"mailbox"`
	Body    string `json:"msg"`
	Type    int    `json:"type"`
}

// QueuedMessage is a composed message awaiting device pickup.
type QueuedMessage struct {
	ID      int64  `db:"id" json:"id"`
	Address string `db:"sms_address" json:"address"`
	Body    string `db:"sms_msg" json:"msg"`
}
