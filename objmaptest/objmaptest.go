// Package objmaptest provides an example domain for objmap: a small
// mail system whose types exercise every kind of detected strategy,
// and registries that map it.
package objmaptest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danderson/objmap"
)

// EmailAddress is a validated email address. It is a custom
// primitive: serialized by StringValue, deserialized by
// NewEmailAddress.
type EmailAddress struct {
	value string
}

// NewEmailAddress returns the EmailAddress for s.
func NewEmailAddress(s string) (EmailAddress, error) {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return EmailAddress{}, fmt.Errorf("invalid email address %q", s)
	}
	return EmailAddress{s}, nil
}

// StringValue returns the address as a string.
func (a EmailAddress) StringValue() string { return a.value }

// Subject is an email subject line. It is a custom primitive like
// EmailAddress.
type Subject struct {
	value string
}

// maxSubject is the longest allowed subject, in bytes.
const maxSubject = 100

// NewSubject returns the Subject for s.
func NewSubject(s string) (Subject, error) {
	switch {
	case strings.TrimSpace(s) == "":
		return Subject{}, errors.New("subject must not be empty")
	case len(s) > maxSubject:
		return Subject{}, fmt.Errorf("subject is %d bytes, max is %d", len(s), maxSubject)
	}
	return Subject{s}, nil
}

// StringValue returns the subject as a string.
func (s Subject) StringValue() string { return s.value }

// Body is an email body. It is a custom primitive mapped by
// conversion to and from string.
type Body string

// Priority is an email's priority. It is a custom primitive mapped
// by conversion to and from a number. Its String method is ignored.
type Priority int

const (
	Low Priority = iota - 1
	Normal
	High
)

func (p Priority) String() string {
	switch p {
	case Low:
		return "low"
	case Normal:
		return "normal"
	case High:
		return "high"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// Email is an email message. It is a serialized object with
// unexported fields: serialized from its getters, and deserialized by
// NewEmail.
type Email struct {
	sender   EmailAddress
	receiver EmailAddress
	subject  Subject
	body     Body
}

// NewEmail returns an Email.
func NewEmail(sender, receiver EmailAddress, subject Subject, body Body) Email {
	return Email{sender, receiver, subject, body}
}

func (e Email) Sender() EmailAddress   { return e.sender }
func (e Email) Receiver() EmailAddress { return e.receiver }
func (e Email) Subject() Subject       { return e.subject }
func (e Email) Body() Body             { return e.body }

// Label is a mailbox label. Its keys in Mailbox.Labels are mapped by
// conversion to string.
type Label string

// Mailbox is a serialized object with exported fields, mapped by
// struct fields and field assignment.
type Mailbox struct {
	Owner    EmailAddress
	Messages []Email
	Labels   map[Label]Priority `objmap:"labels"`
	Pinned   *Email
	Updated  time.Time
	Scratch  string `objmap:"-"`
}

// Register registers the mail domain in b, and requires Email and
// Mailbox to support both capabilities.
func Register(b *objmap.Builder) *objmap.Builder {
	return b.
		Factory(NewEmailAddress).
		Factory(NewSubject).
		Factory(NewEmail, "sender", "receiver", "subject", "body").
		Add(objmap.TypeFor[Email](), objmap.Duplex).
		Add(objmap.TypeFor[Mailbox](), objmap.Duplex)
}

// Attachment is a file attached to an email. Its Data field cannot
// be mapped.
type Attachment struct {
	Name string
	Data chan []byte
}

// ComposeEmail and EmailFromParts are competing factories for Email.
func ComposeEmail(sender, receiver EmailAddress, subject Subject, body Body) Email {
	return NewEmail(sender, receiver, subject, body)
}

func EmailFromParts(sender, receiver EmailAddress, subject Subject, body Body) Email {
	return NewEmail(sender, receiver, subject, body)
}

// RegisterBroken registers a variant of the mail domain in b that
// cannot be built: Email has two equally good factories, and
// Attachment has an unmappable field.
func RegisterBroken(b *objmap.Builder) *objmap.Builder {
	return b.
		Factory(NewEmailAddress).
		Factory(NewSubject).
		Factory(ComposeEmail, "sender", "receiver", "subject", "body").
		Factory(EmailFromParts, "sender", "receiver", "subject", "body").
		Add(objmap.TypeFor[Email](), objmap.Duplex).
		Add(objmap.TypeFor[Attachment](), objmap.Serialization)
}

// SampleEmail returns a valid Email.
func SampleEmail() Email {
	return NewEmail(
		EmailAddress{"alice@example.com"},
		EmailAddress{"bob@example.com"},
		Subject{"Lunch"},
		"Noon at the usual place?",
	)
}

// SampleMailbox returns a valid Mailbox.
func SampleMailbox() Mailbox {
	e := SampleEmail()
	return Mailbox{
		Owner:    EmailAddress{"bob@example.com"},
		Messages: []Email{e},
		Labels:   map[Label]Priority{"work": High, "spam": Low},
		Pinned:   &e,
		Updated:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}
