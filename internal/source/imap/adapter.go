package imapsource

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2"

	"github.com/bheem-platform/workspace-cli/internal/model"
)

// Account adapts an external IMAP mailbox into the mail store's
// vocabulary: envelopes become model.Message values with synthetic ids,
// and star/read toggles translate to IMAP flag operations.
type Account struct {
	client *Client
	limit  int
}

// NewAccount builds an account mirror. limit caps how many recent
// messages are listed; zero means 50.
func NewAccount(client *Client, limit int) *Account {
	if limit <= 0 {
		limit = 50
	}
	return &Account{client: client, limit: limit}
}

// Fetch lists recent inbox messages as mail-view messages.
func (a *Account) Fetch(ctx context.Context) ([]model.Message, error) {
	envelopes, err := a.client.FetchEnvelopes(ctx, a.limit)
	if err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(envelopes))
	for _, env := range envelopes {
		messages = append(messages, messageFromEnvelope(env))
	}
	return messages, nil
}

// ToggleStar translates a star toggle into the \Flagged IMAP flag.
func (a *Account) ToggleStar(ctx context.Context, id string, starred bool) error {
	uid, err := uidFromID(id)
	if err != nil {
		return err
	}
	return a.client.SetFlags(ctx, uid, []imap.Flag{imap.FlagFlagged}, !starred)
}

// MarkRead sets the \Seen flag.
func (a *Account) MarkRead(ctx context.Context, id string) error {
	uid, err := uidFromID(id)
	if err != nil {
		return err
	}
	return a.client.SetFlags(ctx, uid, []imap.Flag{imap.FlagSeen}, true)
}

// messageFromEnvelope converts an IMAP envelope to the mail view's
// message shape. The id encodes the UID so flag operations can find
// their way back.
func messageFromEnvelope(env Envelope) model.Message {
	msg := model.Message{
		ID:       fmt.Sprintf("imap-%d", env.UID),
		FolderID: model.ExternalFolderID,
		From:     env.From,
		To:       env.To,
		Subject:  env.Subject,
		Date:     env.Date,
	}

	for _, flag := range env.Flags {
		switch flag {
		case string(imap.FlagSeen):
			msg.IsRead = true
		case string(imap.FlagFlagged):
			msg.IsStarred = true
		}
	}

	return msg
}

func uidFromID(id string) (uint32, error) {
	raw, ok := strings.CutPrefix(id, "imap-")
	if !ok {
		return 0, fmt.Errorf("not an external message id: %q", id)
	}
	uid, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad external message id %q: %w", id, err)
	}
	return uint32(uid), nil
}
