package model

import "time"

// MailFolder is a server-side mail folder (inbox, sent, trash, or
// user-created), mirrored locally for the folder sidebar.
type MailFolder struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	UnreadCount int    `json:"unread_count"`
	TotalCount  int    `json:"total_count"`
}

// ExternalFolderID is the synthetic folder id an optional external IMAP
// mailbox is listed under in the folder sidebar.
const ExternalFolderID = "external-imap"

// Message is a local mirror of a server-side message summary. The local
// copy is a cache, never authoritative: every mutation goes through the
// backend and is followed by a refetch.
type Message struct {
	ID             string    `json:"id"`
	FolderID       string    `json:"folder_id"`
	From           string    `json:"from"`
	To             []string  `json:"to"`
	Subject        string    `json:"subject"`
	Snippet        string    `json:"snippet"`
	Date           time.Time `json:"date"`
	IsRead         bool      `json:"is_read"`
	IsStarred      bool      `json:"is_starred"`
	HasAttachments bool      `json:"has_attachments"`
	Size           int64     `json:"size"`
}

// Attachment describes a single MIME part of a message that carries a
// file payload.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// MessageDetail extends a Message with the parsed body and attachment
// list shown in the reading pane.
type MessageDetail struct {
	Message

	BodyText    string       `json:"body_text"`
	BodyHTML    string       `json:"body_html"`
	Attachments []Attachment `json:"attachments"`
}

// UnreadCounts maps folder id to its unread message count. Refreshed on
// a fixed interval while the app runs.
type UnreadCounts map[string]int

// Total sums the unread counts across all folders.
func (u UnreadCounts) Total() int {
	total := 0
	for _, n := range u {
		total += n
	}
	return total
}
