package store

import (
	"bytes"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/bheem-platform/workspace-cli/internal/model"
)

// parseRawMessage parses a raw RFC 2822 message using go-message and
// extracts the text/plain body, text/html body, and attachment
// metadata for the reading pane.
func parseRawMessage(raw []byte) (*model.MessageDetail, error) {
	detail := &model.MessageDetail{}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Unparseable input is shown as-is rather than failing the view.
		detail.BodyText = string(raw)
		return detail, nil
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			switch {
			case strings.HasPrefix(contentType, "text/plain"):
				detail.BodyText = string(body)
			case strings.HasPrefix(contentType, "text/html"):
				detail.BodyHTML = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			detail.Attachments = append(detail.Attachments, model.Attachment{
				Filename:    filename,
				ContentType: contentType,
				Size:        int64(len(body)),
			})
		}
	}

	return detail, nil
}
