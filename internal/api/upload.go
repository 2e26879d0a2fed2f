package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Upload sends a file as a multipart POST. Extra fields are added as
// plain form values. The response body, when present, is decoded into
// result the same way as JSON calls.
func (c *Client) Upload(
	ctx context.Context,
	path string,
	filename string,
	file io.Reader,
	fields map[string]string,
	result interface{},
) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		var err error
		defer func() { pw.CloseWithError(err) }()

		for k, v := range fields {
			if err = mw.WriteField(k, v); err != nil {
				return
			}
		}

		var part io.Writer
		part, err = mw.CreateFormFile("file", filename)
		if err != nil {
			return
		}
		if _, err = io.Copy(part, file); err != nil {
			return
		}
		err = mw.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, pr)
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: "POST " + path, Err: err}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return &Error{Op: "POST " + path, Err: readErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			Op:         "POST " + path,
			StatusCode: resp.StatusCode,
			Detail:     extractDetail(respBody),
		}
	}

	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling upload response from %s: %w", path, err)
	}
	return nil
}
