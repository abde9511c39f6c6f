package rest

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
)

// UploadAttachment streams a file as multipart form data and returns the
// stored attachment. The body is piped rather than buffered, so large files
// never live in memory whole.
func (c *Client) UploadAttachment(ctx context.Context, fileName string, r io.Reader) (*Attachment, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/uploads", pr)
	if err != nil {
		return nil, &APIError{Kind: KindUnknown, Message: "create request", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp Attachment
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
