package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
)

// MultipartFile is a single file part of a multipart upload.
type MultipartFile struct {
	// Field is the form field name.
	Field string
	// Name is the file name reported to the server.
	Name string
	// Content is read exactly once when the body is encoded.
	Content io.Reader
}

// MultipartBody describes a multipart/form-data request body.
// Assign it to RequestOptions.Body to upload files.
type MultipartBody struct {
	Fields map[string]string
	Files  []MultipartFile
}

// encodeBody converts a request body into its wire bytes and content
// type. Bodies are encoded once per request (not per attempt) so that
// retries can replay them; io.Reader and multipart file contents are
// therefore fully consumed here.
//
// Encoding rules:
//   - nil: no body
//   - []byte, string: sent as-is, no content type set
//   - io.Reader: drained and sent as-is
//   - *MultipartBody: multipart/form-data with a generated boundary
//   - anything else: JSON with application/json
func encodeBody(body any) (data []byte, contentType string, err error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "", nil
	case string:
		return []byte(b), "", nil
	case io.Reader:
		data, err = io.ReadAll(b)
		if err != nil {
			return nil, "", errors.Join(ErrInvalidBody, err)
		}
		return data, "", nil
	case *MultipartBody:
		return encodeMultipart(b)
	default:
		data, err = json.Marshal(body)
		if err != nil {
			return nil, "", errors.Join(ErrInvalidBody, err)
		}
		return data, "application/json", nil
	}
}

func encodeMultipart(body *MultipartBody) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for field, value := range body.Fields {
		if err := w.WriteField(field, value); err != nil {
			return nil, "", errors.Join(ErrInvalidBody, err)
		}
	}

	for _, f := range body.Files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, "", errors.Join(ErrInvalidBody, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", errors.Join(ErrInvalidBody, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", errors.Join(ErrInvalidBody, err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}
