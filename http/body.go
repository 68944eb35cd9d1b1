package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"
)

// Blob is an opaque binary payload. It is what ResponseTypeBlob decodes
// into, and it is sent unchanged when used as a request body.
type Blob struct {
	// Type is the MIME type reported by the server, if any.
	Type string
	// Data is the raw content.
	Data []byte
}

// Size returns the number of bytes in the blob.
func (b Blob) Size() int {
	return len(b.Data)
}

// MultipartForm is the structured-form container required by
// ContentTypeMultipart.
type MultipartForm struct {
	// Fields are simple key-value form fields.
	Fields map[string]string
	// Files are file upload fields.
	Files []FormFile
}

// FormFile is a file part of a MultipartForm.
type FormFile struct {
	// FieldName is the form field name.
	FieldName string
	// FileName is the file name sent to the server.
	FileName string
	// ContentType is the part's MIME type. Empty means application/octet-stream.
	ContentType string
	// Data is the file content.
	Data []byte
}

// NewMultipartForm returns an empty form ready for fields and files.
func NewMultipartForm() *MultipartForm {
	return &MultipartForm{Fields: map[string]string{}}
}

// AddField sets a form field and returns the form for chaining.
func (m *MultipartForm) AddField(name, value string) *MultipartForm {
	if m.Fields == nil {
		m.Fields = map[string]string{}
	}
	m.Fields[name] = value
	return m
}

// AddFile appends a file part and returns the form for chaining.
func (m *MultipartForm) AddFile(fieldName, fileName, contentType string, data []byte) *MultipartForm {
	m.Files = append(m.Files, FormFile{
		FieldName:   fieldName,
		FileName:    fileName,
		ContentType: contentType,
		Data:        data,
	})
	return m
}

// encode writes the form and returns it with its boundary-bearing content type.
func (m *MultipartForm) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, k := range sortedStringKeys(m.Fields) {
		if err := w.WriteField(k, m.Fields[k]); err != nil {
			return nil, "", err
		}
	}

	for _, f := range m.Files {
		var part io.Writer
		var err error

		if f.ContentType != "" {
			header := make(textproto.MIMEHeader)
			header.Set("Content-Disposition",
				`form-data; name="`+escapeQuotes(f.FieldName)+`"; filename="`+escapeQuotes(f.FileName)+`"`)
			header.Set("Content-Type", f.ContentType)
			part, err = w.CreatePart(header)
		} else {
			part, err = w.CreateFormFile(f.FieldName, f.FileName)
		}
		if err != nil {
			return nil, "", err
		}

		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

// EncodeBody converts payload into a wire-ready body for ct.
//
// A nil payload yields a nil reader. Blob and []byte payloads are sent
// unchanged whatever the content type, except that multipart requires a
// MultipartForm. The returned string is a Content-Type value that must
// replace the default for ct; it is only set for multipart bodies, whose
// header carries the boundary.
//
// Urlencoded payloads may be a pre-encoded string, url.Values, a map or a
// struct; structs are flattened through their json tags and then follow
// the same bracket convention as query params. Other values fail with
// ErrInvalidBody.
func EncodeBody(ct ContentType, payload any) (io.Reader, string, error) {
	if payload == nil {
		return nil, "", nil
	}

	if ct == ContentTypeMultipart {
		var form *MultipartForm
		switch p := payload.(type) {
		case *MultipartForm:
			form = p
		case MultipartForm:
			form = &p
		}
		if form == nil {
			return nil, "", errMultipartRequired
		}
		buf, contentType, err := form.encode()
		if err != nil {
			return nil, "", fmt.Errorf("encoding multipart body: %w", err)
		}
		return buf, contentType, nil
	}

	switch p := payload.(type) {
	case Blob:
		return bytes.NewReader(p.Data), "", nil
	case *Blob:
		if p == nil {
			return nil, "", nil
		}
		return bytes.NewReader(p.Data), "", nil
	case []byte:
		return bytes.NewReader(p), "", nil
	}

	switch ct {
	case ContentTypeText:
		return strings.NewReader(fmt.Sprint(payload)), "", nil

	case ContentTypeJSON:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, "", fmt.Errorf("encoding json body: %w", err)
		}
		return bytes.NewReader(data), "", nil

	case ContentTypeURLEncoded:
		switch p := payload.(type) {
		case string:
			return strings.NewReader(p), "", nil
		case url.Values:
			return strings.NewReader(p.Encode()), "", nil
		case map[string]any:
			return strings.NewReader(EncodeQuery(p)), "", nil
		case map[string]string:
			m := make(map[string]any, len(p))
			for k, v := range p {
				m[k] = v
			}
			return strings.NewReader(EncodeQuery(m)), "", nil
		default:
			fields, err := objectFields(payload)
			if err != nil {
				return nil, "", err
			}
			return strings.NewReader(EncodeQuery(fields)), "", nil
		}

	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownContentType, ct)
	}
}

// objectFields turns a struct (or any value that marshals to a JSON object)
// into the map EncodeQuery expects. Field names follow the json tags.
func objectFields(payload any) (map[string]any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding urlencoded body: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: urlencoded body must be a map or struct, got %T", ErrInvalidBody, payload)
	}
	return fields, nil
}

// escapeQuotes backslash-escapes quotes and backslashes in header values.
func escapeQuotes(s string) string {
	var buf bytes.Buffer
	for _, b := range []byte(s) {
		if b == '"' || b == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(b)
	}
	return buf.String()
}
