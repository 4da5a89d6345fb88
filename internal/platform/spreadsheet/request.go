package spreadsheet

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Sources reported for uploads without a file name.
const (
	SourcePaste    = "paste"
	SourceWorkbook = "upload.xlsx"
)

// FormField is the multipart field an upload is read from.
const FormField = "file"

// ReadRequest returns the document text carried by r and a label for where
// it came from. Three shapes are accepted: a multipart upload in FormField, a
// raw workbook body, or plain text.
func ReadRequest(r *http.Request) (text, source string, err error) {
	ct := r.Header.Get("Content-Type")

	if strings.HasPrefix(strings.ToLower(ct), "multipart/form-data") {
		f, fh, err := r.FormFile(FormField)
		if err != nil {
			return "", "", fmt.Errorf("spreadsheet: read upload: %w", err)
		}
		defer f.Close()
		if IsWorkbook(fh.Filename, fh.Header.Get("Content-Type")) {
			text, err := Text(f)
			return text, fh.Filename, err
		}
		b, err := io.ReadAll(f)
		if err != nil {
			return "", "", fmt.Errorf("spreadsheet: read upload: %w", err)
		}
		return string(b), fh.Filename, nil
	}

	if IsWorkbook("", ct) {
		text, err := Text(r.Body)
		return text, SourceWorkbook, err
	}

	b, err := io.ReadAll(r.Body)
	if err != nil {
		return "", "", fmt.Errorf("spreadsheet: read body: %w", err)
	}
	return string(b), SourcePaste, nil
}
