package util

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// MaxImageBytes caps decoded uploads.
const MaxImageBytes = 10 << 20

var ErrImageTooLarge = errors.New("image exceeds 10 MiB")

// DecodeImage accepts raw base64 or a data: URL and returns the bytes plus
// the MIME declared in the URL prefix, if any.
func DecodeImage(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var declared string
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if found {
			declared, _, _ = strings.Cut(meta, ";")
			s = payload
		}
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		var urlErr error
		if b, urlErr = base64.URLEncoding.DecodeString(s); urlErr != nil {
			return nil, "", err
		}
	}
	if len(b) > MaxImageBytes {
		return nil, "", ErrImageTooLarge
	}
	return b, strings.TrimSpace(declared), nil
}

// PickMIME prefers the explicit type, then the data: URL hint, then sniffs.
func PickMIME(explicit, hint string, data []byte) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	if v := strings.TrimSpace(hint); v != "" {
		return v
	}
	if len(data) > 0 {
		m, _, _ := strings.Cut(http.DetectContentType(data), ";")
		return m
	}
	return "image/jpeg"
}

func MakeDataURL(mime, b64 string) string {
	return "data:" + mime + ";base64," + b64
}

// IsImage reports whether mime is an image type the engines accept.
func IsImage(mime string) bool {
	switch strings.ToLower(mime) {
	case "image/png", "image/jpeg", "image/jpg", "image/gif", "image/webp":
		return true
	}
	return false
}
