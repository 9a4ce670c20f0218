package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

type BodySource interface {
	NewReader() (io.ReadCloser, error)
	ContentLength() (int64, bool)
}

// NewJSONBody encodes payload once so retries replay identical bytes. A nil
// payload yields an empty body.
func NewJSONBody(payload any) (BodySource, error) {
	if payload == nil {
		return emptyBodySource{}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return &inlineBodySource{data: data}, nil
}

type inlineBodySource struct {
	data []byte
}

func (s *inlineBodySource) NewReader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *inlineBodySource) ContentLength() (int64, bool) {
	return int64(len(s.data)), true
}

type emptyBodySource struct{}

func (emptyBodySource) NewReader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (emptyBodySource) ContentLength() (int64, bool) {
	return 0, true
}
