package httpclient

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONBody(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
		wantErr bool
	}{
		{name: "nil payload", payload: nil, want: ""},
		{name: "map payload", payload: map[string]any{"text": "hi", "count": 2}, want: `{"count":2,"text":"hi"}`},
		{name: "unencodable payload", payload: map[string]any{"c": make(chan int)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewJSONBody(tt.payload)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			// Readers must be independent so the body can be replayed.
			for i := 0; i < 2; i++ {
				r, err := src.NewReader()
				require.NoError(t, err)
				got, _ := io.ReadAll(r)
				r.Close()
				assert.Equal(t, tt.want, string(got), "read %d", i)
			}
			n, ok := src.ContentLength()
			assert.True(t, ok)
			assert.EqualValues(t, len(tt.want), n)
		})
	}
}
