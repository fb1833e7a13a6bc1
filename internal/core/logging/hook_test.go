package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHook_Run(t *testing.T) {
	tests := []struct {
		name    string
		ctx     func() context.Context
		present []string
		absent  []string
	}{
		{
			name: "book and anchor",
			ctx: func() context.Context {
				return WithAnchorID(WithBookID(context.Background(), "b1"), "n1")
			},
			present: []string{"book_id", "anchor_id"},
		},
		{
			name: "book only",
			ctx: func() context.Context {
				return WithBookID(context.Background(), "b1")
			},
			present: []string{"book_id"},
			absent:  []string{"anchor_id"},
		},
		{
			name:   "no context values",
			ctx:    context.Background,
			absent: []string{"book_id", "anchor_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf).Hook(ContextHook{})
			logger.Info().Ctx(tt.ctx()).Msg("test")

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

			for _, key := range tt.present {
				assert.Contains(t, entry, key)
			}
			for _, key := range tt.absent {
				assert.NotContains(t, entry, key)
			}
		})
	}
}
