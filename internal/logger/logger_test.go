// File: internal/logger/logger_test.go
package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		debug   bool
		debugOn bool
		warnOn  bool
	}{
		{name: "default level hides debug", debug: false, debugOn: false, warnOn: true},
		{name: "debug flag enables debug", debug: true, debugOn: true, warnOn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.debug)
			require.NoError(t, err)
			require.NotNil(t, l)

			assert.Equal(t, tt.debugOn, l.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.warnOn, l.Core().Enabled(zapcore.WarnLevel))
		})
	}
}
