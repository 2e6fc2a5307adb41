package log

import (
	"bytes"
	"testing"

	"github.com/go-kit/log/level"
	dslog "github.com/grafana/dskit/log"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerFiltersLevel(t *testing.T) {
	var lvl dslog.Level
	require.NoError(t, lvl.Set("info"))

	buf := &bytes.Buffer{}
	logger := NewLogger(buf, "logfmt", lvl)

	level.Debug(logger).Log("msg", "hidden")
	level.Info(logger).Log("msg", "shown", "rows", 3)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "msg=shown")
	require.Contains(t, out, "rows=3")
	require.Contains(t, out, "level=info")
}
