package tracing

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/card-statement-parser/internal/pipeline"
)

func TestNewProvider_ExportsPipelineSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewProvider(&buf, "card-statement-parser-test")
	require.NoError(t, err)

	p := pipeline.New(nil, pipeline.WithTracerProvider(tp))
	p.ParseText(context.Background(), "HSBC Total Amount Due: $99.00", "hsbc.txt")

	require.NoError(t, Shutdown(tp, 5*time.Second))

	out := buf.String()
	assert.Contains(t, out, "pipeline.ParseText")
	assert.Contains(t, out, "pipeline.Extract")
	assert.Contains(t, out, "card-statement-parser-test")
	assert.Contains(t, out, "statement.issuer")
}
