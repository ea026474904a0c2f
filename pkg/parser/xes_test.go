package parser

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tgerrors "github.com/logflow/tracegen/pkg/errors"
	"github.com/logflow/tracegen/pkg/testing/generators"
)

const sampleXES = `<?xml version="1.0" encoding="UTF-8" ?>
<!-- exported by a process mining tool -->
<log xes.version="1.0">
  <extension name="Time" prefix="time" uri="http://www.xes-standard.org/time.xesext"/>
  <global scope="trace">
    <string key="concept:name" value="__INVALID__"/>
  </global>
  <global scope="event">
    <string key="concept:name" value="__INVALID__"/>
    <date key="time:timestamp" value="1970-01-01T00:00:00.000+00:00"/>
  </global>
  <string key="concept:name" value="hospital log"/>
  <trace>
    <string key="concept:name" value="173688"/>
    <event>
      <string key="concept:name" value="ER Registration"/>
      <string key="org:resource" value="A"/>
      <date key="time:timestamp" value="2014-10-22T11:15:41.000+02:00"/>
      <int key="Age" value="85"/>
    </event>
    <event>
      <string key="concept:name" value="Leucocytes &amp; CRP"/>
      <date key="time:timestamp" value="2014-10-22T11:27:00.000+02:00"/>
      <list key="Diagnose">
        <values>
          <string key="concept:name" value="nested"/>
        </values>
      </list>
    </event>
  </trace>
  <trace>
    <string key="concept:name" value="173691"/>
    <event>
      <string key="concept:name" value="a > b"/>
      <date key="time:timestamp" value="2014-10-23T09:00:00"/>
    </event>
  </trace>
  <trace/>
</log>
`

func TestXESParser_Sample(t *testing.T) {
	p := NewXESParser(DefaultConfig())
	log, err := p.Parse(context.Background(), strings.NewReader(sampleXES))
	require.NoError(t, err)
	require.Equal(t, 3, log.Len())

	first := log.Traces[0]
	assert.Equal(t, "173688", first.CaseID)
	assert.Equal(t, []string{"ER Registration", "Leucocytes & CRP"}, first.Activities())
	assert.Equal(t, "A", first.Events[0].Resource)
	require.Len(t, first.Events[0].Attributes, 1)
	assert.Equal(t, "Age", first.Events[0].Attributes[0].Key)
	assert.Empty(t, first.Events[1].Attributes, "nested list attributes are skipped")

	want := time.Date(2014, 10, 22, 9, 15, 41, 0, time.UTC)
	assert.True(t, first.Events[0].Timestamp.Equal(want), "got %v", first.Events[0].Timestamp)

	second := log.Traces[1]
	assert.Equal(t, "173691", second.CaseID)
	assert.Equal(t, []string{"a > b"}, second.Activities())
	assert.Equal(t, time.Date(2014, 10, 23, 9, 0, 0, 0, time.UTC), second.Events[0].Timestamp)

	assert.Equal(t, 0, log.Traces[2].Len())
	assert.Equal(t, 3, log.EventCount())
}

func TestXESParser_ZonelessLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	cfg := DefaultConfig()
	cfg.Location = loc

	log, err := NewXESParser(cfg).Parse(context.Background(), strings.NewReader(sampleXES))
	require.NoError(t, err)
	got := log.Traces[1].Events[0].Timestamp
	assert.True(t, got.Equal(time.Date(2014, 10, 23, 8, 0, 0, 0, time.UTC)), "got %v", got)
}

func TestXESParser_SingleQuotedAttributes(t *testing.T) {
	input := `<?xml version='1.0' encoding='UTF-8'?>
<!-- isn't quoted -->
<log xes.version='1.0'>
  <trace>
    <string key='concept:name' value='c-1'/>
    <event>
      <string key='concept:name' value='Say "hi" > leave'/>
      <string key="org:resource" value="O'Brien"/>
      <date key='time:timestamp' value='2023-05-01T10:00:00Z'/>
    </event>
  </trace>
</log>`

	log, err := NewXESParser(DefaultConfig()).Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 1, log.Len())

	tr := log.Traces[0]
	assert.Equal(t, "c-1", tr.CaseID)
	require.Equal(t, 1, tr.Len())
	assert.Equal(t, `Say "hi" > leave`, tr.Events[0].Activity)
	assert.Equal(t, "O'Brien", tr.Events[0].Resource)
	assert.Equal(t, time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC), tr.Events[0].Timestamp)
}

func TestXESParser_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sentinel error
		code     tgerrors.Code
	}{
		{
			name:     "no log element",
			input:    "<?xml version=\"1.0\"?>",
			sentinel: ErrInvalidXES,
			code:     tgerrors.CodeInvalidFormat,
		},
		{
			name:     "missing timestamp",
			input:    `<log><trace><event><string key="concept:name" value="A"/></event></trace></log>`,
			sentinel: ErrMissingTimestamp,
			code:     tgerrors.CodeInvalidTimestamp,
		},
		{
			name:     "bad timestamp",
			input:    `<log><trace><event><date key="time:timestamp" value="yesterday"/></event></trace></log>`,
			sentinel: ErrInvalidTimestamp,
			code:     tgerrors.CodeInvalidTimestamp,
		},
		{
			name:     "truncated",
			input:    `<log><trace><string key="concept:name" value="1"/>`,
			sentinel: ErrInvalidXES,
			code:     tgerrors.CodeInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewXESParser(DefaultConfig()).Parse(context.Background(), strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.Equal(t, tt.code, tgerrors.GetCode(err))
		})
	}
}

func TestXESParser_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewXESParser(DefaultConfig()).Parse(ctx, strings.NewReader(sampleXES))
	assert.ErrorIs(t, err, ErrContextCanceled)
}

func TestXESParser_Generated(t *testing.T) {
	var buf bytes.Buffer
	gen := generators.NewXESGenerator(7)
	require.NoError(t, gen.Generate(&buf, 50))

	log, err := NewXESParser(DefaultConfig()).Parse(context.Background(), &buf)
	require.NoError(t, err)
	require.Equal(t, 50, log.Len())

	for i, tr := range log.Traces {
		assert.NotZero(t, tr.Len(), "trace %d", i)
		for j := 1; j < tr.Len(); j++ {
			assert.False(t, tr.Events[j].Timestamp.Before(tr.Events[j-1].Timestamp))
		}
	}
	min, _, ok := log.Bounds()
	require.True(t, ok)
	assert.Equal(t, gen.Start, min)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatXES, DetectFormat("log.xes"))
	assert.Equal(t, FormatXES, DetectFormat("dir/log.XES.gz"))
	assert.Equal(t, FormatUnknown, DetectFormat("log.csv"))
	assert.Equal(t, FormatXES, ParseFormat("xes"))
	assert.Equal(t, "xes", FormatXES.String())

	_, err := NewParser(FormatUnknown, DefaultConfig())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
