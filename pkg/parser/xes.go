package parser

import (
	"bufio"
	"bytes"
	"context"
	"html"
	"io"
	"time"

	"github.com/logflow/tracegen/internal/model"
	tgerrors "github.com/logflow/tracegen/pkg/errors"
)

// XES attribute key constants
const (
	xesConceptName = "concept:name"
	xesTimeStamp   = "time:timestamp"
	xesOrgResource = "org:resource"
)

// XML element names
var (
	xmlLog       = []byte("log")
	xmlTrace     = []byte("trace")
	xmlEvent     = []byte("event")
	xmlGlobal    = []byte("global")
	xmlString    = []byte("string")
	xmlDate      = []byte("date")
	xmlInt       = []byte("int")
	xmlFloat     = []byte("float")
	xmlBool      = []byte("boolean")
	xmlID        = []byte("id")
	xmlList      = []byte("list")
	xmlContainer = []byte("container")
	xmlValues    = []byte("values")
)

var (
	attrKey   = []byte("key=")
	attrValue = []byte("value=")
)

// XES parser states
type xesState uint8

const (
	stateInit xesState = iota
	stateLog
	stateTrace
	stateEvent
)

// XESParser reads XES logs using a streaming tag-level state machine.
// Only the attributes tracegen needs are interpreted; nested list and
// container attributes are skipped.
type XESParser struct {
	cfg Config
}

// NewXESParser creates a new XES parser.
func NewXESParser(cfg Config) *XESParser {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &XESParser{cfg: cfg}
}

// Parse implements the Parser interface.
func (p *XESParser) Parse(ctx context.Context, r io.Reader) (*model.Log, error) {
	reader := bufio.NewReaderSize(r, p.cfg.BufferSize)
	log := &model.Log{}

	state := stateInit
	var (
		currentTrace *model.Trace
		currentEvent *model.Event
		hasTimestamp bool
		inGlobal     bool
		depth        int // nesting inside non-empty attribute elements
	)

	finishEvent := func() error {
		if currentEvent == nil {
			return nil
		}
		if currentTrace == nil {
			return tgerrors.Wrap(ErrInvalidXES, tgerrors.CodeInvalidFormat, "event outside of trace")
		}
		if !hasTimestamp {
			return tgerrors.Wrap(ErrMissingTimestamp, tgerrors.CodeInvalidTimestamp, "event without timestamp").
				WithContext("trace", currentTrace.CaseID).
				WithContext("event", currentTrace.Len())
		}
		currentTrace.Append(currentEvent)
		currentEvent = nil
		return nil
	}

	for {
		tag, err := readTag(reader)
		if err != nil && err != io.EOF {
			return nil, tgerrors.Wrap(err, tgerrors.CodeParseFailed, "failed to read XES input").
				WithContext("traces", log.Len())
		}
		if len(tag) == 0 && err == io.EOF {
			break
		}
		if len(tag) < 3 || tag[1] == '?' || tag[1] == '!' {
			if err == io.EOF {
				break
			}
			continue
		}

		closing := tag[1] == '/'
		selfClosing := bytes.HasSuffix(tag, []byte("/>"))
		name := tagName(tag)

		switch {
		case bytes.Equal(name, xmlLog):
			if !closing {
				state = stateLog
			}

		case bytes.Equal(name, xmlGlobal):
			inGlobal = !closing && !selfClosing

		case bytes.Equal(name, xmlTrace):
			if !closing {
				currentTrace = model.NewTrace("")
				state = stateTrace
				depth = 0
			}
			if closing || selfClosing {
				if currentTrace != nil {
					log.Append(currentTrace)
					currentTrace = nil
				}
				state = stateLog
				if ctx.Err() != nil {
					return nil, tgerrors.Wrap(ErrContextCanceled, tgerrors.CodeContextCanceled, "parse canceled").
						WithContext("traces", log.Len())
				}
			}

		case bytes.Equal(name, xmlEvent):
			if !closing {
				currentEvent = &model.Event{}
				hasTimestamp = false
				state = stateEvent
				depth = 0
			}
			if closing || selfClosing {
				if err := finishEvent(); err != nil {
					return nil, err
				}
				state = stateTrace
			}

		case isAttributeElement(name):
			if closing {
				if depth > 0 {
					depth--
				}
				break
			}
			if depth == 0 && !inGlobal {
				switch state {
				case stateTrace:
					key, value := extractAttribute(tag)
					if key == xesConceptName && currentTrace != nil {
						currentTrace.CaseID = value
					}
				case stateEvent:
					ok, err := p.processEventAttribute(tag, name, currentEvent)
					if err != nil {
						return nil, tgerrors.Wrap(err, tgerrors.CodeInvalidTimestamp, "bad event timestamp").
							WithContext("trace", traceID(currentTrace)).
							WithContext("value", string(extractAttrValue(tag, attrValue)))
					}
					hasTimestamp = hasTimestamp || ok
				}
			}
			if !selfClosing {
				depth++
			}
		}

		if err == io.EOF {
			break
		}
	}

	if state == stateInit {
		return nil, tgerrors.Wrap(ErrInvalidXES, tgerrors.CodeInvalidFormat, "no log element")
	}
	if currentTrace != nil || currentEvent != nil {
		return nil, tgerrors.Wrap(ErrInvalidXES, tgerrors.CodeInvalidFormat, "unexpected end of input").
			WithContext("trace", traceID(currentTrace))
	}

	return log, nil
}

// readTag reads up to and including the next '>' that is not inside a quoted
// attribute value, and returns the tag starting at its '<'.
func readTag(r *bufio.Reader) ([]byte, error) {
	chunk, err := r.ReadBytes('>')
	for err == nil && unbalanced(chunk) {
		var more []byte
		more, err = r.ReadBytes('>')
		chunk = append(chunk, more...)
	}

	idx := bytes.IndexByte(chunk, '<')
	if idx < 0 {
		return nil, err
	}
	return bytes.TrimSpace(chunk[idx:]), err
}

// unbalanced reports whether chunk ends inside a single or double quoted
// attribute value. Comments and declarations are never quoted.
func unbalanced(chunk []byte) bool {
	idx := bytes.IndexByte(chunk, '<')
	if idx < 0 || bytes.HasPrefix(chunk[idx:], []byte("<!")) {
		return false
	}
	var quote byte
	for _, c := range chunk[idx:] {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		}
	}
	return quote != 0
}

// tagName returns the element name of a tag like <name ...>, </name> or <name/>.
func tagName(tag []byte) []byte {
	start := 1
	if tag[start] == '/' {
		start++
	}
	end := start
	for end < len(tag) {
		c := tag[end]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '/' || c == '>' {
			break
		}
		end++
	}
	return tag[start:end]
}

// isAttributeElement reports whether name is an XES attribute element.
func isAttributeElement(name []byte) bool {
	return bytes.Equal(name, xmlString) ||
		bytes.Equal(name, xmlDate) ||
		bytes.Equal(name, xmlInt) ||
		bytes.Equal(name, xmlFloat) ||
		bytes.Equal(name, xmlBool) ||
		bytes.Equal(name, xmlID) ||
		bytes.Equal(name, xmlList) ||
		bytes.Equal(name, xmlContainer) ||
		bytes.Equal(name, xmlValues)
}

// extractAttribute extracts the unescaped key and value from an XES attribute element.
func extractAttribute(tag []byte) (key, value string) {
	return html.UnescapeString(string(extractAttrValue(tag, attrKey))),
		html.UnescapeString(string(extractAttrValue(tag, attrValue)))
}

// extractAttrValue extracts an XML attribute value delimited by single or
// double quotes. The prefix must follow whitespace so key= never matches the
// tail of another attribute name.
func extractAttrValue(tag, prefix []byte) []byte {
	offset := 0
	for {
		idx := bytes.Index(tag[offset:], prefix)
		if idx < 0 {
			return nil
		}
		idx += offset
		if idx > 0 && isSpace(tag[idx-1]) {
			start := idx + len(prefix)
			if start >= len(tag) || (tag[start] != '"' && tag[start] != '\'') {
				return nil
			}
			quote := tag[start]
			start++
			end := bytes.IndexByte(tag[start:], quote)
			if end < 0 {
				return nil
			}
			return tag[start : start+end]
		}
		offset = idx + len(prefix)
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// processEventAttribute applies an attribute element to the event. It reports
// whether the attribute was the event timestamp.
func (p *XESParser) processEventAttribute(tag, name []byte, event *model.Event) (bool, error) {
	if event == nil || bytes.Equal(name, xmlList) || bytes.Equal(name, xmlContainer) || bytes.Equal(name, xmlValues) {
		return false, nil
	}

	key, value := extractAttribute(tag)
	if key == "" {
		return false, nil
	}

	switch key {
	case xesConceptName:
		event.Activity = value

	case xesTimeStamp:
		ts, err := p.parseXESTimestamp(value)
		if err != nil {
			return false, err
		}
		event.Timestamp = ts
		return true, nil

	case xesOrgResource:
		event.Resource = value

	default:
		event.Attributes = append(event.Attributes, model.Attribute{
			Key:   key,
			Value: value,
			Type:  detectAttributeType(name),
		})
	}
	return false, nil
}

// detectAttributeType determines the attribute type from the XML element name.
func detectAttributeType(name []byte) model.AttrType {
	switch {
	case bytes.Equal(name, xmlDate):
		return model.AttrTypeTimestamp
	case bytes.Equal(name, xmlInt):
		return model.AttrTypeInt
	case bytes.Equal(name, xmlFloat):
		return model.AttrTypeFloat
	case bytes.Equal(name, xmlBool):
		return model.AttrTypeBool
	default:
		return model.AttrTypeString
	}
}

// XES timestamp layouts. Fractional seconds are accepted by time.Parse
// after the seconds field even when the layout omits them.
var xesTimestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseXESTimestamp parses an XES timestamp. Values without a zone offset
// are read in the configured location.
func (p *XESParser) parseXESTimestamp(value string) (time.Time, error) {
	for _, format := range xesTimestampFormats {
		if t, err := time.ParseInLocation(format, value, p.cfg.Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}

func traceID(t *model.Trace) string {
	if t == nil {
		return ""
	}
	return t.CaseID
}
