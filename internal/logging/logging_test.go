package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	is := is.New(t)

	is.Equal(ParseLevel("debug"), zerolog.DebugLevel)
	is.Equal(ParseLevel("WARN"), zerolog.WarnLevel)
	is.Equal(ParseLevel("warning"), zerolog.WarnLevel)
	is.Equal(ParseLevel("error"), zerolog.ErrorLevel)
	is.Equal(ParseLevel(""), zerolog.InfoLevel)
	is.Equal(ParseLevel("verbose"), zerolog.InfoLevel)
}

func TestNewWithWriterAddsServiceFields(t *testing.T) {
	is := is.New(t)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "parking-batch", "1.2.3", "info", "json")
	log.Info().Msg("hello")

	var entry map[string]any
	is.NoErr(json.Unmarshal(buf.Bytes(), &entry))
	is.Equal(entry["service"], "parking-batch")
	is.Equal(entry["version"], "1.2.3")
	is.Equal(entry["message"], "hello")
}

func TestNewWithWriterFiltersLevel(t *testing.T) {
	is := is.New(t)

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "svc", "dev", "warn", "json")
	log.Info().Msg("dropped")
	is.Equal(buf.Len(), 0)

	log.Warn().Msg("kept")
	is.True(buf.Len() > 0)
}
