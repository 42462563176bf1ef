package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	is := is.New(t)

	before := testutil.ToFloat64(TilesFetched.WithLabelValues("cache"))
	TilesFetched.WithLabelValues("cache").Inc()
	is.Equal(testutil.ToFloat64(TilesFetched.WithLabelValues("cache")), before+1)
}

func TestWriteTextfile(t *testing.T) {
	is := is.New(t)

	SpacesDetected.WithLabelValues("grid").Add(3)
	path := filepath.Join(t.TempDir(), "parking.prom")

	is.NoErr(WriteTextfile(path))

	data, err := os.ReadFile(path)
	is.NoErr(err)
	is.True(strings.Contains(string(data), "parking_pipeline_spaces_total"))
}
