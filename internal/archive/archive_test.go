package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodline/hazard-etl/internal/domain"
	"github.com/floodline/hazard-etl/internal/observability"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &s3.PutObjectOutput{}, nil
}

func testArchiver(putter *fakePutter) *Archiver {
	return &Archiver{
		client:  putter,
		bucket:  "raw-bulletins",
		clock:   clockwork.NewFakeClockAt(time.Date(2015, 7, 23, 3, 0, 0, 0, time.UTC)),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: observability.NewMetricsForTesting(),
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	putter := &fakePutter{}
	a := testArchiver(putter)

	bulletins := []domain.RawBulletin{
		{IngestID: "a", DeclaredLength: 10, Text: "WGUS53 KSGF 230245\nFFWSGF\n"},
		{IngestID: "b", DeclaredLength: 20, Text: "FGUS73 KEAX 231640\nRVFEAX\n"},
	}
	require.NoError(t, a.Archive(context.Background(), bulletins))

	require.Len(t, putter.inputs, 1)
	in := putter.inputs[0]
	assert.Equal(t, "raw-bulletins", *in.Bucket)
	assert.True(t, strings.HasPrefix(*in.Key, "raw/2015/07/23/"))
	assert.True(t, strings.HasSuffix(*in.Key, ".jsonl.gz"))
	assert.Equal(t, "gzip", *in.ContentEncoding)

	// The object decompresses back to one JSON document per line.
	raw, err := io.ReadAll(in.Body)
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	decoded, err := io.ReadAll(zr)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(decoded)), "\n")
	require.Len(t, lines, 2)

	var got domain.RawBulletin
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &got))
	assert.Equal(t, bulletins[1], got)
}

func TestArchiveEmptyBatch(t *testing.T) {
	putter := &fakePutter{}
	a := testArchiver(putter)

	require.NoError(t, a.Archive(context.Background(), nil))
	assert.Empty(t, putter.inputs)
}

func TestArchivePutFailure(t *testing.T) {
	putter := &fakePutter{err: fmt.Errorf("bucket gone")}
	a := testArchiver(putter)

	err := a.Archive(context.Background(), []domain.RawBulletin{{IngestID: "a", Text: "X"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket gone")
}
