package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockS3Client records PutObject/GetObject calls for testing.
type mockS3Client struct {
	putCalls    []putCall
	objects     map[string][]byte // key -> body
	manifestErr error
}

type putCall struct {
	bucket      string
	key         string
	body        []byte
	contentType string
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.manifestErr != nil && strings.Contains(*input.Key, "manifests/") {
		return nil, m.manifestErr
	}
	body, _ := io.ReadAll(input.Body)
	m.putCalls = append(m.putCalls, putCall{
		bucket:      *input.Bucket,
		key:         *input.Key,
		body:        body,
		contentType: *input.ContentType,
	})
	m.objects[*input.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &notFoundError{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
	}, nil
}

type notFoundError struct{}

func (e *notFoundError) Error() string { return "NoSuchKey: key not found" }

func newTestStore(mock *mockS3Client) *Store {
	store := NewStore(mock, "test-bucket", nil)
	store.now = func() time.Time {
		return time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)
	}
	return store
}

func TestStore_ArchiveCSV(t *testing.T) {
	mock := newMockS3()
	store := newTestStore(mock)

	data := []byte("direction,kind,body,to,note,ts\nout,sms,Hi,+14085550100,,2024-01-05T09:00:00Z\n")
	key, err := store.ArchiveCSV(context.Background(), data)
	require.NoError(t, err)

	// Two PutObject calls: the snapshot and the manifest.
	require.Len(t, mock.putCalls, 2)

	snapshot := mock.putCalls[0]
	assert.Equal(t, "test-bucket", snapshot.bucket)
	assert.Equal(t, key, snapshot.key)
	assert.True(t, strings.HasPrefix(key, "exports/v1/by-date/2024/01/05/"), "key %q", key)
	assert.True(t, strings.HasSuffix(key, ".csv"), "key %q", key)
	assert.Equal(t, data, snapshot.body)
	assert.Equal(t, "text/csv; charset=utf-8", snapshot.contentType)

	manifest := mock.putCalls[1]
	assert.Equal(t, "exports/v1/manifests/2024-01.jsonl", manifest.key)
	assert.Equal(t, "application/x-ndjson", manifest.contentType)

	var entry manifestEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(manifest.body), &entry))
	assert.Equal(t, key, entry.Key)
	assert.Equal(t, "2024-01-05T09:30:00Z", entry.ArchivedAt)
	assert.Equal(t, len(data), entry.SizeBytes)
}

func TestStore_ManifestAccumulates(t *testing.T) {
	mock := newMockS3()
	store := newTestStore(mock)

	first, err := store.ArchiveCSV(context.Background(), []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	second, err := store.ArchiveCSV(context.Background(), []byte("a,b\n3,4\n"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	lastPut := mock.putCalls[len(mock.putCalls)-1]
	require.Equal(t, "exports/v1/manifests/2024-01.jsonl", lastPut.key)

	lines := bytes.Split(bytes.TrimSpace(lastPut.body), []byte("\n"))
	require.Len(t, lines, 2)

	var entries []manifestEntry
	for _, line := range lines {
		var entry manifestEntry
		require.NoError(t, json.Unmarshal(line, &entry))
		entries = append(entries, entry)
	}
	assert.Equal(t, first, entries[0].Key)
	assert.Equal(t, second, entries[1].Key)
}

func TestStore_ManifestFailureKeepsSnapshot(t *testing.T) {
	mock := newMockS3()
	mock.manifestErr = errors.New("access denied")
	store := newTestStore(mock)

	key, err := store.ArchiveCSV(context.Background(), []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	// Only the snapshot put succeeded.
	require.Len(t, mock.putCalls, 1)
	assert.Equal(t, key, mock.putCalls[0].key)
}

func TestStore_Disabled(t *testing.T) {
	assert.False(t, NewStore(nil, "", nil).Enabled())
	assert.False(t, NewStore(newMockS3(), "", nil).Enabled())
	assert.False(t, NewStore(nil, "exports", nil).Enabled())
	assert.True(t, NewStore(newMockS3(), "exports", nil).Enabled())

	store := NewStore(nil, "", nil)
	_, err := store.ArchiveCSV(context.Background(), []byte("a,b\n"))
	assert.Error(t, err)
}
