package storage

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := LocalStore{}
	path := filepath.Join(dir, "job_0", "12345", "records.jsonl.out")

	require.NoError(t, store.Write(context.Background(), path, []byte("hello\n")))

	data, err := store.Read(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, []byte("hello\n"), data)
}

func TestLocalStoreReadMissing(t *testing.T) {
	store := LocalStore{}
	_, err := store.Read(context.Background(), filepath.Join(t.TempDir(), "absent.jsonl"))
	require.Error(t, err)
}

func TestSplitS3Path(t *testing.T) {
	bucket, key, err := SplitS3Path("s3://my-bucket/input/path/records.jsonl")
	require.NoError(t, err)
	require.Equal(t, "my-bucket", bucket)
	require.Equal(t, "input/path/records.jsonl", key)

	_, _, err = SplitS3Path("/local/path/records.jsonl")
	require.Error(t, err)

	_, _, err = SplitS3Path("s3://bucket-only")
	require.Error(t, err)
}

type stubS3API struct {
	objects map[string][]byte
}

func (s *stubS3API) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := s.objects[*params.Bucket+"/"+*params.Key]
	if !ok {
		return nil, io.EOF
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (s *stubS3API) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[*params.Bucket+"/"+*params.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	api := &stubS3API{}
	store := &S3Store{API: api}

	require.NoError(t, store.Write(context.Background(), "s3://bucket/out/records.jsonl.out", []byte("line\n")))

	data, err := store.Read(context.Background(), "s3://bucket/out/records.jsonl.out")
	require.NoError(t, err)
	require.Equal(t, []byte("line\n"), data)
}

func TestRouterPicksBackendByScheme(t *testing.T) {
	dir := t.TempDir()
	api := &stubS3API{objects: map[string][]byte{"bucket/in.jsonl": []byte("remote")}}
	router := &Router{S3: &S3Store{API: api}, Local: LocalStore{}}

	localPath := filepath.Join(dir, "in.jsonl")
	require.NoError(t, router.Write(context.Background(), localPath, []byte("local")))

	data, err := router.Read(context.Background(), localPath)
	require.NoError(t, err)
	require.Equal(t, []byte("local"), data)

	data, err = router.Read(context.Background(), "s3://bucket/in.jsonl")
	require.NoError(t, err)
	require.Equal(t, []byte("remote"), data)
}
