package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory bucket that serves single-part uploads.
type fakeS3 struct {
	mu         sync.Mutex
	objects    map[string][]byte
	buckets    map[string]bool
	getErr     error
	createErr  error
	contentTyp map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, buckets: map[string]bool{}, contentTyp: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.contentTyp[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("not found")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.buckets[aws.ToString(in.Bucket)] {
		return nil, &smithy.GenericAPIError{Code: "NotFound"}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[aws.ToString(in.Bucket)] = true
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func TestS3KVStoreGetPut(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := NewS3KVStore(fake, "members", "roster/dev")

	_, ok, err := store.Get(ctx, DefaultFieldsKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, DefaultFieldsKey, []byte(`[]`)))
	assert.Equal(t, []byte(`[]`), fake.objects["members/roster/dev/member-table-fields.json"])
	assert.Equal(t, "application/json", fake.contentTyp["members/roster/dev/member-table-fields.json"])

	got, ok, err := store.Get(ctx, DefaultFieldsKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(got))
}

func TestS3KVStoreObjectKey(t *testing.T) {
	assert.Equal(t, "k.json", NewS3KVStore(newFakeS3(), "b", "").objectKey("k"))
	assert.Equal(t, "p/k.json", NewS3KVStore(newFakeS3(), "b", "p/").objectKey("k"))
}

func TestS3KVStoreNotFoundCodes(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := NewS3KVStore(fake, "b", "")

	fake.getErr = &smithy.GenericAPIError{Code: "NotFound"}
	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	fake.getErr = &smithy.GenericAPIError{Code: "AccessDenied"}
	_, _, err = store.Get(ctx, "k")
	require.Error(t, err)
	var apiErr smithy.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestS3KVStoreEnsureBucket(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	store := NewS3KVStore(fake, "members", "")

	require.NoError(t, store.EnsureBucket(ctx))
	assert.True(t, fake.buckets["members"])
	require.NoError(t, store.EnsureBucket(ctx))

	other := newFakeS3()
	other.createErr = &smithy.GenericAPIError{Code: "BucketAlreadyOwnedByYou"}
	assert.NoError(t, NewS3KVStore(other, "members", "").EnsureBucket(ctx))

	other.createErr = &smithy.GenericAPIError{Code: "AccessDenied"}
	assert.Error(t, NewS3KVStore(other, "members", "").EnsureBucket(ctx))
}

func TestS3KVStoreBacksKVAdapter(t *testing.T) {
	ctx := context.Background()
	adapter := NewKVAdapter(NewS3KVStore(newFakeS3(), "members", "roster"))

	require.True(t, adapter.SaveFields(ctx, nameOnlySchema()))
	fields, err := adapter.GetFields(ctx)
	require.NoError(t, err)
	assert.Equal(t, nameOnlySchema(), fields)
}
