package s3

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/scalareval/blobstore"
	"github.com/hupe1980/scalareval/internal/hash"
	"github.com/hupe1980/scalareval/scalarset"
)

func newTestStore(client Client, prefix string) *Store {
	return NewStore(client, "test-bucket", prefix, DefaultUploadConfig())
}

func TestStore_Open(t *testing.T) {
	mockClient := new(MockClient)
	store := newTestStore(mockClient, "prefix")

	t.Run("NotFound", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Bucket == "test-bucket" && *input.Key == "prefix/missing.bin"
		})).Return(nil, &types.NotFound{}).Once()

		_, err := store.Open(t.Context(), "missing.bin")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Key == "prefix/i32_10_sets_with_10_values.bin"
		})).Return(&s3.HeadObjectOutput{ContentLength: aws.Int64(560)}, nil).Once()

		blob, err := store.Open(t.Context(), "i32_10_sets_with_10_values.bin")
		require.NoError(t, err)
		assert.Equal(t, int64(560), blob.Size())
	})

	mockClient.AssertExpectations(t)
}

func TestStore_Delete(t *testing.T) {
	mockClient := new(MockClient)
	store := newTestStore(mockClient, "prefix")

	mockClient.On("DeleteObject", mock.Anything, mock.MatchedBy(func(input *s3.DeleteObjectInput) bool {
		return *input.Bucket == "test-bucket" && *input.Key == "prefix/del"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()
	mockClient.On("DeleteObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{}).Once()

	assert.NoError(t, store.Delete(t.Context(), "del"))
	assert.NoError(t, store.Delete(t.Context(), "gone"))
	mockClient.AssertExpectations(t)
}

func TestStore_List_Pagination(t *testing.T) {
	mockClient := new(MockClient)
	store := newTestStore(mockClient, "prefix/")

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken == nil && *input.Prefix == "prefix/f32"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
		Contents:              []types.Object{{Key: aws.String("prefix/f32_b.bin")}},
	}, nil).Once()

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken != nil && *input.ContinuationToken == "token"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents:    []types.Object{{Key: aws.String("prefix/f32_a.bin")}},
	}, nil).Once()

	keys, err := store.List(t.Context(), "f32")
	require.NoError(t, err)
	assert.Equal(t, []string{"f32_a.bin", "f32_b.bin"}, keys)
	mockClient.AssertExpectations(t)
}

func TestBlob_ReadAt(t *testing.T) {
	mockClient := new(MockClient)
	b := &blob{client: mockClient, bucket: "b", key: "k", size: 10}

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Range == "bytes=0-4"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("hello"))}, nil).Once()

	buf := make([]byte, 5)
	n, err := b.ReadAt(t.Context(), buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Range == "bytes=8-9"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("ld"))}, nil).Once()

	n, err = b.ReadAt(t.Context(), buf, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
	assert.Equal(t, "ld", string(buf[:n]))

	_, err = b.ReadAt(t.Context(), buf, 10)
	assert.ErrorIs(t, err, io.EOF)
	mockClient.AssertExpectations(t)
}

func TestBlob_ReadAt_RecordBoundary(t *testing.T) {
	var first, second bytes.Buffer
	require.NoError(t, scalarset.New([]int32{1, 2, 3}).Serialize(&first))
	require.NoError(t, scalarset.New([]int32{40, 50}).Serialize(&second))
	corpus := append(first.Bytes(), second.Bytes()...)

	mockClient := new(MockClient)
	b := &blob{client: mockClient, bucket: "b", key: "i32_2_sets.bin", size: int64(len(corpus))}

	off := first.Len()
	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Range == fmt.Sprintf("bytes=%d-%d", off, len(corpus)-1)
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(corpus[off:]))}, nil).Once()

	buf := make([]byte, second.Len())
	n, err := b.ReadAt(t.Context(), buf, int64(off))
	require.NoError(t, err)
	require.Equal(t, second.Len(), n)

	cells := make([]int32, n/scalarset.CellSize)
	require.NoError(t, binary.Read(bytes.NewReader(buf), binary.LittleEndian, cells))

	set, rest, err := scalarset.Attach(cells)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, 2, set.Size())
	assert.True(t, set.Contains(40))
	assert.True(t, set.Contains(50))
	assert.False(t, set.Contains(1))
	mockClient.AssertExpectations(t)
}

func TestBlob_ReadRange(t *testing.T) {
	mockClient := new(MockClient)
	b := &blob{client: mockClient, bucket: "b", key: "k", size: 10}

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Range == "bytes=2-9"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("llo Worl"))}, nil).Once()

	r, err := b.ReadRange(t.Context(), 2, 100)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "llo Worl", string(got))
	mockClient.AssertExpectations(t)
}

func TestStore_Put(t *testing.T) {
	mockClient := new(MockClient)
	store := newTestStore(mockClient, "prefix")
	data := []byte("corpus bytes")

	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Key == "prefix/put.bin" &&
			*input.ContentLength == int64(len(data)) &&
			*input.ChecksumCRC32C == hash.ChecksumHeader(data)
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, store.Put(t.Context(), "put.bin", data))
	mockClient.AssertExpectations(t)
}

func TestStore_Create(t *testing.T) {
	mockClient := new(MockClient)
	store := newTestStore(mockClient, "prefix")

	var uploaded []byte
	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Bucket == "test-bucket" && *input.Key == "prefix/new.bin"
	})).Run(func(args mock.Arguments) {
		input := args.Get(1).(*s3.PutObjectInput)
		uploaded, _ = io.ReadAll(input.Body)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	wb, err := store.Create(t.Context(), "new.bin")
	require.NoError(t, err)

	_, err = wb.Write([]byte("content"))
	require.NoError(t, err)
	require.NoError(t, wb.Sync())
	require.NoError(t, wb.Close())

	assert.Equal(t, "content", string(uploaded))
	mockClient.AssertExpectations(t)
}

func TestStore_CreateAbort(t *testing.T) {
	mockClient := new(MockClient)
	store := newTestStore(mockClient, "prefix")

	wb, err := store.Create(t.Context(), "aborted.bin")
	require.NoError(t, err)

	_, err = wb.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, blobstore.Abort(wb))

	_, err = wb.Write([]byte("more"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	mockClient.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}
