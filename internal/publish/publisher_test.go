package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	apperrors "go-restaurant-grid/internal/errors"
	"go-restaurant-grid/internal/observer"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var png = []byte("\x89PNG fake")

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "grids/run-1.png", ObjectKey("grids/", "run-1"))
	assert.Equal(t, "grids/run-1.png", ObjectKey("grids", "run-1"))
	assert.Equal(t, "run-1.png", ObjectKey("", "run-1"))
	assert.Regexp(t, regexp.MustCompile(`^grids/[0-9a-f-]{36}\.png$`), ObjectKey("grids/", ""))
}

func TestFilePublisher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "restaurants_comparison.png")
	p := NewFilePublisher(path)

	loc, err := p.Publish(context.Background(), "ignored", png)
	require.NoError(t, err)
	assert.Equal(t, path, loc)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, png, got)
}

type fakeUploader struct {
	container, blob string
	contentType     string
	err             error
}

func (f *fakeUploader) UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error) {
	f.container, f.blob = containerName, blobName
	if o != nil && o.HTTPHeaders != nil && o.HTTPHeaders.BlobContentType != nil {
		f.contentType = *o.HTTPHeaders.BlobContentType
	}
	return azblob.UploadBufferResponse{}, f.err
}

func TestAzureBlobPublisher(t *testing.T) {
	up := &fakeUploader{}
	p := &AzureBlobPublisher{client: up, serviceURL: "https://acct.blob.core.windows.net/", container: "grids"}

	loc, err := p.Publish(context.Background(), "grids/abc.png", png)
	require.NoError(t, err)
	assert.Equal(t, "https://acct.blob.core.windows.net/grids/grids/abc.png", loc)
	assert.Equal(t, "grids", up.container)
	assert.Equal(t, "grids/abc.png", up.blob)
	assert.Equal(t, ContentType, up.contentType)

	up.err = errors.New("403 AuthenticationFailed")
	_, err = p.Publish(context.Background(), "k.png", png)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNetwork))
}

func TestNewAzureBlobPublisher_BadKey(t *testing.T) {
	_, err := NewAzureBlobPublisher("acct", "not base64!", "grids")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Publisher(t *testing.T) {
	put := &fakePutter{}
	p := &S3Publisher{client: put, bucket: "bucket", region: "us-west-2"}

	loc, err := p.Publish(context.Background(), "grids/abc.png", png)
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3.us-west-2.amazonaws.com/grids/abc.png", loc)
	assert.Equal(t, "bucket", aws.ToString(put.input.Bucket))
	assert.Equal(t, "grids/abc.png", aws.ToString(put.input.Key))
	assert.Equal(t, ContentType, aws.ToString(put.input.ContentType))
	assert.Equal(t, png, put.body)
}

type failingPublisher struct{}

func (failingPublisher) Name() string { return "broken" }
func (failingPublisher) Publish(context.Context, string, []byte) (string, error) {
	return "", apperrors.NewNetworkError("down", nil)
}

type eventLog struct{ events []observer.GridEvent }

func (e *eventLog) OnEvent(_ context.Context, ev observer.GridEvent) { e.events = append(e.events, ev) }
func (e *eventLog) GetObserverName() string                        { return "log" }

func TestMulti_ContinuesAfterFailure(t *testing.T) {
	events := observer.NewEventPublisher()
	log := &eventLog{}
	events.Subscribe(log)

	path := filepath.Join(t.TempDir(), "grid.png")
	m := NewMulti(events, failingPublisher{}, NewFilePublisher(path))
	assert.Equal(t, 2, m.Len())

	results, err := m.Publish(context.Background(), "k.png", png)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNetwork))

	require.Len(t, results, 2)
	assert.Equal(t, "broken", results[0].Sink)
	assert.NotEmpty(t, results[0].Error)
	assert.Equal(t, Result{Sink: "file", Location: path}, results[1])
	assert.FileExists(t, path)

	require.Len(t, log.events, 2)
	assert.False(t, log.events[0].Success)
	assert.True(t, log.events[1].Success)
}
