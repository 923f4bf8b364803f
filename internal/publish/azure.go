package publish

import (
	"context"
	"fmt"
	"strings"

	apperrors "go-restaurant-grid/internal/errors"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

type blobUploader interface {
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// AzureBlobPublisher uploads grids to an Azure Storage container.
type AzureBlobPublisher struct {
	client     blobUploader
	serviceURL string
	container  string
}

// NewAzureBlobPublisher authenticates with a shared account key.
func NewAzureBlobPublisher(accountName, accountKey, container string) (*AzureBlobPublisher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid Azure storage credentials", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create Azure blob client", err)
	}

	return &AzureBlobPublisher{client: client, serviceURL: serviceURL, container: container}, nil
}

func (a *AzureBlobPublisher) Name() string { return "azure_blob" }

func (a *AzureBlobPublisher) Publish(ctx context.Context, key string, data []byte) (string, error) {
	contentType := ContentType
	_, err := a.client.UploadBuffer(ctx, a.container, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return "", apperrors.NewNetworkError("azure blob upload failed", err)
	}
	return strings.TrimRight(a.serviceURL, "/") + "/" + a.container + "/" + key, nil
}
