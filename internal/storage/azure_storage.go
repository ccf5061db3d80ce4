package storage

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	"go-lowlight-vision/internal/imaging"
)

// azureFetcher reads images from Azure blob storage. The blob reference
// format is a container path with a "blob" query parameter.
type azureFetcher struct {
	client  *azblob.Client
	decoder imaging.ImageDecoder
}

// NewAzureFetcher creates a blob-backed image fetcher.
func NewAzureFetcher(accountName, accountKey string, decoder imaging.ImageDecoder) (ImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}
	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return &azureFetcher{client: client, decoder: decoder}, nil
}

func (s *azureFetcher) FetchImage(ctx context.Context, blobURL string) (*imaging.ImageSample, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return nil, fmt.Errorf("invalid blob URL: %w", err)
	}
	if len(parsedURL.Path) < 2 {
		return nil, fmt.Errorf("blob URL missing container: %q", blobURL)
	}
	containerName := parsedURL.Path[1:]
	blobName := parsedURL.Query().Get("blob")
	if blobName == "" {
		return nil, fmt.Errorf("blob URL missing blob parameter: %q", blobURL)
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	retryReader := downloadResponse.Body
	defer retryReader.Close()

	return s.decoder.Decode(retryReader)
}
