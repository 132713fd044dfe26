package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// StoredObject describes an uploaded evidence file as the dispute record keeps it.
type StoredObject struct {
	URL         string
	ContentType string
	Name        string
	Size        int64
}

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
	projectID  string
}

func NewCloudStorageClient(ctx context.Context, bucketName, projectID string, credentialsPath string) (*CloudStorageClient, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
		projectID:  projectID,
	}, nil
}

// UploadEvidence stores one evidence file under the dispute's private folder
// and returns the stored-object descriptor. Evidence is never publicly
// readable; access goes through signed URLs.
func (c *CloudStorageClient) UploadEvidence(ctx context.Context, file io.Reader, contentType, suggestedName, pathHint string) (*StoredObject, error) {
	folder := "private/disputes"
	if pathHint != "" {
		folder = folder + "/" + strings.Trim(pathHint, "/")
	}

	filename := fmt.Sprintf("%s/%s-%s%s", folder, uuid.New().String(), time.Now().Format("20060102150405"), extensionFor(contentType))

	obj := c.client.Bucket(c.bucketName).Object(filename)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType

	written, err := io.Copy(wc, file)
	if err != nil {
		return nil, fmt.Errorf("failed to copy file to GCS: %v", err)
	}

	if err := wc.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %v", err)
	}

	name := suggestedName
	if name == "" {
		name = filename[strings.LastIndex(filename, "/")+1:]
	}

	return &StoredObject{
		URL:         fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, filename),
		ContentType: contentType,
		Name:        name,
		Size:        written,
	}, nil
}

// GenerateSignedDownloadURL grants short-lived read access to a stored
// evidence object. Expected URL format: https://storage.googleapis.com/bucket/path
func (c *CloudStorageClient) GenerateSignedDownloadURL(fileURL string) (string, error) {
	const prefix = "https://storage.googleapis.com/"
	if !strings.HasPrefix(fileURL, prefix) {
		return "", fmt.Errorf("invalid GCS URL format")
	}

	path := fileURL[len(prefix):]
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] != c.bucketName {
		return "", fmt.Errorf("invalid GCS URL format or bucket mismatch")
	}

	opts := &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(15 * time.Minute),
	}

	url, err := storage.SignedURL(c.bucketName, parts[1], opts)
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %v", err)
	}

	return url, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "application/pdf":
		return ".pdf"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
