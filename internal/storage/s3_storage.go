package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	presignExpiry = 15 * time.Minute
	listingFolder = "listings"
)

var ErrUnsupportedContentType = errors.New("unsupported content type")

// imageTypes maps accepted listing image content types to the extension stored in the key.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PresignedUpload is returned to the client, which PUTs the file to UploadURL and then
// stores FileURL in the listing's images.
type PresignedUpload struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ImageStorage issues upload URLs for listing images.
type ImageStorage interface {
	PresignListingImage(ctx context.Context, userID uint, filename, contentType string) (*PresignedUpload, error)
}

type S3Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3Storage(region, bucket, accessKeyID, secretAccessKey, baseURL string) *S3Storage {
	var cfg aws.Config
	var err error

	// Static credentials when configured, otherwise the default chain (env, ~/.aws, IAM role)
	if accessKeyID != "" && secretAccessKey != "" {
		cfg = aws.Config{
			Region:      region,
			Credentials: credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		}
	} else {
		cfg, err = config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
		if err != nil {
			cfg = aws.Config{Region: region}
		}
	}

	return &S3Storage{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ValidateImageContentType returns the file extension for an accepted image type.
func ValidateImageContentType(contentType string) (string, error) {
	ext, ok := imageTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
	return ext, nil
}

// listingImageKey builds listings/<user>/<uuid><ext>. The client's filename only
// contributes its extension when it agrees with the content type.
func listingImageKey(userID uint, filename, ext string) string {
	if fileExt := strings.ToLower(filepath.Ext(filename)); fileExt == ext || (ext == ".jpg" && fileExt == ".jpeg") {
		ext = fileExt
	}
	return fmt.Sprintf("%s/%d/%s%s", listingFolder, userID, uuid.NewString(), ext)
}

// PresignListingImage signs a PUT for a new listing image object.
func (s *S3Storage) PresignListingImage(ctx context.Context, userID uint, filename, contentType string) (*PresignedUpload, error) {
	ext, err := ValidateImageContentType(contentType)
	if err != nil {
		return nil, err
	}
	key := listingImageKey(userID, filename, ext)

	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PresignedUpload{
		UploadURL: req.URL,
		FileURL:   s.fileURL(key),
		Key:       key,
		ExpiresAt: time.Now().Add(presignExpiry),
	}, nil
}

func (s *S3Storage) fileURL(key string) string {
	if s.baseURL != "" {
		// CloudFront or custom domain
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.client.Options().Region, key)
}
