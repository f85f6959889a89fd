package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/openhaus-dev/openhaus/backend/models"
)

// Listing photos are stored no larger than this box; smaller images are
// uploaded as-is.
const (
	maxWidth  = 1600
	maxHeight = 900
)

// Image is one uploaded file's raw bytes plus the client-supplied MIME type.
type Image struct {
	Data        []byte
	ContentType string
}

type Uploader struct {
	client *s3.Client
	bucket string
	region string
}

func NewUploader(ctx context.Context, region, bucket string) (*Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %v", err)
	}
	return &Uploader{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
		region: region,
	}, nil
}

// UploadAll resizes and stores every image concurrently. The batch succeeds
// or fails as a unit: the first error cancels the remaining uploads and the
// whole call reports failure.
func (u *Uploader) UploadAll(ctx context.Context, files []Image, uploadedBy primitive.ObjectID) ([]models.Photo, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files provided")
	}

	photos := make([]models.Photo, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			resized, format, err := resizeImage(file.Data)
			if err != nil {
				return fmt.Errorf("resizing image %d: %v", i, err)
			}
			photo, err := u.put(ctx, resized, format, file.ContentType, uploadedBy)
			if err != nil {
				return fmt.Errorf("uploading image %d: %v", i, err)
			}
			photos[i] = photo
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return photos, nil
}

func (u *Uploader) put(ctx context.Context, data []byte, format, contentType string, uploadedBy primitive.ObjectID) (models.Photo, error) {
	key := fmt.Sprintf("%s.%s", gonanoid.Must(), keyExtension(format))

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return models.Photo{}, err
	}

	return models.Photo{
		Key:        key,
		Location:   fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key),
		UploadedBy: uploadedBy,
	}, nil
}

func (u *Uploader) Delete(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	return err
}

// resizeImage scales the image down to fit within maxWidth x maxHeight,
// preserving aspect ratio. Images already inside the box are re-encoded at
// their original size, never upscaled.
func resizeImage(data []byte) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxWidth || bounds.Dy() > maxHeight {
		img = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	}

	encFormat, err := imaging.FormatFromExtension(format)
	if err != nil {
		encFormat = imaging.JPEG
		format = "jpeg"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, encFormat); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), format, nil
}

func keyExtension(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}
