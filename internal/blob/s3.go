package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"swipecam/internal/config"
	"swipecam/internal/photo"
)

// s3RequestTimeout bounds every S3 call. Lifecycle operations cannot be
// cancelled, so the store is where slow requests get cut off.
const s3RequestTimeout = 60 * time.Second

// S3API is the subset of *s3.Client used by S3BlobStore.
type S3API interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3BlobStore keeps one object per photo under <prefix>/<id>.jpg.
// Refs are the object names without the prefix.
type S3BlobStore struct {
	client   S3API
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3BlobStore builds an S3 client from cfg. Static credentials are used
// when configured; otherwise the default AWS credential chain applies.
func NewS3BlobStore(cfg config.BlobStoreConfig) (*S3BlobStore, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 blob store requires s3_bucket to be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), s3RequestTimeout)
	defer cancel()

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3PathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})

	return NewS3BlobStoreWithClient(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

// NewS3BlobStoreWithClient wraps an existing client.
func NewS3BlobStoreWithClient(client S3API, bucket, prefix string) *S3BlobStore {
	return &S3BlobStore{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

func (s *S3BlobStore) Put(id string, r io.Reader, size int64) (string, error) {
	if id == "" {
		return "", fmt.Errorf("blob id is required")
	}
	ref := id + photoExt
	key := s.keyFor(ref)

	ctx, cancel := context.WithTimeout(context.Background(), s3RequestTimeout)
	defer cancel()

	cr := &countingReader{r: r}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        cr,
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}

	if cr.n != size {
		// Do not leave a truncated object behind.
		if _, delErr := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}); delErr != nil {
			return "", errors.Join(fmt.Errorf("size mismatch: expected %d bytes, got %d", size, cr.n), delErr)
		}
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, cr.n)
	}

	return ref, nil
}

func (s *S3BlobStore) Get(ref string, w io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), s3RequestTimeout)
	defer cancel()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyFor(ref)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return fmt.Errorf("blob not found: %s", ref)
		}
		return fmt.Errorf("downloading %s: %w", ref, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading %s: %w", ref, err)
	}
	return nil
}

// Delete removes the object. S3 deletes are already idempotent; a not-found
// from an S3-compatible service is also treated as success.
func (s *S3BlobStore) Delete(ref string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s3RequestTimeout)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyFor(ref)),
	})
	if err != nil && !isS3NotFound(err) {
		return fmt.Errorf("deleting %s: %w", ref, err)
	}
	return nil
}

func (s *S3BlobStore) Exists(ref string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s3RequestTimeout)
	defer cancel()

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyFor(ref)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking %s: %w", ref, err)
	}
	return true, nil
}

func (s *S3BlobStore) List() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s3RequestTimeout)
	defer cancel()

	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix + "/")
	}

	refs := []string{}
	p := s3.NewListObjectsV2Paginator(s.client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		for _, obj := range page.Contents {
			if ref, ok := s.refFromKey(aws.ToString(obj.Key)); ok {
				refs = append(refs, ref)
			}
		}
	}
	sort.Strings(refs)
	return refs, nil
}

// ValidateSetup verifies that the bucket exists and is reachable.
func (s *S3BlobStore) ValidateSetup() error {
	ctx, cancel := context.WithTimeout(context.Background(), s3RequestTimeout)
	defer cancel()

	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", s.bucket, err)
	}
	return nil
}

func (s *S3BlobStore) keyFor(ref string) string {
	if s.prefix == "" {
		return ref
	}
	return path.Join(s.prefix, ref)
}

// refFromKey strips the prefix. Keys in nested "directories" are not ours.
func (s *S3BlobStore) refFromKey(key string) (string, bool) {
	if s.prefix != "" {
		var ok bool
		key, ok = strings.CutPrefix(key, s.prefix+"/")
		if !ok {
			return "", false
		}
	}
	if key == "" || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}

func isS3NotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == 404
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ photo.BlobStore = (*S3BlobStore)(nil)
