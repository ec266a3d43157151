package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"portfolioapi.app/errors"
	"portfolioapi.app/models"
)

// S3API is the subset of the S3 client the cloud source uses
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// CloudSource reads quality snapshots directly from the backing S3 bucket.
// The client is constructed lazily on first use so the AWS config is never
// loaded when an earlier source in the chain answers.
type CloudSource struct {
	bucket   string
	prefix   string
	region   string
	endpoint string

	mu     sync.Mutex
	client S3API
}

// NewCloudSource creates a direct-bucket source; endpoint overrides the AWS
// endpoint for local stacks and tests.
func NewCloudSource(bucket, prefix, region, endpoint string) *CloudSource {
	return &CloudSource{
		bucket:   bucket,
		prefix:   prefix,
		region:   region,
		endpoint: endpoint,
	}
}

func (c *CloudSource) s3Client(ctx context.Context) (S3API, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	c.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.endpoint != "" {
			o.BaseEndpoint = aws.String(c.endpoint)
			o.UsePathStyle = true
		}
	})
	return c.client, nil
}

// latestKey is the well-known object the CI pipeline overwrites on each run
func (c *CloudSource) latestKey() string {
	return c.prefix + "/latest.json"
}

func (c *CloudSource) historyPrefix() string {
	return c.prefix + "/history/"
}

// FetchLatest reads and decodes the well-known latest snapshot object
func (c *CloudSource) FetchLatest(ctx context.Context) (*models.QualitySnapshot, error) {
	client, err := c.s3Client(ctx)
	if err != nil {
		return nil, errors.NewSourceError(SourceCloud, err)
	}

	key := c.latestKey()
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.NewSourceError(SourceCloud, err)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	var snapshot models.QualitySnapshot
	if err := json.NewDecoder(out.Body).Decode(&snapshot); err != nil {
		return nil, errors.NewSourceError(SourceCloud, fmt.Errorf("decode snapshot object %s: %w", key, err))
	}

	if snapshot.Debug == nil {
		snapshot.Debug = &models.SnapshotDebug{}
	}
	snapshot.Debug.Key = key

	return &snapshot, nil
}

// FetchHistory lists the history prefix and returns up to limit snapshots,
// newest first. History objects are named by timestamp so lexical order is
// chronological.
func (c *CloudSource) FetchHistory(ctx context.Context, limit int) ([]models.QualitySnapshot, error) {
	client, err := c.s3Client(ctx)
	if err != nil {
		return nil, errors.NewSourceError(SourceCloud, err)
	}

	list, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(c.historyPrefix()),
	})
	if err != nil {
		return nil, errors.NewSourceError(SourceCloud, err)
	}

	keys := make([]string, 0, len(list.Contents))
	for _, obj := range list.Contents {
		if obj.Key != nil {
			keys = append(keys, *obj.Key)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	if len(keys) > limit {
		keys = keys[:limit]
	}

	snapshots := make([]models.QualitySnapshot, 0, len(keys))
	for _, key := range keys {
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, errors.NewSourceError(SourceCloud, err)
		}

		var snapshot models.QualitySnapshot
		decodeErr := json.NewDecoder(out.Body).Decode(&snapshot)
		_ = out.Body.Close()
		if decodeErr != nil {
			return nil, errors.NewSourceError(SourceCloud,
				fmt.Errorf("decode history object %s: %w", key, decodeErr))
		}

		if snapshot.Debug == nil {
			snapshot.Debug = &models.SnapshotDebug{}
		}
		snapshot.Debug.Source = SourceCloud
		snapshot.Debug.Key = key
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}
