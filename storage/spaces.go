// Package storage mirrors per-video artifacts to an S3-compatible bucket.
// The mirror is best-effort: failures are logged and never fail a request.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"yt-sections/config"
	"yt-sections/models"
)

type SpacesClient struct {
	client *s3.Client
	bucket string
}

func NewSpacesClient(cfg config.SpacesConfig) (*SpacesClient, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: cfg.Endpoint,
		}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %v", err)
	}

	return &SpacesClient{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
	}, nil
}

// MirrorTranscription uploads a transcription artifact keyed by video id.
func (s *SpacesClient) MirrorTranscription(ctx context.Context, videoID string, t *models.Transcription) error {
	data := struct {
		Text      string        `json:"text"`
		Words     []models.Word `json:"words"`
		Timestamp time.Time     `json:"timestamp"`
	}{
		Text:      t.Text,
		Words:     t.Words,
		Timestamp: time.Now(),
	}

	return s.put(ctx, fmt.Sprintf("transcriptions/%s.json", videoID), data)
}

// MirrorSections uploads the section collection keyed by video id.
func (s *SpacesClient) MirrorSections(ctx context.Context, videoID string, sections []models.Section) error {
	data := struct {
		Sections  []models.Section `json:"sections"`
		Timestamp time.Time        `json:"timestamp"`
	}{
		Sections:  sections,
		Timestamp: time.Now(),
	}

	return s.put(ctx, fmt.Sprintf("sections/%s.json", videoID), data)
}

func (s *SpacesClient) put(ctx context.Context, key string, v interface{}) error {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %v", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to save to Spaces: %v", err)
	}

	return nil
}
