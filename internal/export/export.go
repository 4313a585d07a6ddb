package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/fiber/internal/config"
	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/host"
)

// PutObjectAPI is the part of the S3 client the exporter uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Snapshot is a rendered host tree plus the ops that produced it.
type Snapshot struct {
	Name  string
	HTML  string
	Steps []StepOps
}

// StepOps are the ops committed by one named step.
type StepOps struct {
	Step string    `json:"step"`
	Ops  []host.Op `json:"ops"`
}

// Result lists the uploaded object keys.
type Result struct {
	Bucket   string
	HTMLKey  string
	OpsKey   string
	Uploaded time.Time
}

// Exporter uploads snapshots to an S3 bucket.
type Exporter struct {
	client PutObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

// New creates an exporter writing to bucket under prefix.
func New(client PutObjectAPI, bucket, prefix string) (*Exporter, error) {
	if bucket == "" {
		return nil, errors.New("F040")
	}
	return &Exporter{client: client, bucket: bucket, prefix: prefix, now: time.Now}, nil
}

// NewClient builds an S3 client from the export config. Credentials come
// from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN;
// without them requests are sent anonymously.
func NewClient(cfg config.ExportConfig) *s3.Client {
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: aws.AnonymousCredentials{},
	}
	if id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); id != "" && secret != "" {
		creds := aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "Environment",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil }))
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// Export uploads snap as <prefix><name>/index.html and
// <prefix><name>/ops.json. An empty name is replaced by the UTC time.
func (e *Exporter) Export(ctx context.Context, snap Snapshot) (*Result, error) {
	now := e.now().UTC()
	name := snap.Name
	if name == "" {
		name = now.Format("20060102T150405Z")
	}
	base := e.prefix + name

	steps := snap.Steps
	if steps == nil {
		steps = []StepOps{}
	}
	opsJSON, err := json.MarshalIndent(steps, "", "  ")
	if err != nil {
		return nil, errors.New("F041").Wrap(err)
	}

	res := &Result{
		Bucket:   e.bucket,
		HTMLKey:  path.Join(base, "index.html"),
		OpsKey:   path.Join(base, "ops.json"),
		Uploaded: now,
	}
	if err := e.put(ctx, res.HTMLKey, "text/html; charset=utf-8", []byte(snap.HTML), now); err != nil {
		return nil, err
	}
	if err := e.put(ctx, res.OpsKey, "application/json", opsJSON, now); err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Exporter) put(ctx context.Context, key, contentType string, body []byte, at time.Time) error {
	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"export-time": at.Format(time.RFC3339),
		},
	})
	if err != nil {
		return errors.New("F041").WithDetail("s3://" + e.bucket + "/" + key).Wrap(err)
	}
	return nil
}
