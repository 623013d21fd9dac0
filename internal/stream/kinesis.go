package stream

import (
	"context"
	"fmt"

	appcfg "sentiment-producer/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
)

// KinesisAPI is the subset of the Kinesis client used here.
type KinesisAPI interface {
	PutRecord(ctx context.Context, in *kinesis.PutRecordInput, optFns ...func(*kinesis.Options)) (*kinesis.PutRecordOutput, error)
	DescribeStreamSummary(ctx context.Context, in *kinesis.DescribeStreamSummaryInput, optFns ...func(*kinesis.Options)) (*kinesis.DescribeStreamSummaryOutput, error)
}

// Kinesis appends records with PutRecord, one call per record.
type Kinesis struct {
	client KinesisAPI
	stream string
}

// NewKinesis loads AWS credentials from the default chain and targets the given stream.
func NewKinesis(ctx context.Context, streamName string, cfg appcfg.KinesisConfig) (*Kinesis, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("stream: load aws config: %w", err)
	}
	client := kinesis.NewFromConfig(awsCfg, func(o *kinesis.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewKinesisWithClient(client, streamName), nil
}

// NewKinesisWithClient wraps an existing client.
func NewKinesisWithClient(client KinesisAPI, streamName string) *Kinesis {
	return &Kinesis{client: client, stream: streamName}
}

func (k *Kinesis) Append(ctx context.Context, rec Record) error {
	_, err := k.client.PutRecord(ctx, &kinesis.PutRecordInput{
		StreamName:   aws.String(k.stream),
		Data:         rec.Data,
		PartitionKey: aws.String(rec.PartitionKey),
	})
	if err != nil {
		return fmt.Errorf("kinesis: put record to %s: %w", k.stream, err)
	}
	return nil
}

func (k *Kinesis) Describe(ctx context.Context) (Info, error) {
	out, err := k.client.DescribeStreamSummary(ctx, &kinesis.DescribeStreamSummaryInput{
		StreamName: aws.String(k.stream),
	})
	if err != nil {
		return Info{}, fmt.Errorf("kinesis: describe %s: %w", k.stream, err)
	}
	info := Info{Backend: appcfg.BackendKinesis, Name: k.stream}
	if s := out.StreamDescriptionSummary; s != nil {
		info.Status = string(s.StreamStatus)
		info.Partitions = int(aws.ToInt32(s.OpenShardCount))
	}
	return info, nil
}

// Close is a no-op; the SDK client holds no connections that need releasing.
func (k *Kinesis) Close() error { return nil }
