package s3

import (
	"bytes"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const listPageSize = 1000

type basicClient struct {
	region string
	bucket string
	prefix string
	api    s3iface.S3API
}

// NewBasicClient returns a BasicClient for the given bucket and region, with
// all keys placed under the supplied prefix.
func NewBasicClient(bucket, region, prefix string) BasicClient {
	awsConfig := aws.NewConfig()
	awsConfig.Region = aws.String(region)
	sess := session.Must(session.NewSession(awsConfig))
	return &basicClient{
		bucket: bucket,
		region: region,
		prefix: prefix,
		api:    s3.New(sess),
	}
}

// List returns the full key names of all objects under the client prefix plus
// the supplied key, following continuation tokens across pages.
func (s *basicClient) List(key string) (keys []string, err error) {
	keys = make([]string, 0, listPageSize)
	var continuationToken *string
	for {
		resp, err := s.api.ListObjectsV2(&s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			ContinuationToken: continuationToken,
			MaxKeys:           aws.Int64(listPageSize),
			Prefix:            aws.String(s.getKeyWithPrefix(key)),
		})
		if err != nil {
			return nil, err
		}
		for _, v := range resp.Contents {
			keys = append(keys, *v.Key)
		}
		if !aws.BoolValue(resp.IsTruncated) { // last page of results.
			break
		}
		continuationToken = resp.NextContinuationToken
	}
	return
}

func (s *basicClient) Get(key string) ([]byte, error) {
	res, err := s.api.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
	})
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok && awsErr.Code() == s3.ErrCodeNoSuchKey {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	defer res.Body.Close()
	return io.ReadAll(res.Body)
}

func (s *basicClient) Put(key string, data []byte) error {
	return s.BufferPut(key, bytes.NewReader(data))
}

func (s *basicClient) BufferPut(key string, dataBuf io.ReadSeeker) error {
	_, err := s.api.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
		Body:   dataBuf,
	})
	return err
}

func (s *basicClient) Delete(key string) error {
	_, err := s.api.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
	})
	return err
}

func (s *basicClient) getKeyWithPrefix(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimRight(s.prefix, "/") + "/" + key // single slash between prefix and key.
}
