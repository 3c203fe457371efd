package s3

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/rdbms/shared"
)

type AwsS3Bucket struct {
	Name   string `errorTxt:"bucket name" mandatory:"yes"`
	Prefix string `errorTxt:"bucket prefix"`
	Region string `errorTxt:"bucket region" mandatory:"yes"`
	Dsn    string
}

// Parse populates Name and Prefix from the Dsn when one is set, otherwise
// from the individual fields, validating either way.
func (d *AwsS3Bucket) Parse() error {
	src := d.Dsn // the URL takes priority over individual fields.
	if src == "" {
		src = fmt.Sprintf("%s/%s", d.Name, d.Prefix)
	}
	b, err := ParseDSN(src, d.Region)
	if err != nil {
		return err
	}
	d.Name = b.Name
	d.Prefix = b.Prefix
	return nil
}

func (d *AwsS3Bucket) GetScheme() (string, error) {
	return constants.ConnectionTypeS3, nil
}

func (d *AwsS3Bucket) GetMap(m map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	return AwsBucketToMap(m, *d)
}

func NewAwsBucket(c *shared.ConnectionDetails) *AwsS3Bucket {
	return &AwsS3Bucket{
		Name:   c.Data["name"],
		Prefix: c.Data["prefix"],
		Region: c.Data["region"],
	}
}

// ParseDSN builds an AwsS3Bucket from a bucketPrefix of the form
// [s3://]<bucket>/<prefix> plus the supplied region, which must be non-empty.
func ParseDSN(bucketPrefix string, region string) (retval AwsS3Bucket, err error) {
	const expectedScheme = "s3"
	if !strings.Contains(bucketPrefix, "://") { // scheme omitted.
		bucketPrefix = expectedScheme + "://" + bucketPrefix
	}
	s3url, err := url.Parse(bucketPrefix)
	if err != nil {
		return retval, fmt.Errorf("error parsing S3 URL: %v", err)
	}
	if s3url.Scheme != "" && s3url.Scheme != expectedScheme {
		return retval, fmt.Errorf("expected S3 URL scheme %q but got %q", expectedScheme, s3url.Scheme)
	}
	if region == "" {
		return retval, fmt.Errorf("value expected for bucket region")
	}
	retval.Name = s3url.Host
	if retval.Name == "" {
		return retval, fmt.Errorf("DSN failed to parse bucket name")
	}
	retval.Prefix = strings.Trim(s3url.Path, "/")
	retval.Region = region
	return
}

func AwsBucketToMap(m map[string]string, b AwsS3Bucket) map[string]string {
	m["name"] = b.Name
	m["prefix"] = b.Prefix
	m["region"] = b.Region
	return m
}
