package components

// Defaults holds the well-known record field names that components use to
// pass file and bucket details to each other. The '#' prefix keeps them
// clear of real data columns.
var Defaults = struct {
	ChanField4CSVFileName           string // name of a CSV file spooled locally.
	ChanField4FileName              string // full key of a data file found in S3.
	ChanField4FileNameWithoutPrefix string // the same key with the bucket prefix stripped.
	ChanField4BucketName            string
	ChanField4BucketPrefix          string
	ChanField4BucketRegion          string
}{
	ChanField4CSVFileName:           "#CSVFileName",
	ChanField4FileName:              "#DataFileName",
	ChanField4FileNameWithoutPrefix: "#DataFileNameWithoutPrefix",
	ChanField4BucketName:            "#BucketName",
	ChanField4BucketPrefix:          "#BucketPrefix",
	ChanField4BucketRegion:          "#BucketRegion",
}
