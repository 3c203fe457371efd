package components

import (
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/martpipe/martpipe/aws/s3"
	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/stats"
	"github.com/martpipe/martpipe/stream"
)

type S3BucketListerConfig struct {
	Log                               logger.Logger
	Name                              string
	Region                            string // AWS region for the bucket.
	BucketName                        string
	BucketPrefix                      string
	ObjectNamePrefix                  string // list objects whose names start with this (not the bucket prefix); passed to the S3 list command as a dumb filter.
	ObjectNameRegexp                  string // further filters the list fetched using ObjectNamePrefix.
	OutputField4FileName              string // map key on outputChan holding the file names found in S3; empty means use package var Defaults.
	OutputField4FileNameWithoutPrefix string
	OutputField4BucketName            string // map key on outputChan holding the bucket name; empty means use Defaults.
	OutputField4BucketPrefix          string // ditto for the bucket prefix.
	OutputField4BucketRegion          string // ditto for the bucket region.
	StepWatcher                       *stats.StepWatcher
	WaitCounter                       ComponentWaiter
	PanicHandlerFn                    PanicHandlerFunc
}

// NewS3BucketList lists the objects in the given S3 bucket and produces one
// record per matching object, carrying the object name plus the bucket name,
// prefix and region under the configured output fields.
// TODO: add a test for filtering by filename prefix (not bucket prefix)
func NewS3BucketList(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*S3BucketListerConfig)
	outputChan = make(chan stream.Record, int(c.ChanSize))
	controlChan = make(chan ControlAction, 1)
	if cfg.BucketName == "" {
		cfg.Log.Panic(cfg.Name, " error - missing target bucket name.")
	}
	cfg.BucketName = strings.TrimPrefix(cfg.BucketName, "s3://")
	if cfg.Region == "" {
		cfg.Log.Panic(cfg.Name, " error - missing AWS region.")
	}
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		defaultField := func(field *string, defaultValue string, desc string) {
			if *field == "" {
				*field = defaultValue
				cfg.Log.Info(cfg.Name, " output field for ", desc, " not supplied, using default value ", defaultValue)
			}
		}
		defaultField(&cfg.OutputField4FileName, Defaults.ChanField4FileName, "file name(s)")
		defaultField(&cfg.OutputField4FileNameWithoutPrefix, Defaults.ChanField4FileNameWithoutPrefix, "file name(s) without prefix")
		defaultField(&cfg.OutputField4BucketName, Defaults.ChanField4BucketName, "S3 bucket name")
		defaultField(&cfg.OutputField4BucketPrefix, Defaults.ChanField4BucketPrefix, "S3 prefix")
		defaultField(&cfg.OutputField4BucketRegion, Defaults.ChanField4BucketRegion, "S3 region")
		cfg.Log.Info(cfg.Name, " is running for bucket '", cfg.BucketName, "' region '", cfg.Region, "' prefix '", cfg.BucketPrefix, "' regex filter '", cfg.ObjectNameRegexp, "'")
		s := s3.NewBasicClient(cfg.BucketName, cfg.Region, cfg.BucketPrefix)
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		rowCount := int64(0)
		if cfg.StepWatcher != nil {
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		cfg.Log.Debug(cfg.Name, " regexp: ", cfg.ObjectNameRegexp)
		matchesFilter := func(string) bool { return true } // no regexp means all objects match.
		if cfg.ObjectNameRegexp != "" {
			r, err := regexp.Compile(cfg.ObjectNameRegexp)
			if err != nil {
				cfg.Log.Panic(err)
			}
			matchesFilter = r.MatchString
		} else {
			cfg.Log.Debug(cfg.Name, " missing regexp - ignoring regex file name filtering.")
		}
		// The supplied key is appended to BucketPrefix internally to produce a shortlist.
		keys, err := s.List(cfg.ObjectNamePrefix)
		if err != nil {
			cfg.Log.Panic(cfg.Name, " unable to list S3 bucket '", cfg.BucketName, "' in region '", cfg.Region, "' with prefix '", cfg.BucketPrefix, "': ", err)
		}
		for _, v := range keys {
			if !matchesFilter(v) {
				cfg.Log.Trace(cfg.Name, " no match for file - skipped: ", v)
				continue
			}
			cfg.Log.Debug(cfg.Name, " - producing record for file '", v, "' onto output channel")
			rec := stream.NewRecord()
			rec.SetData(cfg.OutputField4FileName, v)
			rec.SetData(cfg.OutputField4FileNameWithoutPrefix, strings.TrimPrefix(strings.TrimPrefix(v, cfg.BucketPrefix), "/"))
			rec.SetData(cfg.OutputField4BucketName, cfg.BucketName)
			rec.SetData(cfg.OutputField4BucketPrefix, cfg.BucketPrefix)
			rec.SetData(cfg.OutputField4BucketRegion, cfg.Region)
			// shutdown requests are handled by safeSend().
			if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			atomic.AddInt64(&rowCount, 1)
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
