package actions

import (
	"fmt"

	"github.com/martpipe/martpipe/components"
	"github.com/martpipe/martpipe/helper"
	"github.com/martpipe/martpipe/logger"
	"github.com/martpipe/martpipe/rdbms/shared"
)

type S3StdoutLoadConfig struct {
	SourceConnection  string `errorTxt:"source <connection>" mandatory:"yes"`
	SrcConnDetails    *shared.ConnectionDetails
	BucketRegion      string `errorTxt:"s3 region" mandatory:"yes"`
	BucketName        string `errorTxt:"s3 bucket" mandatory:"yes"`
	BucketPrefix      string `errorTxt:"s3 prefix"`
	CsvFileNamePrefix string `errorTxt:"table-files name prefix (differs from bucket prefix)"`
	CsvRegexp         string `errorTxt:"table-files regexp filter"`
	LogLevel          string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic  bool
}

// SetupLoadS3Stdout copies values from genericCfg to actionCfg ready for a S3 listing action.
func SetupLoadS3Stdout(genericCfg interface{}, actionCfg interface{}) error {
	src := genericCfg.(*LoadConfig)
	tgt := actionCfg.(*S3StdoutLoadConfig)
	var err error
	// Setup real connection details.
	if tgt.SrcConnDetails, err = src.Connections.GetConnectionDetails(src.SourceString.GetConnectionName()); err != nil {
		return err
	}
	// General
	tgt.StackDumpOnPanic = src.StackDumpOnPanic
	tgt.LogLevel = src.LogLevel
	// Source
	tgt.SourceConnection = src.SourceString.GetConnectionName()
	tgt.CsvFileNamePrefix = src.CsvFileNamePrefix
	if tgt.CsvFileNamePrefix == "" { // if the CSV file name prefix is not supplied...
		tgt.CsvFileNamePrefix = src.SourceString.GetObject() // use source object.
	}
	tgt.CsvRegexp = src.CsvRegexp
	// S3
	tgt.BucketName = src.BucketName
	tgt.BucketPrefix = src.BucketPrefix
	tgt.BucketRegion = src.BucketRegion
	return nil
}

// RunS3StdoutLoad lists the staged table files found in an S3 bucket on STDOUT.
func RunS3StdoutLoad(cfg interface{}) error {
	cfgLoad := cfg.(*S3StdoutLoadConfig)
	// Setup logging.
	log := logger.NewLogger("martpipe", cfgLoad.LogLevel, cfgLoad.StackDumpOnPanic)
	// Validate switches.
	if err := helper.ValidateStructIsPopulated(cfgLoad); err != nil {
		return err
	}
	s3Cfg := &components.S3BucketListerConfig{
		Log:                               log,
		Name:                              "s3-lister",
		Region:                            cfgLoad.BucketRegion,
		BucketName:                        cfgLoad.BucketName,
		BucketPrefix:                      cfgLoad.BucketPrefix,
		ObjectNamePrefix:                  cfgLoad.CsvFileNamePrefix,
		ObjectNameRegexp:                  cfgLoad.CsvRegexp,
		OutputField4FileName:              "#fileName",
		OutputField4FileNameWithoutPrefix: "#fileNameWithoutPrefix",
		OutputField4BucketName:            "#bucketName",
		OutputField4BucketPrefix:          "#bucketPrefix",
		OutputField4BucketRegion:          "#bucketRegion",
		StepWatcher:                       nil,
		WaitCounter:                       nil,
		PanicHandlerFn:                    nil,
	}
	s3chan, _ := components.NewS3BucketList(s3Cfg)
	cnt := 0
	for rec := range s3chan {
		cnt++
		fmt.Println(rec.GetDataAsStringPreserveTimeZone(log, "#fileName"))
	}
	if cnt == 0 {
		return fmt.Errorf("0 files found")
	}
	return nil
}
