package models

import (
	"fmt"
	"strconv"

	"github.com/martpipe/martpipe/components"
	c "github.com/martpipe/martpipe/constants"
	"github.com/martpipe/martpipe/rdbms/shared"
	"github.com/martpipe/martpipe/transform"
)

// The connection name every compiled step reads and writes through.
const ConnectionNameTarget = "target"

// Field names used to route spine dates between steps.
const (
	spineFieldFrom    = "#spineFrom"
	spineFieldTo      = "#spineTo"
	spineFieldDate    = "date"
	spineFieldDateEnd = "#dateRangeEnd"
)

// BuildConfig drives Compile.
type BuildConfig struct {
	Pack             *Pack                    // the validated pack to compile.
	TargetConnection shared.ConnectionDetails // the warehouse built into; its Type selects SQL dialect quirks.
	ChecksOnly       bool                     // compile the SqlCheck steps only and skip the build steps.
	BatchSize        int                      // rows per commit for date spine inserts; defaults to TableInsertBatchSizeDefault.
}

// Compile turns a model pack into a transform definition ready to launch or export.
// Each model becomes one sequential step group that drops and recreates its relation
// then runs its checks, chained so each step triggers the next. Groups are sequenced
// clean layer first then mart, in declared order, so later models can read relations
// built by earlier ones.
func Compile(cfg *BuildConfig) (*transform.TransformDefinition, error) {
	if cfg == nil || cfg.Pack == nil {
		return nil, fmt.Errorf("missing model pack to compile")
	}
	p := cfg.Pack
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if cfg.TargetConnection.Type == "" {
		return nil, fmt.Errorf("missing target connection details for model pack %v", p.Name)
	}
	defn := &transform.TransformDefinition{
		SchemaVersion: 3,
		Description:   fmt.Sprintf("build model pack %v", p.Name),
		Connections:   shared.DBConnections{ConnectionNameTarget: cfg.TargetConnection},
		Type:          transform.TransformOnce,
		StepGroups:    make(map[string]transform.StepGroup, len(p.Models)),
		Sequence:      make([]string, 0, len(p.Models)),
	}
	for _, m := range p.OrderedModels() {
		sg, err := compileModel(p, m, cfg)
		if err != nil {
			return nil, err
		}
		if len(sg.Steps) == 0 { // if checks-only mode found a model without checks...
			continue
		}
		groupName := m.Layer + "." + m.Name
		defn.StepGroups[groupName] = sg
		defn.Sequence = append(defn.Sequence, groupName)
	}
	if len(defn.Sequence) == 0 {
		return nil, fmt.Errorf("model pack %v compiled to no steps", p.Name)
	}
	return defn, nil
}

// compileModel builds the step group for one model. The last build step's output
// channel triggers the first check, and each check triggers the next, so checks
// run exactly once after the relation is rebuilt.
func compileModel(p *Pack, m *Model, cfg *BuildConfig) (transform.StepGroup, error) {
	sg := transform.StepGroup{
		Type:     transform.StepGroupSequential,
		Steps:    make(map[string]transform.Step),
		Sequence: make([]string, 0, 8),
	}
	addStep := func(name string, step transform.Step) {
		sg.Steps[name] = step
		sg.Sequence = append(sg.Sequence, name)
	}
	schemaTable := p.SchemaForLayer(m.Layer) + "." + m.Name
	lastStep := ""
	if !cfg.ChecksOnly {
		if m.Materialized == MaterializedDateSpine {
			lastStep = addSpineSteps(addStep, p, m, cfg, schemaTable)
		} else {
			lastStep = addBuildSteps(addStep, p, m, cfg, schemaTable)
		}
	}
	checkNum := 0
	for _, col := range m.Columns {
		for idx := range col.Checks {
			ch := &col.Checks[idx]
			checkSql, err := buildCheckSql(p, schemaTable, col.Name, ch)
			if err != nil {
				return sg, fmt.Errorf("model %v column %v: %v", m.Name, col.Name, err)
			}
			checkNum++
			stepName := fmt.Sprintf("check%02d", checkNum)
			data := map[string]string{
				"databaseConnectionName": ConnectionNameTarget,
				"checkName":              checkName(ch.Type, m.Name, col.Name),
				"tableName":              schemaTable,
				"columnName":             col.Name,
				"sqlText":                checkSql,
				"severity":               ch.Severity,
			}
			if lastStep != "" { // if there is a step to trigger off...
				data["readDataFromStep"] = lastStep
			}
			addStep(stepName, transform.Step{Type: "SqlCheck", Data: data})
			lastStep = stepName
		}
	}
	return sg, nil
}

// addBuildSteps emits the drop and create steps for a table or view model and
// returns the name of the step checks should trigger off.
func addBuildSteps(addStep func(string, transform.Step), p *Pack, m *Model, cfg *BuildConfig, schemaTable string) string {
	selectSql := p.ReplaceTokens(m.Sql)
	dropSql := dropTableSql(schemaTable)
	createSql := createTableAsSql(cfg.TargetConnection.Type, schemaTable, selectSql)
	if m.Materialized == MaterializedView {
		dropSql = dropViewSql(schemaTable)
		createSql = createViewAsSql(schemaTable, selectSql)
	}
	addStep("drop", transform.Step{Type: "SqlExec", Data: map[string]string{
		"databaseConnectionName": ConnectionNameTarget,
		"sqlText":                dropSql,
	}})
	addStep("create", transform.Step{Type: "SqlExec", Data: map[string]string{
		"databaseConnectionName": ConnectionNameTarget,
		"sqlText":                createSql,
		"readDataFromStep":       "drop",
	}})
	return "create"
}

// addSpineSteps emits the steps that build a date_spine model: a single seed row
// carrying the range dates flows through the drop and create DDL steps into a
// DateRangeGenerator, has calendar attributes derived per day, and is batch
// inserted. A LastRow filter collapses the inserted stream to one record so the
// checks that follow run once.
func addSpineSteps(addStep func(string, transform.Step), p *Pack, m *Model, cfg *BuildConfig, schemaTable string) string {
	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = c.TableInsertBatchSizeDefault
	}
	txtBatchNumRows := c.TableInsertTxtBatchNumRowsDefault
	if batchSize < txtBatchNumRows { // keep the text batch within the commit batch.
		txtBatchNumRows = batchSize
	}
	addStep("seed", transform.Step{Type: "GenerateRows", Data: map[string]string{
		"numRows":              "1",
		"sleepIntervalSeconds": "0",
		"fieldNamesValuesCSV":  fmt.Sprintf("%v:%v,%v:%v", spineFieldFrom, m.Spine.From, spineFieldTo, m.Spine.To),
	}})
	addStep("drop", transform.Step{Type: "SqlExec", Data: map[string]string{
		"databaseConnectionName": ConnectionNameTarget,
		"sqlText":                dropTableSql(schemaTable),
		"readDataFromStep":       "seed",
	}})
	addStep("create", transform.Step{Type: "SqlExec", Data: map[string]string{
		"databaseConnectionName": ConnectionNameTarget,
		"sqlText":                dateSpineDdl(cfg.TargetConnection.Type, schemaTable),
		"readDataFromStep":       "drop",
	}})
	addStep("spine", transform.Step{Type: "DateRangeGenerator", Data: map[string]string{
		"readDataFromStep":        "create",
		"inputFieldName4FromDate": spineFieldFrom,
		"inputFieldName4ToDate":   spineFieldTo,
		"intervalSeconds":         strconv.Itoa(m.Spine.IntervalSeconds),
		"useUTC":                  "true",
		"passInputFieldsToOutput": "false",
		"outputFieldName4LowDate": spineFieldDate,
		"outputFieldName4HiDate":  spineFieldDateEnd,
	}})
	addStep("attributes", transform.Step{
		Type: "FieldMapper",
		Data: map[string]string{"readDataFromStep": "spine"},
		ComponentSteps: []components.ComponentStep{
			{Type: "DateAttributes", Data: map[string]string{"fieldName": spineFieldDate}},
		},
	})
	addStep("insert", transform.Step{Type: "TableInsert", Data: map[string]string{
		"databaseConnectionName": ConnectionNameTarget,
		"readDataFromStep":       "attributes",
		"outputSchemaName":       p.SchemaForLayer(m.Layer),
		"outputTable":            m.Name,
		"keyCols":                "date_key:date_key",
		"otherCols":              "date:date,year:year,quarter:quarter,month:month,month_name:month_name,day:day,day_name:day_name,day_of_week:day_of_week",
		"commitBatchSize":        strconv.Itoa(batchSize),
		"txtBatchNumRows":        strconv.Itoa(txtBatchNumRows),
	}})
	addStep("lastRow", transform.Step{Type: "FilterRows", Data: map[string]string{
		"readDataFromStep": "insert",
		"filterType":       "LastRow",
	}})
	return "lastRow"
}
