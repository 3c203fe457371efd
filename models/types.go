// Package models compiles declarative model packs into transform definitions
// that build CLEAN and MART layer relations in a target warehouse.
package models

import (
	"fmt"
	"strings"
	"time"

	c "github.com/martpipe/martpipe/constants"
	h "github.com/martpipe/martpipe/helper"
)

const (
	MaterializedTable     = "table"
	MaterializedView      = "view"
	MaterializedDateSpine = "date_spine"
	CheckNotNull          = "not_null"
	CheckUnique           = "unique"
	CheckAcceptedValues   = "accepted_values"
	CheckRelationships    = "relationships"
	CheckExpression       = "expression"

	DateSpineIntervalSecondsDefault = 60 * 60 * 24
)

// Schema tokens replaced in model SQL at build time.
const (
	tokenRaw   = "${raw}"
	tokenClean = "${clean}"
	tokenMart  = "${mart}"
)

// Pack is a set of models that build warehouse relations layer by layer.
// Models build in declared order within each layer, so declare a model after
// the relations its SQL and checks read.
type Pack struct {
	SchemaVersion int     `json:"schemaVersion" errorTxt:"schema version" mandatory:"no"`
	Name          string  `json:"name" errorTxt:"model pack name" mandatory:"yes"`
	Description   string  `json:"description" errorTxt:"description" mandatory:"no"`
	Schemas       Schemas `json:"schemas" errorTxt:"schemas" mandatory:"yes"`
	Models        []Model `json:"models" errorTxt:"models" mandatory:"yes"`
}

// Schemas names the warehouse schemas behind the ${raw}, ${clean} and ${mart} tokens.
type Schemas struct {
	Raw   string `json:"raw" errorTxt:"raw schema name" mandatory:"yes"`
	Clean string `json:"clean" errorTxt:"clean schema name" mandatory:"yes"`
	Mart  string `json:"mart" errorTxt:"mart schema name" mandatory:"yes"`
}

// Model describes one relation to build and the checks that validate it.
type Model struct {
	Name         string   `json:"name"`
	Layer        string   `json:"layer"`        // one of constants LayerClean, LayerMart.
	Materialized string   `json:"materialized"` // table|view|date_spine; defaults to table.
	Sql          string   `json:"sql"`          // select statement; not used by date_spine models.
	Spine        Spine    `json:"spine"`        // date_spine models only.
	Columns      []Column `json:"columns"`
}

// Spine is the date range generated for a date_spine model.
// From is inclusive and To is exclusive, both formatted yyyy-mm-dd.
type Spine struct {
	From            string `json:"from"`
	To              string `json:"to"`
	IntervalSeconds int    `json:"intervalSeconds"` // defaults to one day.
}

type Column struct {
	Name   string  `json:"name"`
	Checks []Check `json:"checks"`
}

// Check is a data quality rule compiled into a SqlCheck step.
type Check struct {
	Type     string   `json:"type"`
	Values   []string `json:"values"`   // accepted_values only.
	Raw      bool     `json:"raw"`      // emit accepted values as raw SQL literals instead of quoted strings.
	To       string   `json:"to"`       // relationships only; target relation, schema tokens allowed.
	Field    string   `json:"field"`    // relationships only; column on the target relation.
	Sql      string   `json:"sql"`      // expression only; predicate that must hold for every row.
	Severity string   `json:"severity"` // error|warn; defaults to error.
}

// Validate checks the pack is complete and well formed, applying defaults as it goes.
func (p *Pack) Validate() error {
	if err := h.ValidateStructIsPopulated(p); err != nil {
		return err
	}
	if len(p.Models) == 0 {
		return fmt.Errorf("model pack %v contains no models", p.Name)
	}
	seen := make(map[string]struct{}, len(p.Models))
	for idx := range p.Models {
		m := &p.Models[idx]
		if err := m.validate(); err != nil {
			return err
		}
		if _, ok := seen[m.Name]; ok {
			return fmt.Errorf("duplicate model name %v in pack %v", m.Name, p.Name)
		}
		seen[m.Name] = struct{}{}
	}
	return nil
}

// OrderedModels returns the models in build order: clean models then mart models,
// each in declared order.
func (p *Pack) OrderedModels() []*Model {
	out := make([]*Model, 0, len(p.Models))
	for _, layer := range []string{c.LayerClean, c.LayerMart} {
		for idx := range p.Models {
			if p.Models[idx].Layer == layer {
				out = append(out, &p.Models[idx])
			}
		}
	}
	return out
}

// SchemaForLayer returns the warehouse schema a model of the given layer builds into.
func (p *Pack) SchemaForLayer(layer string) string {
	switch layer {
	case c.LayerRaw:
		return p.Schemas.Raw
	case c.LayerClean:
		return p.Schemas.Clean
	default:
		return p.Schemas.Mart
	}
}

// ReplaceTokens swaps the ${raw}, ${clean} and ${mart} tokens in s for the pack's schema names.
func (p *Pack) ReplaceTokens(s string) string {
	s = strings.Replace(s, tokenRaw, p.Schemas.Raw, -1)
	s = strings.Replace(s, tokenClean, p.Schemas.Clean, -1)
	s = strings.Replace(s, tokenMart, p.Schemas.Mart, -1)
	return s
}

func (m *Model) validate() error {
	if m.Name == "" {
		return fmt.Errorf("model found without a name - please supply one")
	}
	if m.Layer != c.LayerClean && m.Layer != c.LayerMart {
		return fmt.Errorf("model %v: unsupported layer %q - use one of: %v, %v", m.Name, m.Layer, c.LayerClean, c.LayerMart)
	}
	if m.Materialized == "" { // default the materialization...
		m.Materialized = MaterializedTable
	}
	switch m.Materialized {
	case MaterializedTable, MaterializedView:
		if strings.TrimSpace(m.Sql) == "" {
			return fmt.Errorf("model %v: missing sql", m.Name)
		}
	case MaterializedDateSpine:
		if err := m.validateSpine(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("model %v: unsupported materialization %q - use one of: %v, %v, %v",
			m.Name, m.Materialized, MaterializedTable, MaterializedView, MaterializedDateSpine)
	}
	if err := m.validateLayerReferences(); err != nil {
		return err
	}
	for _, col := range m.Columns {
		if col.Name == "" {
			return fmt.Errorf("model %v: column found without a name - please supply one", m.Name)
		}
		for _, ch := range col.Checks {
			if err := ch.validate(m.Name, col.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Model) validateSpine() error {
	if m.Spine.From == "" || m.Spine.To == "" {
		return fmt.Errorf("model %v: date_spine models require spine from and to dates", m.Name)
	}
	from, err := time.Parse(c.TimeFormatDate, m.Spine.From)
	if err != nil {
		return fmt.Errorf("model %v: unable to parse spine from date %q - use format %v", m.Name, m.Spine.From, c.TimeFormatDate)
	}
	to, err := time.Parse(c.TimeFormatDate, m.Spine.To)
	if err != nil {
		return fmt.Errorf("model %v: unable to parse spine to date %q - use format %v", m.Name, m.Spine.To, c.TimeFormatDate)
	}
	if !from.Before(to) {
		return fmt.Errorf("model %v: spine from date %v must be before to date %v", m.Name, m.Spine.From, m.Spine.To)
	}
	if m.Spine.IntervalSeconds == 0 { // default the interval...
		m.Spine.IntervalSeconds = DateSpineIntervalSecondsDefault
	}
	if m.Spine.IntervalSeconds < 0 {
		return fmt.Errorf("model %v: spine intervalSeconds must be greater than zero", m.Name)
	}
	return nil
}

// validateLayerReferences enforces the layer ordering rule: clean models read
// raw and clean relations only; mart models read clean and mart relations only.
func (m *Model) validateLayerReferences() error {
	refs := m.Sql
	for _, col := range m.Columns {
		for _, ch := range col.Checks {
			refs += " " + ch.To + " " + ch.Sql
		}
	}
	if m.Layer == c.LayerClean && strings.Contains(refs, tokenMart) {
		return fmt.Errorf("model %v: clean layer models may only read %v and %v relations", m.Name, tokenRaw, tokenClean)
	}
	if m.Layer == c.LayerMart && strings.Contains(refs, tokenRaw) {
		return fmt.Errorf("model %v: mart layer models may only read %v and %v relations", m.Name, tokenClean, tokenMart)
	}
	return nil
}

func (ch *Check) validate(modelName, columnName string) error {
	switch ch.Type {
	case CheckNotNull, CheckUnique:
	case CheckAcceptedValues:
		if len(ch.Values) == 0 {
			return fmt.Errorf("model %v column %v: %v checks require a list of values", modelName, columnName, ch.Type)
		}
	case CheckRelationships:
		if ch.To == "" || ch.Field == "" {
			return fmt.Errorf("model %v column %v: %v checks require to and field", modelName, columnName, ch.Type)
		}
	case CheckExpression:
		if strings.TrimSpace(ch.Sql) == "" {
			return fmt.Errorf("model %v column %v: %v checks require sql", modelName, columnName, ch.Type)
		}
	default:
		return fmt.Errorf("model %v column %v: unsupported check type %q - use one of: %v, %v, %v, %v, %v",
			modelName, columnName, ch.Type, CheckNotNull, CheckUnique, CheckAcceptedValues, CheckRelationships, CheckExpression)
	}
	switch ch.Severity {
	case "", c.CheckSeverityError, c.CheckSeverityWarn:
	default:
		return fmt.Errorf("model %v column %v: unsupported check severity %q - use one of: %v, %v",
			modelName, columnName, ch.Severity, c.CheckSeverityError, c.CheckSeverityWarn)
	}
	return nil
}
