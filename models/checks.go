package models

import (
	"fmt"
	"strings"
)

// buildCheckSql generates SQL whose first row, first column is the number of rows
// violating the check. Schema tokens in relationship targets and expression
// predicates are replaced before the SQL is returned.
func buildCheckSql(p *Pack, schemaTable, columnName string, ch *Check) (string, error) {
	switch ch.Type {
	case CheckNotNull:
		return fmt.Sprintf("select count(*) from %v where %v is null", schemaTable, columnName), nil
	case CheckUnique:
		return fmt.Sprintf("select count(*) from (select %v from %v group by %v having count(*) > 1) x",
			columnName, schemaTable, columnName), nil
	case CheckAcceptedValues:
		return fmt.Sprintf("select count(*) from %v where %v not in (%v)",
			schemaTable, columnName, sqlValueList(ch.Values, ch.Raw)), nil
	case CheckRelationships:
		return fmt.Sprintf("select count(*) from %v where %v is not null and %v not in (select %v from %v)",
			schemaTable, columnName, columnName, ch.Field, p.ReplaceTokens(ch.To)), nil
	case CheckExpression:
		return fmt.Sprintf("select count(*) from %v where not (%v)", schemaTable, p.ReplaceTokens(ch.Sql)), nil
	default:
		return "", fmt.Errorf("unsupported check type %q", ch.Type)
	}
}

// checkName builds the descriptive name a check reports under, e.g. not_null_album_album_id.
func checkName(checkType, modelName, columnName string) string {
	return fmt.Sprintf("%v_%v_%v", checkType, modelName, columnName)
}

// sqlValueList renders accepted values as a SQL in-list. Values are single quoted
// unless raw is set, in which case they are emitted as supplied.
func sqlValueList(values []string, raw bool) string {
	quoted := make([]string, len(values))
	for idx, v := range values {
		if raw {
			quoted[idx] = v
		} else {
			quoted[idx] = "'" + strings.Replace(v, "'", "''", -1) + "'"
		}
	}
	return strings.Join(quoted, ", ")
}
