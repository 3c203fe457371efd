package actions

var jsonDsnLoad = `{
  "schemaVersion": 3,
  "description": "load from DSN to DSN",
  "connections": {
    "source": {
      "type": "${srcType}",
      "logicalName": "${srcLogicalName}",
      "data": {
        "dsn": "${srcDsn}"
      }
    },
    "target": {
      "type": "${tgtType}",
      "logicalName": "${tgtLogicalName}",
      "data": {
        "dsn": "${tgtDsn}"
      }
    }
  },
  "type": "${repeatTransform}",
  "repeatMetadata": {
    "sleepSeconds": ${sleepSeconds}
  },
  "transformGroups": {
    "createTargetTable": {
      "type": "sequential",
      "steps": {
        "createTable": {
          "type": "SqlExec",
          "data": {
            "databaseConnectionName": "target",
            "sqlText": "${createTargetDdl}"
          }
        }
      },
      "sequence": [
        "createTable"
      ]
    },
    "optionalTruncateTarget": {
      "type": "sequential",
      "steps": {
        "generateRows": {
          "type": "GenerateRows",
          "data": {
            "fieldNamesValuesCSV": "\"#sqlText:truncate table ${targetSchemaTable}\"",
            "numRows": "${truncateTargetEnabled1orDisabled0}",
            "sleepIntervalSeconds": "0"
          }
        },
        "truncateTable": {
          "type": "SqlExec",
          "data": {
            "readDataFromStep": "generateRows",
            "databaseConnectionName": "target",
            "sqlQueryFieldName": "#sqlText"
          }
        }
      },
      "sequence": [
        "generateRows",
        "truncateTable"
      ]
    },
    "loadDsn": {
      "type": "sequential",
      "steps": {
        "readFromSource": {
          "type": "TableInput",
          "data": {
            "databaseConnectionName": "source",
            "sqlText": "select ${columnListCsv} from ${sourceTable}"
          }
        },
        "writeToTarget": {
          "type": "TableInsert",
          "data": {
            "readDataFromStep": "readFromSource",
            "databaseConnectionName": "target",
            "outputSchemaName": "${targetSchema}",
            "outputTable": "${targetTable}",
            "commitBatchSize": "${targetBatchSize}",
            "txtBatchNumRows": "${txtBatchNumRows}",
            "keyCols": "${targetKeyColumns}",
            "otherCols": ""
          }
        }
      },
      "sequence": [
        "readFromSource",
        "writeToTarget"
      ]
    }
  },
  "sequence": [
    "createTargetTable",
    "optionalTruncateTarget",
    "loadDsn"
  ]
}
`
