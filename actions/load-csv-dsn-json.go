package actions

var jsonCsvLoad = `{
  "schemaVersion": 3,
  "description": "load from CSV to DSN",
  "connections": {
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
    "loadCsv": {
      "type": "sequential",
      "steps": {
        "readFromFile": {
          "type": "CSVFileInput",
          "data": {
            "fileName": "${csvFileName}"
          }
        },
        "writeToTarget": {
          "type": "TableInsert",
          "data": {
            "readDataFromStep": "readFromFile",
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
        "readFromFile",
        "writeToTarget"
      ]
    }
  },
  "sequence": [
    "createTargetTable",
    "optionalTruncateTarget",
    "loadCsv"
  ]
}
`
