package actions

var jsonDsnStdoutLoad = `{
  "schemaVersion": 3,
  "description": "load from DSN to STDOUT",
  "connections": {
    "source": {
      "type": "${srcType}",
      "logicalName": "${srcLogicalName}",
      "data": {
        "dsn": "${srcDsn}"
      }
    }
  },
  "type": "${repeatTransform}",
  "repeatMetadata": {
    "sleepSeconds": ${sleepSeconds}
  },
  "transformGroups": {
    "loadStdout": {
      "type": "sequential",
      "steps": {
        "readFromSource": {
          "type": "TableInput",
          "data": {
            "databaseConnectionName": "source",
            "sqlText": "select ${columnListCsv} from ${sourceTable}"
          }
        },
        "writeToStdout": {
          "type": "StdOutPassThrough",
          "data": {
            "readDataFromStep": "readFromSource",
            "outputFieldsCsv": "",
            "abortAfterNumRecords": "${abortAfterNumRows}"
          }
        }
      },
      "sequence": [
        "readFromSource",
        "writeToStdout"
      ]
    }
  },
  "sequence": [
    "loadStdout"
  ]
}
`
