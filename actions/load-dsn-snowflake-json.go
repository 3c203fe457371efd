package actions

var jsonDsnSnowflakeLoad = `{
  "schemaVersion": 3,
  "description": "load from DSN to Snowflake via S3",
  "connections": {
    "source": {
      "type": "${srcType}",
      "logicalName": "${srcLogicalName}",
      "data": {
        "dsn": "${srcDsn}"
      }
    },
    "target": {
      "type": "snowflake",
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
    "loadData": {
      "type": "sequential",
      "steps": {
        "readFromSource": {
          "type": "TableInput",
          "data": {
            "databaseConnectionName": "source",
            "sqlText": "select ${columnListCsv} from ${sourceTable}"
          }
        },
        "csvWriter": {
          "type": "CSVFileWriter",
          "data": {
            "readDataFromStep": "readFromSource",
            "outputDir": "",
            "fileNamePrefix": "${fileNamePrefix}",
            "fileNameSuffixAppendCreationStamp": "true",
            "fileNameSuffixDateTimeFormat": "20060102T150405",
            "fileNameExtension": "csv",
            "useGzip": "true",
            "headerFieldsCSV": "${csvHeaderFields}",
            "maxFileRows": "${csvMaxFileRows}",
            "maxFileBytes": "${csvMaxFileBytes}",
            "outputFieldName4FilePath": "#internalFilePath"
          }
        },
        "copyFilesToS3": {
          "type": "CopyFilesToS3",
          "data": {
            "readDataFromStep": "csvWriter",
            "inputFieldName4FilePath": "#internalFilePath",
            "bucketName": "${bucketName}",
            "bucketPrefix": "${bucketPrefix}",
            "bucketRegion": "${bucketRegion}",
            "removeInputFiles": "true"
          }
        },
        "fieldMapperGetFileName": {
          "type": "FieldMapper",
          "data": {
            "readDataFromStep": "copyFilesToS3"
          },
          "steps": [
            {
              "type": "RegexpReplace",
              "data": {
                "fieldName": "#internalFilePath",
                "regexpMatch": "^.*/",
                "regexpReplace": "",
                "resultField": "#dataFile"
              }
            }
          ]
        },
        "copyIntoSnowflake": {
          "type": "SnowflakeLoader",
          "data": {
            "logicalConnectionName": "target",
            "fieldName4FileName": "#dataFile",
            "use1Transaction": "true",
            "deleteAllRows": "${deleteTarget}",
            "readDataFromStep": "fieldMapperGetFileName",
            "stageName": "${snowflakeStage}",
            "schemaTableName": "${snowflakeTable}"
          }
        }
      },
      "sequence": [
        "readFromSource",
        "csvWriter",
        "copyFilesToS3",
        "fieldMapperGetFileName",
        "copyIntoSnowflake"
      ]
    }
  },
  "sequence": [
    "createTargetTable",
    "loadData"
  ]
}`
