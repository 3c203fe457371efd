package models

// The builtin pack for the Open University Learning Analytics dataset. Raw
// tables arrive as CSV loads of all string columns, so the clean layer casts
// types. OULAD dates are day offsets from the presentation start; the mart
// layer resolves them to calendar dates using the presentation code, where the
// B suffix means a February start and J an October start. The model SQL
// targets ClickHouse.
var packOuladYaml = `
schemaVersion: 1
name: oulad
description: Open University Learning Analytics warehouse models; model SQL targets ClickHouse.
schemas:
  raw: raw
  clean: clean
  mart: mart
models:
  - name: courses
    layer: clean
    sql: >-
      select code_module, code_presentation,
      toInt64OrNull(module_presentation_length) as module_presentation_length
      from ${raw}.courses
    columns:
      - name: code_module
        checks:
          - type: not_null
  - name: student_info
    layer: clean
    sql: >-
      select code_module, code_presentation, toInt64(id_student) as id_student,
      if(gender = '', 'Unknown', gender) as gender, region, highest_education, imd_band, age_band,
      toInt64OrNull(num_of_prev_attempts) as num_of_prev_attempts,
      toInt64OrNull(studied_credits) as studied_credits, disability, final_result
      from ${raw}.student_info
    columns:
      - name: id_student
        checks:
          - type: not_null
      - name: gender
        checks:
          - type: accepted_values
            values: ["M", "F", "Unknown"]
      - name: disability
        checks:
          - type: accepted_values
            values: ["Y", "N"]
      - name: final_result
        checks:
          - type: accepted_values
            values: ["Pass", "Fail", "Withdrawn", "Distinction"]
  - name: assessments
    layer: clean
    sql: >-
      select code_module, code_presentation, toInt64(id_assessment) as id_assessment, assessment_type,
      toInt64OrNull(date) as assessment_date, toFloat64OrNull(weight) as weight
      from ${raw}.assessments
    columns:
      - name: id_assessment
        checks:
          - type: not_null
          - type: unique
      - name: assessment_type
        checks:
          - type: accepted_values
            values: ["TMA", "CMA", "Exam"]
  - name: student_assessment
    layer: clean
    sql: >-
      select toInt64(id_assessment) as id_assessment, toInt64(id_student) as id_student,
      toInt64OrNull(date_submitted) as date_submitted, toInt64OrNull(is_banked) as is_banked,
      toFloat64OrNull(score) as score
      from ${raw}.student_assessment
    columns:
      - name: id_assessment
        checks:
          - type: not_null
          - type: relationships
            to: ${clean}.assessments
            field: id_assessment
      - name: id_student
        checks:
          - type: not_null
      - name: score
        checks:
          - type: expression
            sql: score is null or (score >= 0 and score <= 100)
  - name: vle
    layer: clean
    sql: >-
      select toInt64(id_site) as id_site, code_module, code_presentation, activity_type,
      toInt64OrNull(week_from) as week_from, toInt64OrNull(week_to) as week_to
      from ${raw}.vle
    columns:
      - name: id_site
        checks:
          - type: not_null
          - type: unique
  - name: student_vle
    layer: clean
    sql: >-
      select code_module, code_presentation, toInt64(id_student) as id_student,
      toInt64(id_site) as id_site, toInt64OrNull(date) as activity_date,
      toInt64OrNull(sum_click) as sum_click
      from ${raw}.student_vle
    columns:
      - name: id_student
        checks:
          - type: not_null
      - name: id_site
        checks:
          - type: not_null
          - type: relationships
            to: ${clean}.vle
            field: id_site
            severity: warn
      - name: sum_click
        checks:
          - type: expression
            sql: sum_click > 0
  - name: dim_student
    layer: mart
    sql: >-
      select id_student as student_key, any(gender) as gender, any(region) as region,
      any(highest_education) as highest_education, any(imd_band) as imd_band,
      any(age_band) as age_band, any(disability) as disability
      from ${clean}.student_info
      group by id_student
    columns:
      - name: student_key
        checks:
          - type: not_null
          - type: unique
  - name: dim_module
    layer: mart
    sql: select distinct code_module as module_key from ${clean}.courses
    columns:
      - name: module_key
        checks:
          - type: not_null
          - type: unique
  - name: dim_presentation
    layer: mart
    sql: >-
      select concat(code_module, '-', code_presentation) as presentation_key,
      code_module as module_key, code_presentation, module_presentation_length
      from ${clean}.courses
    columns:
      - name: presentation_key
        checks:
          - type: not_null
          - type: unique
      - name: module_key
        checks:
          - type: relationships
            to: ${mart}.dim_module
            field: module_key
  - name: dim_date
    layer: mart
    materialized: date_spine
    spine:
      from: "2012-06-01"
      to: "2016-07-01"
    columns:
      - name: date_key
        checks:
          - type: not_null
          - type: unique
  - name: fact_assessment
    layer: mart
    sql: >-
      select sa.id_assessment, sa.id_student as student_key, a.code_module as module_key,
      concat(a.code_module, '-', a.code_presentation) as presentation_key,
      toYYYYMMDD(addDays(toDate(concat(substring(a.code_presentation, 1, 4),
      if(substring(a.code_presentation, 5, 1) = 'B', '-02-01', '-10-01'))),
      coalesce(sa.date_submitted, 0))) as date_key,
      a.assessment_type, a.weight, sa.score, sa.is_banked
      from ${clean}.student_assessment sa
      join ${clean}.assessments a on a.id_assessment = sa.id_assessment
    columns:
      - name: id_assessment
        checks:
          - type: not_null
      - name: student_key
        checks:
          - type: not_null
          - type: relationships
            to: ${mart}.dim_student
            field: student_key
      - name: module_key
        checks:
          - type: relationships
            to: ${mart}.dim_module
            field: module_key
      - name: presentation_key
        checks:
          - type: relationships
            to: ${mart}.dim_presentation
            field: presentation_key
      - name: date_key
        checks:
          - type: relationships
            to: ${mart}.dim_date
            field: date_key
            severity: warn
      - name: score
        checks:
          - type: expression
            sql: score is null or (score >= 0 and score <= 100)
  - name: fact_vle_interaction
    layer: mart
    sql: >-
      select sv.id_student as student_key, sv.id_site as site_key, v.activity_type,
      sv.code_module as module_key, concat(sv.code_module, '-', sv.code_presentation) as presentation_key,
      toYYYYMMDD(addDays(toDate(concat(substring(sv.code_presentation, 1, 4),
      if(substring(sv.code_presentation, 5, 1) = 'B', '-02-01', '-10-01'))),
      sv.activity_date)) as date_key,
      sum(sv.sum_click) as total_clicks
      from ${clean}.student_vle sv
      left join ${clean}.vle v on v.id_site = sv.id_site
      group by student_key, site_key, activity_type, module_key, presentation_key, date_key
    columns:
      - name: student_key
        checks:
          - type: not_null
          - type: relationships
            to: ${mart}.dim_student
            field: student_key
      - name: presentation_key
        checks:
          - type: relationships
            to: ${mart}.dim_presentation
            field: presentation_key
      - name: date_key
        checks:
          - type: relationships
            to: ${mart}.dim_date
            field: date_key
            severity: warn
      - name: total_clicks
        checks:
          - type: expression
            sql: total_clicks > 0
`
