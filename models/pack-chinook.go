package models

// The builtin pack for the Chinook music store dataset. Raw tables are expected
// in the layout produced by loading the source database, and the model SQL
// targets ClickHouse.
var packChinookYaml = `
schemaVersion: 1
name: chinook
description: Chinook music store warehouse models; model SQL targets ClickHouse.
schemas:
  raw: raw
  clean: clean
  mart: mart
models:
  - name: artist
    layer: clean
    sql: select artist_id, name as artist_name from ${raw}.artist
    columns:
      - name: artist_id
        checks:
          - type: not_null
          - type: unique
  - name: album
    layer: clean
    sql: select album_id, title as album_title, artist_id from ${raw}.album
    columns:
      - name: album_id
        checks:
          - type: not_null
          - type: unique
      - name: artist_id
        checks:
          - type: relationships
            to: ${clean}.artist
            field: artist_id
  - name: genre
    layer: clean
    sql: select genre_id, name as genre_name from ${raw}.genre
    columns:
      - name: genre_id
        checks:
          - type: not_null
          - type: unique
  - name: track
    layer: clean
    sql: >-
      select track_id, name as track_name, album_id, media_type_id, genre_id, composer,
      milliseconds, bytes, unit_price from ${raw}.track
    columns:
      - name: track_id
        checks:
          - type: not_null
          - type: unique
      - name: album_id
        checks:
          - type: relationships
            to: ${clean}.album
            field: album_id
      - name: genre_id
        checks:
          - type: relationships
            to: ${clean}.genre
            field: genre_id
            severity: warn
  - name: employee
    layer: clean
    sql: >-
      select employee_id, first_name, last_name, title as job_title, reports_to, hire_date,
      city, state, country, email from ${raw}.employee
    columns:
      - name: employee_id
        checks:
          - type: not_null
          - type: unique
  - name: customer
    layer: clean
    sql: >-
      select customer_id, first_name, last_name, company, address, city, state, country,
      postal_code, phone, email, support_rep_id from ${raw}.customer
    columns:
      - name: customer_id
        checks:
          - type: not_null
          - type: unique
      - name: support_rep_id
        checks:
          - type: relationships
            to: ${clean}.employee
            field: employee_id
  - name: invoice
    layer: clean
    sql: >-
      select invoice_id, customer_id, invoice_date, billing_address, billing_city, billing_state,
      billing_country, billing_postal_code, total as invoice_total from ${raw}.invoice
    columns:
      - name: invoice_id
        checks:
          - type: not_null
          - type: unique
      - name: customer_id
        checks:
          - type: not_null
          - type: relationships
            to: ${clean}.customer
            field: customer_id
      - name: invoice_total
        checks:
          - type: expression
            sql: invoice_total >= 0
  - name: invoice_line
    layer: clean
    sql: select invoice_line_id, invoice_id, track_id, unit_price, quantity from ${raw}.invoice_line
    columns:
      - name: invoice_line_id
        checks:
          - type: not_null
          - type: unique
      - name: invoice_id
        checks:
          - type: not_null
          - type: relationships
            to: ${clean}.invoice
            field: invoice_id
      - name: track_id
        checks:
          - type: not_null
          - type: relationships
            to: ${clean}.track
            field: track_id
      - name: quantity
        checks:
          - type: expression
            sql: quantity > 0
  - name: dim_artist
    layer: mart
    sql: select artist_id as artist_key, artist_name from ${clean}.artist
    columns:
      - name: artist_key
        checks:
          - type: not_null
          - type: unique
  - name: dim_album
    layer: mart
    sql: >-
      select al.album_id as album_key, al.album_title, ar.artist_id as artist_key, ar.artist_name
      from ${clean}.album al
      left join ${clean}.artist ar on ar.artist_id = al.artist_id
    columns:
      - name: album_key
        checks:
          - type: not_null
          - type: unique
  - name: dim_genre
    layer: mart
    sql: select genre_id as genre_key, genre_name from ${clean}.genre
    columns:
      - name: genre_key
        checks:
          - type: not_null
          - type: unique
  - name: dim_track
    layer: mart
    sql: >-
      select t.track_id as track_key, t.track_name, t.composer, t.milliseconds, t.unit_price,
      al.album_id as album_key, al.album_title, ar.artist_id as artist_key, ar.artist_name,
      g.genre_id as genre_key, g.genre_name
      from ${clean}.track t
      left join ${clean}.album al on al.album_id = t.album_id
      left join ${clean}.artist ar on ar.artist_id = al.artist_id
      left join ${clean}.genre g on g.genre_id = t.genre_id
    columns:
      - name: track_key
        checks:
          - type: not_null
          - type: unique
  - name: dim_customer
    layer: mart
    sql: >-
      select customer_id as customer_key, first_name, last_name, company, city, state, country,
      postal_code, email from ${clean}.customer
    columns:
      - name: customer_key
        checks:
          - type: not_null
          - type: unique
  - name: dim_employee
    layer: mart
    sql: >-
      select employee_id as employee_key, first_name, last_name, job_title, city, state,
      country, email from ${clean}.employee
    columns:
      - name: employee_key
        checks:
          - type: not_null
          - type: unique
  - name: dim_date
    layer: mart
    materialized: date_spine
    spine:
      from: "2009-01-01"
      to: "2014-01-01"
    columns:
      - name: date_key
        checks:
          - type: not_null
          - type: unique
  - name: fact_invoice_line
    layer: mart
    sql: >-
      select il.invoice_line_id, il.invoice_id, il.track_id as track_key, t.genre_id as genre_key,
      t.album_id as album_key, al.artist_id as artist_key, i.customer_id as customer_key,
      c.support_rep_id as employee_key, toYYYYMMDD(i.invoice_date) as date_key,
      il.quantity, il.unit_price, il.quantity * il.unit_price as line_amount
      from ${clean}.invoice_line il
      join ${clean}.invoice i on i.invoice_id = il.invoice_id
      left join ${clean}.track t on t.track_id = il.track_id
      left join ${clean}.album al on al.album_id = t.album_id
      left join ${clean}.customer c on c.customer_id = i.customer_id
    columns:
      - name: invoice_line_id
        checks:
          - type: not_null
          - type: unique
      - name: track_key
        checks:
          - type: not_null
          - type: relationships
            to: ${mart}.dim_track
            field: track_key
      - name: genre_key
        checks:
          - type: relationships
            to: ${mart}.dim_genre
            field: genre_key
            severity: warn
      - name: album_key
        checks:
          - type: relationships
            to: ${mart}.dim_album
            field: album_key
            severity: warn
      - name: artist_key
        checks:
          - type: relationships
            to: ${mart}.dim_artist
            field: artist_key
            severity: warn
      - name: customer_key
        checks:
          - type: not_null
          - type: relationships
            to: ${mart}.dim_customer
            field: customer_key
      - name: employee_key
        checks:
          - type: relationships
            to: ${mart}.dim_employee
            field: employee_key
      - name: date_key
        checks:
          - type: not_null
          - type: relationships
            to: ${mart}.dim_date
            field: date_key
      - name: quantity
        checks:
          - type: expression
            sql: quantity > 0
      - name: line_amount
        checks:
          - type: expression
            sql: line_amount = quantity * unit_price
`
