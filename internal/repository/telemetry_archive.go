package repository

import (
    "context"
    "database/sql"
    "fmt"
    "strings"
    "time"

    "OpsRecon/internal/domain/models"
    "OpsRecon/internal/domain/repository"
)

// ClickHouseArchive implements Archive for ClickHouse. Events and discrepant
// cells are appended for retrospective review; the reconciliation layer never
// reads them back on the hot path.
type ClickHouseArchive struct {
    db         *sql.DB
    eventTable string
    cellTable  string
}

// Column sets shared between the DDL and the inserts. Keep the two in one
// place so a schema change cannot silently break the write path.
var (
    eventColumns = []string{"event_id", "ts", "source", "severity", "title", "message"}
    cellColumns  = []string{"recorded_at", "venue", "bucket_key", "predicted_cost", "realized_cost", "discrepant", "p95_latency_ms"}
)

// SchemaStatements returns the DDL for the archive tables in the given
// database. The DI layer runs these at startup before any insert.
func SchemaStatements(database string) []string {
    return []string{
        "CREATE DATABASE IF NOT EXISTS " + database,
        "CREATE TABLE IF NOT EXISTS " + database + ".recon_events (" +
            "event_id String, " +
            "ts DateTime64(3), " +
            "source LowCardinality(String), " +
            "severity LowCardinality(String), " +
            "title String, " +
            "message String" +
            ") ENGINE=MergeTree ORDER BY (source, ts)",
        "CREATE TABLE IF NOT EXISTS " + database + ".recon_cells (" +
            "recorded_at DateTime64(3), " +
            "venue LowCardinality(String), " +
            "bucket_key String, " +
            "predicted_cost Float64, " +
            "realized_cost Float64, " +
            "discrepant UInt8, " +
            "p95_latency_ms Float64" +
            ") ENGINE=MergeTree ORDER BY (venue, bucket_key)",
    }
}

// NewClickHouseArchive creates a ClickHouse-backed telemetry archive.
func NewClickHouseArchive(db *sql.DB, eventTable, cellTable string) repository.Archive {
    return &ClickHouseArchive{db: db, eventTable: eventTable, cellTable: cellTable}
}

func (a *ClickHouseArchive) Init(ctx context.Context) error {
    return nil // Schema init in pkg
}

func (a *ClickHouseArchive) StoreEvents(ctx context.Context, events []models.TelemetryEvent) error {
    if len(events) == 0 {
        return nil
    }
    // Batch insert using VALUES multi-row to reduce round-trips.
    const chunkSize = 2000
    for start := 0; start < len(events); start += chunkSize {
        end := start + chunkSize
        if end > len(events) { end = len(events) }

        values := make([]string, 0, end-start)
        args := make([]interface{}, 0, (end-start)*6)
        for _, ev := range events[start:end] {
            if ev.ID == "" { continue }
            values = append(values, "(?, ?, ?, ?, ?, ?)")
            args = append(args,
                ev.ID,
                ev.Timestamp,
                string(ev.Source),
                string(ev.Severity),
                ev.Title,
                ev.Message,
            )
        }
        if len(values) == 0 { continue }
        q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", a.eventTable, strings.Join(eventColumns, ", "), strings.Join(values, ","))
        if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
            return err
        }
    }
    return nil
}

func (a *ClickHouseArchive) StoreCells(ctx context.Context, cells []*models.MergedCell) error {
    if len(cells) == 0 {
        return nil
    }
    recorded := time.Now()
    values := make([]string, 0, len(cells))
    args := make([]interface{}, 0, len(cells)*7)
    for _, c := range cells {
        if c == nil || c.Venue == "" { continue }
        var predicted, realized float64
        if c.Impact != nil {
            predicted = c.Impact.PredictedCost
            realized = c.Impact.RealizedCost
        }
        discrepant := uint8(0)
        if c.Discrepant { discrepant = 1 }
        values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
        args = append(args,
            recorded,
            c.Venue,
            c.BucketKey,
            predicted,
            realized,
            discrepant,
            latencyP95(c),
        )
    }
    if len(values) == 0 {
        return nil
    }
    q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", a.cellTable, strings.Join(cellColumns, ", "), strings.Join(values, ","))
    _, err := a.db.ExecContext(ctx, q, args...)
    return err
}

func (a *ClickHouseArchive) Health(ctx context.Context) error {
    return a.db.PingContext(ctx)
}

func (a *ClickHouseArchive) Close() error {
    return nil // Managed by pkg
}

func latencyP95(c *models.MergedCell) float64 {
    if c.Latency == nil {
        return 0
    }
    return c.Latency.P95Latency
}
