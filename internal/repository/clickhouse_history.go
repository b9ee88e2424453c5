package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"TriSight/internal/domain/models"
	pkgch "TriSight/pkg/clickhouse"
	applogger "TriSight/pkg/logger"
)

// CHHistoryStore persists one row per pipeline run to ClickHouse.
type CHHistoryStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client) *CHHistoryStore {
	return &CHHistoryStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHHistoryStore) SetLogger(l *applogger.Logger) { s.l = l }

// HistorySchema contains the idempotent DDL for the runs table. Callers
// pass it to clickhouse.Client.InitSchema at startup.
var HistorySchema = []string{
	`CREATE DATABASE IF NOT EXISTS trisight`,
	`CREATE TABLE IF NOT EXISTS trisight.analysis_runs (
        request_id      String,
        ticker          LowCardinality(String),
        context         LowCardinality(String),
        success         UInt8,
        synthesis_score Int32,
        recommendation  LowCardinality(String),
        confidence      Float64,
        error_code      LowCardinality(String),
        stage_timings   String,
        total_ms        Int64,
        created_at      DateTime64(3)
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(created_at)
    ORDER BY (ticker, created_at)`,
}

func (s *CHHistoryStore) SaveRun(ctx context.Context, rec models.RunRecord) error {
	start := time.Now()

	timings := make(map[string]int64, len(rec.StageTimings))
	for stage, d := range rec.StageTimings {
		timings[string(stage)] = d.Milliseconds()
	}
	timingsJSON, err := json.Marshal(timings)
	if err != nil {
		return fmt.Errorf("marshal stage timings: %w", err)
	}

	success := uint8(0)
	if rec.Success {
		success = 1
	}

	const q = `
        INSERT INTO trisight.analysis_runs
            (request_id, ticker, context, success, synthesis_score,
             recommendation, confidence, error_code, stage_timings, total_ms, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err = s.db.ExecContext(ctx, q,
		rec.RequestID, rec.Ticker, rec.Context, success, int32(rec.SynthesisScore),
		rec.Recommendation, rec.Confidence, rec.ErrorCode,
		string(timingsJSON), rec.TotalDuration.Milliseconds(), rec.CreatedAt,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse save_run insert error",
				applogger.String("request_id", rec.RequestID),
				applogger.String("ticker", rec.Ticker),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("save run: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse save_run ok",
			applogger.String("request_id", rec.RequestID),
			applogger.String("ticker", rec.Ticker),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}
