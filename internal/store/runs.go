package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BaSui01/flowcanvas/internal/database"
	"github.com/BaSui01/flowcanvas/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// runRow 是 workflow_runs 表的一行。完整结果以 JSON 存放在 Result 列。
type runRow struct {
	RunID           string    `gorm:"primaryKey;size:64"`
	WorkflowID      string    `gorm:"size:128;index"`
	Status          string    `gorm:"size:16;index"`
	StartTime       time.Time `gorm:"index"`
	EndTime         time.Time
	TotalDurationMs int64
	NodeCount       int
	Result          string `gorm:"type:text"`
}

func (runRow) TableName() string { return "workflow_runs" }

// SQLRunStore 把运行记录写入关系型数据库
type SQLRunStore struct {
	pool   *database.PoolManager
	logger *zap.Logger
}

var _ workflow.RunStore = (*SQLRunStore)(nil)

// NewSQLRunStore 创建存储并确保表结构存在
func NewSQLRunStore(ctx context.Context, pool *database.PoolManager, logger *zap.Logger) (*SQLRunStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := pool.DB().WithContext(ctx).AutoMigrate(&runRow{}); err != nil {
		return nil, fmt.Errorf("migrate workflow_runs: %w", err)
	}
	return &SQLRunStore{
		pool:   pool,
		logger: logger.With(zap.String("component", "run_store")),
	}, nil
}

// SaveRun 插入或覆盖一条运行记录
func (s *SQLRunStore) SaveRun(ctx context.Context, rec *workflow.RunRecord) error {
	if rec == nil || rec.RunID == "" {
		return fmt.Errorf("run record requires a run id")
	}
	row, err := toRow(rec)
	if err != nil {
		return err
	}

	err = s.pool.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error
	})
	if err != nil {
		s.logger.Error("save run failed", zap.String("run_id", rec.RunID), zap.Error(err))
		return fmt.Errorf("save run %s: %w", rec.RunID, err)
	}
	return nil
}

// GetRun 读取单条运行记录，不存在时返回 workflow.ErrRunNotFound
func (s *SQLRunStore) GetRun(ctx context.Context, runID string) (*workflow.RunRecord, error) {
	var row runRow
	err := s.pool.DB().WithContext(ctx).Where("run_id = ?", runID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, workflow.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return fromRow(&row)
}

// ListRuns 按开始时间倒序列出运行记录
func (s *SQLRunStore) ListRuns(ctx context.Context, filter workflow.RunFilter) ([]*workflow.RunRecord, error) {
	q := s.pool.DB().WithContext(ctx).Order("start_time DESC")
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []runRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	out := make([]*workflow.RunRecord, 0, len(rows))
	for i := range rows {
		rec, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func toRow(rec *workflow.RunRecord) (*runRow, error) {
	row := &runRow{
		RunID:      rec.RunID,
		WorkflowID: rec.WorkflowID,
		StartTime:  rec.StartTime.UTC(),
		EndTime:    rec.EndTime.UTC(),
	}
	if rec.Result != nil {
		data, err := json.Marshal(rec.Result)
		if err != nil {
			return nil, fmt.Errorf("encode run %s: %w", rec.RunID, err)
		}
		row.Result = string(data)
		row.Status = string(rec.Result.Status)
		row.TotalDurationMs = rec.Result.TotalDuration.Milliseconds()
		row.NodeCount = len(rec.Result.Results)
	}
	return row, nil
}

func fromRow(row *runRow) (*workflow.RunRecord, error) {
	rec := &workflow.RunRecord{
		RunID:      row.RunID,
		WorkflowID: row.WorkflowID,
		StartTime:  row.StartTime,
		EndTime:    row.EndTime,
	}
	if row.Result != "" {
		var res workflow.WorkflowResult
		if err := json.Unmarshal([]byte(row.Result), &res); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", row.RunID, err)
		}
		rec.Result = &res
	}
	return rec, nil
}
