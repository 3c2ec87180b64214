// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
)

// ListFilter 列表查询过滤器
type ListFilter struct {
	RunID    string `json:"run_id,omitempty"`
	Instance string `json:"instance,omitempty"`
	Config   string `json:"config,omitempty"`
	Feasible *bool  `json:"feasible,omitempty"`
	Offset   int    `json:"offset"`
	Limit    int    `json:"limit"`
}

// DefaultListFilter 返回默认过滤器
func DefaultListFilter() ListFilter {
	return ListFilter{
		Offset: 0,
		Limit:  100,
	}
}

// WithLimit 设置限制
func (f ListFilter) WithLimit(limit int) ListFilter {
	f.Limit = limit
	return f
}

// WithOffset 设置偏移
func (f ListFilter) WithOffset(offset int) ListFilter {
	f.Offset = offset
	return f
}

// WithRunID 只查询一次运行
func (f ListFilter) WithRunID(id string) ListFilter {
	f.RunID = id
	return f
}

// WithInstance 只查询一个实例
func (f ListFilter) WithInstance(instance string) ListFilter {
	f.Instance = instance
	return f
}

// WithFeasible 按可行性过滤
func (f ListFilter) WithFeasible(feasible bool) ListFilter {
	f.Feasible = &feasible
	return f
}

// DB 数据库接口
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	Rebind(query string) string
}

// Scanner 行扫描接口
type Scanner interface {
	Scan(dest ...interface{}) error
}
