package service

import (
	"context"
	"errors"

	"github.com/eatly/dishes-api/internal/repository"
)

// DBInfoResult is the read-only view served by the db-info probe.
type DBInfoResult struct {
	Database      string `json:"database"`
	User          string `json:"user"`
	Version       string `json:"version"`
	ServerVersion string `json:"server_version"`
	Table         string `json:"table"`
	TableExists   bool   `json:"table_exists"`
	RowCount      *int   `json:"row_count"`
}

// ConnectionStatus is the result of a connection test.
type ConnectionStatus struct {
	Status          string `json:"status"`
	Database        string `json:"database,omitempty"`
	User            string `json:"user,omitempty"`
	PostgresVersion string `json:"postgres_version,omitempty"`
	Detail          string `json:"detail,omitempty"`
}

// Connected reports whether the test reached the store.
func (c *ConnectionStatus) Connected() bool {
	return c.Status == "connected"
}

// DBInfo describes the store and the dishes table. It never modifies
// anything and tolerates a missing table.
func (s *DishService) DBInfo(ctx context.Context) (*DBInfoResult, error) {
	info, err := s.repo.Info(ctx)
	if err != nil {
		return nil, s.fail("read database info", err)
	}

	result := &DBInfoResult{
		Database:      info.Database,
		User:          info.User,
		Version:       info.Version,
		ServerVersion: info.ServerVersion,
		Table:         s.table,
	}

	exists, err := s.repo.TableExists(ctx)
	if err != nil {
		return nil, s.fail("check dishes table", err)
	}
	result.TableExists = exists
	if !exists {
		return result, nil
	}

	n, err := s.repo.Count(ctx)
	if errors.Is(err, repository.ErrTableMissing) {
		// Dropped between the check and the count.
		result.TableExists = false
		return result, nil
	}
	if err != nil {
		return nil, s.fail("count dishes", err)
	}
	result.RowCount = &n

	return result, nil
}

// TestConnection runs a trivial query against the store and reports the
// outcome as data rather than as an error.
func (s *DishService) TestConnection(ctx context.Context) *ConnectionStatus {
	info, err := s.repo.Info(ctx)
	if err != nil {
		s.logger.Warn("connection test failed", "error", err)
		return &ConnectionStatus{Status: "error", Detail: err.Error()}
	}
	return &ConnectionStatus{
		Status:          "connected",
		Database:        info.Database,
		User:            info.User,
		PostgresVersion: info.ServerVersion,
	}
}

// Ping checks that the store is reachable.
func (s *DishService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return s.fail("ping", err)
	}
	return nil
}
