// Package sqlstore stores time entries in MySQL through gorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/timesheet"
)

// Store implements timesheet.Store on a gorm database.
type Store struct {
	db     *gorm.DB
	loc    *time.Location
	logger *zap.Logger
}

// Open connects to the MySQL dsn and migrates the schema. The DSN needs
// parseTime=true.
func Open(dsn string, loc *time.Location, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.AutoMigrate(&TimeEntry{}); err != nil {
		return nil, fmt.Errorf("migrate time entries: %w", err)
	}
	return New(db, loc, logger), nil
}

// New wraps an already opened database.
func New(db *gorm.DB, loc *time.Location, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Store{db: db, loc: loc, logger: logger}
}

// scope restricts a TimeEntry query to q.
func scope(q model.Query) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if !q.Start.IsZero() {
			tx = tx.Where("date >= ?", q.Start.In(time.UTC))
		}
		if !q.End.IsZero() {
			tx = tx.Where("date <= ?", q.End.In(time.UTC))
		}
		if q.EmployeeID != "" {
			tx = tx.Where("employee_id = ?", q.EmployeeID)
		}
		if q.Status != "" {
			tx = tx.Where("status = ?", string(q.Status))
		}
		return tx.Order("date").Order("entry_time")
	}
}

// FetchEntries implements timesheet.Fetcher.
func (s *Store) FetchEntries(ctx context.Context, q model.Query) ([]model.RawTimeEntry, error) {
	var rows []TimeEntry
	if err := s.db.WithContext(ctx).Scopes(scope(q)).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query time entries: %w", err)
	}
	entries := make([]model.RawTimeEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toModel(s.loc))
	}
	s.logger.Debug("fetched time entries", zap.Int("count", len(entries)))
	return entries, nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (model.RawTimeEntry, error) {
	row, err := s.find(s.db.WithContext(ctx), id)
	if err != nil {
		return model.RawTimeEntry{}, err
	}
	return row.toModel(s.loc), nil
}

func (s *Store) find(tx *gorm.DB, id string) (TimeEntry, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return TimeEntry{}, fmt.Errorf("%w: %q", timesheet.ErrNotFound, id)
	}
	var row TimeEntry
	if err := tx.First(&row, "id = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TimeEntry{}, fmt.Errorf("%w: %s", timesheet.ErrNotFound, id)
		}
		return TimeEntry{}, fmt.Errorf("load time entry %s: %w", id, err)
	}
	return row, nil
}

func (s *Store) CreateEntry(ctx context.Context, e model.RawTimeEntry) (model.RawTimeEntry, error) {
	row := newRow(e)
	row.ID = uuid.Nil
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.RawTimeEntry{}, fmt.Errorf("insert time entry: %w", err)
	}
	return row.toModel(s.loc), nil
}

func (s *Store) UpdateEntry(ctx context.Context, e model.RawTimeEntry) (model.RawTimeEntry, error) {
	var saved TimeEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.find(tx, e.ID)
		if err != nil {
			return err
		}
		saved = newRow(e)
		saved.ID = existing.ID
		saved.CreatedAt = existing.CreatedAt
		return tx.Save(&saved).Error
	})
	if err != nil {
		return model.RawTimeEntry{}, fmt.Errorf("update time entry: %w", err)
	}
	return saved.toModel(s.loc), nil
}

func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%w: %q", timesheet.ErrNotFound, id)
	}
	res := s.db.WithContext(ctx).Delete(&TimeEntry{}, "id = ?", uid)
	if res.Error != nil {
		return fmt.Errorf("delete time entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", timesheet.ErrNotFound, id)
	}
	return nil
}

// OpenEntry implements timesheet.OpenShiftFinder.
func (s *Store) OpenEntry(ctx context.Context, employeeID string, since model.CalendarDate) (*model.RawTimeEntry, error) {
	var row TimeEntry
	err := s.db.WithContext(ctx).
		Where("employee_id = ? AND exit_time IS NULL AND date >= ?", employeeID, since.In(time.UTC)).
		Order("entry_time DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open shift: %w", err)
	}
	e := row.toModel(s.loc)
	return &e, nil
}

// ListEmployees implements timesheet.Directory.
func (s *Store) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	var rows []struct {
		EmployeeID   string
		EmployeeName string
	}
	err := s.db.WithContext(ctx).
		Model(&TimeEntry{}).
		Distinct("employee_id", "employee_name").
		Order("employee_name").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	seen := map[string]int{}
	var out []model.Employee
	for _, r := range rows {
		if i, ok := seen[r.EmployeeID]; ok {
			if r.EmployeeName != "" {
				out[i].Name = r.EmployeeName
			}
			continue
		}
		seen[r.EmployeeID] = len(out)
		out = append(out, model.Employee{ID: r.EmployeeID, Name: r.EmployeeName})
	}
	return out, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
