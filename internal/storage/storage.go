package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/timecalc"
	"github.com/Tiliavir/shiftpay/internal/timesheet"
)

// dayFilePath returns the path for the given date's JSON file.
func dayFilePath(base string, d model.CalendarDate) string {
	return filepath.Join(base, fmt.Sprintf("%04d", d.Year), fmt.Sprintf("%02d", int(d.Month)), fmt.Sprintf("%02d.json", d.Day))
}

// LoadDay loads the DayFile for the given date. Returns an empty DayFile if not found.
func LoadDay(base string, d model.CalendarDate) (model.DayFile, error) {
	path := dayFilePath(base, d)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.DayFile{Date: d, Entries: []model.RawTimeEntry{}}, nil
	}
	if err != nil {
		return model.DayFile{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var df model.DayFile
	if err := json.Unmarshal(data, &df); err != nil {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return model.DayFile{}, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	return df, nil
}

// SaveDay atomically writes a DayFile for the given date.
func SaveDay(base string, d model.CalendarDate, df model.DayFile) error {
	path := dayFilePath(base, d)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	df.Date = d
	data, err := json.MarshalIndent(df, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to a unique temp file then rename.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".day-*")
	if err != nil {
		return fmt.Errorf("storage error creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// UpdateEntry replaces or appends an entry in the DayFile of its date.
func UpdateEntry(base string, entry model.RawTimeEntry) error {
	df, err := LoadDay(base, entry.Date)
	if err != nil {
		return err
	}
	for i, e := range df.Entries {
		if e.ID == entry.ID {
			df.Entries[i] = entry
			return SaveDay(base, entry.Date, df)
		}
	}
	df.Entries = append(df.Entries, entry)
	return SaveDay(base, entry.Date, df)
}

// LoadRange loads all entries in [from, to] inclusive.
func LoadRange(base string, from, to model.CalendarDate) ([]model.RawTimeEntry, error) {
	var entries []model.RawTimeEntry
	for d := from; !d.After(to); d = d.AddDays(1) {
		df, err := LoadDay(base, d)
		if err != nil {
			return nil, err
		}
		entries = append(entries, df.Entries...)
	}
	return entries, nil
}

// FindOpenEntry searches the day files from today back for the most recent
// entry of employeeID without an exit time. employeeID "" matches anyone.
func FindOpenEntry(base, employeeID string, today model.CalendarDate) (*model.RawTimeEntry, error) {
	for i := 0; i < timesheet.OpenShiftLookback; i++ {
		df, err := LoadDay(base, today.AddDays(-i))
		if err != nil {
			return nil, err
		}
		for j := len(df.Entries) - 1; j >= 0; j-- {
			e := df.Entries[j]
			if e.IsOpen() && (employeeID == "" || e.Employee.ID == employeeID) {
				return &e, nil
			}
		}
	}
	return nil, nil
}

// dayFiles lists every day file under base, most recent first.
func dayFiles(base string) ([]model.CalendarDate, error) {
	paths, err := filepath.Glob(filepath.Join(base, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", "[0-9][0-9].json"))
	if err != nil {
		return nil, fmt.Errorf("storage error listing day files: %w", err)
	}
	var days []model.CalendarDate
	for _, p := range paths {
		rel, err := filepath.Rel(base, p)
		if err != nil {
			continue
		}
		d, err := model.ParseDate(strings.ReplaceAll(strings.TrimSuffix(filepath.ToSlash(rel), ".json"), "/", "-"))
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}

// Store is a timesheet.Store over JSON day files. It also serves as the
// offline cache of a remote store. Writes through one Store are serialized;
// the day files are not locked against other processes.
type Store struct {
	base string
	loc  *time.Location
	now  func() time.Time

	mu sync.Mutex // held across every load-modify-save of a day file
}

// New returns a Store rooted at base. Dates of new entries are taken in loc.
func New(base string, loc *time.Location) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{base: base, loc: loc, now: time.Now}
}

// Base returns the directory holding the day files.
func (s *Store) Base() string { return s.base }

func (s *Store) FetchEntries(ctx context.Context, q model.Query) ([]model.RawTimeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !q.Start.IsZero() && !q.End.IsZero() {
		entries, err := LoadRange(s.base, q.Start, q.End)
		if err != nil {
			return nil, err
		}
		return filter(entries, q), nil
	}

	// Without a range every day file is read, oldest first.
	days, err := dayFiles(s.base)
	if err != nil {
		return nil, err
	}
	var entries []model.RawTimeEntry
	for i := len(days) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		df, err := LoadDay(s.base, days[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, df.Entries...)
	}
	return filter(entries, q), nil
}

func filter(entries []model.RawTimeEntry, q model.Query) []model.RawTimeEntry {
	var out []model.RawTimeEntry
	for _, e := range entries {
		if q.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) GetEntry(_ context.Context, id string) (model.RawTimeEntry, error) {
	df, idx, err := s.locate(id)
	if err != nil {
		return model.RawTimeEntry{}, err
	}
	return df.Entries[idx], nil
}

func (s *Store) CreateEntry(_ context.Context, e model.RawTimeEntry) (model.RawTimeEntry, error) {
	if e.ID == "" {
		e.ID = timecalc.GenerateID(s.now())
	}
	if e.Approval == "" {
		e.Approval = model.StatePending
	}
	if e.Date.IsZero() {
		e.Date = model.DateOf(e.EntryInstant.In(s.loc))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := UpdateEntry(s.base, e); err != nil {
		return model.RawTimeEntry{}, err
	}
	return e, nil
}

func (s *Store) UpdateEntry(_ context.Context, e model.RawTimeEntry) (model.RawTimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	df, idx, err := s.locate(e.ID)
	if err != nil {
		return model.RawTimeEntry{}, err
	}
	if e.Date.IsZero() {
		e.Date = df.Date
	}
	if e.Date != df.Date {
		df.Entries = append(df.Entries[:idx], df.Entries[idx+1:]...)
		if err := SaveDay(s.base, df.Date, df); err != nil {
			return model.RawTimeEntry{}, err
		}
	}
	if err := UpdateEntry(s.base, e); err != nil {
		return model.RawTimeEntry{}, err
	}
	return e, nil
}

func (s *Store) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	df, idx, err := s.locate(id)
	if err != nil {
		return err
	}
	df.Entries = append(df.Entries[:idx], df.Entries[idx+1:]...)
	return SaveDay(s.base, df.Date, df)
}

// OpenEntry implements timesheet.OpenShiftFinder.
func (s *Store) OpenEntry(_ context.Context, employeeID string, since model.CalendarDate) (*model.RawTimeEntry, error) {
	today := model.DateOf(s.now().In(s.loc))
	e, err := FindOpenEntry(s.base, employeeID, today)
	if err != nil || e == nil || e.Date.Before(since) {
		return nil, err
	}
	return e, nil
}

// SaveEntries replaces the cached entries matching q with entries. Without
// a date range in q the entries are upserted.
func (s *Store) SaveEntries(_ context.Context, q model.Query, entries []model.RawTimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q.Start.IsZero() || q.End.IsZero() {
		for _, e := range entries {
			if err := UpdateEntry(s.base, e); err != nil {
				return err
			}
		}
		return nil
	}

	byDay := make(map[model.CalendarDate][]model.RawTimeEntry)
	for _, e := range entries {
		byDay[e.Date] = append(byDay[e.Date], e)
	}
	for d := q.Start; !d.After(q.End); d = d.AddDays(1) {
		df, err := LoadDay(s.base, d)
		if err != nil {
			return err
		}
		kept := df.Entries[:0]
		for _, e := range df.Entries {
			if !q.Matches(e) {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 && len(byDay[d]) == 0 && len(df.Entries) == 0 {
			continue
		}
		df.Entries = append(kept, byDay[d]...)
		if err := SaveDay(s.base, d, df); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) locate(id string) (model.DayFile, int, error) {
	days, err := dayFiles(s.base)
	if err != nil {
		return model.DayFile{}, 0, err
	}
	for _, d := range days {
		df, err := LoadDay(s.base, d)
		if err != nil {
			return model.DayFile{}, 0, err
		}
		for i, e := range df.Entries {
			if e.ID == id {
				return df, i, nil
			}
		}
	}
	return model.DayFile{}, 0, fmt.Errorf("%w: %s", timesheet.ErrNotFound, id)
}
