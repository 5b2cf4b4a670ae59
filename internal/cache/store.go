package cache

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"MarketSeasonality/internal/model"
)

// ErrCacheMissing is returned when no history has been cached yet.
var ErrCacheMissing = errors.New("price cache not found")

const dateLayout = "2006-01-02"

// Store is a flat CSV file holding the longest price history fetched so far.
type Store struct {
	mu   sync.RWMutex
	path string
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// SaveFullHistory replaces the cached history with series.
func (s *Store) SaveFullHistory(series model.PriceSeries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"date", "adj_close"}); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for i, p := range series.Points {
		rec := []string{p.Date.Format(dateLayout), strconv.FormatFloat(p.AdjClose, 'f', -1, 64)}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

// LoadHistory returns the cached sessions in [start, end).
func (s *Store) LoadHistory(start, end time.Time) (model.PriceSeries, error) {
	all, err := s.load()
	if err != nil {
		return model.PriceSeries{}, err
	}
	return all.Window(start, end), nil
}

// Span returns the first and last cached session dates.
func (s *Store) Span() (first, last time.Time, err error) {
	all, err := s.load()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if all.Len() == 0 {
		return time.Time{}, time.Time{}, ErrCacheMissing
	}
	return all.Points[0].Date, all.Points[all.Len()-1].Date, nil
}

func (s *Store) load() (model.PriceSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.PriceSeries{}, ErrCacheMissing
		}
		return model.PriceSeries{}, fmt.Errorf("open cache: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return model.PriceSeries{}, fmt.Errorf("stat cache: %w", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	series := model.PriceSeries{FetchedAt: info.ModTime(), FromCache: true}
	for line := 0; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.PriceSeries{}, fmt.Errorf("read cache line %d: %w", line+1, err)
		}
		if line == 0 && rec[0] == "date" {
			continue
		}
		date, err := time.Parse(dateLayout, rec[0])
		if err != nil {
			return model.PriceSeries{}, fmt.Errorf("parse cache date %q: %w", rec[0], err)
		}
		c, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return model.PriceSeries{}, fmt.Errorf("parse cache close %q: %w", rec[1], err)
		}
		series.Points = append(series.Points, model.PricePoint{Date: date, AdjClose: c})
	}
	return series, nil
}
