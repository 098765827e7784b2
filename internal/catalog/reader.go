// Package catalog reads earthquake catalog files into domain records and
// keeps loaded catalogs in memory.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/pgzip"
	"github.com/parquet-go/parquet-go"

	"github.com/couchcryptid/aftershock-forecast-service/internal/domain"
)

// ErrUnsupportedFormat is returned for a file extension ReadFile does not know.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// columnAliases maps accepted header names to canonical column names. The
// downloader writes the short names; FDSN exports use the long ones.
var columnAliases = map[string]string{
	"id":        "id",
	"time":      "time",
	"mag":       "mag",
	"magnitude": "mag",
	"depth":     "depth",
	"lon":       "lon",
	"longitude": "lon",
	"lat":       "lat",
	"latitude":  "lat",
	"place":     "place",
	"type":      "type",
}

var requiredColumns = []string{"time", "mag", "lat", "lon"}

// ReadFile reads a catalog file, choosing the decoder by extension:
// .csv, .csv.gz or .parquet.
func ReadFile(path string) ([]domain.CatalogRecord, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".parquet"):
		return readParquetFile(path)
	case strings.HasSuffix(lower, ".csv.gz"), strings.HasSuffix(lower, ".gz"):
		return readGzipFile(path)
	case strings.HasSuffix(lower, ".csv"):
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

func readGzipFile(path string) ([]domain.CatalogRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open gzip %s: %w", path, err)
	}
	defer gz.Close()
	return ReadCSV(gz)
}

// ReadCSV reads a headered catalog CSV. Columns are matched by name, in any
// order; unknown columns are ignored. Empty or unparsable numeric cells
// become missing values so the row is judged later by domain.ParseRecord.
func ReadCSV(r io.Reader) ([]domain.CatalogRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("catalog csv: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("catalog csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canon, ok := columnAliases[name]; ok {
			if _, dup := index[canon]; !dup {
				index[canon] = i
			}
		}
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("catalog csv: missing required column %q", col)
		}
	}

	var records []domain.CatalogRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog csv: %w", err)
		}
		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		records = append(records, domain.CatalogRecord{
			ID:    field("id"),
			Time:  field("time"),
			Mag:   parseFloat(field("mag")),
			Depth: parseFloat(field("depth")),
			Lon:   parseFloat(field("lon")),
			Lat:   parseFloat(field("lat")),
			Place: field("place"),
			Type:  field("type"),
		})
	}
	return records, nil
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parquetRow is the Parquet layout of a catalog row. Every column is
// optional so files with gaps decode without error.
type parquetRow struct {
	ID    string   `parquet:"id,optional"`
	Time  string   `parquet:"time,optional"`
	Mag   *float64 `parquet:"mag"`
	Depth *float64 `parquet:"depth"`
	Lon   *float64 `parquet:"lon"`
	Lat   *float64 `parquet:"lat"`
	Place string   `parquet:"place,optional"`
	Type  string   `parquet:"type,optional"`
}

func readParquetFile(path string) ([]domain.CatalogRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}

	reader := parquet.NewGenericReader[parquetRow](pf)
	defer reader.Close()

	records := make([]domain.CatalogRecord, 0, pf.NumRows())
	buf := make([]parquetRow, 1024)
	for {
		n, err := reader.Read(buf)
		for _, row := range buf[:n] {
			records = append(records, domain.CatalogRecord(row))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet %s: %w", path, err)
		}
		if n == 0 {
			break
		}
	}
	return records, nil
}

// WriteParquet writes records as a Parquet catalog file.
func WriteParquet(path string, records []domain.CatalogRecord) error {
	rows := make([]parquetRow, len(records))
	for i, rec := range records {
		rows[i] = parquetRow(rec)
	}
	return parquet.WriteFile(path, rows)
}
