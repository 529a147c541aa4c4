// Package table reads and writes question datasets as delimited files.
package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/verte-zerg/wfdrill/internal/history"
	"github.com/verte-zerg/wfdrill/internal/model"
	"github.com/verte-zerg/wfdrill/internal/question"
)

// Column names of the tracked dataset file.
const (
	ColumnIndex       = "Question Number"
	ColumnFingerprint = "md5"
	ColumnAudioRef    = "mp3_path"
	ColumnWrong       = "wrong"
	ColumnReviewed    = "reviewed"
	ColumnWrongDates  = "wrong_date"
	ColumnWrongRecord = "wrong_record"
)

// DefaultContentColumn is the header of the reference text column.
const DefaultContentColumn = "English Content"

// Supported file encodings.
const (
	EncodingUTF8 = "utf-8"
	EncodingGBK  = "gbk"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// ErrInvalidRecord is returned when a stored row breaks a history invariant.
var ErrInvalidRecord = errors.New("invalid record")

// Options controls file layout.
type Options struct {
	ContentColumn string
	// IngestDelimiter separates fields of raw source lists.
	IngestDelimiter rune
	Encoding        string
	// AudioRef fills in audio references missing from stored rows.
	AudioRef question.AudioRefFunc
}

func (o Options) contentColumn() string {
	if o.ContentColumn == "" {
		return DefaultContentColumn
	}
	return o.ContentColumn
}

func (o Options) ingestDelimiter() rune {
	if o.IngestDelimiter == 0 {
		return '|'
	}
	return o.IngestDelimiter
}

// ValidEncoding reports whether name is a supported file encoding.
func ValidEncoding(name string) bool {
	switch strings.ToLower(name) {
	case "", EncodingUTF8, "utf8", EncodingGBK:
		return true
	}
	return false
}

func isGBK(name string) bool {
	return strings.EqualFold(name, EncodingGBK)
}

// LoadRawItems reads a raw source list. Only the content column is kept.
func LoadRawItems(path string, opts Options) ([]model.RawItem, error) {
	header, rows, err := readAll(path, opts.ingestDelimiter(), opts.Encoding, true)
	if err != nil {
		return nil, err
	}
	col, err := columnIndex(header, opts.contentColumn())
	if err != nil {
		return nil, err
	}
	items := make([]model.RawItem, 0, len(rows))
	for i, row := range rows {
		content := row[col]
		if strings.TrimSpace(content) == "" {
			return nil, fmt.Errorf("row %d: empty %q", i+2, opts.contentColumn())
		}
		items = append(items, model.RawItem{Content: content})
	}
	return items, nil
}

// LoadDataset reads a tracked dataset and renumbers it.
func LoadDataset(path string, opts Options) (*model.Dataset, error) {
	header, rows, err := readAll(path, ',', opts.Encoding, false)
	if err != nil {
		return nil, err
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	contentCol, ok := cols[opts.contentColumn()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, opts.contentColumn())
	}
	cell := func(row []string, name string) string {
		if i, ok := cols[name]; ok {
			return row[i]
		}
		return ""
	}

	ds := &model.Dataset{Records: make([]*model.QuestionRecord, 0, len(rows))}
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		line := i + 2
		rec, err := parseRecord(row[contentCol], row, cell, opts)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if prev, dup := seen[rec.Fingerprint]; dup {
			return nil, fmt.Errorf("row %d: %w: duplicate fingerprint %s (first at row %d)", line, ErrInvalidRecord, rec.Fingerprint, prev)
		}
		seen[rec.Fingerprint] = line
		ds.Records = append(ds.Records, rec)
	}
	ds.Renumber()
	return ds, nil
}

func parseRecord(content string, row []string, cell func([]string, string) string, opts Options) (*model.QuestionRecord, error) {
	rec := &model.QuestionRecord{
		Content:     content,
		Fingerprint: strings.TrimSpace(cell(row, ColumnFingerprint)),
		AudioRef:    cell(row, ColumnAudioRef),
	}
	want := question.Fingerprint(content)
	switch rec.Fingerprint {
	case "":
		rec.Fingerprint = want
	case want:
	default:
		// Content was edited after the row was fingerprinted. Clearing the md5 and
		// mp3_path cells lets the next load derive fresh ones.
		return nil, fmt.Errorf("%w: stored %s %s does not match content (want %s)", ErrInvalidRecord, ColumnFingerprint, rec.Fingerprint, want)
	}
	if rec.AudioRef == "" && opts.AudioRef != nil {
		rec.AudioRef = opts.AudioRef(rec.Fingerprint)
	}
	var err error
	if rec.WrongCount, err = parseCount(cell(row, ColumnWrong)); err != nil {
		return nil, fmt.Errorf("%s: %w", ColumnWrong, err)
	}
	if rec.ReviewedCount, err = parseCount(cell(row, ColumnReviewed)); err != nil {
		return nil, fmt.Errorf("%s: %w", ColumnReviewed, err)
	}
	if rec.WrongDates, err = history.Decode(cell(row, ColumnWrongDates)); err != nil {
		return nil, fmt.Errorf("%s: %w", ColumnWrongDates, err)
	}
	if rec.WrongRecords, err = history.Decode(cell(row, ColumnWrongRecord)); err != nil {
		return nil, fmt.Errorf("%s: %w", ColumnWrongRecord, err)
	}
	if err := checkRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func parseCount(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: not an integer: %q", ErrInvalidRecord, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative count %d", ErrInvalidRecord, n)
	}
	return n, nil
}

func checkRecord(rec *model.QuestionRecord) error {
	if rec.WrongCount > rec.ReviewedCount {
		return fmt.Errorf("%w: wrong count %d exceeds reviewed count %d", ErrInvalidRecord, rec.WrongCount, rec.ReviewedCount)
	}
	if len(rec.WrongDates) != rec.WrongCount || len(rec.WrongRecords) != rec.WrongCount {
		return fmt.Errorf("%w: wrong count %d but %d dates and %d answers", ErrInvalidRecord, rec.WrongCount, len(rec.WrongDates), len(rec.WrongRecords))
	}
	return nil
}

// SaveDataset writes the full dataset, replacing path atomically.
func SaveDataset(path string, ds *model.Dataset, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "dataset-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp dataset: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	buffered := bufio.NewWriter(tmpFile)
	var out io.Writer = buffered
	var encoder io.WriteCloser
	if isGBK(opts.Encoding) {
		encoder = transform.NewWriter(buffered, simplifiedchinese.GBK.NewEncoder())
		out = encoder
	}
	if err := writeDataset(out, ds, opts.contentColumn()); err != nil {
		return err
	}
	if encoder != nil {
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("failed to encode dataset: %w", err)
		}
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("failed to flush dataset: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close dataset: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

func writeDataset(w io.Writer, ds *model.Dataset, contentColumn string) error {
	cw := csv.NewWriter(w)
	header := []string{ColumnIndex, contentColumn, ColumnFingerprint, ColumnAudioRef, ColumnWrong, ColumnReviewed, ColumnWrongDates, ColumnWrongRecord}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if ds != nil {
		for i, rec := range ds.Records {
			row := []string{
				strconv.Itoa(i + 1),
				rec.Content,
				rec.Fingerprint,
				rec.AudioRef,
				strconv.Itoa(rec.WrongCount),
				strconv.Itoa(rec.ReviewedCount),
				history.Encode(rec.WrongDates),
				history.Encode(rec.WrongRecords),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

// readAll parses a whole delimited file. Raw sources are read with lazy
// quotes so a bare quote inside a field stays literal text.
func readAll(path string, delimiter rune, encoding string, lazyQuotes bool) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only table.
			_ = cerr
		}
	}()

	var r io.Reader = bufio.NewReader(file)
	if isGBK(encoding) {
		r = transform.NewReader(r, simplifiedchinese.GBK.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.LazyQuotes = lazyQuotes
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: no header row", path)
	}
	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	return header, records[1:], nil
}

func columnIndex(header []string, name string) (int, error) {
	for i, h := range header {
		if h == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (have %s)", ErrMissingColumn, name, strings.Join(header, ", "))
}
