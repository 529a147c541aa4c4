// Package model defines shared data structures.
package model

import "time"

// QuestionRecord is one tracked practice sentence with its review history.
type QuestionRecord struct {
	Content     string
	Fingerprint string
	AudioRef    string

	WrongCount    int
	ReviewedCount int
	// WrongDates and WrongRecords are parallel and append-only.
	WrongDates   []string
	WrongRecords []string

	// DisplayIndex is 1-based and recomputed on every rebuild.
	DisplayIndex int
}

// LastWrong returns the most recent wrong answer and its date.
func (r *QuestionRecord) LastWrong() (date, answer string, ok bool) {
	n := len(r.WrongRecords)
	if n == 0 || len(r.WrongDates) < n {
		return "", "", false
	}
	return r.WrongDates[n-1], r.WrongRecords[n-1], true
}

// Dataset is the ordered set of tracked questions.
type Dataset struct {
	Records []*QuestionRecord
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Renumber assigns DisplayIndex 1..N in current order.
func (d *Dataset) Renumber() {
	for i, rec := range d.Records {
		rec.DisplayIndex = i + 1
	}
}

// Find returns the record with the given fingerprint.
func (d *Dataset) Find(fingerprint string) (*QuestionRecord, bool) {
	for _, rec := range d.Records {
		if rec.Fingerprint == fingerprint {
			return rec, true
		}
	}
	return nil, false
}

// RawItem is one row of an ingestion source.
type RawItem struct {
	Content string
}

// Config holds resolved settings shared by the commands.
type Config struct {
	InputDir  string
	OutputDir string
	AudioDir  string
	LogDir    string

	ContentColumn   string
	IngestDelimiter string
	Encoding        string

	Voice VoiceConfig

	PlayerCommand string
	PlayerArgs    string

	WrongThreshold int
}

// VoiceConfig selects the synthesized voice and audio output.
type VoiceConfig struct {
	Model    string
	Voice    string
	Language string
	Format   string
	Speed    float64
}

// AttemptStats records one graded attempt in the journal.
type AttemptStats struct {
	Fingerprint string
	Content     string
	AttemptedAt time.Time
	Correct     bool
	Input       string
}

// SessionStats captures a completed review session.
type SessionStats struct {
	ID         string
	StartedAt  time.Time
	EndedAt    time.Time
	Dataset    string
	Mode       string
	Graded     int
	Correct    int
	Terminated bool
}

// QuestionAggregate summarizes journal attempts for one question.
type QuestionAggregate struct {
	Fingerprint string
	Content     string
	Attempts    int
	Wrong       int
}

// StatsConfig defines filters for stats output.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	Top         int
	CurveWindow int
}
