package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"resumeforge/internal/errors"
	"resumeforge/internal/types"

	"github.com/google/uuid"
)

// Record kinds, used both as directory names and in record metadata
const (
	KindJobAnalysis        = "job_analysis"
	KindResumeOptimization = "resume_optimization"
)

// Keyword source labels for resume optimization records
const (
	SourceJobAnalysis         = "job_analysis"
	SourceCustom              = "custom"
	SourceExample             = "example"
	SourceStreamlinedWorkflow = "streamlined_workflow"
)

const (
	jobPreviewLimit    = 200
	resumePreviewLimit = 300
)

// RecordMetadata describes a persisted pipeline result
type RecordMetadata struct {
	Type           string `json:"type"`
	UniqueID       string `json:"unique_id"`
	Timestamp      string `json:"timestamp"`
	GeneratedAt    string `json:"generated_at"`
	Filename       string `json:"filename"`
	KeywordsSource string `json:"keywords_source,omitempty"`
}

// JobAnalysisInput captures what went into a keyword extraction
type JobAnalysisInput struct {
	JobDescription        string `json:"job_description"`
	JobDescriptionPreview string `json:"job_description_preview"`
}

// JobAnalysisOutput captures what came out of a keyword extraction
type JobAnalysisOutput struct {
	AnalysisResult         types.JobKeywords `json:"analysis_result"`
	TotalKeywordsExtracted int               `json:"total_keywords_extracted"`
}

// JobAnalysisRecord is the persisted form of a keyword extraction
type JobAnalysisRecord struct {
	Metadata RecordMetadata    `json:"metadata"`
	Input    JobAnalysisInput  `json:"input"`
	Output   JobAnalysisOutput `json:"output"`
}

// ResumeOptimizationInput captures what went into a resume rewrite
type ResumeOptimizationInput struct {
	KeywordsUsed          []string `json:"keywords_used"`
	KeywordsCount         int      `json:"keywords_count"`
	OriginalResumePreview string   `json:"original_resume_preview"`
}

// ResumeOptimizationOutput captures what came out of a resume rewrite
type ResumeOptimizationOutput struct {
	OptimizationResult types.ResumeContent `json:"optimization_result"`
	SectionsOptimized  []string            `json:"sections_optimized"`
}

// ResumeOptimizationRecord is the persisted form of a resume rewrite
type ResumeOptimizationRecord struct {
	Metadata RecordMetadata           `json:"metadata"`
	Input    ResumeOptimizationInput  `json:"input"`
	Output   ResumeOptimizationOutput `json:"output"`
}

// Stats summarizes the record store contents
type Stats struct {
	JobAnalysisCount        int `json:"job_analysis_count"`
	ResumeOptimizationCount int `json:"resume_optimization_count"`
	TotalCount              int `json:"total_count"`
}

// Store persists pipeline records as JSON files under a base directory,
// one subdirectory per record kind.
type Store struct {
	baseDir string
	logger  *errors.Logger
	now     func() time.Time
}

// NewStore creates a record store rooted at baseDir
func NewStore(baseDir string, logger *errors.Logger) *Store {
	return &Store{
		baseDir: baseDir,
		logger:  logger,
		now:     time.Now,
	}
}

// preview truncates s to limit runes, appending "..." when trimmed
func preview(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// newRecordName builds a filename like kind_20060102_150405_a1b2c3d4.json
// together with its metadata block.
func (s *Store) newRecordName(kind string) (RecordMetadata, string) {
	uniqueID := uuid.New().String()[:8]
	ts := s.now()
	filename := fmt.Sprintf("%s_%s_%s.json", kind, ts.Format("20060102_150405"), uniqueID)

	return RecordMetadata{
		Type:        kind,
		UniqueID:    uniqueID,
		Timestamp:   ts.Format(time.RFC3339Nano),
		GeneratedAt: ts.Format("2006-01-02 15:04:05"),
		Filename:    filename,
	}, filename
}

func (s *Store) writeRecord(kind, filename string, record any) (string, error) {
	dir := filepath.Join(s.baseDir, kind)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", errors.NewIOError(errors.ErrCodeRecordSaveFailed,
			"Failed to create record directory", err).WithContext("dir", dir)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeRecordSaveFailed,
			"Failed to encode record", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", errors.NewIOError(errors.ErrCodeRecordSaveFailed,
			"Failed to write record file", err).WithContext("path", path)
	}

	if s.logger != nil {
		s.logger.Debug("Record saved", "kind", kind, "filename", filename)
	}
	return path, nil
}

// SaveJobAnalysis persists a keyword extraction result and returns the file path
func (s *Store) SaveJobAnalysis(jobDescription string, keywords types.JobKeywords) (string, *JobAnalysisRecord, error) {
	metadata, filename := s.newRecordName(KindJobAnalysis)

	record := &JobAnalysisRecord{
		Metadata: metadata,
		Input: JobAnalysisInput{
			JobDescription:        jobDescription,
			JobDescriptionPreview: preview(jobDescription, jobPreviewLimit),
		},
		Output: JobAnalysisOutput{
			AnalysisResult:         keywords,
			TotalKeywordsExtracted: keywords.TotalKeywords(),
		},
	}

	path, err := s.writeRecord(KindJobAnalysis, filename, record)
	if err != nil {
		return "", nil, err
	}
	return path, record, nil
}

// SaveResumeOptimization persists a resume rewrite result and returns the file path
func (s *Store) SaveResumeOptimization(keywords []string, originalResume string, content types.ResumeContent, source string) (string, *ResumeOptimizationRecord, error) {
	metadata, filename := s.newRecordName(KindResumeOptimization)
	metadata.KeywordsSource = source

	if keywords == nil {
		keywords = []string{}
	}

	sections := append([]string{"updated_summary"}, content.SectionNames()...)

	record := &ResumeOptimizationRecord{
		Metadata: metadata,
		Input: ResumeOptimizationInput{
			KeywordsUsed:          keywords,
			KeywordsCount:         len(keywords),
			OriginalResumePreview: preview(originalResume, resumePreviewLimit),
		},
		Output: ResumeOptimizationOutput{
			OptimizationResult: content,
			SectionsOptimized:  sections,
		},
	}

	path, err := s.writeRecord(KindResumeOptimization, filename, record)
	if err != nil {
		return "", nil, err
	}
	return path, record, nil
}

// ListRecords returns record filenames per kind, newest first. An unknown
// kind returns an error; "all" lists every kind.
func (s *Store) ListRecords(kind string) (map[string][]string, error) {
	kinds := []string{KindJobAnalysis, KindResumeOptimization}
	switch kind {
	case "all", "":
	case KindJobAnalysis, KindResumeOptimization:
		kinds = []string{kind}
	default:
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Unknown record kind: %s", kind), nil)
	}

	result := make(map[string][]string, len(kinds))
	for _, k := range kinds {
		names, err := s.listKind(k)
		if err != nil {
			return nil, err
		}
		result[k] = names
	}
	return result, nil
}

func (s *Store) listKind(kind string) ([]string, error) {
	dir := filepath.Join(s.baseDir, kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			"Failed to list record directory", err).WithContext("dir", dir)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}

	// Timestamped filenames sort chronologically; newest first
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// validRecordName rejects paths that could escape the store directory
func validRecordName(filename string) bool {
	return filename != "" &&
		filename == filepath.Base(filename) &&
		!strings.HasPrefix(filename, ".") &&
		strings.HasSuffix(filename, ".json")
}

func (s *Store) readRecord(kind, filename string, out any) error {
	switch kind {
	case KindJobAnalysis, KindResumeOptimization:
	default:
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Unknown record kind: %s", kind), nil)
	}
	if !validRecordName(filename) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Invalid record filename", nil).WithContext("filename", filename)
	}

	path := filepath.Join(s.baseDir, kind, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError(errors.ErrCodeRecordNotFound,
				fmt.Sprintf("Record not found: %s/%s", kind, filename), err)
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			"Failed to read record file", err).WithContext("path", path)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewIOError(errors.ErrCodeInvalidFormat,
			"Record file is not valid JSON", err).WithContext("path", path)
	}
	return nil
}

// LoadJobAnalysis loads a job analysis record by filename
func (s *Store) LoadJobAnalysis(filename string) (*JobAnalysisRecord, error) {
	var record JobAnalysisRecord
	if err := s.readRecord(KindJobAnalysis, filename, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// LoadResumeOptimization loads a resume optimization record by filename
func (s *Store) LoadResumeOptimization(filename string) (*ResumeOptimizationRecord, error) {
	var record ResumeOptimizationRecord
	if err := s.readRecord(KindResumeOptimization, filename, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// LoadRaw loads a record of any kind as raw JSON, for callers that render
// records without caring about their concrete shape.
func (s *Store) LoadRaw(kind, filename string) (map[string]any, error) {
	var record map[string]any
	if err := s.readRecord(kind, filename, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// GetStats returns record counts per kind
func (s *Store) GetStats() (Stats, error) {
	listing, err := s.ListRecords("all")
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		JobAnalysisCount:        len(listing[KindJobAnalysis]),
		ResumeOptimizationCount: len(listing[KindResumeOptimization]),
	}
	stats.TotalCount = stats.JobAnalysisCount + stats.ResumeOptimizationCount
	return stats, nil
}
