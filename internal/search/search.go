// Package search implements the multi-criteria forensic search engine.
// It pulls a case's files from the store, evaluates every enabled
// criterion per file, and ranks results by accumulated match count.
package search

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/forenstiq/forenstiq-go/internal/analysis"
	"github.com/forenstiq/forenstiq-go/internal/datastore"
	"github.com/forenstiq/forenstiq-go/internal/logging"
)

// Criteria carries the optional search inputs. Zero fields disable the
// corresponding criterion; an empty FileTypes slice means all types.
type Criteria struct {
	Person         string
	DateFrom       *time.Time
	DateTo         *time.Time
	Keywords       []string
	FileTypes      []string
	ReferencePhoto string
}

// Match pairs an evidence file with the criteria it satisfied. Count
// drives the ranking; Explanations are the human-readable reasons.
type Match struct {
	File           datastore.EvidenceFile
	Explanations   []string
	Count          int
	FaceConfidence float64
}

// Engine evaluates search criteria against a case's persisted index.
type Engine struct {
	store    datastore.Interface
	matcher  analysis.FaceMatcher
	resolver analysis.PathResolver
	cache    *cache.Cache
	logger   *slog.Logger
}

// fileCacheTTL bounds how stale the cached per-case file list may get
// between an ingestion batch and a search.
const fileCacheTTL = time.Minute

// NewEngine creates a search engine. matcher may be nil when identity
// photo search is unavailable; resolver defaults to local paths.
func NewEngine(store datastore.Interface, matcher analysis.FaceMatcher, resolver analysis.PathResolver) *Engine {
	if resolver == nil {
		resolver = analysis.LocalPathResolver{}
	}
	return &Engine{
		store:    store,
		matcher:  matcher,
		resolver: resolver,
		cache:    cache.New(fileCacheTTL, fileCacheTTL*2),
		logger:   logging.ForService("search"),
	}
}

// caseFiles returns the case's full file list, cached briefly since one
// investigative session tends to issue several searches back to back.
func (e *Engine) caseFiles(caseID uint) ([]datastore.EvidenceFile, error) {
	key := fmt.Sprintf("case-files-%d", caseID)
	if cached, found := e.cache.Get(key); found {
		return cached.([]datastore.EvidenceFile), nil
	}
	files, err := e.store.GetFilesByCase(caseID, false)
	if err != nil {
		return nil, err
	}
	e.cache.Set(key, files, cache.DefaultExpiration)
	return files, nil
}

// evaluate scores one file against the criteria. Each satisfied
// criterion adds one to the count and one explanation.
func evaluate(file *datastore.EvidenceFile, criteria *Criteria) Match {
	m := Match{File: *file}

	if criteria.Person != "" {
		if containsFold(file.FileName, criteria.Person) {
			m.hit("Name in filename: " + file.FileName)
		}
		if file.OCRText != nil && containsFold(*file.OCRText, criteria.Person) {
			m.hit("Name found in file content")
		}
	}

	for _, keyword := range criteria.Keywords {
		if containsFold(file.FileName, keyword) {
			m.hit(fmt.Sprintf("Keyword %q in filename", keyword))
		}
		if file.OCRText != nil && containsFold(*file.OCRText, keyword) {
			m.hit(fmt.Sprintf("Keyword %q in content", keyword))
		}
		for _, tag := range parseTags(file.AITags) {
			if containsFold(tag, keyword) {
				m.hit(fmt.Sprintf("Keyword %q in tags", keyword))
				break
			}
		}
	}

	if criteria.DateFrom != nil && criteria.DateTo != nil {
		if inDateRange(file, *criteria.DateFrom, *criteria.DateTo) {
			m.hit("File date within search range")
		}
	}
	return m
}

func (m *Match) hit(explanation string) {
	m.Explanations = append(m.Explanations, explanation)
	m.Count++
}

func containsFold(text, term string) bool {
	if text == "" || term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(term))
}

// parseTags decodes the stored JSON tag list, tolerating absent or
// malformed payloads.
func parseTags(raw *string) []string {
	if raw == nil || *raw == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(*raw), &tags); err != nil {
		return nil
	}
	return tags
}

// inDateRange tests the file's capture date against [from, to], falling
// back to the filesystem created then modified timestamps. Files with no
// usable date never match.
func inDateRange(file *datastore.EvidenceFile, from, to time.Time) bool {
	date := file.DateTaken
	if date == nil {
		date = file.DateCreated
	}
	if date == nil {
		date = file.DateModified
	}
	if date == nil {
		return false
	}
	return !date.Before(from) && !date.After(to)
}
