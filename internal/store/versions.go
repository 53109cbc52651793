package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nvalkov/promptforge/internal/domain"
	"github.com/nvalkov/promptforge/shared/id"
)

const (
	promptFile   = "prompt.md"
	resultFile   = "optimization.json"
	versionsDir  = "versions"
	maxKeyProbes = 100

	// timestampLayout matches the ISO-8601 form the optimizer pipeline
	// stamps on results (millisecond precision, UTC).
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// VersionStore archives every compiled prompt together with its optimization
// result. Versions are immutable and never deleted; a mutable "current" copy
// mirrors the latest commit. Single writer assumed; reads may run
// concurrently with a commit and will see the state before or after it,
// never a torn artifact.
type VersionStore struct {
	dataDir string
}

func NewVersionStore(dataDir string) *VersionStore {
	return &VersionStore{dataDir: dataDir}
}

func (v *VersionStore) currentPromptPath() string {
	return filepath.Join(v.dataDir, promptFile)
}

func (v *VersionStore) currentResultPath() string {
	return filepath.Join(v.dataDir, resultFile)
}

func (v *VersionStore) versionDir(versionID string) string {
	return filepath.Join(v.dataDir, versionsDir, versionID)
}

// Commit archives promptText and result as a new immutable version, then
// overwrites the current copies. The version directory is written first so a
// crash between the two steps loses the pointer update, never the archive.
func (v *VersionStore) Commit(promptText string, result domain.OptimizationResult) (domain.PromptVersion, error) {
	versionID, err := v.reserveVersionID(result.Timestamp)
	if err != nil {
		return domain.PromptVersion{}, err
	}

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return domain.PromptVersion{}, fmt.Errorf("encode optimization result: %w", err)
	}

	dir := v.versionDir(versionID)
	if err := writeFileAtomic(filepath.Join(dir, promptFile), []byte(promptText)); err != nil {
		return domain.PromptVersion{}, err
	}
	if err := writeFileAtomic(filepath.Join(dir, resultFile), resultJSON); err != nil {
		return domain.PromptVersion{}, err
	}

	if err := writeFileAtomic(v.currentPromptPath(), []byte(promptText)); err != nil {
		return domain.PromptVersion{}, err
	}
	if err := writeFileAtomic(v.currentResultPath(), resultJSON); err != nil {
		return domain.PromptVersion{}, err
	}

	return domain.PromptVersion{ID: versionID, PromptText: promptText, Result: result}, nil
}

// reserveVersionID derives a filesystem-safe key from the result timestamp
// and creates the version directory. Keys are never reused: on a clock
// collision a random suffix disambiguates.
func (v *VersionStore) reserveVersionID(timestamp string) (string, error) {
	base := safeVersionID(timestamp)
	if base == "" {
		base = fmt.Sprintf("%d", time.Now().UnixMilli())
	}

	candidate := base
	for i := 0; i < maxKeyProbes; i++ {
		err := os.MkdirAll(filepath.Dir(v.versionDir(candidate)), 0o755)
		if err != nil {
			return "", fmt.Errorf("create versions dir: %w", err)
		}
		err = os.Mkdir(v.versionDir(candidate), 0o755)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create version dir: %w", err)
		}
		candidate = base + "-" + id.Suffix(6)
	}
	return "", fmt.Errorf("could not reserve a unique version id for %q", base)
}

func safeVersionID(timestamp string) string {
	r := strings.NewReplacer(":", "-", ".", "-")
	return r.Replace(strings.TrimSpace(timestamp))
}

// List enumerates all versions, newest first. Entries with an unreadable
// result record are still listed with only the id populated.
func (v *VersionStore) List() ([]domain.VersionMeta, error) {
	entries, err := os.ReadDir(filepath.Join(v.dataDir, versionsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.VersionMeta{}, nil
		}
		return nil, fmt.Errorf("read versions dir: %w", err)
	}

	versions := make([]domain.VersionMeta, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta := domain.VersionMeta{ID: entry.Name()}
		if result, err := v.readResult(v.versionDir(entry.Name())); err == nil {
			score := result.BestScore
			meta.Timestamp = result.Timestamp
			meta.BestScore = &score
			meta.OptimizerType = result.OptimizerType
		}
		versions = append(versions, meta)
	}

	sort.Slice(versions, func(i, j int) bool {
		ti, tj := parseTimestamp(versions[i].Timestamp), parseTimestamp(versions[j].Timestamp)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return versions[i].ID > versions[j].ID
	})
	return versions, nil
}

// Read returns the artifacts for the given version, or the current pair when
// versionID is empty. A missing version id yields ErrVersionNotFound.
func (v *VersionStore) Read(versionID string) (domain.PromptVersion, error) {
	promptPath, resultDir := v.currentPromptPath(), v.dataDir
	if versionID != "" {
		dir := v.versionDir(versionID)
		if _, err := os.Stat(dir); err != nil {
			return domain.PromptVersion{}, fmt.Errorf("%w: %s", domain.ErrVersionNotFound, versionID)
		}
		promptPath, resultDir = filepath.Join(dir, promptFile), dir
	}

	promptText, err := os.ReadFile(promptPath)
	if err != nil {
		return domain.PromptVersion{}, fmt.Errorf("read prompt: %w", err)
	}
	result, err := v.readResult(resultDir)
	if err != nil {
		return domain.PromptVersion{}, err
	}
	return domain.PromptVersion{ID: versionID, PromptText: string(promptText), Result: *result}, nil
}

// ReadPrompt returns the compiled prompt for a version (current when empty).
// Missing artifacts degrade to an empty string.
func (v *VersionStore) ReadPrompt(versionID string) string {
	path := v.currentPromptPath()
	if versionID != "" {
		path = filepath.Join(v.versionDir(versionID), promptFile)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// ReadResult returns the optimization result for a version (current when
// empty), or nil when none is stored or the record is unreadable.
func (v *VersionStore) ReadResult(versionID string) *domain.OptimizationResult {
	dir := v.dataDir
	if versionID != "" {
		dir = v.versionDir(versionID)
	}
	result, err := v.readResult(dir)
	if err != nil {
		return nil
	}
	return result
}

func (v *VersionStore) readResult(dir string) (*domain.OptimizationResult, error) {
	raw, err := os.ReadFile(filepath.Join(dir, resultFile))
	if err != nil {
		return nil, fmt.Errorf("read optimization result: %w", err)
	}
	var result domain.OptimizationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode optimization result: %w", err)
	}
	return &result, nil
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
