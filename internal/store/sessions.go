// Package store persists captured sessions and compiled prompt versions as
// JSON artifacts under a single data directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nvalkov/promptforge/internal/domain"
	"github.com/nvalkov/promptforge/shared/id"
)

const samplesFile = "samples.json"

// SessionStore is an append-only collection of captured sessions backed by
// data/samples.json. It assumes a single writer; callers serialize Append.
type SessionStore struct {
	dataDir string
}

func NewSessionStore(dataDir string) *SessionStore {
	return &SessionStore{dataDir: dataDir}
}

type samplesDoc struct {
	Samples []domain.Session `json:"samples"`
}

// currentDoc and legacyDoc use pointer slices so schema detection is an
// explicit decision tree instead of shape-sniffing: a nil slice means the
// key was absent.
type currentDoc struct {
	Samples *[]domain.Session `json:"samples"`
}

type legacyItem struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	CreatedAt string `json:"createdAt"`
	Tool      string `json:"tool,omitempty"`
}

type legacyDoc struct {
	Good *[]legacyItem `json:"good"`
	Bad  *[]legacyItem `json:"bad"`
}

func (s *SessionStore) path() string {
	return filepath.Join(s.dataDir, samplesFile)
}

// ListAll returns every stored session in insertion order, transparently
// migrating a legacy two-bucket file. A store that does not exist yet reads
// as empty.
func (s *SessionStore) ListAll() ([]domain.Session, error) {
	raw, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Session{}, nil
		}
		return nil, fmt.Errorf("read samples: %w", err)
	}

	sessions, err := decodeSessions(raw)
	if err != nil {
		// Matches no known schema: quarantine the file rather than silently
		// destroying it, then continue with an empty store.
		slog.Warn("samples file unreadable, quarantining and resetting",
			"path", s.path(), "error", err)
		s.quarantine()
		return []domain.Session{}, nil
	}
	return sessions, nil
}

// Append stores a new session built from the given pairs and returns it
// along with the full updated collection.
func (s *SessionStore) Append(pairs []domain.Pair) (domain.Session, []domain.Session, error) {
	if len(pairs) == 0 {
		return domain.Session{}, nil, fmt.Errorf("session requires at least one pair")
	}

	sessions, err := s.ListAll()
	if err != nil {
		return domain.Session{}, nil, err
	}

	now := time.Now().UTC()
	session := domain.Session{
		ID:        id.NewSession(now),
		CreatedAt: now.Format(timestampLayout),
		Pairs:     pairs,
	}
	sessions = append(sessions, session)

	if err := s.write(sessions); err != nil {
		return domain.Session{}, nil, err
	}
	return session, sessions, nil
}

func decodeSessions(raw []byte) ([]domain.Session, error) {
	var cur currentDoc
	if err := json.Unmarshal(raw, &cur); err == nil && cur.Samples != nil {
		return *cur.Samples, nil
	}

	var legacy legacyDoc
	if err := json.Unmarshal(raw, &legacy); err == nil && legacy.Good != nil && legacy.Bad != nil {
		sessions := make([]domain.Session, 0, len(*legacy.Good)+len(*legacy.Bad))
		for _, items := range [][]legacyItem{*legacy.Good, *legacy.Bad} {
			for _, it := range items {
				sessions = append(sessions, domain.Session{
					ID:        it.ID,
					CreatedAt: it.CreatedAt,
					Pairs: []domain.Pair{{
						Question: it.Question,
						Answer:   it.Answer,
						Tool:     it.Tool,
					}},
				})
			}
		}
		return sessions, nil
	}

	return nil, domain.ErrSchemaCorrupt
}

func (s *SessionStore) write(sessions []domain.Session) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(samplesDoc{Samples: sessions}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode samples: %w", err)
	}
	return writeFileAtomic(s.path(), data)
}

func (s *SessionStore) quarantine() {
	dst := s.path() + ".corrupt"
	if err := os.Rename(s.path(), dst); err != nil {
		slog.Warn("failed to quarantine samples file", "error", err)
	}
}

// writeFileAtomic writes under a fresh name first so concurrent readers
// never observe a half-written artifact.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
