package memory

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	shortTermWindow = 24 * time.Hour
	longTermDays    = 7
	longTermCap     = 30

	dateLayout = "2006-01-02"
)

// Entry is one short-term interaction, appended within a calendar day.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Response  string `json:"response"`
}

// Summary is one long-term rollup of a day's entries for a user.
type Summary struct {
	Date    string `json:"date"`
	Summary string `json:"summary"`
	Details string `json:"details"`
}

type longTermFile struct {
	Memories []Summary `json:"memories"`
}

// Store keeps per-user conversational memory: one short-term JSON file per
// (user, day) and one capped long-term summary file per user. Past short-term
// files are retained; only the long-term list is trimmed.
type Store struct {
	shortDir string
	longDir  string

	mu  sync.Mutex
	now func() time.Time
}

func NewStore(dir string) (*Store, error) {
	s := &Store{
		shortDir: filepath.Join(dir, "short_term"),
		longDir:  filepath.Join(dir, "long_term"),
		now:      time.Now,
	}
	for _, d := range []string{s.shortDir, s.longDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("failed to ensure memory dir: %w", err)
		}
	}
	return s, nil
}

func (s *Store) shortTermPath(userID string, day time.Time) string {
	return filepath.Join(s.shortDir, fmt.Sprintf("%s_%s.json", userID, day.Format(dateLayout)))
}

func (s *Store) longTermPath(userID string) string {
	return filepath.Join(s.longDir, fmt.Sprintf("%s_long_term.json", userID))
}

// Append adds one interaction to the user's short-term file for today,
// creating the file if absent.
func (s *Store) Append(userID, message, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.shortTermPath(userID, s.now())
	entries, err := readShortTerm(path)
	if err != nil {
		return err
	}
	entries = append(entries, Entry{
		Timestamp: s.now().Format(time.RFC3339),
		Message:   message,
		Response:  response,
	})
	return writeJSON(path, entries)
}

// ShortTerm returns the user's entries for today that fall within window,
// in chronological order. Entries with malformed timestamps are skipped.
func (s *Store) ShortTerm(userID string, window time.Duration) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shortTermLocked(userID, window)
}

func (s *Store) shortTermLocked(userID string, window time.Duration) ([]Entry, error) {
	entries, err := readShortTerm(s.shortTermPath(userID, s.now()))
	if err != nil {
		return nil, err
	}
	cutoff := s.now().Add(-window)
	var out []Entry
	for _, e := range entries {
		ts, err := time.Parse(time.RFC3339, e.Timestamp)
		if err != nil {
			continue
		}
		if !ts.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out, nil
}

// LongTerm returns up to the most recent days summaries, oldest first.
func (s *Store) LongTerm(userID string, days int) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.longTermLocked(userID, days)
}

func (s *Store) longTermLocked(userID string, days int) ([]Summary, error) {
	lt, err := readLongTerm(s.longTermPath(userID))
	if err != nil {
		return nil, err
	}
	memories := lt.Memories
	if days < len(memories) {
		memories = memories[len(memories)-days:]
	}
	return memories, nil
}

// Context formats the user's memory for prompting: today's short-term history
// followed by the recent long-term summaries, as two labelled sections.
// Returns "" when both are empty.
func (s *Store) Context(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	short, err := s.shortTermLocked(userID, shortTermWindow)
	if err != nil {
		log.Printf("⚠️ failed to read short-term memory for %s: %v", userID, err)
	}
	long, err := s.longTermLocked(userID, longTermDays)
	if err != nil {
		log.Printf("⚠️ failed to read long-term memory for %s: %v", userID, err)
	}

	var lines []string
	if len(short) > 0 {
		lines = append(lines, "以下是今天与用户的对话历史:")
		for _, e := range short {
			lines = append(lines, "用户: "+e.Message)
			if e.Response != "" {
				lines = append(lines, "AI: "+e.Response)
			}
		}
	}
	if len(long) > 0 {
		lines = append(lines, "\n以下是最近几天的对话总结:")
		for _, m := range long {
			lines = append(lines, m.Date+": "+m.Summary)
		}
	}
	return strings.Join(lines, "\n")
}

// Rollup folds the user's short-term entries for day into one long-term
// summary and trims the long-term list to the most recent entries. The current
// policy records the interaction count plus concatenated details, not a
// model-generated summary. Short-term files are left in place.
func (s *Store) Rollup(userID string, day time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := readShortTerm(s.shortTermPath(userID, day))
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	var details []string
	for _, e := range entries {
		details = append(details, fmt.Sprintf("用户消息: %s\nAI回复: %s", e.Message, e.Response))
	}

	path := s.longTermPath(userID)
	lt, err := readLongTerm(path)
	if err != nil {
		return err
	}
	lt.Memories = append(lt.Memories, Summary{
		Date:    day.Format(dateLayout),
		Summary: fmt.Sprintf("当天共有%d条交互记录", len(entries)),
		Details: strings.Join(details, "\n"),
	})
	if len(lt.Memories) > longTermCap {
		lt.Memories = lt.Memories[len(lt.Memories)-longTermCap:]
	}

	log.Printf("rolled up %d short-term entries for user %s", len(entries), userID)
	return writeJSON(path, lt)
}

// RollupAll rolls up every user that has a short-term file for the previous
// day. The scheduler fires this just after midnight, when the day being
// summarized has ended and its files carry yesterday's date suffix.
func (s *Store) RollupAll() error {
	s.mu.Lock()
	day := s.now().AddDate(0, 0, -1)
	files, err := os.ReadDir(s.shortDir)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("scan short-term dir: %w", err)
	}

	suffix := "_" + day.Format(dateLayout) + ".json"
	for _, f := range files {
		name := f.Name()
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		userID := strings.TrimSuffix(name, suffix)
		if err := s.Rollup(userID, day); err != nil {
			log.Printf("❌ rollup failed for user %s: %v", userID, err)
		}
	}
	return nil
}

func readShortTerm(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read short-term file: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse short-term file: %w", err)
	}
	return entries, nil
}

func readLongTerm(path string) (longTermFile, error) {
	var lt longTermFile
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return lt, nil
	}
	if err != nil {
		return lt, fmt.Errorf("read long-term file: %w", err)
	}
	if err := json.Unmarshal(data, &lt); err != nil {
		return lt, fmt.Errorf("parse long-term file: %w", err)
	}
	return lt, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
