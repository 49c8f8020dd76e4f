package ledger

import (
	"strings"

	"github.com/KumarDhananjaya/Spendly/internal/parser"
)

const noteLimit = 50

// ImportMatches commits reviewed parser matches as SMS-sourced transactions
// on accountID (or the first account when empty). All drafts are validated
// before any is committed.
func (s *Store) ImportMatches(matches []parser.Match, accountID string) ([]Transaction, error) {
	drafts, err := s.importDrafts(matches, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, 0, len(drafts))
	for _, d := range drafts {
		tx, err := s.AddTransaction(d)
		if err != nil {
			return out, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *Store) importDrafts(matches []parser.Match, accountID string) ([]Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if accountID == "" {
		if len(s.accounts) == 0 {
			return nil, ErrMissingAccount
		}
		accountID = s.accounts[0].ID
	}

	drafts := make([]Draft, 0, len(matches))
	for _, m := range matches {
		dir := Direction(m.Direction)
		cat, ok := s.resolveCategoryLocked(m.Category, dir)
		if !ok {
			return nil, ErrMissingCategory
		}
		d, err := s.validate(Draft{
			Amount:     m.Amount,
			Direction:  dir,
			CategoryID: cat,
			AccountID:  accountID,
			Note:       importNote(m.Raw),
			Source:     SourceSMS,
		})
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

// parser category names that map onto a built-in category
var categoryAliases = map[string]string{
	strings.ToLower(parser.FallbackCategory): "other",
}

// resolveCategoryLocked matches name case-insensitively, preferring a
// category of the same direction, then the first category of that
// direction, then the first category overall.
func (s *Store) resolveCategoryLocked(name string, dir Direction) (string, bool) {
	key := strings.ToLower(name)
	if alias, ok := categoryAliases[key]; ok {
		key = alias
	}
	var sameName, firstOfDir string
	for _, c := range s.categories {
		if strings.ToLower(c.Name) == key {
			if c.Type == dir {
				return c.ID, true
			}
			if sameName == "" {
				sameName = c.ID
			}
		}
		if firstOfDir == "" && c.Type == dir {
			firstOfDir = c.ID
		}
	}
	switch {
	case sameName != "":
		return sameName, true
	case firstOfDir != "":
		return firstOfDir, true
	case len(s.categories) > 0:
		return s.categories[0].ID, true
	}
	return "", false
}

// importNote keeps the first noteLimit bytes of the message, cut on a rune
// boundary, followed by an ellipsis.
func importNote(raw string) string {
	if len(raw) <= noteLimit {
		return raw + "..."
	}
	cut := noteLimit
	for cut > 0 && !isRuneStart(raw[cut]) {
		cut--
	}
	return raw[:cut] + "..."
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
