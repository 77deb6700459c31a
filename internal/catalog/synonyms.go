package catalog

import (
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// SynonymStore resolves free-text terms to catalogue base terms and LKNs.
// Grounded on the original synonym tooling's SynonymCatalog/storage module:
// a base term carries a bag of synonyms (normalised, deduplicated) and the
// LKNs it maps to; both directions are indexed for lookup. Here the index
// lives in SQLite instead of a hand-rolled in-memory reverse index, so the
// catalogue can grow past what comfortably fits in a JSON blob and can be
// curated out-of-process while the server keeps serving the previous file.
type SynonymStore struct {
	db *sql.DB
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// OpenSynonymStore opens (creating if needed) the sqlite file at path and
// ensures its schema exists.
func OpenSynonymStore(path string) (*SynonymStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open synonym db %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate synonym db: %w", err)
	}
	return &SynonymStore{db: db}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS synonym_entries (
	base_term TEXT NOT NULL,
	term      TEXT NOT NULL,
	PRIMARY KEY (base_term, term)
);
CREATE INDEX IF NOT EXISTS idx_synonym_entries_term ON synonym_entries(term);

CREATE TABLE IF NOT EXISTS synonym_lkns (
	base_term TEXT NOT NULL,
	lkn       TEXT NOT NULL,
	PRIMARY KEY (base_term, lkn)
);
CREATE INDEX IF NOT EXISTS idx_synonym_lkns_base ON synonym_lkns(base_term);
`

// Close releases the underlying database handle.
func (s *SynonymStore) Close() error {
	return s.db.Close()
}

// Put registers a base term with its synonyms and associated LKNs,
// normalising each synonym the way the original storage module does:
// lowercase, whitespace-collapsed, and a punctuation-stripped variant
// indexed alongside the literal form.
func (s *SynonymStore) Put(baseTerm string, synonymTerms, lkns []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	terms := map[string]bool{normalizeTerm(baseTerm): true}
	for _, t := range synonymTerms {
		norm := normalizeTerm(t)
		if norm == "" {
			continue
		}
		terms[norm] = true
		if simplified := nonAlnum.ReplaceAllString(norm, " "); simplified != norm {
			simplified = strings.TrimSpace(simplified)
			if simplified != "" {
				terms[simplified] = true
			}
		}
	}
	for term := range terms {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO synonym_entries(base_term, term) VALUES (?, ?)`,
			baseTerm, term,
		); err != nil {
			return fmt.Errorf("insert synonym entry: %w", err)
		}
	}
	for _, lkn := range lkns {
		norm := strings.ToUpper(strings.TrimSpace(lkn))
		if norm == "" {
			continue
		}
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO synonym_lkns(base_term, lkn) VALUES (?, ?)`,
			baseTerm, norm,
		); err != nil {
			return fmt.Errorf("insert synonym lkn: %w", err)
		}
	}
	return tx.Commit()
}

// BaseTermsFor returns every base term that term (normalised the same way
// as Put) resolves to, sorted for determinism.
func (s *SynonymStore) BaseTermsFor(term string) ([]string, error) {
	norm := normalizeTerm(term)
	if norm == "" {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT DISTINCT base_term FROM synonym_entries WHERE term = ?`, norm)
	if err != nil {
		return nil, fmt.Errorf("query synonym entries: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var base string
		if err := rows.Scan(&base); err != nil {
			return nil, err
		}
		out = append(out, base)
	}
	sort.Strings(out)
	return out, rows.Err()
}

// LKNsFor returns the LKNs associated with a base term.
func (s *SynonymStore) LKNsFor(baseTerm string) ([]string, error) {
	rows, err := s.db.Query(`SELECT lkn FROM synonym_lkns WHERE base_term = ?`, baseTerm)
	if err != nil {
		return nil, fmt.Errorf("query synonym lkns: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var lkn string
		if err := rows.Scan(&lkn); err != nil {
			return nil, err
		}
		out = append(out, lkn)
	}
	sort.Strings(out)
	return out, rows.Err()
}

// ExpandTerm resolves a free-text term straight to the union of LKNs
// across every base term it matches, the shape C2 actually needs.
func (s *SynonymStore) ExpandTerm(term string) ([]string, error) {
	bases, err := s.BaseTermsFor(term)
	if err != nil || len(bases) == 0 {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, base := range bases {
		lkns, err := s.LKNsFor(base)
		if err != nil {
			return nil, err
		}
		for _, lkn := range lkns {
			if !seen[lkn] {
				seen[lkn] = true
				out = append(out, lkn)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func normalizeTerm(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
