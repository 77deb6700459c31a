package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arzttarif/tarifengine/pkg/codes"
)

// Store is the read-only catalogue: code details, the rule book, tariff
// tables, package definitions, and the precomputed service->package link
// index. It is built once at startup by Load and never mutated after that
// (the lifecycle invariant); every method here is safe for concurrent use
// without locking.
type Store struct {
	codeDetails map[string]*CodeDetails
	rules       map[string][]Rule
	tables      map[string][]TableEntry // normalised table name -> rows
	packages    map[string]*PackageDefinition
	groups      map[string][]string // leistungsgruppe id -> member LKNs

	// serviceLinks maps an LKN to the packages whose conditions reference
	// it, precomputed at load time from LKN_LIST/LKN_TABLE atoms and table
	// membership (§4.1 service_links).
	serviceLinks map[string][]string
}

// NewStore assembles a Store from already-parsed catalogue data. Loader
// implementations (JSON today) call this after decoding their source.
func NewStore(
	codeDetails map[string]*CodeDetails,
	rules map[string][]Rule,
	tableEntries []TableEntry,
	packages map[string]*PackageDefinition,
	groups map[string][]string,
) *Store {
	s := &Store{
		codeDetails: codeDetails,
		rules:       rules,
		tables:      map[string][]TableEntry{},
		packages:    packages,
		groups:      groups,
	}
	for _, e := range tableEntries {
		key := normalizeTableName(e.TableName)
		e.TableName = key
		s.tables[key] = append(s.tables[key], e)
	}
	s.serviceLinks = buildServiceLinks(packages, s.tables)
	return s
}

// CodeDetails returns the catalogue entry for lkn, or nil if unknown.
func (s *Store) CodeDetails(lkn string) *CodeDetails {
	return s.codeDetails[codes.Canonical(lkn)]
}

// Rules returns the ordered rule list for lkn (possibly empty).
func (s *Store) Rules(lkn string) []Rule {
	return s.rules[codes.Canonical(lkn)]
}

// TableEntries returns rows of the named table(s) whose normalised type
// matches typ. lang neither filters nor translates: each row carries its
// CodeText in every loaded language. Table lookup is case-insensitive
// and tolerates type synonyms (§4.1).
func (s *Store) TableEntries(name string, typ TableType, lang string) []TableEntry {
	key := normalizeTableName(name)
	var out []TableEntry
	for _, e := range s.tables[key] {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// TableEntriesAnyType returns every row of the named table regardless of
// type, used when a condition atom names a table without a type hint.
func (s *Store) TableEntriesAnyType(name string) []TableEntry {
	return s.tables[normalizeTableName(name)]
}

// SearchTableEntries scans every table of the given type for a code or
// localized text match against q (case-insensitive substring), used by
// the `/api/icd` and `/api/chop` lookup endpoints. Results are sorted by
// code ascending; an empty q matches everything.
func (s *Store) SearchTableEntries(typ TableType, q, lang string) []TableEntry {
	needle := strings.ToLower(strings.TrimSpace(q))
	var out []TableEntry
	for _, rows := range s.tables {
		for _, e := range rows {
			if e.Type != typ {
				continue
			}
			if needle == "" || strings.Contains(strings.ToLower(e.Code), needle) ||
				strings.Contains(strings.ToLower(e.CodeText[lang]), needle) ||
				strings.Contains(strings.ToLower(e.CodeText["de"]), needle) {
				out = append(out, e)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Package returns the definition for a package code, or nil if unknown.
func (s *Store) Package(code string) *PackageDefinition {
	return s.packages[codes.Canonical(code)]
}

// PackageConditions returns the condition rows for a package code.
func (s *Store) PackageConditions(code string) []ConditionRow {
	if p := s.Package(code); p != nil {
		return p.Conditions
	}
	return nil
}

// ServiceLinks returns the packages whose conditions reference lkn,
// sorted ascending for deterministic iteration downstream (§4.8 tie-break
// relies on stable, sorted candidate lists).
func (s *Store) ServiceLinks(lkn string) []string {
	return s.serviceLinks[codes.Canonical(lkn)]
}

// LeistungsgruppeMembers returns the member LKNs of a named service group.
func (s *Store) LeistungsgruppeMembers(id string) []string {
	return s.groups[id]
}

// AllPackages returns every package code, sorted ascending. Used by C8's
// sibling-diff step to enumerate a base family.
func (s *Store) AllPackages() []string {
	out := make([]string, 0, len(s.packages))
	for code := range s.packages {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// AllCodes returns every catalogued LKN, sorted ascending. Used to seed
// C2's retrieval index at startup.
func (s *Store) AllCodes() []string {
	out := make([]string, 0, len(s.codeDetails))
	for code := range s.codeDetails {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// normalizeTableName lowercases and strips dashes/underscores, matching
// the §4.1 rule that table lookup tolerates punctuation and case drift
// ("ICD-10" vs "icd10").
func normalizeTableName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

// normalizeTableType maps a raw table_type string onto one of the four
// canonical TableType values, tolerating the synonyms named in §4.1:
// {tarif, tariff, 402 -> tariff; servicecatalog, servicekatalog ->
// service_catalog; icd, icd-10 -> icd}.
func normalizeTableType(raw string) (TableType, error) {
	key := normalizeTableName(raw)
	switch key {
	case "tarif", "tariff", "402":
		return TableTariff, nil
	case "servicecatalog", "servicekatalog":
		return TableServiceCatalog, nil
	case "icd", "icd10":
		return TableICD, nil
	case "medication", "medikament", "medikamente":
		return TableMedication, nil
	default:
		return "", fmt.Errorf("unknown table_type %q", raw)
	}
}

// buildServiceLinks precomputes, for every LKN, the set of packages whose
// conditions reference it directly (LKN_LIST) or via table membership
// (LKN_TABLE over a service_catalog table containing the LKN).
func buildServiceLinks(packages map[string]*PackageDefinition, tables map[string][]TableEntry) map[string][]string {
	links := map[string]map[string]bool{}
	add := func(lkn, pkgCode string) {
		if links[lkn] == nil {
			links[lkn] = map[string]bool{}
		}
		links[lkn][pkgCode] = true
	}

	for pkgCode, pkg := range packages {
		for _, row := range pkg.Conditions {
			switch row.Type {
			case AtomLKNList:
				for _, lkn := range row.Values {
					add(codes.Canonical(lkn), pkgCode)
				}
			case AtomLKNTable:
				for _, tableName := range row.Values {
					for _, entry := range tables[normalizeTableName(tableName)] {
						if entry.Type == TableServiceCatalog {
							add(codes.Canonical(entry.Code), pkgCode)
						}
					}
				}
			}
		}
	}

	out := make(map[string][]string, len(links))
	for lkn, set := range links {
		list := make([]string, 0, len(set))
		for code := range set {
			list = append(list, code)
		}
		sort.Strings(list)
		out[lkn] = list
	}
	return out
}
