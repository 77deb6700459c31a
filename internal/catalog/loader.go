package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arzttarif/tarifengine/pkg/codes"
)

// The on-disk catalogue format is a directory of JSON files, one per
// logical table, matching the external interface named in spec §6.
// Loading is intentionally thin: the wire shapes below are the minimal
// superset needed to populate a Store, not a general-purpose schema.

type rawCodeDetails struct {
	LKN            string            `json:"lkn"`
	Type           string            `json:"typ"`
	Description    map[string]string `json:"beschreibung"`
	Interpretation map[string]string `json:"interpretation,omitempty"`
}

type rawRule struct {
	LKN        string   `json:"lkn"`
	Kind       string   `json:"kind"`
	MaxMenge   int      `json:"max_menge,omitempty"`
	Codes      []string `json:"codes,omitempty"`
	TypeFilter []string `json:"type_filter,omitempty"`
	Entries    []struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
	} `json:"entries,omitempty"`
	Field      string `json:"field,omitempty"`
	Comparator string `json:"comparator,omitempty"`
	Value      string `json:"value,omitempty"`
	Min        int    `json:"min,omitempty"`
	Max        int    `json:"max,omitempty"`
	MessageKey string `json:"message_key,omitempty"`
}

type rawTableEntry struct {
	TableName string            `json:"tabelle"`
	Type      string            `json:"tabelle_typ"`
	Code      string            `json:"code"`
	CodeText  map[string]string `json:"code_text"`
}

type rawConditionRow struct {
	Group      int      `json:"gruppe"`
	Type       string   `json:"typ"`
	Values     []string `json:"werte"`
	Operator   string   `json:"operator"`
	Field      string   `json:"field,omitempty"`
	Comparator string   `json:"comparator,omitempty"`
	Min        int      `json:"min,omitempty"`
	Max        int      `json:"max,omitempty"`
	Value      string   `json:"value,omitempty"`
}

type rawPackage struct {
	Code       string            `json:"code"`
	Title      map[string]string `json:"titel"`
	Taxpunkte  float64           `json:"taxpunkte"`
	Conditions []rawConditionRow `json:"bedingungen"`
}

// Load reads code_details.json, rules.json, tables.json, packages.json and
// leistungsgruppen.json from dir and assembles a Store. Any file that does
// not exist is treated as empty, so a partial catalogue (e.g. in tests)
// loads without error.
func Load(dir string) (*Store, error) {
	var rawCodes []rawCodeDetails
	if err := readJSON(filepath.Join(dir, "code_details.json"), &rawCodes); err != nil {
		return nil, err
	}
	var rawRules []rawRule
	if err := readJSON(filepath.Join(dir, "rules.json"), &rawRules); err != nil {
		return nil, err
	}
	var rawTables []rawTableEntry
	if err := readJSON(filepath.Join(dir, "tables.json"), &rawTables); err != nil {
		return nil, err
	}
	var rawPackages []rawPackage
	if err := readJSON(filepath.Join(dir, "packages.json"), &rawPackages); err != nil {
		return nil, err
	}
	var rawGroups map[string][]string
	if err := readJSON(filepath.Join(dir, "leistungsgruppen.json"), &rawGroups); err != nil {
		return nil, err
	}

	codeDetails := make(map[string]*CodeDetails, len(rawCodes))
	for _, rc := range rawCodes {
		lkn := codes.Canonical(rc.LKN)
		codeDetails[lkn] = &CodeDetails{
			LKN:            lkn,
			Type:           ServiceType(rc.Type),
			Description:    rc.Description,
			Interpretation: rc.Interpretation,
		}
	}

	rules := map[string][]Rule{}
	for _, rr := range rawRules {
		rule, err := convertRule(rr)
		if err != nil {
			return nil, fmt.Errorf("rule for %s: %w", rr.LKN, err)
		}
		lkn := codes.Canonical(rr.LKN)
		rules[lkn] = append(rules[lkn], rule)
	}

	tableEntries := make([]TableEntry, 0, len(rawTables))
	for _, rt := range rawTables {
		typ, err := normalizeTableType(rt.Type)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", rt.TableName, err)
		}
		tableEntries = append(tableEntries, TableEntry{
			TableName: rt.TableName,
			Type:      typ,
			Code:      codes.Canonical(rt.Code),
			CodeText:  rt.CodeText,
		})
	}

	packages := make(map[string]*PackageDefinition, len(rawPackages))
	for _, rp := range rawPackages {
		rows := make([]ConditionRow, 0, len(rp.Conditions))
		for _, rc := range rp.Conditions {
			rows = append(rows, ConditionRow{
				Group:      rc.Group,
				Type:       AtomType(rc.Type),
				Values:     rc.Values,
				Operator:   ConditionOperator(rc.Operator),
				Field:      PatientField(rc.Field),
				Comparator: Comparator(rc.Comparator),
				Min:        rc.Min,
				Max:        rc.Max,
				Value:      rc.Value,
			})
		}
		code := codes.Canonical(rp.Code)
		packages[code] = &PackageDefinition{
			Code:       code,
			Title:      rp.Title,
			Taxpunkte:  rp.Taxpunkte,
			Conditions: rows,
		}
	}

	return NewStore(codeDetails, rules, tableEntries, packages, rawGroups), nil
}

func convertRule(rr rawRule) (Rule, error) {
	entries := make([]CumulableEntry, 0, len(rr.Entries))
	for _, e := range rr.Entries {
		entries = append(entries, CumulableEntry{Kind: CumulableEntryKind(e.Kind), Value: e.Value})
	}
	typeFilter := make([]ServiceType, 0, len(rr.TypeFilter))
	for _, t := range rr.TypeFilter {
		typeFilter = append(typeFilter, ServiceType(t))
	}
	return Rule{
		Kind:       RuleKind(rr.Kind),
		MaxMenge:   rr.MaxMenge,
		Codes:      rr.Codes,
		TypeFilter: typeFilter,
		Entries:    entries,
		Field:      PatientField(rr.Field),
		Comparator: Comparator(rr.Comparator),
		Value:      rr.Value,
		Min:        rr.Min,
		Max:        rr.Max,
		MessageKey: rr.MessageKey,
	}, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
