package catalog

import "testing"

func testStore() *Store {
	codeDetails := map[string]*CodeDetails{
		"CA.00.0010": {LKN: "CA.00.0010", Type: TypeE, Description: map[string]string{"de": "Konsultation"}},
		"WA.10.0010": {LKN: "WA.10.0010", Type: TypeP, Description: map[string]string{"de": "Anaesthesie"}},
	}
	rules := map[string][]Rule{
		"CA.00.0010": {{Kind: RuleQuantity, MaxMenge: 4}},
	}
	tables := []TableEntry{
		{TableName: "ANAST", Type: TableServiceCatalog, Code: "WA.10.0010", CodeText: map[string]string{"de": "Anaesthesie"}},
	}
	packages := map[string]*PackageDefinition{
		"C08.50E": {
			Code:  "C08.50E",
			Title: map[string]string{"de": "Paket 50"},
			Conditions: []ConditionRow{
				{Group: 1, Type: AtomLKNTable, Values: []string{"ANAST"}, Operator: OpAND},
			},
		},
	}
	groups := map[string][]string{"G1": {"CA.00.0010"}}
	return NewStore(codeDetails, rules, tables, packages, groups)
}

func TestStore_CodeDetails(t *testing.T) {
	s := testStore()
	if s.CodeDetails("ca.00.0010") == nil {
		t.Fatal("expected case-insensitive lookup to find CA.00.0010")
	}
	if s.CodeDetails("ZZ.99.9999") != nil {
		t.Fatal("expected unknown lkn to return nil")
	}
}

func TestStore_Rules(t *testing.T) {
	s := testStore()
	rules := s.Rules("CA.00.0010")
	if len(rules) != 1 || rules[0].Kind != RuleQuantity || rules[0].MaxMenge != 4 {
		t.Fatalf("unexpected rules: %+v", rules)
	}
}

func TestStore_TableEntries_CaseInsensitiveName(t *testing.T) {
	s := testStore()
	entries := s.TableEntries("anast", TableServiceCatalog, "de")
	if len(entries) != 1 || entries[0].Code != "WA.10.0010" {
		t.Fatalf("expected ANAST table lookup case-insensitive, got %+v", entries)
	}
}

func TestStore_ServiceLinks_FromLKNTable(t *testing.T) {
	s := testStore()
	links := s.ServiceLinks("WA.10.0010")
	if len(links) != 1 || links[0] != "C08.50E" {
		t.Fatalf("expected WA.10.0010 linked to C08.50E via ANAST table, got %v", links)
	}
}

func TestStore_Package(t *testing.T) {
	s := testStore()
	if s.Package("c08.50e") == nil {
		t.Fatal("expected case-insensitive package lookup")
	}
}

func TestStore_LeistungsgruppeMembers(t *testing.T) {
	s := testStore()
	members := s.LeistungsgruppeMembers("G1")
	if len(members) != 1 || members[0] != "CA.00.0010" {
		t.Fatalf("unexpected group members: %v", members)
	}
}

func TestStore_AllCodes_SortedAscending(t *testing.T) {
	s := testStore()
	codes := s.AllCodes()
	if len(codes) != 2 || codes[0] != "CA.00.0010" || codes[1] != "WA.10.0010" {
		t.Fatalf("unexpected codes: %v", codes)
	}
}

func TestStore_SearchTableEntries_MatchesCodeOrText(t *testing.T) {
	s := NewStore(
		map[string]*CodeDetails{},
		map[string][]Rule{},
		[]TableEntry{
			{TableName: "ICD10", Type: TableICD, Code: "M19.9", CodeText: map[string]string{"de": "Arthrose, nicht näher bezeichnet"}},
			{TableName: "ICD10", Type: TableICD, Code: "J45.9", CodeText: map[string]string{"de": "Asthma bronchiale"}},
		},
		map[string]*PackageDefinition{},
		map[string][]string{},
	)
	byCode := s.SearchTableEntries(TableICD, "m19", "de")
	if len(byCode) != 1 || byCode[0].Code != "M19.9" {
		t.Fatalf("expected code-substring match, got %+v", byCode)
	}
	byText := s.SearchTableEntries(TableICD, "asthma", "de")
	if len(byText) != 1 || byText[0].Code != "J45.9" {
		t.Fatalf("expected text-substring match, got %+v", byText)
	}
	all := s.SearchTableEntries(TableICD, "", "de")
	if len(all) != 2 {
		t.Fatalf("expected empty query to match everything, got %d", len(all))
	}
}

func TestNormalizeTableType_Synonyms(t *testing.T) {
	cases := map[string]TableType{
		"tarif":          TableTariff,
		"Tariff":         TableTariff,
		"402":            TableTariff,
		"ServiceCatalog": TableServiceCatalog,
		"servicekatalog": TableServiceCatalog,
		"ICD-10":         TableICD,
		"icd":            TableICD,
	}
	for in, want := range cases {
		got, err := normalizeTableType(in)
		if err != nil {
			t.Fatalf("normalizeTableType(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("normalizeTableType(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := normalizeTableType("bogus"); err == nil {
		t.Error("expected error for unknown table_type")
	}
}
