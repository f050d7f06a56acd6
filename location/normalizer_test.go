package location

import "testing"

func newTestNormalizer() *Normalizer {
	return NewNormalizer(DefaultTable(), LevenshteinRatio{})
}

func TestNormalize(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		raw  string
		want string
	}{
		{"Rua da Prata 25, Baixa, Lisboa", "prata baixa lisboa"},
		{"Avenida da Liberdade 120, 2nd floor", "liberdade"},
		{"Praça do Comércio", "comercio"},
		{"Belém", "belem"},
		{"Travessa dos Fiéis de Deus 3A, Bairro Alto", "fieis deus bairro alto"},
		{"  Alfama   ;  Lisboa ", "alfama lisboa"},
		{"", ""},
		{"Rua 5", ""},
	}

	for _, tt := range tests {
		if got := n.Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q): got %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := newTestNormalizer()
	for _, raw := range []string{"Rua da Prata 25, Baixa", "Largo do Carmo, Chiado", "Campo de Ourique"} {
		once := n.Normalize(raw)
		if twice := n.Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

func TestExtractNeighborhood(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"Rua dos Remédios, Alfama, Lisboa", "Alfama", true},
		{"ALFAMA", "Alfama", true},
		{"Apartamento T2 em São Domingos de Benfica", "São Domingos de Benfica", true},
		{"Graca, Lisboa", "Graça", true},
		{"Perto do LX Factory", "Alcântara", true},
		{"Rua Castilho, Amoreiras", "Campolide", true},
		{"Rua X, Alcantra", "Alcântara", true},
		{"Alcantra, Lisboa", "Alcântara", true},
		{"Unknown District", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := n.ExtractNeighborhood(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ExtractNeighborhood(%q): got (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestExtractNeighborhoodWholeWordsOnly(t *testing.T) {
	n := newTestNormalizer()
	if got, ok := n.ExtractNeighborhood("Lapalisse"); ok {
		t.Errorf("partial word must not match, got %q", got)
	}
}

func TestDefaultTableValidates(t *testing.T) {
	table := DefaultTable()
	if err := table.Validate(); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}
	if len(table.Names) < 35 {
		t.Errorf("Names: got %d, want at least 35", len(table.Names))
	}
}

func TestDefaultTableIsACopy(t *testing.T) {
	a := DefaultTable()
	a.Names[0] = "changed"
	a.Synonyms["expo"] = "changed"

	b := DefaultTable()
	if b.Names[0] == "changed" || b.Synonyms["expo"] == "changed" {
		t.Error("DefaultTable must not share state between calls")
	}
}

func TestTableValidateRejectsDanglingSynonym(t *testing.T) {
	table := Table{Version: "t", Names: []string{"Alfama"}, Synonyms: map[string]string{"x": "Nowhere"}}
	if err := table.Validate(); err == nil {
		t.Error("expected error for synonym pointing at unknown neighborhood")
	}
}
