package location

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultTableVersion identifies the built-in neighborhood table so exported
// reports can say which lookup data produced them.
const DefaultTableVersion = "lisbon-2024.1"

// Table is the curated neighborhood lookup data. It is read-only once handed
// to a Normalizer.
type Table struct {
	Version  string            `yaml:"version"`
	Names    []string          `yaml:"names"`
	Synonyms map[string]string `yaml:"synonyms"`
	// Segments that never count as an exact location match (city or
	// country names shared by every listing, for example).
	IgnoreSegments []string `yaml:"ignore_segments"`
}

var defaultNames = [...]string{
	"Alfama", "Baixa", "Chiado", "Bairro Alto", "Príncipe Real",
	"Mouraria", "Graça", "Belém", "Alcântara", "Lapa",
	"Estrela", "Parque das Nações", "Campo de Ourique", "Avenidas Novas", "Alvalade",
	"Areeiro", "Benfica", "Santo António", "Misericórdia", "Santa Maria Maior",
	"São Vicente", "Lumiar", "Carnide", "Campolide", "Ajuda",
	"Penha de França", "Cais do Sodré", "Avenida da Liberdade", "Marquês de Pombal", "Saldanha",
	"Anjos", "Intendente", "Arroios", "Alameda", "Roma",
	"Martim Moniz", "Rossio", "Santa Clara", "Marvila", "Olivais",
	"São Domingos de Benfica", "Beato",
}

var defaultSynonyms = map[string]string{
	"cais sodre":         "Cais do Sodré",
	"marques pombal":     "Marquês de Pombal",
	"av liberdade":       "Avenida da Liberdade",
	"av da liberdade":    "Avenida da Liberdade",
	"parque nacoes":      "Parque das Nações",
	"expo":               "Parque das Nações",
	"lx factory":         "Alcântara",
	"santos":             "Estrela",
	"madragoa":           "Estrela",
	"sao bento":          "Estrela",
	"sete rios":          "Campolide",
	"amoreiras":          "Campolide",
	"entrecampos":        "Avenidas Novas",
	"campo pequeno":      "Avenidas Novas",
	"sao joao de brito":  "Alvalade",
	"bairro dos actores": "Areeiro",
	"prazeres":           "Campo de Ourique",
	"santa catarina":     "Misericórdia",
	"bica":               "Misericórdia",
	"telheiras":          "Lumiar",
	"restelo":            "Belém",
	"castelo":            "Santa Maria Maior",
	"rato":               "Santo António",
	"almirante reis":     "Arroios",
}

// DefaultTable returns a fresh copy of the built-in Lisbon table.
func DefaultTable() Table {
	names := make([]string, len(defaultNames))
	copy(names, defaultNames[:])

	synonyms := make(map[string]string, len(defaultSynonyms))
	for k, v := range defaultSynonyms {
		synonyms[k] = v
	}

	return Table{
		Version:  DefaultTableVersion,
		Names:    names,
		Synonyms: synonyms,
	}
}

// Validate checks that the table is usable and that every synonym points at a
// listed neighborhood.
func (t Table) Validate() error {
	if len(t.Names) == 0 {
		return fmt.Errorf("location: neighborhood table %q has no names", t.Version)
	}
	known := make(map[string]struct{}, len(t.Names))
	for _, n := range t.Names {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("location: neighborhood table %q contains a blank name", t.Version)
		}
		known[n] = struct{}{}
	}
	for alias, canonical := range t.Synonyms {
		if _, ok := known[canonical]; !ok {
			return fmt.Errorf("location: synonym %q maps to unknown neighborhood %q", alias, canonical)
		}
	}
	return nil
}

type entry struct {
	key       string // folded, space-joined tokens
	canonical string
	tokens    int
}

// buildEntries folds the keys and orders them most specific first so that
// "São Domingos de Benfica" wins over "Benfica".
func buildEntries(pairs map[string]string) []entry {
	out := make([]entry, 0, len(pairs))
	for k, canonical := range pairs {
		toks := tokenize(k)
		if len(toks) == 0 {
			continue
		}
		out = append(out, entry{key: strings.Join(toks, " "), canonical: canonical, tokens: len(toks)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].tokens != out[j].tokens {
			return out[i].tokens > out[j].tokens
		}
		if len(out[i].key) != len(out[j].key) {
			return len(out[i].key) > len(out[j].key)
		}
		return out[i].key < out[j].key
	})
	return out
}
