package schema

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultCandidates lists, per role, the header keywords to look for,
// in priority order. A column matches a candidate when its lower-cased
// trimmed name contains the candidate as a substring.
var defaultCandidates = map[Role][]string{
	RoleDate:     {"sale_date", "date", "order_date", "transaction_date"},
	RoleProduct:  {"product_name", "product", "product_id", "item"},
	RoleCategory: {"category", "product_category"},
	RoleRegion:   {"region", "state", "location"},
	RoleRevenue:  {"sales_amount", "total", "amount", "sales"},
	RoleQuantity: {"quantity", "qty", "units", "items"},
	RolePrice:    {"unit_price", "price", "item price"},
	RoleUnitCost: {"unit_cost", "cost"},
	RoleRep:      {"sales_rep", "salesperson", "rep"},
}

// Inferencer guesses role assignments from column names alone.
type Inferencer struct {
	candidates map[Role][]string
}

// NewInferencer returns an inferencer with the built-in candidate lists.
func NewInferencer() *Inferencer {
	return &Inferencer{candidates: defaultCandidates}
}

// NewInferencerFromFile returns an inferencer whose candidate lists are the
// defaults overridden per-role by the YAML file at path. The file maps role
// names to keyword lists, e.g.:
//
//	date: [sale_date, date, booked_on]
//	region: [region, territory]
func NewInferencerFromFile(path string) (*Inferencer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}
	var raw map[string][]string
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse keywords file: %w", err)
	}
	merged := make(map[Role][]string, len(defaultCandidates))
	for role, kws := range defaultCandidates {
		merged[role] = kws
	}
	for name, kws := range raw {
		role := Role(name)
		if !role.Valid() && role != RoleUnitCost {
			return nil, fmt.Errorf("unknown role %q in keywords file", name)
		}
		if len(kws) > 0 {
			merged[role] = kws
		}
	}
	return &Inferencer{candidates: merged}, nil
}

// Infer guesses a column for each mapped role. For every role, candidates
// are scanned in priority order and columns in table order; the first
// column whose normalized name contains the candidate wins. Roles with no
// match are left unset.
func (inf *Inferencer) Infer(columns []string) Mapping {
	normalized := make([]string, len(columns))
	for i, c := range columns {
		normalized[i] = strings.ToLower(strings.TrimSpace(c))
	}
	m := make(Mapping, len(MappedRoles))
	for _, role := range MappedRoles {
		if col, ok := inf.findFirst(columns, normalized, role); ok {
			m[role] = col
		}
	}
	return m
}

// DetectUnitCost reports the column matching the unit-cost candidates, if
// any. The result is informational only; unit cost is never mapped.
func (inf *Inferencer) DetectUnitCost(columns []string) (string, bool) {
	normalized := make([]string, len(columns))
	for i, c := range columns {
		normalized[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return inf.findFirst(columns, normalized, RoleUnitCost)
}

func (inf *Inferencer) findFirst(columns, normalized []string, role Role) (string, bool) {
	for _, cand := range inf.candidates[role] {
		for i, name := range normalized {
			if strings.Contains(name, cand) {
				return columns[i], true
			}
		}
	}
	return "", false
}
