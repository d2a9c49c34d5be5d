package parser

import "github.com/aluiziolira/go-snax/models"

// Compare decides whether candidate b beats candidate a.
type Compare func(a, b string) bool

// LongerText prefers the candidate with more characters. Ties keep a.
func LongerText(a, b string) bool {
	return len([]rune(b)) > len([]rune(a))
}

// GreaterText prefers the lexicographically greater candidate. Ties keep a.
func GreaterText(a, b string) bool {
	return b > a
}

// CompareFor maps a configured mode name to its comparison.
func CompareFor(mode string) Compare {
	if mode == "lexicographic" {
		return GreaterText
	}
	return LongerText
}

// ResolveDescriptions stores the winning candidate of every row under column
// and drops both candidate columns from the table.
func ResolveDescriptions(t *models.Table, candidates [2]string, column string, better Compare) {
	if better == nil {
		better = LongerText
	}
	for _, row := range t.Rows {
		winner := row[candidates[0]]
		if other := row[candidates[1]]; better(winner, other) {
			winner = other
		}
		row[column] = winner
	}
	t.DropColumn(candidates[0])
	t.DropColumn(candidates[1])
	t.AddColumn(column)
}
