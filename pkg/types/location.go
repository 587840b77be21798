package types

// Location describes where a match sits inside the original text.
// Offsets are byte positions forming a half-open interval [Start, End);
// Line and Column are 0-based and computed against the full text, not a
// line-by-line re-scan.
type Location struct {
	Line        int
	Column      int
	Length      int
	StartOffset int
	EndOffset   int
}
