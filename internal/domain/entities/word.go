// Package entities contains domain entities used across the application.
package entities

// WordEntry is a vocabulary word paired with its meaning.
type WordEntry struct {
	Word    string `json:"word" yaml:"word"`       // the word shown as the question
	Meaning string `json:"meaning" yaml:"meaning"` // the correct answer text
}

// Group is a named, ordered list of word entries (one spreadsheet sheet,
// one YAML group or one group_name in the database).
type Group struct {
	Name    string      // lowercased group key
	Entries []WordEntry // entries in source order
}

// CorpusData is the raw output of a corpus source before indexing.
type CorpusData struct {
	Groups      []Group     // named groups in source order
	Fallback    []WordEntry // words used when no group is requested
	HasFallback bool        // false when the fallback source was absent
}
