package yamlcorpus

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

// Source reads word groups from a YAML document:
//
//	groups:
//	  - name: animals
//	    words:
//	      - word: cat
//	        meaning: a feline
//	fallback:
//	  - word: cat
//	    meaning: a feline
//
// A missing or empty fallback key means there is no fallback list.
type Source struct {
	path string
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

type document struct {
	Groups   []groupDoc           `yaml:"groups"`
	Fallback []entities.WordEntry `yaml:"fallback"`
}

type groupDoc struct {
	Name  string               `yaml:"name"`
	Words []entities.WordEntry `yaml:"words"`
}

func (s *Source) Load(_ context.Context) (entities.CorpusData, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return entities.CorpusData{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return entities.CorpusData{}, fmt.Errorf("parse %s: %w", s.path, err)
	}

	data := entities.CorpusData{
		Groups:      make([]entities.Group, 0, len(doc.Groups)),
		Fallback:    doc.Fallback,
		HasFallback: len(doc.Fallback) > 0,
	}
	for _, g := range doc.Groups {
		data.Groups = append(data.Groups, entities.Group{Name: g.Name, Entries: g.Words})
	}

	return data, nil
}
