package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
)

// Source reads word groups from a workbook: every sheet is a group named
// after the sheet, column A holds the word and column B its meaning, and the
// first row is a header. The fallback list is the first sheet of a second,
// optional workbook.
type Source struct {
	path         string
	fallbackPath string
	logger       *zap.Logger
}

func NewSource(path, fallbackPath string, logger *zap.Logger) *Source {
	return &Source{
		path:         path,
		fallbackPath: fallbackPath,
		logger:       logger,
	}
}

func (s *Source) Load(ctx context.Context) (entities.CorpusData, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return entities.CorpusData{}, fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	var data entities.CorpusData
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return entities.CorpusData{}, err
		}

		entries, err := readSheet(f, sheet)
		if err != nil {
			return entities.CorpusData{}, err
		}
		data.Groups = append(data.Groups, entities.Group{Name: sheet, Entries: entries})
	}

	fallback, ok, err := s.loadFallback()
	if err != nil {
		return entities.CorpusData{}, err
	}
	data.Fallback = fallback
	data.HasFallback = ok

	s.logger.Info("workbook loaded",
		zap.String("path", s.path),
		zap.Int("groups", len(data.Groups)),
		zap.Bool("has_fallback", ok),
	)

	return data, nil
}

func (s *Source) loadFallback() ([]entities.WordEntry, bool, error) {
	if s.fallbackPath == "" {
		return nil, false, nil
	}

	if _, err := os.Stat(s.fallbackPath); errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("fallback workbook not found, using all groups",
			zap.String("path", s.fallbackPath),
		)
		return nil, false, nil
	}

	f, err := excelize.OpenFile(s.fallbackPath)
	if err != nil {
		return nil, false, fmt.Errorf("open fallback workbook %s: %w", s.fallbackPath, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, false, nil
	}

	entries, err := readSheet(f, sheets[0])
	if err != nil {
		return nil, false, err
	}

	return entries, true, nil
}

// readSheet returns the rows below the header that have both a word and a
// meaning.
func readSheet(f *excelize.File, sheet string) ([]entities.WordEntry, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var entries []entities.WordEntry
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}

		word := strings.TrimSpace(row[0])
		meaning := strings.TrimSpace(row[1])
		if word == "" || meaning == "" {
			continue
		}

		entries = append(entries, entities.WordEntry{Word: word, Meaning: meaning})
	}

	return entries, nil
}
