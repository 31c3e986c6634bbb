package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/vicharanashala/ajrasakha-sub003/common/id"
	"github.com/vicharanashala/ajrasakha-sub003/internal/model"
)

// QuestionIndex is a bleve full-text index over question text and details.
type QuestionIndex struct {
	index bleve.Index
}

type questionDocument struct {
	Text     string `json:"text"`
	Details  string `json:"details"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// Open opens the index at path, creating it when missing. An empty path
// keeps the index in memory; callers then rebuild it on start.
func Open(path string) (*QuestionIndex, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &QuestionIndex{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	return &QuestionIndex{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = "en"

	keywordField := bleve.NewKeywordFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("text", textField)
	doc.AddFieldMappingsAt("details", textField)
	doc.AddFieldMappingsAt("status", keywordField)
	doc.AddFieldMappingsAt("priority", keywordField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

func (i *QuestionIndex) Close() error {
	return i.index.Close()
}

// Index adds or replaces the question's document.
func (i *QuestionIndex) Index(_ context.Context, q *model.Question) error {
	return i.index.Index(id.Format(q.ID), questionDocument{
		Text:     q.Text,
		Details:  q.Details,
		Status:   string(q.Status),
		Priority: string(q.Priority),
	})
}

func (i *QuestionIndex) Delete(_ context.Context, questionID int64) error {
	return i.index.Delete(id.Format(questionID))
}

// Search returns question ids ordered by relevance. Matches in the question
// text weigh twice as much as matches in the details.
func (i *QuestionIndex) Search(ctx context.Context, text string, limit int) ([]int64, error) {
	onText := bleve.NewMatchQuery(text)
	onText.SetField("text")
	onText.SetFuzziness(1)
	onText.SetBoost(2)

	onDetails := bleve.NewMatchQuery(text)
	onDetails.SetField("details")
	onDetails.SetFuzziness(1)

	req := bleve.NewSearchRequestOptions(query.NewDisjunctionQuery([]query.Query{onText, onDetails}), limit, 0, false)
	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	ids := make([]int64, 0, len(res.Hits))
	for _, hit := range res.Hits {
		questionID, err := id.Parse(hit.ID)
		if err != nil {
			return nil, fmt.Errorf("decoding hit %q: %w", hit.ID, err)
		}
		ids = append(ids, questionID)
	}
	return ids, nil
}

func (i *QuestionIndex) Count() (uint64, error) {
	return i.index.DocCount()
}
