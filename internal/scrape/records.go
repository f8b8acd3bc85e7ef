package scrape

import (
	"encoding/json"
	"errors"

	"github.com/mitchellh/mapstructure"

	"github.com/jonesrussell/cooper/internal/domain"
)

var (
	errMissingURL      = errors.New("url is required")
	errMissingComments = errors.New("comments is required")
	errMissingMetadata = errors.New("metadata is required")
)

// ParseRecords decodes a dataset payload (a JSON array of items) into
// VideoRecords. One bad item fails the whole batch.
func ParseRecords(raw json.RawMessage) ([]domain.VideoRecord, error) {
	if len(raw) == 0 {
		return []domain.VideoRecord{}, nil
	}

	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ResultSchemaError{Index: -1, Err: err}
	}

	records := make([]domain.VideoRecord, 0, len(items))
	for i, item := range items {
		record, err := decodeRecord(item)
		if err != nil {
			return nil, &ResultSchemaError{Index: i, Err: err}
		}
		records = append(records, record)
	}
	return records, nil
}

func decodeRecord(item map[string]any) (domain.VideoRecord, error) {
	var record domain.VideoRecord

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnset: true,
		Result:     &record,
	})
	if err != nil {
		return record, err
	}

	if err := decoder.Decode(item); err != nil {
		return record, err
	}

	// explicit nulls decode without error
	switch {
	case record.URL == "":
		return record, errMissingURL
	case record.Comments == nil:
		return record, errMissingComments
	case record.Metadata == nil:
		return record, errMissingMetadata
	}
	return record, nil
}
