package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvnair/fraudsight/internal/domain"
)

// RouteSource infers the source tag from the file's URI. This is a coarse
// fallback; callers that know the source pass it explicitly on the FileRef.
func RouteSource(uri string) domain.SourceType {
	lower := strings.ToLower(uri)
	switch {
	case strings.Contains(lower, "atm"):
		return domain.SourceATM
	case strings.Contains(lower, "upi"):
		return domain.SourceUPI
	default:
		return domain.SourceCustomers
	}
}

// DetectFormat selects the container format from the file extension.
// Everything that is not line-delimited JSON is treated as delimited
// tabular text with a header row.
func DetectFormat(uri string) string {
	if strings.HasSuffix(strings.ToLower(uri), ".jsonl") {
		return FormatJSONL
	}
	return FormatCSV
}

// parseBatch decodes raw file bytes into records plus the first record's
// field order (the exemplar order the schema inferencer preserves). Any
// malformation here aborts the whole batch with ErrMalformedInput.
func parseBatch(raw []byte, format string) ([]domain.Record, []string, error) {
	switch format {
	case FormatJSONL:
		return parseJSONL(raw)
	case FormatCSV:
		return parseCSV(raw)
	default:
		return nil, nil, fmt.Errorf("%w: unknown container format %q", ErrMalformedInput, format)
	}
}

func parseJSONL(raw []byte) ([]domain.Record, []string, error) {
	var records []domain.Record
	var fieldOrder []string

	for i, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		var rec domain.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %v", ErrMalformedInput, i+1, err)
		}

		if records == nil {
			order, err := jsonObjectKeys(line)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: line %d: %v", ErrMalformedInput, i+1, err)
			}
			fieldOrder = order
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: empty file", ErrMalformedInput)
	}
	return records, fieldOrder, nil
}

// jsonObjectKeys returns the top-level keys of one JSON object in document
// order. encoding/json maps lose that order, and deterministic validation
// needs it.
func jsonObjectKeys(line string) ([]string, error) {
	dec := json.NewDecoder(strings.NewReader(line))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("record is not a JSON object")
	}

	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v where key expected", keyTok)
		}
		keys = append(keys, key)
		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}

	return keys, nil
}

// skipValue consumes one JSON value, descending into nested containers.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

func parseCSV(raw []byte) ([]domain.Record, []string, error) {
	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("%w: no data rows", ErrMalformedInput)
	}

	header := rows[0]
	records := make([]domain.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(domain.Record, len(header))
		for i, field := range header {
			if i < len(row) {
				rec[field] = row[i]
			}
		}
		records = append(records, rec)
	}

	return records, header, nil
}
