package corpus

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
)

// rawQuestion mirrors one structured record. Scalars that may be written as
// numbers or strings are kept raw and normalised by scalar.
type rawQuestion struct {
	ID           json.RawMessage `json:"id"`
	Year         json.RawMessage `json:"year"`
	Subject      json.RawMessage `json:"subject"`
	GroupID      json.RawMessage `json:"group_id"`
	GroupContext string          `json:"group_context"`
	Stem         string          `json:"stem"`
	Options      json.RawMessage `json:"options"`
	Content      string          `json:"content"`
	Date         string          `json:"date"`
}

// labelledOption is the array form of an option.
type labelledOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

func parseStructured(source string, r io.Reader) ([]domain.Item, error) {
	var records []json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %s: expected a JSON array of questions: %w", domain.ErrSchema, source, err)
	}

	items := make([]domain.Item, 0, len(records))
	for i, rec := range records {
		item, err := parseQuestion(source, i, rec)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func parseQuestion(source string, record int, data json.RawMessage) (domain.Item, error) {
	schemaErr := func(field, reason string) error {
		return &domain.SchemaError{Source: source, Record: record, Field: field, Reason: reason}
	}

	var q rawQuestion
	if err := json.Unmarshal(data, &q); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return domain.Item{}, schemaErr(typeErr.Field, "expected "+typeErr.Type.String())
		}
		return domain.Item{}, schemaErr("", "record is not an object")
	}

	var item domain.Item
	scalars := []struct {
		name string
		raw  json.RawMessage
		dst  *string
	}{
		{"id", q.ID, &item.ID},
		{"year", q.Year, &item.Year},
		{"subject", q.Subject, &item.Subject},
		{"group_id", q.GroupID, &item.GroupID},
	}
	for _, f := range scalars {
		v, err := scalar(f.raw)
		if err != nil {
			return domain.Item{}, schemaErr(f.name, err.Error())
		}
		*f.dst = v
	}

	if item.ID == "" {
		return domain.Item{}, schemaErr("id", "")
	}

	item.GroupContext = q.GroupContext
	item.Stem = q.Stem
	item.Content = q.Content
	item.Date = q.Date

	if isNull(q.Options) {
		if item.Content != "" {
			return item, nil
		}
		if item.Stem == "" {
			return domain.Item{}, schemaErr("stem", "")
		}
		return domain.Item{}, schemaErr("options", "")
	}
	if item.Stem == "" && item.Content == "" {
		return domain.Item{}, schemaErr("stem", "")
	}

	opts, err := parseOptions(q.Options)
	if err != nil {
		return domain.Item{}, schemaErr("options", err.Error())
	}
	item.Options = opts
	return item, nil
}

// parseOptions accepts an object of label to text, kept in key order, or an
// array of {"label", "text"} objects.
func parseOptions(raw json.RawMessage) ([]domain.Option, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var list []labelledOption
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("invalid option list: %w", err)
		}
		opts := make([]domain.Option, len(list))
		for i, o := range list {
			opts[i] = domain.Option(o)
		}
		return opts, nil

	case len(trimmed) > 0 && trimmed[0] == '{':
		return parseOptionObject(trimmed)

	default:
		return nil, errors.New("expected an object or a list")
	}
}

func parseOptionObject(raw []byte) ([]domain.Option, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var opts []domain.Option
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		label, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		text, err := scalar(value)
		if err != nil {
			return nil, fmt.Errorf("option %s: %w", label, err)
		}
		opts = append(opts, domain.Option{Label: label, Text: text})
	}
	return opts, nil
}

// scalar renders a JSON string or number as text. Integers are written in
// canonical decimal form; null and absent values become "".
func scalar(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if isNull(trimmed) {
		return "", nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil

	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return "", err
		}
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10), nil
		}
		f, err := n.Float64()
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil

	default:
		return "", errors.New("expected a string or a number")
	}
}

func isNull(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Tabular column names.
const (
	columnID      = "id"
	columnContent = "content"
	columnDate    = "date"
)

func parseTabular(source string, r io.Reader) ([]domain.Item, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.SchemaError{Source: source, Field: columnID, Reason: "empty file, no header row"}
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrSchema, source, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	for _, required := range []string{columnID, columnContent} {
		if _, ok := columns[required]; !ok {
			return nil, &domain.SchemaError{Source: source, Field: required, Reason: "missing column in header"}
		}
	}
	dateCol, hasDate := columns[columnDate]

	cell := func(row []string, col int) string {
		if col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}

	var items []domain.Item
	for record := 0; ; record++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.SchemaError{Source: source, Record: record, Reason: err.Error()}
		}

		item := domain.Item{
			ID:      cell(row, columns[columnID]),
			Content: cell(row, columns[columnContent]),
		}
		if hasDate {
			item.Date = cell(row, dateCol)
		}
		if item.ID == "" {
			return nil, &domain.SchemaError{Source: source, Record: record, Field: columnID}
		}
		if item.Content == "" {
			return nil, &domain.SchemaError{Source: source, Record: record, Field: columnContent}
		}
		items = append(items, item)
	}
	return items, nil
}
