package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"curator/internal/catalog"
)

// timeLayout is fixed-width so text comparison in ORDER BY matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// maxInClause bounds the number of bound parameters per IN (...) statement.
const maxInClause = 500

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func parseNullableTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return nil
	}
	return &t
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

// chunkIDs splits ids into groups no larger than maxInClause.
func chunkIDs(ids []string) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += maxInClause {
		end := min(start+maxInClause, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

func stringArgs(values []string, prefix ...any) []any {
	args := make([]any, 0, len(prefix)+len(values))
	args = append(args, prefix...)
	for _, v := range values {
		args = append(args, v)
	}
	return args
}

func encodeAttributes(attrs catalog.Attributes) (string, error) {
	if attrs == nil {
		attrs = catalog.Attributes{}
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("encode attributes: %w", err)
	}
	return string(data), nil
}

func decodeAttributes(raw sql.NullString) (catalog.Attributes, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var attrs catalog.Attributes
	if err := json.Unmarshal([]byte(raw.String), &attrs); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	return attrs, nil
}
