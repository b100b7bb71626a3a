// Package intent turns a free-text question into structured query parameters.
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/zkloci/internal/model"
)

// ErrUnparsable is returned when extractor output holds no usable JSON object
var ErrUnparsable = errors.New("unparsable intent")

// Extractor maps a question to an intent. Fields the question does not
// mention are left empty or zero for the caller to default.
type Extractor interface {
	Extract(ctx context.Context, question string) (model.Intent, error)
}

// ParseIntent reads an intent from model output. It tolerates code fences,
// prose around the object, nulls, and numbers sent as strings.
func ParseIntent(raw string) (model.Intent, error) {
	body := stripFences(raw)

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return model.Intent{}, fmt.Errorf("%w: no JSON object in %q", ErrUnparsable, truncate(raw, 80))
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(body[start:end+1]), &fields); err != nil {
		return model.Intent{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	return model.Intent{
		ProviderName:   stringField(fields, "providerName"),
		UseCase:        stringField(fields, "useCase"),
		TimeWindowDays: intField(fields, "timeWindowDays"),
		TargetCount:    intField(fields, "targetCount"),
	}, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func stringField(fields map[string]interface{}, key string) string {
	s, ok := fields[key].(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return ""
	}
	return s
}

// intField returns a positive whole value or zero
func intField(fields map[string]interface{}, key string) int {
	var f float64
	switch v := fields[key].(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if f <= 0 || f > math.MaxInt32 || f != math.Trunc(f) {
		return 0
	}
	return int(f)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
