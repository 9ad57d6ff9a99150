package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/dvloznov/smart-accountant/internal/domain"
)

// transformModelOutputToTransactions decodes the raw response body into
// transactions without ids. Any shape other than an array of four-field
// objects is reported as ErrParse.
func transformModelOutputToTransactions(raw string) ([]domain.Transaction, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response body", ErrParse)
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("%w: unmarshal JSON: %v", ErrParse, err)
	}

	items, ok := parsed.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is %T, want array", ErrParse, parsed)
	}

	result := make([]domain.Transaction, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %T, want object", ErrParse, i, item)
		}

		currency, err := getStringField(obj, "currency")
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %d: %v", ErrParse, i, err)
		}
		amount, err := getFloat64Field(obj, "amount")
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %d: %v", ErrParse, i, err)
		}
		typeCode, err := getStringField(obj, "type")
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %d: %v", ErrParse, i, err)
		}
		desc, err := getStringField(obj, "description")
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %d: %v", ErrParse, i, err)
		}

		result = append(result, domain.Transaction{
			Currency: currency,
			// Direction lives in Type; a signed amount from the model is folded
			// back into a magnitude.
			Amount:      math.Abs(amount),
			Type:        domain.ParseTransactionType(typeCode),
			Description: desc,
		})
	}

	return result, nil
}

func getStringField(m map[string]interface{}, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
	return s, nil
}

func getFloat64Field(m map[string]interface{}, key string) (float64, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("missing required field %q", key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("field %q has type %T, want number", key, v)
	}
	return f, nil
}
