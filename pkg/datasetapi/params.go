package datasetapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type validation struct {
	cleaned map[string]any
	errs    []ParameterError
	widened []string
}

func validateParameters(definitions []Parameter, supplied map[string]any) validation {
	out := validation{cleaned: make(map[string]any)}
	provided := make(map[string]string, len(supplied))
	for k := range supplied {
		provided[normalizeName(k)] = k
	}
	for _, param := range definitions {
		key := normalizeName(param.Name)
		val, ok := findParamValue(param.Name, supplied)
		delete(provided, key)
		if ok && param.Lenient && blank(val) {
			ok = false
		}
		if ok {
			coerced, err := coerceParameter(param, val)
			if err == nil {
				out.cleaned[param.Name] = coerced
				continue
			}
			if !param.Lenient {
				out.errs = append(out.errs, ParameterError{Name: param.Name, Message: err.Error()})
				continue
			}
			out.widened = append(out.widened, param.Name)
		}
		if param.Required {
			out.errs = append(out.errs, ParameterError{Name: param.Name, Message: "required parameter missing"})
			continue
		}
		if len(param.Default) > 0 {
			coerced, err := coerceDefaultParameter(param)
			if err != nil {
				out.errs = append(out.errs, ParameterError{Name: param.Name, Message: err.Error()})
				continue
			}
			out.cleaned[param.Name] = coerced
		}
	}
	for _, original := range provided {
		out.errs = append(out.errs, ParameterError{Name: original, Message: "parameter not declared"})
	}
	if len(out.errs) > 0 {
		sort.Slice(out.errs, func(i, j int) bool { return out.errs[i].Name < out.errs[j].Name })
	}
	sort.Strings(out.widened)
	return out
}

func blank(val any) bool {
	if val == nil {
		return true
	}
	s, ok := val.(string)
	return ok && strings.TrimSpace(s) == ""
}

func coerceDefaultParameter(param Parameter) (any, error) {
	var raw any
	if err := json.Unmarshal(param.Default, &raw); err != nil {
		return nil, fmt.Errorf("parameter %s default is invalid JSON: %w", param.Name, err)
	}
	return coerceParameter(param, raw)
}

func findParamValue(name string, supplied map[string]any) (any, bool) {
	if supplied == nil {
		return nil, false
	}
	if val, ok := supplied[name]; ok {
		return val, true
	}
	lower := normalizeName(name)
	for k, v := range supplied {
		if normalizeName(k) == lower {
			return v, true
		}
	}
	return nil, false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func knownType(t string) bool {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeTimestamp, TypeDate, TypeStringList:
		return true
	default:
		return false
	}
}

func coerceParameter(param Parameter, raw any) (any, error) {
	if raw == nil {
		return nil, fmt.Errorf("parameter %s cannot be null", param.Name)
	}
	switch param.Type {
	case TypeString:
		var val string
		switch v := raw.(type) {
		case string:
			val = v
		case fmt.Stringer:
			val = v.String()
		default:
			return nil, fmt.Errorf("parameter %s expects string", param.Name)
		}
		return matchEnum(param, strings.TrimSpace(val))
	case TypeInteger:
		return coerceInteger(param, raw)
	case TypeNumber:
		return coerceNumber(param, raw)
	case TypeBoolean:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("parameter %s expects boolean", param.Name)
			}
			return parsed, nil
		default:
			return nil, fmt.Errorf("parameter %s expects boolean", param.Name)
		}
	case TypeTimestamp:
		switch v := raw.(type) {
		case time.Time:
			return v.UTC(), nil
		case string:
			parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("parameter %s expects RFC3339 timestamp", param.Name)
			}
			return parsed.UTC(), nil
		default:
			return nil, fmt.Errorf("parameter %s expects timestamp", param.Name)
		}
	case TypeDate:
		switch v := raw.(type) {
		case time.Time:
			return v.UTC().Format(dateLayout), nil
		case string:
			parsed, err := time.Parse(dateLayout, strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("parameter %s expects date YYYY-MM-DD", param.Name)
			}
			return parsed.Format(dateLayout), nil
		default:
			return nil, fmt.Errorf("parameter %s expects date", param.Name)
		}
	case TypeStringList:
		items, err := coerceStringList(param, raw)
		if err != nil {
			return nil, err
		}
		for i, item := range items {
			canonical, err := matchEnum(param, item)
			if err != nil {
				return nil, err
			}
			items[i] = canonical.(string)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", param.Type)
	}
}

func coerceInteger(param Parameter, raw any) (any, error) {
	fail := fmt.Errorf("parameter %s expects integer", param.Name)
	switch v := raw.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		if v < math.MinInt || v > math.MaxInt {
			return nil, fail
		}
		return int(v), nil
	case float64:
		// float64(math.MaxInt) rounds up to 2^63, which int cannot hold.
		if math.IsNaN(v) || v != math.Trunc(v) || v < math.MinInt || v >= math.MaxInt {
			return nil, fail
		}
		return int(v), nil
	case json.Number:
		parsed, err := strconv.Atoi(v.String())
		if err != nil {
			return nil, fail
		}
		return parsed, nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fail
		}
		return parsed, nil
	default:
		return nil, fail
	}
}

func coerceNumber(param Parameter, raw any) (any, error) {
	fail := fmt.Errorf("parameter %s expects number", param.Name)
	var out float64
	switch v := raw.(type) {
	case float32:
		out = float64(v)
	case float64:
		out = v
	case int:
		out = float64(v)
	case int64:
		out = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, fail
		}
		out = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fail
		}
		out = parsed
	default:
		return nil, fail
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return nil, fail
	}
	return out, nil
}

func coerceStringList(param Parameter, raw any) ([]string, error) {
	var items []string
	switch v := raw.(type) {
	case []string:
		items = append(items, v...)
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("parameter %s expects a list of strings", param.Name)
			}
			items = append(items, s)
		}
	case string:
		items = strings.Split(v, ",")
	default:
		return nil, fmt.Errorf("parameter %s expects a list of strings", param.Name)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}

// matchEnum returns the canonical enum spelling of val, matched without
// regard to case.
func matchEnum(param Parameter, val string) (any, error) {
	if len(param.Enum) == 0 {
		return val, nil
	}
	for _, candidate := range param.Enum {
		if strings.EqualFold(candidate, val) {
			return candidate, nil
		}
	}
	return nil, enumError(param.Enum)
}

func enumError(options []string) error {
	if len(options) == 0 {
		return errors.New("invalid enumeration")
	}
	return fmt.Errorf("value must be one of: %s", strings.Join(options, ", "))
}
