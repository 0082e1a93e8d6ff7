package tools

import (
    "encoding/json"
    "errors"
    "strconv"
)

// Minimal JSON Schema validator for the restricted subset of keywords used by
// tool argument contracts. It supports only: type (object, array, string,
// integer, number, boolean), properties, required, additionalProperties
// (boolean), items (single schema), minimum and maximum, and recursively
// validates nested objects/arrays.
// Returns nil when value conforms to schema; otherwise an error describing the
// first mismatch found.
func validateAgainstSchema(value any, schema json.RawMessage) error {
    if len(schema) == 0 {
        return nil
    }
    var s map[string]any
    if err := json.Unmarshal(schema, &s); err != nil {
        return err
    }
    getString := func(m map[string]any, k string) string {
        if v, ok := m[k]; ok {
            if str, ok := v.(string); ok {
                return str
            }
        }
        return ""
    }
    asFloat := func(v any) (float64, bool) {
        switch t := v.(type) {
        case float64:
            return t, true
        case int:
            return float64(t), true
        default:
            return 0, false
        }
    }
    checkBounds := func(f float64) error {
        if min, ok := asFloat(s["minimum"]); ok && f < min {
            return errors.New("schema: value below minimum " + strconv.FormatFloat(min, 'f', -1, 64))
        }
        if max, ok := asFloat(s["maximum"]); ok && f > max {
            return errors.New("schema: value above maximum " + strconv.FormatFloat(max, 'f', -1, 64))
        }
        return nil
    }

    expectedType := getString(s, "type")
    switch expectedType {
    case "object", "":
        obj, ok := value.(map[string]any)
        if !ok {
            return errors.New("schema: expected object")
        }
        if req, ok := s["required"].([]any); ok {
            for _, r := range req {
                if name, ok := r.(string); ok {
                    if _, present := obj[name]; !present {
                        return errors.New("schema: missing required field: " + name)
                    }
                }
            }
        }
        var props map[string]any
        if p, ok := s["properties"].(map[string]any); ok {
            props = p
        }
        for k, v := range obj {
            if props != nil {
                if raw, ok := props[k]; ok {
                    b, _ := json.Marshal(raw)
                    if err := validateAgainstSchema(v, b); err != nil {
                        return errors.New("schema: property " + k + ": " + err.Error())
                    }
                    continue
                }
            }
            // additionalProperties: default true; if explicitly false, reject unknowns
            if ap, ok := s["additionalProperties"].(bool); ok && !ap {
                return errors.New("schema: additional property not allowed: " + k)
            }
        }
        return nil
    case "array":
        arr, ok := value.([]any)
        if !ok {
            return errors.New("schema: expected array")
        }
        if items, ok := s["items"]; ok {
            b, _ := json.Marshal(items)
            for i, elem := range arr {
                if err := validateAgainstSchema(elem, b); err != nil {
                    return errors.New("schema: items[" + strconv.Itoa(i) + "]: " + err.Error())
                }
            }
        }
        return nil
    case "string":
        if _, ok := value.(string); !ok {
            return errors.New("schema: expected string")
        }
        return nil
    case "integer":
        f, ok := asFloat(value)
        if !ok || f != float64(int64(f)) {
            return errors.New("schema: expected integer")
        }
        return checkBounds(f)
    case "number":
        f, ok := asFloat(value)
        if !ok {
            return errors.New("schema: expected number")
        }
        return checkBounds(f)
    case "boolean":
        if _, ok := value.(bool); !ok {
            return errors.New("schema: expected boolean")
        }
        return nil
    default:
        // unsupported types pass through
        return nil
    }
}
