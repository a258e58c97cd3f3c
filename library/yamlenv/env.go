package yamlenv

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var regexEnvRef = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([^}]*))?}$`)

// Env — значение конфигурации из yaml с поддержкой подстановки ${ENV_VAR:default}.
type Env[T any] struct {
	Value T
}

func (e *Env[T]) UnmarshalYAML(node *yaml.Node) error {
	raw := node.Value

	if m := regexEnvRef.FindStringSubmatch(strings.TrimSpace(raw)); m != nil {
		if v, ok := os.LookupEnv(m[1]); ok {
			raw = v
		} else {
			raw = m[2]
		}
	}

	v, err := parseValue[T](raw)
	if err != nil {
		return fmt.Errorf("yamlenv: parse %q: %w", raw, err)
	}

	e.Value = v

	return nil
}

func (e *Env[T]) MarshalYAML() (any, error) {
	if e == nil {
		return nil, nil
	}
	return e.Value, nil
}

func parseValue[T any](raw string) (T, error) {
	var out T

	switch p := any(&out).(type) {
	case *string:
		*p = raw
	case *int:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return out, err
		}
		*p = n
	case *int64:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return out, err
		}
		*p = n
	case *bool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return out, err
		}
		*p = b
	case *float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return out, err
		}
		*p = f
	default:
		return out, fmt.Errorf("unsupported type %T", out)
	}

	return out, nil
}
