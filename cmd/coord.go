package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// coordValue is the --coord flag. It accepts "LAT,LON" or "LAT LON" in one
// argument; normalizeCoordArgs folds the two-argument form into that.
type coordValue struct {
	values []float64
}

func (v *coordValue) String() string {
	parts := make([]string, len(v.values))
	for i, f := range v.values {
		parts[i] = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (v *coordValue) Set(s string) error {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return fmt.Errorf("expected LAT LON, got %q", s)
	}
	if len(v.values)+len(fields) > 2 {
		return fmt.Errorf("expected exactly two numbers, got %q", s)
	}

	for _, field := range fields {
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return fmt.Errorf("invalid coordinate %q", field)
		}
		v.values = append(v.values, f)
	}
	return nil
}

func (v *coordValue) Type() string {
	return "LAT LON"
}

func (v *coordValue) IsSet() bool {
	return len(v.values) > 0
}

func (v *coordValue) Complete() bool {
	return len(v.values) == 2
}

func (v *coordValue) Values() (lat, lon float64) {
	return v.values[0], v.values[1]
}

// normalizeCoordArgs rewrites "--coord LAT LON" into "--coord=LAT,LON" so a
// negative longitude is not mistaken for a shorthand flag.
func normalizeCoordArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			out = append(out, args[i:]...)
			break
		}
		if args[i] == "--coord" && i+2 < len(args) && isNumber(args[i+1]) && isNumber(args[i+2]) {
			out = append(out, "--coord="+args[i+1]+","+args[i+2])
			i += 2
			continue
		}
		out = append(out, args[i])
	}
	return out
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
