package inter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"bulwark/engine"
)

// A search option the GUI can set. Check options take "true" or "false",
// spin options an integer, and string options a comma separated list of
// margins.
type uciOption struct {
	name     string
	kind     string
	min, max int
	get      func(*engine.Options) string
	set      func(*engine.Options, string) error
}

func (option uciOption) declaration(opts *engine.Options) string {
	if option.kind == "button" {
		return fmt.Sprintf("option name %s type button", option.name)
	}
	line := fmt.Sprintf("option name %s type %s default %s", option.name, option.kind, option.get(opts))
	if option.kind == "spin" {
		line += fmt.Sprintf(" min %d max %d", option.min, option.max)
	}
	return line
}

func findOption(name string) (uciOption, bool) {
	return lo.Find(uciOptions, func(option uciOption) bool {
		return strings.EqualFold(option.name, name)
	})
}

func spinOption(name string, minValue, maxValue int, field func(*engine.Options) *int) uciOption {
	return uciOption{
		name: name,
		kind: "spin",
		min:  minValue,
		max:  maxValue,
		get:  func(opts *engine.Options) string { return strconv.Itoa(*field(opts)) },
		set: func(opts *engine.Options, value string) error {
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", engine.ErrInvalidOptions, name, err)
			}
			if n < minValue || n > maxValue {
				return fmt.Errorf("%w: %s must be in [%d, %d], got %d", engine.ErrInvalidOptions, name, minValue, maxValue, n)
			}
			*field(opts) = n
			return nil
		},
	}
}

func checkOption(name string, field func(*engine.Options) *bool) uciOption {
	return uciOption{
		name: name,
		kind: "check",
		get:  func(opts *engine.Options) string { return strconv.FormatBool(*field(opts)) },
		set: func(opts *engine.Options, value string) error {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", engine.ErrInvalidOptions, name, err)
			}
			*field(opts) = b
			return nil
		},
	}
}

func marginsOption(name string, field func(*engine.Options) *[]int) uciOption {
	return uciOption{
		name: name,
		kind: "string",
		get: func(opts *engine.Options) string {
			return strings.Join(lo.Map(*field(opts), func(margin int, _ int) string {
				return strconv.Itoa(margin)
			}), ",")
		},
		set: func(opts *engine.Options, value string) error {
			margins, err := parseMargins(value)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", engine.ErrInvalidOptions, name, err)
			}
			*field(opts) = margins
			return nil
		},
	}
}

func parseMargins(value string) ([]int, error) {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
	margins := make([]int, 0, len(fields))
	for _, field := range fields {
		margin, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		if margin < 0 {
			return nil, fmt.Errorf("negative margin %d", margin)
		}
		margins = append(margins, margin)
	}
	return margins, nil
}

var uciOptions = []uciOption{
	spinOption("Hash", 1, 4096, func(o *engine.Options) *int { return &o.HashSizeMB }),
	spinOption("QuiescenceHash", 1, 1024, func(o *engine.Options) *int { return &o.QuiescenceHashSizeMB }),
	spinOption("QuiescenceDepth", 0, engine.MaxPly-1, func(o *engine.Options) *int { return &o.QuiescenceDepth }),
	spinOption("QuiescenceCheckPlies", 0, engine.MaxPly-1, func(o *engine.Options) *int { return &o.QuiescenceCheckPlies }),
	checkOption("UseTT", func(o *engine.Options) *bool { return &o.UseTT }),
	checkOption("UseQuiescenceTT", func(o *engine.Options) *bool { return &o.UseQuiescenceTT }),
	checkOption("NullMove", func(o *engine.Options) *bool { return &o.NullMove }),
	spinOption("NullMoveMinDepth", 1, engine.MaxPly-1, func(o *engine.Options) *int { return &o.NullMoveMinDepth }),
	spinOption("NullMoveReduction", 1, 8, func(o *engine.Options) *int { return &o.NullMoveReduction }),
	checkOption("Futility", func(o *engine.Options) *bool { return &o.Futility }),
	marginsOption("FutilityMargins", func(o *engine.Options) *[]int { return &o.FutilityMargins }),
	checkOption("DeltaPruning", func(o *engine.Options) *bool { return &o.DeltaPruning }),
	spinOption("DeltaMargin", 0, 2000, func(o *engine.Options) *int { return &o.DeltaMargin }),
	checkOption("Razoring", func(o *engine.Options) *bool { return &o.Razoring }),
	marginsOption("RazorMargins", func(o *engine.Options) *[]int { return &o.RazorMargins }),
	checkOption("LMR", func(o *engine.Options) *bool { return &o.LMR }),
	spinOption("LMRMinDepth", 2, engine.MaxPly-1, func(o *engine.Options) *int { return &o.LMRMinDepth }),
	spinOption("LMRMinMoveIndex", 1, 64, func(o *engine.Options) *int { return &o.LMRMinMoveIndex }),
	spinOption("LMRReduction", 1, 8, func(o *engine.Options) *int { return &o.LMRReduction }),
	{
		name: "Clear Hash",
		kind: "button",
		get:  func(*engine.Options) string { return "" },
		set:  func(*engine.Options, string) error { return nil },
	},
}
