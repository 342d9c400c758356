package ui

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/huh"

	"github.com/julianshen/repodoc/internal/analyzer"
)

// ErrNothingToPick is returned when there is no candidate for a choice.
var ErrNothingToPick = errors.New("nothing to pick")

// MethodChoice identifies one method of a class in a repository file.
type MethodChoice struct {
	File   string
	Class  string
	Method string
}

// Complete reports whether every field is set.
func (c MethodChoice) Complete() bool {
	return c.File != "" && c.Class != "" && c.Method != ""
}

// choose asks the user to select one of options; replaced in tests.
var choose = pick

// PickMethod asks for whichever fields of choice are empty, offering only
// files that define classes, the classes of the chosen file and the
// methods of the chosen class.
func PickMethod(ctx context.Context, files map[string]string, choice MethodChoice) (MethodChoice, error) {
	if choice.File == "" {
		opts := fileOptions(files)
		if len(opts) == 0 {
			return choice, fmt.Errorf("%w: no file defines a class", ErrNothingToPick)
		}
		if err := choose(ctx, "Súbor", opts, &choice.File); err != nil {
			return choice, err
		}
	}

	src, ok := files[choice.File]
	if !ok {
		return choice, fmt.Errorf("file %s not found", choice.File)
	}
	classes := analyzer.ClassMethods(src)

	if choice.Class == "" {
		opts := sortedKeys(classes)
		if len(opts) == 0 {
			return choice, fmt.Errorf("%w: %s defines no class", ErrNothingToPick, choice.File)
		}
		if err := choose(ctx, "Trieda", opts, &choice.Class); err != nil {
			return choice, err
		}
	}

	if choice.Method == "" {
		opts := classes[choice.Class]
		if len(opts) == 0 {
			return choice, fmt.Errorf("%w: %s has no methods", ErrNothingToPick, choice.Class)
		}
		if err := choose(ctx, "Metóda", opts, &choice.Method); err != nil {
			return choice, err
		}
	}
	return choice, nil
}

func pick(ctx context.Context, title string, options []string, value *string) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(huh.NewOptions(options...)...).
				Value(value),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		return fmt.Errorf("selecting %s: %w", title, err)
	}
	return nil
}

// fileOptions lists, sorted, the files that define at least one class.
func fileOptions(files map[string]string) []string {
	var out []string
	for path, src := range files {
		if len(analyzer.ClassMethods(src)) > 0 {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
