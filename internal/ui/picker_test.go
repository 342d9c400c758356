package ui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pickerFiles = map[string]string{
	"app/models.py": "class Car:\n    def drive(self, speed):\n        pass\n\n    def stop(self):\n        pass\n\n\nclass Boat:\n    def sail(self):\n        pass\n",
	"app/util.py":   "def helper():\n    return 1\n",
	"main.py":       "class Main:\n    def run(self):\n        pass\n",
}

// stubChoose records the offered options and selects the last one.
func stubChoose(t *testing.T) *map[string][]string {
	t.Helper()
	offered := map[string][]string{}
	orig := choose
	choose = func(_ context.Context, title string, options []string, value *string) error {
		offered[title] = options
		*value = options[len(options)-1]
		return nil
	}
	t.Cleanup(func() { choose = orig })
	return &offered
}

func TestFileOptionsOnlyFilesWithClasses(t *testing.T) {
	assert.Equal(t, []string{"app/models.py", "main.py"}, fileOptions(pickerFiles))
}

func TestPickMethodAsksForMissingFields(t *testing.T) {
	offered := stubChoose(t)

	got, err := PickMethod(context.Background(), pickerFiles, MethodChoice{File: "app/models.py"})
	require.NoError(t, err)

	assert.Equal(t, MethodChoice{File: "app/models.py", Class: "Car", Method: "stop"}, got)
	assert.True(t, got.Complete())
	assert.NotContains(t, *offered, "Súbor")
	assert.Equal(t, []string{"Boat", "Car"}, (*offered)["Trieda"])
	assert.Equal(t, []string{"drive", "stop"}, (*offered)["Metóda"])
}

func TestPickMethodFromScratch(t *testing.T) {
	offered := stubChoose(t)

	got, err := PickMethod(context.Background(), pickerFiles, MethodChoice{})
	require.NoError(t, err)

	assert.Equal(t, MethodChoice{File: "main.py", Class: "Main", Method: "run"}, got)
	assert.Equal(t, []string{"app/models.py", "main.py"}, (*offered)["Súbor"])
}

func TestPickMethodCompleteChoiceAsksNothing(t *testing.T) {
	offered := stubChoose(t)
	in := MethodChoice{File: "main.py", Class: "Main", Method: "run"}

	got, err := PickMethod(context.Background(), pickerFiles, in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
	assert.Empty(t, *offered)
}

func TestPickMethodErrors(t *testing.T) {
	stubChoose(t)

	_, err := PickMethod(context.Background(), pickerFiles, MethodChoice{File: "missing.py"})
	assert.ErrorContains(t, err, "missing.py")

	_, err = PickMethod(context.Background(), pickerFiles, MethodChoice{File: "app/util.py"})
	assert.ErrorIs(t, err, ErrNothingToPick)

	_, err = PickMethod(context.Background(), map[string]string{"a.py": "x = 1\n"}, MethodChoice{})
	assert.ErrorIs(t, err, ErrNothingToPick)

	_, err = PickMethod(context.Background(), map[string]string{"a.py": "class Empty:\n    pass\n"}, MethodChoice{})
	assert.ErrorIs(t, err, ErrNothingToPick)
}
