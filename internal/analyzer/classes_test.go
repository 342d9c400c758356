package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractClassDefinitions(t *testing.T) {
	src := `class Outer:
    class Inner:
        pass

    def run(self):
        return 1
`
	defs, err := ExtractClassDefinitions(src)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "Outer", defs[0].Name)
	assert.Equal(t, "class Outer:\n    class Inner:\n        pass\n\n    def run(self):\n        return 1", defs[0].Code)
	assert.Equal(t, "Inner", defs[1].Name)
	assert.Equal(t, "    class Inner:\n        pass", defs[1].Code)

	_, err = ExtractClassDefinitions("class (:\n")
	assert.ErrorIs(t, err, ErrParse)
}

func TestExtractClassesFromSource(t *testing.T) {
	assert.Equal(t, map[string]bool{"A": true, "B": true},
		ExtractClassesFromSource("class A:\n    class B:\n        pass\n"))
	assert.Empty(t, ExtractClassesFromSource("class (:\n"))
}

func TestAllClassNamesSkipsBrokenFiles(t *testing.T) {
	files := map[string]string{
		"a.py":      "class A:\n    pass\n",
		"b.py":      "class B:\n    pass\n",
		"broken.py": "def (:\n",
	}
	assert.Equal(t, map[string]bool{"A": true, "B": true}, AllClassNames(files))
}

func TestCountAttributes(t *testing.T) {
	src := `class Car:
    wheels = 4
    kind: str = "car"

    def __init__(self, engine):
        self.engine = engine
        self.speed = self.rpm = 0

    def drive(self):
        if True:
            self.speed += 1
`
	assert.Equal(t, 4, CountAttributes(src))
	assert.Equal(t, 0, CountAttributes("class (:\n"))
}

func TestCyclomaticComplexity(t *testing.T) {
	src := `class A:
    def f(self, x):
        if x:
            pass
        elif x > 1:
            pass
        else:
            pass
        for i in x:
            pass
        while x:
            break
        try:
            pass
        except Exception:
            pass
        with open(x) as fh:
            pass
`
	assert.Equal(t, 7, CyclomaticComplexity(src))
	assert.Equal(t, 1, CyclomaticComplexity("class A:\n    pass\n"))
	assert.Equal(t, 0, CyclomaticComplexity("class (:\n"))
}

func TestImportanceIndex(t *testing.T) {
	src := "class A:\n    def f(self):\n        return g()\n"

	got, err := ImportanceIndex(src, 0, 5)
	require.NoError(t, err)
	assert.InDelta(t, 0.53, got, 1e-9)

	got, err = ImportanceIndex(src, 1, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.83, got, 1e-9)

	_, err = ImportanceIndex("class (:\n", 0, 0)
	assert.ErrorIs(t, err, ErrParse)
}

func TestFindImports(t *testing.T) {
	src := "import os\nfrom x import y\n    import os\nimport os\nx = 1\nimported = True"
	assert.Equal(t, "import os\nfrom x import y\n    import os", FindImports(src))
	assert.Equal(t, "", FindImports("x = 1"))
}

func TestSplitClassForDiagrams(t *testing.T) {
	src := `import os
class Big:
    x = 1
    def a(self):
        y = 1
        return y
    def b(self):
        y = 2
        return y
    def c(self):
        return os.sep`

	segments := SplitClassForDiagrams(src, 5)
	require.Len(t, segments, 3)
	assert.Equal(t, "import os\nclass Big:\n    x = 1", segments[0])
	assert.Equal(t, "import os\n\n    def a(self):\n        y = 1\n        return y", segments[1])
	assert.Equal(t, "import os\n\n    def b(self):\n        y = 2\n        return y\n    def c(self):\n        return os.sep", segments[2])
}

func TestSplitClassForDiagramsShortClass(t *testing.T) {
	src := "class A:\n    pass\n"
	assert.Equal(t, []string{src}, SplitClassForDiagrams(src, 10))
}

func TestSplitClassForDiagramsFallsBackToChunks(t *testing.T) {
	src := "x = 1\ny = 2\nz = 3"
	assert.Equal(t, []string{"x = 1\ny = 2", "z = 3"}, SplitClassForDiagrams(src, 2))
}

func TestExtractSignature(t *testing.T) {
	src := `class Service(Base):
    def __init__(self, repo, cache=None, *args, flag=False):
        self.repo = repo
        self._cache = cache

    @property
    def name(self):
        return "x"
`
	sig, ok := ExtractSignature(src)
	require.True(t, ok)
	assert.Equal(t, "Service", sig.Name)
	assert.Equal(t, []string{"_cache", "repo"}, sig.Attributes)
	assert.Equal(t, []Method{
		{Name: "__init__", Args: []string{"repo", "cache"}},
		{Name: "name", Args: []string{}},
	}, sig.Methods)

	_, ok = ExtractSignature("x = 1\n")
	assert.False(t, ok)
}
