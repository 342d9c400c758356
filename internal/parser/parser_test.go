package parser

import (
	"strings"
	"sync"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePythonFile(t *testing.T) {
	p := NewParser()
	source := []byte(`def hello():
    print("hello")

def world():
    print("world")
`)
	tree, err := p.Parse("hello.py", source)
	require.NoError(t, err)
	defer tree.Close()
	assert.NotNil(t, tree.RootNode())
	assert.False(t, tree.HasError())
}

func TestParseUnknownExtension(t *testing.T) {
	p := NewParser()
	_, err := p.Parse("file.xyz", []byte(`some content`))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported"),
		"error should contain 'unsupported', got: %s", err.Error())
}

func TestLanguage(t *testing.T) {
	assert.Equal(t, "python", Language("pkg/mod.py"))
	assert.Equal(t, "python", Language("stubs/mod.PYI"))
	assert.Equal(t, "go", Language("main.go"))
	assert.Equal(t, "", Language("README.md"))
}

func TestParsePythonFunctions(t *testing.T) {
	p := NewParser()
	source := []byte(`def greet(name):
    print(f"Hello, {name}")

def farewell():
    print("Goodbye")
`)
	tree, err := p.Parse("script.py", source)
	require.NoError(t, err)
	defer tree.Close()

	funcs := tree.Functions()
	require.Len(t, funcs, 2)
	assert.Equal(t, "greet", funcs[0].Name)
	assert.Equal(t, 1, funcs[0].StartLine)
	assert.Equal(t, 2, funcs[0].EndLine)
	assert.Equal(t, "farewell", funcs[1].Name)
}

func TestParsePythonClasses(t *testing.T) {
	p := NewParser()
	source := []byte(`class Outer:
    class Inner:
        pass

    def run(self):
        return 1


class Other(Outer):
    pass
`)
	tree, err := p.Parse("models.py", source)
	require.NoError(t, err)
	defer tree.Close()

	classes := tree.Classes()
	require.Len(t, classes, 3)
	assert.Equal(t, "Outer", classes[0].Name)
	assert.Equal(t, 1, classes[0].StartLine)
	assert.Equal(t, 6, classes[0].EndLine)
	assert.Equal(t, "Inner", classes[1].Name)
	assert.Equal(t, "Other", classes[2].Name)
	assert.Equal(t, 9, classes[2].StartLine)
}

func TestParsePythonImports(t *testing.T) {
	p := NewParser()
	source := []byte(`import os
import sys as system, json
from pathlib import Path

def main():
    pass
`)
	tree, err := p.Parse("script.py", source)
	require.NoError(t, err)
	defer tree.Close()

	imports := tree.Imports()
	assert.Contains(t, imports, "os")
	assert.Contains(t, imports, "sys")
	assert.Contains(t, imports, "json")
	assert.Contains(t, imports, "pathlib")
}

func TestParsePythonSyntaxError(t *testing.T) {
	p := NewParser()
	tree, err := p.ParsePython([]byte("def broken(:\n    pass\n"))
	require.NoError(t, err)
	defer tree.Close()
	assert.True(t, tree.HasError())
}

func TestParseGoImports(t *testing.T) {
	p := NewParser()
	source := []byte(`package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println(os.Args)
}
`)
	tree, err := p.Parse("main.go", source)
	require.NoError(t, err)
	defer tree.Close()

	imports := tree.Imports()
	require.Len(t, imports, 2)
	assert.Contains(t, imports, "fmt")
	assert.Contains(t, imports, "os")
}

func TestParserConcurrentUse(t *testing.T) {
	p := NewParser()
	source := []byte("class A:\n    def f(self):\n        pass\n")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := p.Parse("a.py", source)
			if !assert.NoError(t, err) {
				return
			}
			defer tree.Close()
			assert.Len(t, tree.Classes(), 1)
		}()
	}
	wg.Wait()
}

func TestWalkVisitsAllNodes(t *testing.T) {
	p := NewParser()
	tree, err := p.Parse("a.py", []byte("x = 1\ny = 2\n"))
	require.NoError(t, err)
	defer tree.Close()

	var assignments int
	Walk(tree.RootNode(), func(n *sitter.Node) {
		if n.Type() == "assignment" {
			assignments++
		}
	})
	assert.Equal(t, 2, assignments)
}
