package analyzer

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/julianshen/repodoc/internal/log"
	"github.com/julianshen/repodoc/internal/parser"
)

// Block is a slice of a source file sent to the LLM as one unit.
// StartLine and EndLine are 0-based and inclusive.
type Block struct {
	Code      string
	Classes   []string
	Functions []string
	StartLine int
	EndLine   int
}

// HasClasses reports whether the block fully contains at least one class.
func (b Block) HasClasses() bool { return len(b.Classes) > 0 }

// HasFunctions reports whether the block fully contains at least one function.
func (b Block) HasFunctions() bool { return len(b.Functions) > 0 }

// protectedRange is the line span of a class or function that must not be
// cut in half.
type protectedRange struct {
	start, end int
	name       string
	isClass    bool
}

// SplitForDocs splits Python source into blocks of roughly maxLines lines.
// A block is only closed on a line that lies outside every class and
// function, so definitions are never split. When the source does not parse
// the whole text is returned as a single block with no entity information.
func SplitForDocs(source string, maxLines int) []Block {
	lines := SplitLines(source)

	ps, err := parsePython(source)
	if err != nil {
		log.WithComponent("analyzer").Error().Err(err).Msg("parsing python source for block split")
		return []Block{{
			Code:      source,
			StartLine: 0,
			EndLine:   len(lines) - 1,
		}}
	}
	defer ps.Close()

	return splitIntoBlocks(lines, ps.protectedRanges(), maxLines)
}

// SplitGeneric splits a file by extension: Python files are split with
// SplitForDocs, other files are kept whole.
func SplitGeneric(path, source string, maxLines int) []Block {
	if strings.ToLower(filepath.Ext(path)) == ".py" {
		return SplitForDocs(source, maxLines)
	}
	return []Block{{
		Code:    source,
		EndLine: len(SplitLines(source)) - 1,
	}}
}

func (p *pySource) protectedRanges() []protectedRange {
	var out []protectedRange
	parser.Walk(p.root(), func(n *sitter.Node) {
		switch n.Type() {
		case "class_definition", "function_definition":
			out = append(out, protectedRange{
				start:   startRow(n),
				end:     endRow(n),
				name:    p.text(n.ChildByFieldName("name")),
				isClass: n.Type() == "class_definition",
			})
		}
	})
	return out
}

func splitIntoBlocks(lines []string, protected []protectedRange, maxLines int) []Block {
	var blocks []Block
	var current []string
	blockStart := 0

	for lineNum, line := range lines {
		current = append(current, line)

		if len(current) >= maxLines && !inProtected(protected, lineNum) {
			blocks = append(blocks, newBlock(current, protected, blockStart, lineNum))
			current = nil
			blockStart = lineNum + 1
		}
	}

	if len(current) > 0 {
		blocks = append(blocks, newBlock(current, protected, blockStart, len(lines)-1))
	}
	return blocks
}

func inProtected(protected []protectedRange, line int) bool {
	for _, r := range protected {
		if r.start <= line && line <= r.end {
			return true
		}
	}
	return false
}

func newBlock(lines []string, protected []protectedRange, start, end int) Block {
	b := Block{
		Code:      strings.Join(lines, "\n"),
		StartLine: start,
		EndLine:   end,
	}
	for _, r := range protected {
		if r.start < start || r.end > end {
			continue
		}
		if r.isClass {
			b.Classes = append(b.Classes, r.name)
		} else {
			b.Functions = append(b.Functions, r.name)
		}
	}
	return b
}
