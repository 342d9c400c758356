package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinterPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Title("Architektúra %s", "acme")
	p.Success("hotovo")
	p.Warn("pozor")
	p.Error("chyba: %d", 2)
	p.Info("info")
	p.Field("Repozitár", "acme/widgets")

	assert.Equal(t, "Architektúra acme\nhotovo\npozor\nchyba: 2\ninfo\nRepozitár:       acme/widgets\n", buf.String())
}

func TestPrinterStyledAddsPrefix(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{w: &buf, styled: true}

	p.Success("ok")
	p.Error("bad")

	assert.Contains(t, buf.String(), "✓ ok")
	assert.Contains(t, buf.String(), "✗ bad")
}
