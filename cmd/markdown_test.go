package cmd

import (
	"strings"
	"testing"
)

func TestPlainText(t *testing.T) {
	md := "# Gains\n\nNet gain of *£250.00* for the year.\n"
	got := plainText(md)

	if !strings.Contains(got, "Gains") {
		t.Errorf("plainText() lost the heading text: %q", got)
	}
	if !strings.Contains(got, "Net gain of £250.00 for the year.") {
		t.Errorf("plainText() lost the paragraph text: %q", got)
	}
	if strings.ContainsAny(got, "#*") {
		t.Errorf("plainText() kept markdown markup: %q", got)
	}
}
