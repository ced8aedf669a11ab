package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "v1.2.3"
	tmpl := Template()
	if !strings.Contains(tmpl, "version v1.2.3") {
		t.Errorf("Template() = %q, want version line", tmpl)
	}
	if !strings.HasPrefix(tmpl, "{{.Name}}") {
		t.Errorf("Template() = %q, want cobra name placeholder", tmpl)
	}
}
