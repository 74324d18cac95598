package news

import (
	"testing"
)

func TestParseSources(t *testing.T) {
	sources, err := ParseSources([]byte(`
sources:
  - name: university
    url: https://www.example.edu/news/rss
  - name: admissions
    url: https://www.example.edu/admissions/rss
`))
	if err != nil {
		t.Fatalf("ParseSources failed: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("len = %d, want 2", len(sources))
	}
	if sources[0].Name != "university" || sources[1].URL != "https://www.example.edu/admissions/rss" {
		t.Errorf("sources = %+v", sources)
	}
}

func TestParseSourcesRejectsUnknownFields(t *testing.T) {
	_, err := ParseSources([]byte(`
sources:
  - name: university
    url: https://www.example.edu/news/rss
    interval: 10m
`))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestParseSourcesValidation(t *testing.T) {
	cases := map[string]string{
		"missing name": `
sources:
  - url: https://www.example.edu/news/rss
`,
		"missing url": `
sources:
  - name: university
`,
		"duplicate name": `
sources:
  - name: university
    url: https://a.example.edu/rss
  - name: university
    url: https://b.example.edu/rss
`,
	}
	for label, manifest := range cases {
		if _, err := ParseSources([]byte(manifest)); err == nil {
			t.Errorf("%s: expected error, got nil", label)
		}
	}
}

func TestLoadSourcesMissingFile(t *testing.T) {
	sources, err := LoadSources("does-not-exist.yaml")
	if err != nil {
		t.Fatalf("LoadSources = %v, want nil for missing file", err)
	}
	if sources != nil {
		t.Errorf("sources = %v, want nil", sources)
	}
}
