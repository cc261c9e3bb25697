package item

import (
	"testing"
)

const notes = `# Findings
Two studies agree.

## Gaps
(tbd)

` + "```" + `
## not a heading
` + "```" + `

## Next
- rerun
`

func TestSections(t *testing.T) {
	secs := Sections(notes)
	got := SectionNames(secs)
	want := []string{"Findings", "Gaps", "Next"}
	if len(got) != len(want) {
		t.Fatalf("SectionNames = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("section %d = %q, want %q", i, got[i], want[i])
		}
	}
	if secs[0].Blank {
		t.Error("Findings should not be blank")
	}
	if secs[1].Blank {
		t.Error("Gaps holds a code fence, so it is not blank")
	}
}

func TestSections_None(t *testing.T) {
	if secs := Sections("plain text\nno headings"); secs != nil {
		t.Errorf("Sections = %v, want nil", secs)
	}
}

func TestFindSection(t *testing.T) {
	secs := Sections(notes)
	if s := FindSection(secs, "  gaps "); s == nil || s.Name != "Gaps" {
		t.Errorf("FindSection(gaps) = %v", s)
	}
	if s := FindSection(secs, "missing"); s != nil {
		t.Errorf("FindSection(missing) = %v", s)
	}
}

func TestInsertIntoSection(t *testing.T) {
	text := "## A\n(tbd)\n\n## B\nexisting\n"

	secs := Sections(text)
	replaced := InsertIntoSection(text, FindSection(secs, "A"), "filled")
	if replaced != "## A\nfilled\n## B\nexisting\n" {
		t.Errorf("replace filler: %q", replaced)
	}

	secs = Sections(text)
	appended := InsertIntoSection(text, FindSection(secs, "B"), "more")
	if appended != "## A\n(tbd)\n\n## B\nexisting\n\nmore\n" {
		t.Errorf("append: %q", appended)
	}
}
