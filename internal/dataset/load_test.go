package dataset

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/proteo/internal/feature"
	"github.com/papapumpkin/proteo/internal/scoring"
)

const ppiTable = `Protein A,Protein B,GO similarity under BP term,GO similarity under MF term,GO similarity under CC term
P1,P2,0.5,0.1,0.9
P2,P3,0.25,,0.3
P3,P3,1,1,1
P1,,0,0,0
`

func TestReadGraph(t *testing.T) {
	t.Parallel()
	g, skipped, err := ReadGraph(strings.NewReader(ppiTable))
	if err != nil {
		t.Fatalf("ReadGraph: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1 self interaction", skipped)
	}
	if g.Len() != 3 || g.EdgeCount() != 2 {
		t.Errorf("got %d proteins / %d edges, want 3 / 2", g.Len(), g.EdgeCount())
	}
	if !g.HasEdge("P3", "P2") {
		t.Error("missing P2-P3")
	}
}

func TestReadGraph_PositionalColumns(t *testing.T) {
	t.Parallel()
	g, _, err := ReadGraph(strings.NewReader("a,b\nX,Y\n"))
	if err != nil {
		t.Fatalf("ReadGraph: %v", err)
	}
	if !g.HasEdge("X", "Y") {
		t.Error("expected X-Y from the first two columns")
	}

	_, _, err = ReadGraph(strings.NewReader("only\nX\n"))
	if !errors.Is(err, ErrNoColumns) {
		t.Errorf("got %v, want ErrNoColumns", err)
	}
}

func TestReadExpression_DropsSummaryColumns(t *testing.T) {
	t.Parallel()
	input := "gene,t1,t2,t3,mean,std\nP1,1,2,3,2,1\nP2,4,x,6,5,1\n"
	store, err := ReadExpression(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadExpression: %v", err)
	}
	if got := store.Columns(); len(got) != 3 {
		t.Fatalf("columns = %v, want 3 measurements", got)
	}
	p, ok := store.Profile("P1")
	if !ok {
		t.Fatal("P1 missing")
	}
	if p.Mean != 2 {
		t.Errorf("P1 mean = %v, want 2 over measurements only", p.Mean)
	}
	p2, _ := store.Profile("P2")
	if !math.IsNaN(p2.Values[1]) {
		t.Errorf("unparseable cell should be NaN, got %v", p2.Values[1])
	}
	if p2.Valid != 2 {
		t.Errorf("P2 valid = %d, want 2", p2.Valid)
	}
}

func TestReadLocalization(t *testing.T) {
	t.Parallel()
	input := "protein,source,location\nP1,x,nucleus\nP1,y,nucleus\nP1,z,cytoplasm\nP2,x,\nP3,x,nucleus\n"
	store, err := ReadLocalization(strings.NewReader(input), 2)
	if err != nil {
		t.Fatalf("ReadLocalization: %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2", store.Len())
	}
	if got := store.Prior("nucleus"); math.Abs(got-2.0/3.0) > 1e-12 {
		t.Errorf("Prior(nucleus) = %v, want 2/3", got)
	}

	_, err = ReadLocalization(strings.NewReader("a,b\nP1,x\n"), 2)
	if !errors.Is(err, ErrNoColumns) {
		t.Errorf("got %v, want ErrNoColumns", err)
	}
}

func TestReadOrthology(t *testing.T) {
	t.Parallel()
	byName, err := ReadOrthology(strings.NewReader("id,O_score,other\nP1,0.75,9\nP2,bad,9\n"), "O_score")
	if err != nil {
		t.Fatalf("ReadOrthology: %v", err)
	}
	if byName.Prior("P1") != 0.75 {
		t.Errorf("P1 = %v, want 0.75", byName.Prior("P1"))
	}
	if byName.Prior("P2") != 0 {
		t.Errorf("unparseable score should be 0, got %v", byName.Prior("P2"))
	}

	positional, err := ReadOrthology(strings.NewReader("id,name,score\nP1,foo,0.5\n"), "O_score")
	if err != nil {
		t.Fatalf("ReadOrthology: %v", err)
	}
	if positional.Prior("P1") != 0.5 {
		t.Errorf("P1 = %v, want 0.5 from the third column", positional.Prior("P1"))
	}

	_, err = ReadOrthology(strings.NewReader("id,x\nP1,1\n"), "O_score")
	if !errors.Is(err, ErrNoColumns) {
		t.Errorf("got %v, want ErrNoColumns", err)
	}
}

func TestReadOntology(t *testing.T) {
	t.Parallel()
	store, err := ReadOntology(strings.NewReader(ppiTable))
	if err != nil {
		t.Fatalf("ReadOntology: %v", err)
	}
	if got := store.Similarity("P2", "P1", feature.AspectBP); got != 0.5 {
		t.Errorf("BP(P1,P2) = %v, want 0.5", got)
	}
	if got := store.Similarity("P2", "P3", feature.AspectMF); got != 0 {
		t.Errorf("empty MF cell should be absent, got %v", got)
	}
	if got := store.Similarity("P3", "P2", feature.AspectCC); got != 0.3 {
		t.Errorf("CC(P2,P3) = %v, want 0.3", got)
	}

	plain, err := ReadOntology(strings.NewReader("a,b\nX,Y\n"))
	if err != nil {
		t.Fatalf("ReadOntology: %v", err)
	}
	if plain.Len() != 0 {
		t.Errorf("plain ppi table should give an empty store, got %d pairs", plain.Len())
	}
}

func TestLoad_FullDataset(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "ppi.csv", ppiTable)
	writeFile(t, dir, "expr.csv", "gene,t1,t2\nP1,1,2\nP2,2,1\n")
	writeFile(t, dir, "loc.csv", "protein,src,loc\nP1,a,nucleus\n")
	writeFile(t, dir, "orth.csv", "id,O_score\nP1,1\n")
	writeFile(t, dir, "gold.csv", "essential\nP1\n")
	manifest := writeFile(t, dir, "dataset.toml", `
[dataset]
name = "tiny"
ppi = "ppi.csv"
expression = "expr.csv"
localization = "loc.csv"
orthology = "orth.csv"
gold_standard = "gold.csv"
`)

	m, err := LoadManifest(manifest)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	b, err := Load(m, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Graph.EdgeCount() != 2 {
		t.Errorf("edges = %d, want 2", b.Graph.EdgeCount())
	}
	if b.Expression.Len() != 2 || b.Localization.Len() != 1 || b.Orthology.Len() != 1 {
		t.Errorf("store sizes: expr=%d loc=%d orth=%d", b.Expression.Len(), b.Localization.Len(), b.Orthology.Len())
	}
	if b.Ontology == nil || b.Ontology.Len() != 3 {
		t.Errorf("ontology should come from the ppi table")
	}
	if !b.Gold.Contains("P1") {
		t.Error("gold standard not loaded")
	}

	in := b.Inputs()
	if in.Graph != b.Graph || in.Orthology != b.Orthology || in.Sources.Expression != b.Expression {
		t.Error("Inputs does not carry the bundle's stores")
	}
}

func TestLoad_MissingOptionalTableIsError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "ppi.csv", "a,b\nX,Y\n")
	manifest := writeFile(t, dir, "dataset.toml", "[dataset]\nppi = \"ppi.csv\"\nexpression = \"nope.csv\"\n")

	m, err := LoadManifest(manifest)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	_, err = Load(m, zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "loading expression table") {
		t.Errorf("got %v, want a wrapped expression error", err)
	}
}

func TestLoad_OnlyPPI(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "ppi.csv", "a,b\nX,Y\n")
	manifest := writeFile(t, dir, "dataset.toml", "[dataset]\nppi = \"ppi.csv\"\n")

	m, err := LoadManifest(manifest)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	b, err := Load(m, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Expression != nil || b.Orthology != nil || b.Ontology != nil {
		t.Error("unnamed tables should leave nil stores")
	}
}

func TestCheckRole(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "ppi.csv", "a,b\nX,Y\n")
	writeFile(t, dir, "orth.csv", "id,O_score\nX,0.5\n")
	manifest := writeFile(t, dir, "dataset.toml", "[dataset]\nppi = \"ppi.csv\"\northology = \"orth.csv\"\nexpression = \"gone.csv\"\n")

	m, err := LoadManifest(manifest)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	for _, role := range m.Roles() {
		err := CheckRole(m, role)
		if role.Name == "expression" {
			if err == nil {
				t.Error("missing expression table should fail")
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", role.Name, err)
		}
	}
}

func TestLoad_RequiresGraph(t *testing.T) {
	t.Parallel()

	b, err := Load(&Manifest{}, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected error for manifest without ppi table, got bundle %+v", b)
	}
	if !errors.Is(err, ErrNoPPI) {
		t.Errorf("error = %v, want ErrNoPPI", err)
	}
	if !errors.Is(err, scoring.ErrEmptyGraph) || !errors.Is(err, scoring.ErrPrecondition) {
		t.Errorf("error = %v, want it to wrap scoring.ErrEmptyGraph", err)
	}
}

func TestLoad_RejectsInvalidColumns(t *testing.T) {
	t.Parallel()

	m := &Manifest{}
	m.Dataset.PPI = "ppi.csv"
	if _, err := Load(m, zerolog.Nop()); err == nil {
		t.Fatal("expected error for localization_label 0")
	} else if errors.Is(err, scoring.ErrEmptyGraph) {
		t.Errorf("column error reported as missing graph: %v", err)
	}
}
