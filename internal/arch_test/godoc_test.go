package arch_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"
)

// TestExportedSymbolsHaveGoDoc verifies that every exported type, function,
// method, var, and const in internal packages has a GoDoc comment starting
// with the symbol name, following Go conventions.
func TestExportedSymbolsHaveGoDoc(t *testing.T) {
	t.Parallel()

	for _, pkg := range internalPackages(t) {
		t.Run(pkg, func(t *testing.T) {
			t.Parallel()
			for _, file := range goFilesIn(t, filepath.Join(internalDirPath(t), pkg)) {
				checkFileGoDoc(t, file)
			}
		})
	}
}

// checkFileGoDoc reports exported symbols in filePath that lack proper
// GoDoc comments.
func checkFileGoDoc(t *testing.T, filePath string) {
	t.Helper()

	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filePath, nil, parser.ParseComments)
	if err != nil {
		t.Fatalf("parsing %s: %v", filePath, err)
	}
	rel := relativeFilePath(filePath)

	for _, decl := range node.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			checkGenDecl(t, fset, d, rel)
		case *ast.FuncDecl:
			checkFuncDecl(t, fset, d, rel)
		}
	}
}

// checkGenDecl checks type, var, and const declarations. Members of a
// grouped const/var block may rely on the block's doc comment or an
// inline comment instead of their own.
func checkGenDecl(t *testing.T, fset *token.FileSet, d *ast.GenDecl, rel string) {
	t.Helper()

	isGrouped := len(d.Specs) > 1
	hasBlockDoc := d.Doc != nil && strings.TrimSpace(d.Doc.Text()) != ""

	for _, spec := range d.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			if s.Name.IsExported() && !hasValidGoDoc(docText(s.Doc, d.Doc), s.Name.Name) {
				t.Errorf("%s:%d: exported type %s has no GoDoc comment",
					rel, fset.Position(s.Pos()).Line, s.Name.Name)
			}

		case *ast.ValueSpec:
			for _, name := range s.Names {
				if !name.IsExported() {
					continue
				}
				if isGrouped {
					hasInline := s.Comment != nil && strings.TrimSpace(s.Comment.Text()) != ""
					if hasValidGoDoc(docText(s.Doc), name.Name) || hasBlockDoc || hasInline {
						continue
					}
				} else if hasValidGoDoc(docText(s.Doc, d.Doc), name.Name) {
					continue
				}
				t.Errorf("%s:%d: exported %s %s has no GoDoc comment",
					rel, fset.Position(name.Pos()).Line, d.Tok, name.Name)
			}
		}
	}
}

// checkFuncDecl checks function and method declarations. Methods on
// unexported receivers are not part of the public API and are skipped.
func checkFuncDecl(t *testing.T, fset *token.FileSet, d *ast.FuncDecl, rel string) {
	t.Helper()

	if !d.Name.IsExported() {
		return
	}
	if d.Recv != nil && !isExportedReceiver(d.Recv) {
		return
	}
	if !hasValidGoDoc(docText(d.Doc), d.Name.Name) {
		kind := "func"
		if d.Recv != nil {
			kind = "method"
		}
		t.Errorf("%s:%d: exported %s %s has no GoDoc comment",
			rel, fset.Position(d.Pos()).Line, kind, d.Name.Name)
	}
}

// hasValidGoDoc reports whether doc is non-empty and starts with the
// symbol name.
func hasValidGoDoc(doc, symbolName string) bool {
	doc = strings.TrimSpace(doc)
	return doc != "" && strings.HasPrefix(doc, symbolName)
}

func isExportedReceiver(recv *ast.FieldList) bool {
	if recv == nil || len(recv.List) == 0 {
		return false
	}
	return isExportedType(recv.List[0].Type)
}

func isExportedType(expr ast.Expr) bool {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.IsExported()
	case *ast.StarExpr:
		return isExportedType(t.X)
	case *ast.IndexExpr:
		return isExportedType(t.X)
	case *ast.IndexListExpr:
		return isExportedType(t.X)
	default:
		return false
	}
}

// relativeFilePath trims everything before internal/ for shorter messages.
func relativeFilePath(fullPath string) string {
	const marker = "internal/"
	if idx := strings.Index(fullPath, marker); idx >= 0 {
		return fullPath[idx:]
	}
	return filepath.Base(fullPath)
}

func TestHasValidGoDoc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		doc, name string
		want      bool
	}{
		{"Rank sorts proteins.", "Rank", true},
		{"  Rank sorts proteins.", "Rank", true},
		{"Sorts proteins.", "Rank", false},
		{"", "Rank", false},
	}
	for _, tt := range tests {
		if got := hasValidGoDoc(tt.doc, tt.name); got != tt.want {
			t.Errorf("hasValidGoDoc(%q, %q) = %v, want %v", tt.doc, tt.name, got, tt.want)
		}
	}
}
