package diag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityFromCode(t *testing.T) {
	assert.Equal(t, Warning, New("WAR-SEM-VAR-DECL-NOT-USED", 1, 1).Severity())
	assert.Equal(t, Error, New("ERR-SEM-VAR-NOT-DECL", 1, 1).Severity())
	assert.Equal(t, Error, New("ERR-LEX-INV-CHAR", 1, 1).Severity())
}

func TestDefaultCatalogRender(t *testing.T) {
	d := New("WAR-SEM-ATR-DIFF-TYPES-IMP-COERC-OF-NUM", 4, 3,
		"value", "2.5", "valueType", "flutuante", "name", "x", "type", "inteiro")
	got := d.Render(Default())
	require.Equal(t, "4:3: warning WAR-SEM-ATR-DIFF-TYPES-IMP-COERC-OF-NUM: implicit coercion of number '2.5' of type 'flutuante' to 'inteiro' in assignment to 'x'", got)
}

func TestDefaultCatalogCoversSemanticCodes(t *testing.T) {
	codes := []string{
		"ERR-SEM-MAIN-NOT-DECL", "WAR-SEM-VAR-DECL-PREV", "WAR-SEM-FUNC-DECL-PREV",
		"ERR-SEM-ARRAY-INDEX-NOT-INT", "ERR-SEM-VAR-NOT-DECL",
		"WAR-SEM-ATR-DIFF-TYPES-IMP-COERC-OF-VAR", "WAR-SEM-ATR-DIFF-TYPES-IMP-COERC-OF-RET-VAL",
		"WAR-SEM-ATR-DIFF-TYPES-IMP-COERC-OF-NUM", "WAR-SEM-ATR-DIFF-TYPES-IMP-COERC-OF-EXP",
		"WAR-SEM-VAR-DECL-NOT-USED", "WAR-SEM-VAR-DECL-INIT-NOT-USED", "WAR-SEM-VAR-DECL-NOT-INIT",
		"ERR-SEM-FUNC-RET-TYPE-ERROR", "ERR-SEM-CALL-FUNC-NOT-DECL", "ERR-SEM-CALL-FUNC-MAIN-NOT-ALLOWED",
		"WAR-SEM-CALL-REC-FUNC-MAIN", "ERR-SEM-CALL-FUNC-WITH-FEW-ARGS", "ERR-SEM-CALL-FUNC-WITH-MANY-ARGS",
		"WAR-SEM-FUNC-DECL-NOT-USED",
	}
	c := Default()
	for _, code := range codes {
		assert.True(t, c.Has(code), code)
	}
}

func TestSwappedCatalog(t *testing.T) {
	c, err := LoadCatalog(strings.NewReader(`
messages:
  ERR-SEM-VAR-NOT-DECL: "variável '{{.name}}' não declarada"
`))
	require.NoError(t, err)

	d := New("ERR-SEM-VAR-NOT-DECL", 2, 5, "name", "y")
	assert.Equal(t, "2:5: error ERR-SEM-VAR-NOT-DECL: variável 'y' não declarada", d.Render(c))

	// codes missing from the catalog still render their arguments
	other := New("ERR-SEM-CALL-FUNC-NOT-DECL", 0, 0, "name", "f")
	assert.Equal(t, "error ERR-SEM-CALL-FUNC-NOT-DECL: name=f", other.Render(c))
}

func TestBadCatalog(t *testing.T) {
	_, err := LoadCatalog(strings.NewReader("messages:\n  X: \"{{.name\"\n"))
	require.Error(t, err)
}

func TestList(t *testing.T) {
	l := List{
		New("WAR-SEM-VAR-DECL-NOT-USED", 1, 1, "name", "a"),
		New("ERR-SEM-VAR-NOT-DECL", 2, 1, "name", "b"),
		New("WAR-SEM-VAR-DECL-NOT-USED", 3, 1, "name", "c"),
	}
	assert.True(t, l.HasErrors())
	assert.Len(t, l.Errors(), 1)
	assert.Equal(t, 2, l.Count("WAR-SEM-VAR-DECL-NOT-USED"))
	assert.Equal(t, []string{"WAR-SEM-VAR-DECL-NOT-USED", "ERR-SEM-VAR-NOT-DECL", "WAR-SEM-VAR-DECL-NOT-USED"}, l.Codes())
	assert.False(t, List{}.HasErrors())
}
