package msgsize

import (
	"testing"

	"github.com/beevik/etree"
	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"
)

func parseDoc(t *testing.T, xml string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	assert.NilError(t, doc.ReadFromString(xml), "ReadFromString")
	return doc
}

func TestEnsurePathCreatesMissing(t *testing.T) {
	doc := parseDoc(t, `<configuration/>`)

	node := EnsurePath(&doc.Element, "configuration/system.web/httpRuntime")
	assert.Assert(t, node != nil)
	assert.Equal(t, node.Tag, "httpRuntime")

	conf := doc.SelectElement("configuration")
	assert.Assert(t, conf != nil)
	assert.Assert(t, is.Len(conf.SelectElements("system.web"), 1))
	assert.Assert(t, is.Len(conf.SelectElement("system.web").SelectElements("httpRuntime"), 1))
}

func TestEnsurePathReusesExisting(t *testing.T) {
	doc := parseDoc(t, `<configuration><system.web><httpRuntime executionTimeout="3600"/></system.web></configuration>`)

	node := EnsurePath(&doc.Element, "configuration/system.web/httpRuntime")
	assert.Equal(t, node.SelectAttrValue("executionTimeout", ""), "3600")

	again := EnsurePath(&doc.Element, "configuration/system.web/httpRuntime")
	assert.Equal(t, node, again)
	assert.Assert(t, is.Len(doc.SelectElement("configuration").ChildElements(), 1))
}

func TestEnsurePathPreservesSiblings(t *testing.T) {
	doc := parseDoc(t, `<configuration><appSettings><add key="x"/></appSettings></configuration>`)

	EnsurePath(&doc.Element, "configuration/system.web/httpRuntime")

	conf := doc.SelectElement("configuration")
	assert.Assert(t, conf.SelectElement("appSettings") != nil)
	assert.Assert(t, conf.SelectElement("appSettings").SelectElement("add") != nil)
	assert.Assert(t, conf.SelectElement("system.web") != nil)
}

func TestEnsurePathSkipsEmptySegments(t *testing.T) {
	doc := parseDoc(t, `<configuration/>`)

	node := EnsurePath(&doc.Element, "/configuration//system.web/")
	assert.Equal(t, node.Tag, "system.web")
	assert.Assert(t, is.Len(doc.SelectElement("configuration").ChildElements(), 1))
}

func TestEnsurePathFirstMatch(t *testing.T) {
	doc := parseDoc(t, `<configuration><location path="a"/><location path="b"/></configuration>`)

	node := EnsurePath(&doc.Element, "configuration/location")
	assert.Equal(t, node.SelectAttrValue("path", ""), "a")
}

func TestFindPath(t *testing.T) {
	doc := parseDoc(t, `<configuration><system.web/></configuration>`)

	assert.Assert(t, FindPath(&doc.Element, "configuration/system.web") != nil)
	assert.Assert(t, FindPath(&doc.Element, "configuration/system.web/httpRuntime") == nil)

	// Lookup must not create anything.
	assert.Assert(t, is.Len(doc.SelectElement("configuration").ChildElements(), 1))
}

func TestSetAttributeNew(t *testing.T) {
	doc := parseDoc(t, `<configuration/>`)

	prev := SetAttribute(&doc.Element, "configuration/system.web/httpRuntime", "maxRequestLength", "25600")
	assert.Assert(t, prev == nil)

	got := GetAttribute(&doc.Element, "configuration/system.web/httpRuntime", "maxRequestLength")
	assert.Assert(t, got != nil)
	assert.Equal(t, *got, "25600")
}

func TestSetAttributeOverwrite(t *testing.T) {
	doc := parseDoc(t, `<configuration><system.web><httpRuntime maxRequestLength="1"/></system.web></configuration>`)

	prev := SetAttribute(&doc.Element, "configuration/system.web/httpRuntime", "maxRequestLength", "2")
	assert.Assert(t, prev != nil)
	assert.Equal(t, *prev, "1")

	got := GetAttribute(&doc.Element, "configuration/system.web/httpRuntime", "maxRequestLength")
	assert.Equal(t, *got, "2")
}

func TestSetAttributeIdempotent(t *testing.T) {
	doc := parseDoc(t, `<configuration/>`)

	SetAttribute(&doc.Element, "configuration/system.web/httpRuntime", "maxRequestLength", "25600")
	first, err := doc.WriteToString()
	assert.NilError(t, err, "WriteToString")

	prev := SetAttribute(&doc.Element, "configuration/system.web/httpRuntime", "maxRequestLength", "25600")
	assert.Assert(t, prev != nil)
	assert.Equal(t, *prev, "25600")

	second, err := doc.WriteToString()
	assert.NilError(t, err, "WriteToString")
	assert.Equal(t, second, first)
}

func TestGetAttributeMissing(t *testing.T) {
	doc := parseDoc(t, `<configuration><system.web/></configuration>`)

	assert.Assert(t, GetAttribute(&doc.Element, "configuration/system.web", "x") == nil)
	assert.Assert(t, GetAttribute(&doc.Element, "configuration/nope", "x") == nil)
}

func TestKibUnits(t *testing.T) {
	for _, c := range []struct {
		n, want int64
	}{
		{0, 0},
		{1, 1},
		{1023, 1},
		{1024, 1},
		{1025, 2},
		{26214400, 25600},
	} {
		assert.Equal(t, KibUnits(c.n), c.want)
	}
}
