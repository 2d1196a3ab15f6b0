package msgsize

import (
	"strings"
	"testing"
	"time"

	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"
)

func TestExportJSON(t *testing.T) {
	recs := []ChangeRecord{
		{
			ID:         1,
			Time:       time.Date(2020, 5, 14, 13, 34, 11, 0, time.UTC),
			Server:     "mail1",
			Service:    "owa",
			File:       "/srv/mail1/ClientAccess/Owa/web.config",
			Path:       "configuration/system.web/httpRuntime",
			Attr:       "maxRequestLength",
			New:        "25600",
			LimitBytes: 26214400,
		},
		{
			ID:         2,
			Time:       time.Date(2020, 5, 14, 13, 34, 12, 0, time.UTC),
			Server:     "mail1",
			Service:    "owa",
			File:       "/srv/mail1/ClientAccess/Owa/web.config",
			Path:       "configuration/system.webServer/security/requestFiltering/requestLimits",
			Attr:       "maxAllowedContentLength",
			Prev:       strPtr("10485760"),
			New:        "26214400",
			LimitBytes: 26214400,
		},
	}

	sb := strings.Builder{}
	assert.NilError(t, ExportJSON(&sb, recs), "ExportJSON")

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	assert.Assert(t, is.Len(lines, 2))
	assert.Equal(t, lines[0], `{"id":1,"time":"2020-05-14T13:34:11Z","server":"mail1","service":"owa",`+
		`"file":"/srv/mail1/ClientAccess/Owa/web.config","path":"configuration/system.web/httpRuntime",`+
		`"attr":"maxRequestLength","prev":null,"new":"25600","limit_bytes":26214400}`)
	assert.Assert(t, is.Contains(lines[1], `"prev":"10485760"`))
	assert.Assert(t, is.Contains(lines[1], `"id":2`))
}

func TestReportJSON(t *testing.T) {
	rep := FileReport{
		File:   "/srv/m/web.config",
		Backup: "/srv/m/web.config.20200514-133411.bak",
		Changes: []Change{
			{Path: "configuration/system.web/httpRuntime", Attr: "maxRequestLength", New: "25600"},
			{Path: "configuration/system.web/httpRuntime", Attr: "maxRequestLength", Prev: strPtr("25600"), New: "25600"},
		},
	}

	sb := strings.Builder{}
	assert.NilError(t, ReportJSON(&sb, "mail1", "owa", rep), "ReportJSON")

	assert.Equal(t, strings.TrimRight(sb.String(), "\n"),
		`{"server":"mail1","service":"owa","file":"/srv/m/web.config",`+
			`"backup":"/srv/m/web.config.20200514-133411.bak","changes":[`+
			`{"path":"configuration/system.web/httpRuntime","attr":"maxRequestLength","prev":null,"new":"25600","changed":true},`+
			`{"path":"configuration/system.web/httpRuntime","attr":"maxRequestLength","prev":"25600","new":"25600","changed":false}]}`)
}

func TestReportJSONNoBackup(t *testing.T) {
	rep := FileReport{File: "/srv/m/web.config"}

	sb := strings.Builder{}
	assert.NilError(t, ReportJSON(&sb, "mail1", "owa", rep), "ReportJSON")
	assert.Assert(t, is.Contains(sb.String(), `"backup":null`))
	assert.Assert(t, is.Contains(sb.String(), `"changes":[]`))
}
