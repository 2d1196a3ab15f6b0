package msgsize

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"
)

const testFleetConf = `
servers:
  - name: mail1
    root: /srv/mail1
    probe: mail1.example.org:143
  - name: mail2
    root: /srv/mail2
    restart: [systemctl, restart, nginx]
    probe: mail2.example.org:993
    probe_tls: true
services:
  - name: owa
    config: Custom/web.config
    edits:
      - path: configuration/system.web/httpRuntime
        attr: maxRequestLength
        unit: kib
  - name: webdav
    config: WebDAV/web.config
    edits:
      - path: configuration/system.web/httpRuntime
        attr: maxRequestLength
`

func writeFleet(t *testing.T, conf string) (string, func()) {
	t.Helper()

	dir, err := ioutil.TempDir("", "go-msgsize-tests-")
	assert.NilError(t, err, "TempDir")
	path := filepath.Join(dir, "fleet.yml")
	assert.NilError(t, ioutil.WriteFile(path, []byte(conf), 0644), "WriteFile")
	return path, func() { os.RemoveAll(dir) }
}

func TestLoadFleet(t *testing.T) {
	path, clean := writeFleet(t, testFleetConf)
	defer clean()

	f, err := LoadFleet(path)
	assert.NilError(t, err, "LoadFleet")
	assert.Assert(t, is.Len(f.Servers, 2))
	assert.Equal(t, f.Servers[0].Name, "mail1")
	assert.Equal(t, f.Servers[0].Root, "/srv/mail1")
	assert.Equal(t, f.Servers[0].Probe, "mail1.example.org:143")
	assert.Assert(t, !f.Servers[0].ProbeTLS)
	assert.DeepEqual(t, f.Servers[1].Restart, []string{"systemctl", "restart", "nginx"})
	assert.Assert(t, f.Servers[1].ProbeTLS)

	srv, err := f.Server("mail2")
	assert.NilError(t, err, "Server")
	assert.Equal(t, srv.Root, "/srv/mail2")

	_, err = f.Server("mail3")
	assert.Assert(t, errors.Is(err, ErrUnknownServer))
}

func TestFleetServiceTable(t *testing.T) {
	path, clean := writeFleet(t, testFleetConf)
	defer clean()

	f, err := LoadFleet(path)
	assert.NilError(t, err, "LoadFleet")

	// owa is overridden, webdav is appended, remaining built-ins are kept.
	table := f.ServiceTable()
	assert.Assert(t, is.Len(table, len(DefaultServices())+1))

	svcs, err := SelectServices(table, []string{"owa"})
	assert.NilError(t, err, "SelectServices")
	assert.Equal(t, svcs[0].ConfigPath, "Custom/web.config")
	assert.Assert(t, is.Len(svcs[0].Edits, 1))
	assert.Equal(t, svcs[0].Edits[0].Unit, KiBytes)

	svcs, err = SelectServices(table, []string{"webdav"})
	assert.NilError(t, err, "SelectServices")
	assert.Equal(t, svcs[0].Edits[0].Unit, Bytes)

	svcs, err = SelectServices(table, []string{"activesync"})
	assert.NilError(t, err, "SelectServices")
	assert.Equal(t, svcs[0].ConfigPath, "ClientAccess/Sync/web.config")
}

func TestLoadFleetRejectsInvalid(t *testing.T) {
	for _, conf := range []string{
		``,
		`servers: [{name: a}]`,
		`servers: [{root: /srv}]`,
		`servers: [{name: a, root: /a}, {name: a, root: /b}]`,
		"servers: [{name: a, root: /a}]\nservices: [{name: x}]",
		"servers: [{name: a, root: /a}]\nservices: [{name: x, config: c, edits: []}]",
		"servers: [{name: a, root: /a}]\nservices: [{name: x, config: c, edits: [{path: p}]}]",
		"servers: [{name: a, root: /a}]\nservices: [{name: x, config: c, edits: [{path: p, attr: a, unit: potato}]}]",
	} {
		path, clean := writeFleet(t, conf)
		_, err := LoadFleet(path)
		clean()
		assert.Assert(t, err != nil, "config: %q", conf)
	}
}

func TestLoadFleetMissingFile(t *testing.T) {
	_, err := LoadFleet("/nonexistent/fleet.yml")
	assert.Assert(t, err != nil)
}

func TestSingleServer(t *testing.T) {
	f := SingleServer("/srv/mail")
	assert.Assert(t, is.Len(f.Servers, 1))
	assert.Equal(t, f.Servers[0].Name, "local")
	assert.Equal(t, f.Servers[0].Root, "/srv/mail")
	assert.Assert(t, is.Len(f.ServiceTable(), len(DefaultServices())))
}

func TestRestartWebServer(t *testing.T) {
	srv := Server{Name: "mail1", Root: "/srv", Restart: []string{"echo", "ok"}}
	out, err := srv.RestartWebServer()
	assert.NilError(t, err, "RestartWebServer")
	assert.Equal(t, string(out), "ok\n")
}

func TestRestartWebServerUnconfigured(t *testing.T) {
	srv := Server{Name: "mail1", Root: "/srv"}
	_, err := srv.RestartWebServer()
	assert.Assert(t, errors.Is(err, ErrNoRestartCmd))
}
