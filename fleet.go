package msgsize

import (
	"fmt"
	"io/ioutil"
	"os/exec"
	"strings"

	"gopkg.in/yaml.v3"
)

// Server is one machine carrying the mail access services.
type Server struct {
	// Name identifies the server in reports and the journal.
	Name string `yaml:"name"`

	// Root is the installation root service config paths are resolved
	// against. For remote servers this is usually a mounted share.
	Root string `yaml:"root"`

	// Restart is the argv of the command that restarts the web server
	// after patching. Optional.
	Restart []string `yaml:"restart,omitempty"`

	// Probe is the host:port of the server's IMAP endpoint, used by limit
	// verification. Optional.
	Probe string `yaml:"probe,omitempty"`

	// ProbeTLS makes verification connect with implicit TLS.
	ProbeTLS bool `yaml:"probe_tls,omitempty"`
}

// RestartWebServer runs the server's configured restart command and returns
// its combined output. ErrNoRestartCmd is returned when the fleet entry has
// no command configured.
func (s Server) RestartWebServer() ([]byte, error) {
	if len(s.Restart) == 0 {
		return nil, ErrNoRestartCmd
	}
	out, err := exec.Command(s.Restart[0], s.Restart[1:]...).CombinedOutput()
	return out, wrapErrf(err, "restart %s", s.Name)
}

// Fleet is the parsed fleet configuration file: the set of servers to patch
// and optional amendments to the built-in service table.
type Fleet struct {
	Servers []Server `yaml:"servers"`

	// Services overrides built-in service entries sharing a name and
	// appends the rest.
	Services []Service `yaml:"services,omitempty"`
}

// LoadFleet reads and validates the fleet configuration file at path.
func LoadFleet(path string) (*Fleet, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, wrapErrf(err, "fleet %s", path)
	}

	f := &Fleet{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, wrapErrf(err, "fleet %s", path)
	}
	if err := f.validate(); err != nil {
		return nil, wrapErrf(err, "fleet %s", path)
	}
	return f, nil
}

// SingleServer wraps a bare installation root into a one-server fleet, for
// use without a fleet file.
func SingleServer(root string) *Fleet {
	return &Fleet{Servers: []Server{{Name: "local", Root: root}}}
}

// Server returns the named fleet entry, or ErrUnknownServer.
func (f *Fleet) Server(name string) (Server, error) {
	for _, srv := range f.Servers {
		if srv.Name == name {
			return srv, nil
		}
	}
	return Server{}, wrapErrf(ErrUnknownServer, "server %s", name)
}

// ServiceTable returns the built-in service table with the fleet's
// amendments applied.
func (f *Fleet) ServiceTable() []Service {
	table := DefaultServices()
	for _, svc := range f.Services {
		replaced := false
		for i := range table {
			if table[i].Name == svc.Name {
				table[i] = svc
				replaced = true
				break
			}
		}
		if !replaced {
			table = append(table, svc)
		}
	}
	return table
}

func (f *Fleet) validate() error {
	if len(f.Servers) == 0 {
		return fmt.Errorf("no servers defined")
	}

	seen := make(map[string]bool, len(f.Servers))
	for i, srv := range f.Servers {
		if srv.Name == "" {
			return fmt.Errorf("servers[%d]: name is required", i)
		}
		if srv.Root == "" {
			return fmt.Errorf("servers[%d]: root is required", i)
		}
		if seen[srv.Name] {
			return fmt.Errorf("servers[%d]: duplicate name %s", i, srv.Name)
		}
		seen[srv.Name] = true
	}

	for i, svc := range f.Services {
		if svc.Name == "" {
			return fmt.Errorf("services[%d]: name is required", i)
		}
		if svc.ConfigPath == "" {
			return fmt.Errorf("services[%d]: config is required", i)
		}
		if len(svc.Edits) == 0 {
			return fmt.Errorf("services[%d]: at least one edit is required", i)
		}
		for j, rule := range svc.Edits {
			if rule.Path == "" || rule.Attr == "" {
				return fmt.Errorf("services[%d]: edits[%d]: path and attr are required", i, j)
			}
		}
	}
	return nil
}

// UnmarshalYAML decodes "bytes" and "kib" unit names used in fleet files.
func (u *Unit) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	switch strings.ToLower(name) {
	case "", "bytes":
		*u = Bytes
	case "kib", "kibytes":
		*u = KiBytes
	default:
		return fmt.Errorf("unknown unit %s", name)
	}
	return nil
}

// MarshalYAML is the counterpart of UnmarshalYAML.
func (u Unit) MarshalYAML() (interface{}, error) {
	switch u {
	case KiBytes:
		return "kib", nil
	default:
		return "bytes", nil
	}
}
