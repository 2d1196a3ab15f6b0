package msgsize

import "strconv"

// Unit selects how a byte limit is rendered into an attribute value.
type Unit int

const (
	// Bytes writes the raw byte count.
	Bytes Unit = iota

	// KiBytes writes whole 1024-byte units, rounded upward (see KibUnits).
	// ASP.NET-style httpRuntime limits use this unit.
	KiBytes
)

// EditRule describes one attribute a service configuration file carries its
// size limit in.
type EditRule struct {
	// Path is the slash-separated element path from the document root,
	// e.g. "configuration/system.web/httpRuntime". Missing elements are
	// created on apply.
	Path string `yaml:"path"`

	// Attr is the attribute name on the final path element.
	Attr string `yaml:"attr"`

	Unit Unit `yaml:"unit,omitempty"`
}

// Render returns the attribute value corresponding to a limit of n bytes.
func (r EditRule) Render(n int64) string {
	if r.Unit == KiBytes {
		n = KibUnits(n)
	}
	return strconv.FormatInt(n, 10)
}

// Service is one web-facing mail access service whose upload limit lives in
// an XML configuration file.
//
// Always use field names on initialization because new fields may be added
// without a major version change.
type Service struct {
	// Name identifies the service on the command line and in the journal.
	Name string `yaml:"name"`

	// ConfigPath locates the configuration file, relative to the server's
	// installation root. Forward slashes, converted for the host OS on use.
	ConfigPath string `yaml:"config"`

	Edits []EditRule `yaml:"edits"`
}

// DefaultServices returns the built-in table for the classic webmail
// deployment layout: browser frontend, mobile sync endpoint and the SOAP
// web services API, each carrying the request size cap in two places.
//
// Fleet configuration can override entries by name or add new ones.
func DefaultServices() []Service {
	httpRuntime := EditRule{
		Path: "configuration/system.web/httpRuntime",
		Attr: "maxRequestLength",
		Unit: KiBytes,
	}
	requestLimits := EditRule{
		Path: "configuration/system.webServer/security/requestFiltering/requestLimits",
		Attr: "maxAllowedContentLength",
		Unit: Bytes,
	}

	return []Service{
		{
			Name:       "owa",
			ConfigPath: "ClientAccess/Owa/web.config",
			Edits:      []EditRule{httpRuntime, requestLimits},
		},
		{
			Name:       "activesync",
			ConfigPath: "ClientAccess/Sync/web.config",
			Edits:      []EditRule{httpRuntime, requestLimits},
		},
		{
			Name:       "ews",
			ConfigPath: "ClientAccess/exchweb/EWS/web.config",
			Edits:      []EditRule{httpRuntime, requestLimits},
		},
	}
}

// SelectServices filters the table down to the named services, preserving
// table order. Empty names selects everything. Unknown names are an error
// (ErrUnknownService, wrapped with the offending name).
func SelectServices(table []Service, names []string) ([]Service, error) {
	if len(names) == 0 {
		return table, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	var res []Service
	for _, svc := range table {
		if want[svc.Name] {
			res = append(res, svc)
			delete(want, svc.Name)
		}
	}
	for n := range want {
		return nil, wrapErrf(ErrUnknownService, "select %s", n)
	}
	return res, nil
}
