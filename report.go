package msgsize

import (
	"io"
	"time"

	"github.com/mailru/easyjson/jwriter"
)

// ExportJSON writes journal records to out as JSON, one object per line.
// The format is meant for feeding into log pipelines and jq, not for
// re-import.
func ExportJSON(out io.Writer, recs []ChangeRecord) error {
	for _, rec := range recs {
		jw := jwriter.Writer{}
		easyjsonMarshalChangeRecord(&jw, rec)
		jw.RawByte('\n')
		if _, err := jw.DumpTo(out); err != nil {
			return wrapErr(err, "ExportJSON")
		}
	}
	return nil
}

// ReportJSON writes one file report to out as a single JSON line.
func ReportJSON(out io.Writer, server, service string, rep FileReport) error {
	jw := jwriter.Writer{}
	easyjsonMarshalFileReport(&jw, server, service, rep)
	jw.RawByte('\n')
	_, err := jw.DumpTo(out)
	return wrapErr(err, "ReportJSON")
}

func easyjsonMarshalChangeRecord(jw *jwriter.Writer, rec ChangeRecord) {
	jw.RawByte('{')
	jw.RawString(`"id":`)
	jw.Int64(rec.ID)
	jw.RawString(`,"time":`)
	jw.String(rec.Time.UTC().Format(time.RFC3339))
	jw.RawString(`,"server":`)
	jw.String(rec.Server)
	jw.RawString(`,"service":`)
	jw.String(rec.Service)
	jw.RawString(`,"file":`)
	jw.String(rec.File)
	jw.RawString(`,"path":`)
	jw.String(rec.Path)
	jw.RawString(`,"attr":`)
	jw.String(rec.Attr)
	jw.RawString(`,"prev":`)
	if rec.Prev != nil {
		jw.String(*rec.Prev)
	} else {
		jw.RawString(`null`)
	}
	jw.RawString(`,"new":`)
	jw.String(rec.New)
	jw.RawString(`,"limit_bytes":`)
	jw.Int64(rec.LimitBytes)
	jw.RawByte('}')
}

func easyjsonMarshalFileReport(jw *jwriter.Writer, server, service string, rep FileReport) {
	jw.RawByte('{')
	jw.RawString(`"server":`)
	jw.String(server)
	jw.RawString(`,"service":`)
	jw.String(service)
	jw.RawString(`,"file":`)
	jw.String(rep.File)
	jw.RawString(`,"backup":`)
	if rep.Backup != "" {
		jw.String(rep.Backup)
	} else {
		jw.RawString(`null`)
	}
	jw.RawString(`,"changes":[`)
	for i, ch := range rep.Changes {
		if i != 0 {
			jw.RawByte(',')
		}
		jw.RawByte('{')
		jw.RawString(`"path":`)
		jw.String(ch.Path)
		jw.RawString(`,"attr":`)
		jw.String(ch.Attr)
		jw.RawString(`,"prev":`)
		if ch.Prev != nil {
			jw.String(*ch.Prev)
		} else {
			jw.RawString(`null`)
		}
		jw.RawString(`,"new":`)
		jw.String(ch.New)
		jw.RawString(`,"changed":`)
		jw.Bool(ch.Changed())
		jw.RawByte('}')
	}
	jw.RawString(`]}`)
}
