// Package msgsize patches message size limits into the XML configuration
// files of web-facing mail access services and keeps an audit trail of every
// change it makes.
//
// The package operates on whole files: load into a mutable tree, upsert the
// relevant attributes, optionally back the original up, write back in place.
// There is no partial-write protection beyond the backup copy.
package msgsize

import (
	"github.com/beevik/etree"
)

// LoadDocument reads the XML file at path into a mutable tree. A missing or
// unparsable file is an error; the caller decides whether that aborts the
// whole run or just this document.
func LoadDocument(path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, wrapErrf(err, "load %s", path)
	}
	return doc, nil
}

// SaveDocument writes the tree back to path, replacing the file contents.
// The write is attempted once and failures are returned, not retried.
func SaveDocument(doc *etree.Document, path string) error {
	return wrapErrf(doc.WriteToFile(path), "save %s", path)
}
