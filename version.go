package msgsize

// VersionStr is a string value representing go-msgsize version.
//
// Meant for debug logs, you may want to know which go-msgsize version users
// have.
const VersionStr = "0.2.0"

// SchemaVersion is incremented each time the journal DB schema changes.
const SchemaVersion = 1
