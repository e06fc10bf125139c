package folio

import "embed"

// EmbeddedData holds the bundled JSON payloads served in static mode when
// no data directory is configured.
//
//go:embed data/*.json
var EmbeddedData embed.FS
