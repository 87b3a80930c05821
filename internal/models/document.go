package models

import "time"

// DocumentVersion is the current export/persistence format version.
const DocumentVersion = 1

// PortfolioDocument is the serialized form of the full position collection,
// used both for the persisted key-value record and for export/import files.
type PortfolioDocument struct {
	Version    int        `json:"version"`
	ExportedAt time.Time  `json:"exported_at,omitzero"`
	Positions  []Position `json:"positions"`
}
