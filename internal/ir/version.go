package ir

// Version constants for the IR encoding and the tool.
const (
	// IRVersion is the version of the type/schema JSON encoding.
	IRVersion = "1"

	// EngineVersion is the pgshape version.
	EngineVersion = "0.1.0"
)
