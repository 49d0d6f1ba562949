package ir

// Version constants for the interface format and the toolchain.
const (
	// FormatVersion is the interface format version new interfaces carry.
	FormatVersion = V1

	// ToolVersion is the contractum toolchain version.
	ToolVersion = "0.1.0"
)
