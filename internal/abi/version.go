package abi

// Version constants stamped onto journaled calls.
const (
	// Version is the call/receipt record schema version.
	Version = "1"

	// HostVersion is the slotstore host version.
	HostVersion = "0.1.0"
)
