package kv

// Operations and events are keyed by their big endian bucket sequence so
// that cursor order is application order.
var (
	operationsBucket = []byte("operations")
	eventsBucket     = []byte("events")
	metadataBucket   = []byte("metadata")

	// Metadata keys.
	genesisDigestKey = []byte("genesis-digest")
)
