package search

// Slog attribute keys used by the engine's events.
const ( // AC
	keyRange         = "range"
	keyKeys          = "keys"
	keyBlocks        = "blocks"
	keyWorkers       = "workers"
	keyChunkSize     = "chunkSize"
	keyPolicy        = "policy"
	keyHardwareAES   = "hardwareAES"
	keyFalseAccept   = "falseAcceptProbability"
	keyKey           = "key"
	keyPlaintext     = "plaintext"
	keyEvaluated     = "evaluated"
	keyKeysPerSecond = "keysPerSecond"
	keyMatches       = "matches"
	keyDuration      = "duration"
	keyFinishedAt    = "finishedAt"
	keyError         = "error"
)
