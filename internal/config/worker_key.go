package config

// WorkerKeyStruct names the Redis lists shared by the gateway and its workers.
type WorkerKeyStruct struct {
	// PersistResultsQueue holds graded practice results awaiting Postgres.
	PersistResultsQueue string
	// PersistResultsDeadLetter keeps payloads the result worker could not decode.
	PersistResultsDeadLetter string
}

var WorkerKey = &WorkerKeyStruct{
	PersistResultsQueue:      "studyguide:results:pending",
	PersistResultsDeadLetter: "studyguide:results:dead",
}
