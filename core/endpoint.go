package core

// Endpoint is a framework-agnostic description of one account operation.
// Adapters attach their own handlers by OperationID.
type Endpoint struct {
	Path     string
	Method   string
	Metadata EndpointMetadata
}

type EndpointMetadata struct {
	OperationID string
	Description string
}
