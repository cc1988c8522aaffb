package interfaces

// -----------------------------------------------------------------------------
// IDataExchanger defining the interface for pushing dashboard state to clients.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes an event to every connected listener.
	Broadcast(payload interface{})

	// -----------------------------------------------------------------------------
	// UpdateChartView replaces the cached view of a group without broadcasting.
	UpdateChartView(group string, view interface{})

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
