package ports

// Dispatcher runs caller-facing callbacks on the caller's chosen context.
// Implementations must run functions in the order they were dispatched.
type Dispatcher interface {
	Dispatch(fn func())
}
