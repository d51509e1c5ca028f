package neutronx

import "fmt"

// Sentinel error kinds. Request-time kinds (RouteNotFound, MethodNotAllowed,
// MalformedBody, PayloadTooLarge, WebSocketUpgradeFailed, HandlerFailed,
// Cancelled) are recovered locally by the error-trap middleware or the
// runtime itself. Boot-time kinds (NotRegistered, AlreadyRegistered,
// CircularDependency, ModuleExportMissing, DuplicateModuleName,
// CircularModuleImport, PluginRegistrationFailed) are fatal and propagate to
// the caller of Serve.
var (
	ErrRouteNotFound           = fmt.Errorf("neutronx: route not found")
	ErrMethodNotAllowed        = fmt.Errorf("neutronx: method not allowed")
	ErrMalformedBody           = fmt.Errorf("neutronx: malformed request body")
	ErrPayloadTooLarge         = fmt.Errorf("neutronx: request body too large")
	ErrNotRegistered           = fmt.Errorf("neutronx: type not registered")
	ErrAlreadyRegistered       = fmt.Errorf("neutronx: type already registered")
	ErrCircularDependency      = fmt.Errorf("neutronx: circular dependency")
	ErrModuleExportMissing     = fmt.Errorf("neutronx: module export missing")
	ErrDuplicateModuleName     = fmt.Errorf("neutronx: duplicate module name")
	ErrCircularModuleImport    = fmt.Errorf("neutronx: circular module import")
	ErrPluginRegistrationFailed = fmt.Errorf("neutronx: plugin registration failed")
	ErrWebSocketUpgradeFailed  = fmt.Errorf("neutronx: websocket upgrade failed")
	ErrCancelled               = fmt.Errorf("neutronx: request cancelled")
)

// CircularDependencyError carries the full resolution chain, first
// occurrence of the offending type to its recurrence, as required by
// DI invariant 9.
type CircularDependencyError struct {
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	s := "neutronx: circular dependency: "
	for i, t := range e.Chain {
		if i > 0 {
			s += " -> "
		}
		s += t
	}
	return s
}

func (e *CircularDependencyError) Unwrap() error { return ErrCircularDependency }

// ModuleExportMissingError names the module and type-tag that failed
// export validation (§4.5 step 3).
type ModuleExportMissingError struct {
	Module string
	Type   string
}

func (e *ModuleExportMissingError) Error() string {
	return fmt.Sprintf(
		"neutronx: module %q did not register its exported type %q",
		e.Module, e.Type,
	)
}

func (e *ModuleExportMissingError) Unwrap() error { return ErrModuleExportMissing }

// CircularModuleImportError carries the import cycle discovered during
// boot-time validation (§4.5 Validation).
type CircularModuleImportError struct {
	Chain []string
}

func (e *CircularModuleImportError) Error() string {
	s := "neutronx: circular module import: "
	for i, m := range e.Chain {
		if i > 0 {
			s += " -> "
		}
		s += m
	}
	return s
}

func (e *CircularModuleImportError) Unwrap() error { return ErrCircularModuleImport }

// PluginRegistrationFailedError wraps the underlying failure from a
// plugin's register hook with the plugin's name.
type PluginRegistrationFailedError struct {
	Plugin string
	Err    error
}

func (e *PluginRegistrationFailedError) Error() string {
	return fmt.Sprintf("neutronx: plugin %q failed to register: %v", e.Plugin, e.Err)
}

func (e *PluginRegistrationFailedError) Unwrap() error { return e.Err }
