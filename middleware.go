package neutronx

// Compose chains mws into a single Middleware, the first in the list
// outermost (§4.4 onion model). Composition is associative: it applies
// right-to-left at build time and each middleware wraps exactly once.
func Compose(mws ...Middleware) Middleware {
	return func(final Handler) Handler {
		h := final
		for i := len(mws) - 1; i >= 0; i-- {
			h = mws[i](h)
		}
		return h
	}
}
