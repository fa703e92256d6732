package session

// LoginPath is where unauthenticated visitors of protected views are sent.
const LoginPath = "/login"

// Decision is the route guard's verdict for a protected view.
type Decision int

const (
	// DecisionWait renders nothing while the first provider notification is
	// pending, preventing a flash of the unauthenticated view.
	DecisionWait Decision = iota
	// DecisionRedirect sends the visitor to the login entry point.
	DecisionRedirect
	// DecisionAllow renders the protected content unchanged.
	DecisionAllow
)

// Verdict carries the decision plus redirect details when applicable.
type Verdict struct {
	Decision   Decision
	RedirectTo string
	// Resume preserves the originally requested location for post-login
	// resumption.
	Resume string
}

// Evaluate is a pure function of {loading, identity, requested path}.
func Evaluate(snap Snapshot, requestedPath string) Verdict {
	if snap.Loading {
		return Verdict{Decision: DecisionWait}
	}
	if snap.Identity == nil {
		return Verdict{Decision: DecisionRedirect, RedirectTo: LoginPath, Resume: requestedPath}
	}
	return Verdict{Decision: DecisionAllow}
}
