package session

// SignInPath is where unauthenticated visitors of protected views are sent.
const SignInPath = "/signin"

// Decision is the route guard's verdict for a protected view.
type Decision int

const (
	// Withhold renders nothing: the initial session check is still running.
	Withhold Decision = iota
	// Allow renders the protected content.
	Allow
	// Redirect sends the visitor to SignInPath.
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Withhold:
		return "withhold"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Guard decides what a protected view does for state.
func Guard(state State) Decision {
	switch {
	case state.Loading:
		return Withhold
	case state.SignedIn():
		return Allow
	default:
		return Redirect
	}
}
