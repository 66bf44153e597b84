package navigation

// Navigator is the single navigation capability the sync engine needs.
type Navigator interface {
	// RedirectToAuth sends the user to the authentication entry point.
	RedirectToAuth()
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) RedirectToAuth() { f() }
