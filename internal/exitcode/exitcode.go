// Package exitcode defines exit codes for the CLI.
package exitcode

// Process exit codes shared by all commands.
const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task, a rejected request).
	UserError = 1

	// AuthError indicates a keypair, ownership or OAuth error.
	AuthError = 2

	// BackendError indicates a store, network or API error.
	BackendError = 3
)
