// Package integration runs fieldboot end to end against real child
// processes, git repositories and HTTP and gRPC servers started by the tests.
package integration
