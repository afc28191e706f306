package syncer

import (
	"context"
	"errors"

	"github.com/kairos-track/kairos/internal/reducer"
	"github.com/kairos-track/kairos/internal/remote"
	"github.com/kairos-track/kairos/internal/state"
)

// Login authenticates against the remote service and terminates by
// dispatching a UserDataPut message — success or failure, the outcome
// always travels through the ordinary reducer path, never around it.
func (s *Syncer) Login(ctx context.Context, creds remote.Credentials) {
	s.sequenced(ctx, "login", func() {
		user, err := s.client.GetUser(ctx, creds)
		result := classifyAuthErr(err)
		if result == state.AuthSuccess {
			if user == nil {
				result = state.AuthSystemError
			} else if user.DefaultWorkspaceRemoteID == nil {
				result = state.AuthNoDefaultWorkspace
				user = nil
			}
		} else {
			user = nil
		}
		s.log.Info("login finished", "result", result.String())
		s.dispatch(ctx, reducer.UserDataPut{User: user, Result: result})
	})
}

// Signup creates an account and dispatches the outcome the same way
// Login does.
func (s *Syncer) Signup(ctx context.Context, creds remote.Credentials) {
	s.sequenced(ctx, "signup", func() {
		user, err := s.client.Signup(ctx, creds)
		result := classifyAuthErr(err)
		if result == state.AuthSuccess {
			if user == nil {
				result = state.AuthSystemError
			} else if user.DefaultWorkspaceRemoteID == nil {
				result = state.AuthNoDefaultWorkspace
				user = nil
			}
		} else {
			user = nil
		}
		s.log.Info("signup finished", "result", result.String())
		s.dispatch(ctx, reducer.UserDataPut{User: user, Result: result})
	})
}

// classifyAuthErr folds a remote failure into the closed auth-result
// set the UI consumes.
func classifyAuthErr(err error) state.AuthResult {
	switch {
	case err == nil:
		return state.AuthSuccess
	case errors.Is(err, remote.ErrUnauthorized), errors.Is(err, remote.ErrForbidden):
		return state.AuthInvalidCredentials
	case remote.IsTransient(err):
		return state.AuthNetworkError
	default:
		return state.AuthSystemError
	}
}
