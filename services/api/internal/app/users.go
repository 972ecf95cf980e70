package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"booktracker/pkg/auth"
	"booktracker/pkg/domain"
	"booktracker/pkg/store"
	"booktracker/pkg/validation"
)

// Register creates an account and returns the new user id.
func (a *App) Register(ctx context.Context, body validation.Body) (int64, error) {
	if err := validate(body, userFields()...); err != nil {
		return 0, err
	}
	user, err := userFromBody(body)
	if err != nil {
		return 0, err
	}
	var id int64
	err = a.store.Tx(ctx, func(tx store.Store) error {
		if err := a.checkUserUnique(ctx, tx, user); err != nil {
			return err
		}
		qctx, cancel := a.query(ctx)
		defer cancel()
		id, err = tx.CreateUser(qctx, user)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	return id, err
}

// Login verifies credentials and opens a session, returning its token.
func (a *App) Login(ctx context.Context, body validation.Body) (string, error) {
	if err := validate(body, loginFields()...); err != nil {
		return "", err
	}
	qctx, cancel := a.query(ctx)
	defer cancel()
	user, ok, err := a.store.GetUserByUsername(qctx, body.String("username"))
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	// An unknown username leaves PasswordHash empty, which still runs a
	// full comparison.
	match := auth.CheckPassword(rawString(body, "password"), user.PasswordHash)
	if !ok || !match {
		return "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(strconv.FormatInt(user.ID, 10))
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

// Logout ends the session behind token.
func (a *App) Logout(token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrNoSession
	}
	if err := a.sessions.DeleteSession(token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Profile returns the caller's own profile.
func (a *App) Profile(ctx context.Context, identity domain.Identity) (domain.Profile, error) {
	userID, err := requireUser(identity)
	if err != nil {
		return domain.Profile{}, err
	}
	qctx, cancel := a.query(ctx)
	defer cancel()
	profile, ok, err := a.store.GetProfile(qctx, userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	if !ok {
		return domain.Profile{}, store.ErrNotFound
	}
	return profile, nil
}

// UpdateProfile rewrites the caller's profile and password.
func (a *App) UpdateProfile(ctx context.Context, identity domain.Identity, body validation.Body) error {
	userID, err := requireUser(identity)
	if err != nil {
		return err
	}
	if err := validate(body, userFields()...); err != nil {
		return err
	}
	user, err := userFromBody(body)
	if err != nil {
		return err
	}
	user.ID = userID
	return a.store.Tx(ctx, func(tx store.Store) error {
		if err := a.checkUserUnique(ctx, tx, user); err != nil {
			return err
		}
		qctx, cancel := a.query(ctx)
		defer cancel()
		if err := tx.UpdateUser(qctx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	})
}

// DeleteAccount removes the caller's account and ends all of its sessions.
func (a *App) DeleteAccount(ctx context.Context, identity domain.Identity) error {
	userID, err := requireUser(identity)
	if err != nil {
		return err
	}
	qctx, cancel := a.query(ctx)
	defer cancel()
	if err := a.store.DeleteUser(qctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := a.sessions.DeleteUserSessions(strconv.FormatInt(userID, 10)); err != nil {
		return fmt.Errorf("end sessions: %w", err)
	}
	return nil
}

// checkUserUnique rejects a username or email held by another account.
// user.ID is zero on registration, which excludes nobody.
func (a *App) checkUserUnique(ctx context.Context, tx store.Store, user domain.User) error {
	qctx, cancel := a.query(ctx)
	defer cancel()
	taken, err := tx.UsernameTaken(qctx, user.Username, user.ID)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return violation("username", "Username already exists")
	}
	taken, err = tx.EmailTaken(qctx, user.Email, user.ID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return violation("email", "Email already exists")
	}
	return nil
}

func userFromBody(body validation.Body) (domain.User, error) {
	password := rawString(body, "password")
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, &ValidationError{Fields: []validation.FieldError{{
			Field:   "password",
			Message: "Password must be between 6 and 255 characters long",
		}}}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	return domain.User{
		Username:     body.String("username"),
		FullName:     body.String("fullName"),
		Email:        strings.ToLower(body.String("email")),
		PasswordHash: hash,
		Birthdate:    body.String("birthdate"),
	}, nil
}

// rawString returns a string field without trimming; passwords keep their spaces.
func rawString(body validation.Body, name string) string {
	s, _ := body[name].(string)
	return s
}
