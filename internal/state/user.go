package state

import "sync"

// Profile is the signed-in user as the UI needs it.
type Profile struct {
	Username string
	Email    string
	IsAdmin  bool
}

// User tracks the current session. A zero User is signed out.
type User struct {
	mu      sync.Mutex
	profile Profile
	token   string
	signed  bool
}

// SignIn stores the profile and raw token for the session.
func (u *User) SignIn(p Profile, token string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.profile = p
	u.token = token
	u.signed = true
}

// SignOut clears the session.
func (u *User) SignOut() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.profile = Profile{}
	u.token = ""
	u.signed = false
}

// Profile returns the current profile and whether a user is signed in.
func (u *User) Profile() (Profile, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.profile, u.signed
}

// Token returns the raw bearer token, empty when signed out.
func (u *User) Token() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.token
}

// IsAdmin reports whether the signed-in user carries the admin claim.
func (u *User) IsAdmin() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.signed && u.profile.IsAdmin
}
