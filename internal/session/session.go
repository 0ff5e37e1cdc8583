package session

import "time"

// User is the profile of the signed-in user as shown across the app
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Session is the current authenticated user plus access/refresh tokens
type Session struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// IsAuthenticated reports whether the session carries an access token
func (s Session) IsAuthenticated() bool {
	return s.AccessToken != ""
}

func (s Session) clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// ExternalUser is the user payload returned by the auth provider
type ExternalUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
	Role  string `json:"role"`
}

// ExternalSession is the session issued by the auth provider on sign-in
type ExternalSession struct {
	User         ExternalUser `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}

// FromExternal maps the provider's session into the store's shape
func FromExternal(ext ExternalSession) Session {
	return Session{
		User: &User{
			ID:        ext.User.ID,
			Email:     ext.User.Email,
			FullName:  ext.User.Name,
			Role:      ext.User.Role,
			AvatarURL: ext.User.Image,
		},
		AccessToken:  ext.AccessToken,
		RefreshToken: ext.RefreshToken,
	}
}
