package auth

// State is a read-only snapshot of the session lifecycle for one client.
// Profile is non-nil only when User is non-nil.
type State struct {
	User    *User    `json:"user"`
	Session *Session `json:"-"`
	Profile *Profile `json:"profile"`
	Loading bool     `json:"loading"`
	Error   string   `json:"error,omitempty"`
}

// IsAuthenticated reports whether a user is present.
func (s State) IsAuthenticated() bool { return s.User != nil }

// UserRole returns the profile role, defaulting to user when no profile is loaded.
func (s State) UserRole() Role {
	if s.Profile == nil || s.Profile.Role == "" {
		return RoleUser
	}
	return s.Profile.Role
}

// IsAdmin reports whether the current role is admin.
func (s State) IsAdmin() bool { return s.UserRole() == RoleAdmin }

// IsEditor reports whether the current role is editor or admin.
func (s State) IsEditor() bool {
	role := s.UserRole()
	return role == RoleEditor || role == RoleAdmin
}

// CanCreateBhajan reports whether the actor may author bhajans.
func (s State) CanCreateBhajan() bool { return s.IsEditor() }

// CanReview reports whether the actor may approve or reject submissions.
func (s State) CanReview() bool { return s.IsAdmin() }

// Flags collects the derived permission flags in a serializable form.
type Flags struct {
	IsAuthenticated bool `json:"is_authenticated"`
	UserRole        Role `json:"user_role"`
	IsAdmin         bool `json:"is_admin"`
	IsEditor        bool `json:"is_editor"`
	CanCreateBhajan bool `json:"can_create_bhajan"`
	CanReview       bool `json:"can_review"`
}

// Flags computes the derived permission flags of s.
func (s State) Flags() Flags {
	return Flags{
		IsAuthenticated: s.IsAuthenticated(),
		UserRole:        s.UserRole(),
		IsAdmin:         s.IsAdmin(),
		IsEditor:        s.IsEditor(),
		CanCreateBhajan: s.CanCreateBhajan(),
		CanReview:       s.CanReview(),
	}
}
