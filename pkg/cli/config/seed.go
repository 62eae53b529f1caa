package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/entelligence/pkg/domain/model"
	"github.com/secmon-lab/entelligence/pkg/domain/types"
)

// SeedConfig is the content of a seed file
type SeedConfig struct {
	Sites []Site `toml:"site"`
	Teams []Team `toml:"team"`
	Users []User `toml:"user"`
}

// Site represents a site seed entry
type Site struct {
	TenantID string `toml:"tenant_id"`
	ID       string `toml:"id"`
	Name     string `toml:"name"`
}

// Validate checks if the Site is valid
func (s *Site) Validate() error {
	if s.TenantID == "" || s.ID == "" {
		return goerr.Wrap(ErrInvalidConfig, "site requires tenant_id and id", goerr.V(IDKey, s.ID))
	}
	if s.Name == "" {
		return goerr.Wrap(ErrMissingName, "site name is required", goerr.V(IDKey, s.ID))
	}
	return nil
}

func (s *Site) key() string {
	return s.TenantID + "/" + s.ID
}

// ToDomain converts the entry to a domain Site
func (s *Site) ToDomain() *model.Site {
	return &model.Site{ID: s.ID, TenantID: s.TenantID, Name: s.Name}
}

// Team represents a team seed entry
type Team struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// Validate checks if the Team is valid
func (t *Team) Validate() error {
	id := types.TeamID(t.ID)
	if err := id.Validate(); err != nil {
		return goerr.Wrap(err, "invalid team ID")
	}
	if t.Name == "" {
		return goerr.Wrap(ErrMissingName, "team name is required", goerr.V(IDKey, t.ID))
	}
	return nil
}

// ToDomain converts the entry to a domain Team
func (t *Team) ToDomain() *model.Team {
	return &model.Team{ID: types.TeamID(t.ID), Name: t.Name}
}

// User represents a user seed entry. Password is plain text and is hashed
// when the seed is applied.
type User struct {
	TenantID string `toml:"tenant_id"`
	SiteID   string `toml:"site_id"`
	Email    string `toml:"email"`
	FullName string `toml:"full_name"`
	Password string `toml:"password"`
	Role     string `toml:"role"`
	// Teams lists the IDs of the teams the user joins
	Teams []string `toml:"teams"`
}

// Validate checks if the User is valid
func (u *User) Validate() error {
	if u.TenantID == "" || u.SiteID == "" {
		return goerr.Wrap(ErrInvalidConfig, "user requires tenant_id and site_id", goerr.V(EmailKey, u.Email))
	}
	if u.Email == "" || u.FullName == "" || u.Password == "" {
		return goerr.Wrap(ErrInvalidConfig, "user requires email, full_name and password", goerr.V(EmailKey, u.Email))
	}
	if u.Role != "" {
		if _, err := types.ParseRole(u.Role); err != nil {
			return goerr.Wrap(err, "invalid user role", goerr.V(EmailKey, u.Email))
		}
	}
	return nil
}

// ToCreate converts the entry to a validated user create request
func (u *User) ToCreate() *model.UserCreate {
	role := types.RoleOperator
	if u.Role != "" {
		role = types.Role(u.Role)
	}
	return &model.UserCreate{
		Email:    u.Email,
		FullName: u.FullName,
		Password: u.Password,
		Role:     role,
	}
}

// Validate checks if the SeedConfig is valid
func (c *SeedConfig) Validate() error {
	siteKeys := make(map[string]bool)
	for _, site := range c.Sites {
		if err := site.Validate(); err != nil {
			return goerr.Wrap(err, "invalid site")
		}
		if siteKeys[site.key()] {
			return goerr.Wrap(ErrDuplicateID, "duplicate site ID", goerr.V(IDKey, site.key()))
		}
		siteKeys[site.key()] = true
	}

	teamIDs := make(map[string]bool)
	for _, team := range c.Teams {
		if err := team.Validate(); err != nil {
			return goerr.Wrap(err, "invalid team")
		}
		if teamIDs[team.ID] {
			return goerr.Wrap(ErrDuplicateID, "duplicate team ID", goerr.V(IDKey, team.ID))
		}
		teamIDs[team.ID] = true
	}

	emails := make(map[string]bool)
	for _, user := range c.Users {
		if err := user.Validate(); err != nil {
			return goerr.Wrap(err, "invalid user")
		}
		if emails[user.Email] {
			return goerr.Wrap(ErrDuplicateEmail, "duplicate user email", goerr.V(EmailKey, user.Email))
		}
		emails[user.Email] = true

		site := Site{TenantID: user.TenantID, ID: user.SiteID}
		if !siteKeys[site.key()] {
			return goerr.Wrap(ErrUnknownSite, "user site is not declared", goerr.V(EmailKey, user.Email), goerr.V(IDKey, site.key()))
		}
		for _, teamID := range user.Teams {
			if !teamIDs[teamID] {
				return goerr.Wrap(ErrUnknownTeam, "user team is not declared", goerr.V(EmailKey, user.Email), goerr.V(IDKey, teamID))
			}
		}
	}

	return nil
}

// LoadSeed loads seed data from a TOML file
func LoadSeed(path string) (*SeedConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read seed file", goerr.V(ConfigPathKey, path))
	}

	return ParseSeed(data, path)
}

// ParseSeed parses and validates seed data. path is only used in errors.
func ParseSeed(data []byte, path string) (*SeedConfig, error) {
	var cfg SeedConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML seed", goerr.V(ConfigPathKey, path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "seed validation failed", goerr.V(ConfigPathKey, path))
	}

	return &cfg, nil
}
