package models

import "strings"

// Skill is one provider capability, optionally verified by the platform.
type Skill struct {
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

// Profile is an actor's identity and display data, keyed by actor id in the
// store. Skills are provider-only; client profiles carry an empty list.
type Profile struct {
	FullName         string   `json:"fullName"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone"`
	Location         string   `json:"location"`
	Communities      []string `json:"communities"`
	DefaultCommunity string   `json:"defaultCommunity"`
	Bio              string   `json:"bio"`
	ProfilePic       string   `json:"profilePic"`
	Skills           []Skill  `json:"skills"`
}

// FirstName returns the first word of the full name, or the fallback when the
// name is empty.
func (p Profile) FirstName(fallback string) string {
	fields := strings.Fields(p.FullName)
	if len(fields) == 0 {
		return fallback
	}
	return fields[0]
}

// SkillSummary joins skill names for compact display ("Construction, Electrical").
func (p Profile) SkillSummary() string {
	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}

// Avatar returns the profile picture, falling back to a generated placeholder.
func (p Profile) Avatar() string {
	if p.ProfilePic != "" {
		return p.ProfilePic
	}
	name := strings.ReplaceAll(p.FullName, " ", "+")
	return "https://ui-avatars.com/api/?name=" + name + "&size=200"
}

// DefaultProfile builds the bootstrap profile written on an actor's first
// login when no stored profile exists yet.
func DefaultProfile(actorID string) Profile {
	return Profile{
		FullName:         actorID,
		Location:         "Baguio City",
		Communities:      []string{"Baguio City"},
		DefaultCommunity: "Baguio City",
		Bio:              "Hello! I'm " + actorID + ".",
		ProfilePic:       "https://ui-avatars.com/api/?name=" + actorID + "&size=200",
		Skills:           []Skill{},
	}
}
