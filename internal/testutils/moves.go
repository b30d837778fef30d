// Package testutils holds move fixtures shared by package tests.
package testutils

import "github.com/ahrav/framerank/internal/domain"

var f = domain.Float

// SampleMoves returns five Mario moves with complete frame data and ratings.
// The slice is freshly allocated on every call.
func SampleMoves() []domain.Move {
	return []domain.Move{
		{
			ID: "mario-jab-1", Name: "Mario Jab 1", Character: "mario", Type: "jab",
			StartupFrames: f(3), EndLag: f(15), Damage: f(2.0), OnShield: f(-2),
			Rating: &domain.Rating{OverallRating: 75.5, Tier: "A"},
		},
		{
			ID: "mario-ftilt", Name: "Mario Forward Tilt", Character: "mario", Type: "forward tilt",
			StartupFrames: f(6), EndLag: f(18), Damage: f(9.0), OnShield: f(-5),
			Rating: &domain.Rating{OverallRating: 68.2, Tier: "B"},
		},
		{
			ID: "mario-fsmash", Name: "Mario Forward Smash", Character: "mario", Type: "forward smash",
			StartupFrames: f(15), EndLag: f(35), Damage: f(18.0), OnShield: f(-20),
			Rating: &domain.Rating{OverallRating: 72.1, Tier: "A"},
		},
		{
			ID: "mario-nair", Name: "Mario Neutral Air", Character: "mario", Type: "nair",
			StartupFrames: f(3), EndLag: f(20), Damage: f(8.0), OnShield: f(-8),
			Rating: &domain.Rating{OverallRating: 82.3, Tier: "S"},
		},
		{
			ID: "mario-fair", Name: "Mario Forward Air", Character: "mario", Type: "fair",
			StartupFrames: f(7), EndLag: f(25), Damage: f(12.0), OnShield: f(-12),
			Rating: &domain.Rating{OverallRating: 71.8, Tier: "A"},
		},
	}
}

// RosterMoves returns SampleMoves followed by a set of Fox moves covering
// specials and grabs. Some Fox moves lack frame data fields.
func RosterMoves() []domain.Move {
	return append(SampleMoves(),
		domain.Move{
			ID: "fox-jab-1", Name: "Fox Jab 1", Character: "fox", Type: "jab",
			StartupFrames: f(2), EndLag: f(12), Damage: f(1.8), OnShield: f(-4),
		},
		domain.Move{
			ID: "fox-usmash", Name: "Fox Up Smash", Character: "fox", Type: "up smash",
			StartupFrames: f(7), EndLag: f(33), Damage: f(16.0), OnShield: f(-22),
		},
		domain.Move{
			ID: "fox-reflector", Name: "Fox Reflector", Character: "fox", Type: "down special",
			StartupFrames: f(1), EndLag: f(20), Damage: f(5.0),
		},
		domain.Move{
			ID: "fox-grab", Name: "Fox Grab", Character: "fox", Type: "grab",
			StartupFrames: f(6), EndLag: f(30),
		},
		domain.Move{
			ID: "fox-nair", Name: "Fox Neutral Air", Character: "fox", Type: "nair",
			StartupFrames: f(3), EndLag: f(18), Damage: f(9.0), OnShield: f(-4), LandingLag: f(7),
		},
	)
}
