// Package betaapplication defines the beta-access application entity, a
// feature the distilled specification left out but the original source
// carries (private-beta signup form ahead of self-serve registration).
package betaapplication

import "time"

// Application is one submission of the beta-access interest form.
type Application struct {
	ID        string
	Name      string
	Email     string
	Company   string
	UseCase   string
	CreatedAt time.Time
}
