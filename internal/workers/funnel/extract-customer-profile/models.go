// internal/workers/funnel/extract-customer-profile/models.go
package extractcustomerprofile

import "funnel-workers/internal/funnel/profile"

type Input struct {
	Prompt string `json:"prompt"`
}

type Output struct {
	Profile profile.CustomerProfile `json:"profile"`
	Cached  bool                    `json:"profileCached"`
}
